package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"

	ledgerdomain "allowance-app-go/internal/domain/ledger"
	"github.com/spf13/cobra"
)

func newExportCommand(opts *rootOptions) *cobra.Command {
	var (
		childID int64
		out     string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a child's transaction history as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()

			entries, err := application.Ledger().ListTransactions(cmd.Context(), childID)
			if err != nil {
				return err
			}

			if out == "" || out == "-" {
				return ledgerdomain.WriteTransactionsCSV(cmd.OutOrStdout(), entries)
			}
			return writeFile(out, func(w io.Writer) error {
				return ledgerdomain.WriteTransactionsCSV(w, entries)
			})
		},
	}
	cmd.Flags().Int64Var(&childID, "child", 0, "Child id")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (defaults to stdout)")
	_ = cmd.MarkFlagRequired("child")
	return cmd
}

func newReleaseCommand(opts *rootOptions) *cobra.Command {
	var childID int64
	cmd := &cobra.Command{
		Use:   "release",
		Short: "Credit a child's monthly allowance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()

			child, err := application.Ledger().ReleaseAllowance(cmd.Context(), childID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "released %s to %s, balance %s\n",
				child.MonthlyAllowance.StringFixed(2), child.Name, child.Balance.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().Int64Var(&childID, "child", 0, "Child id")
	_ = cmd.MarkFlagRequired("child")
	return cmd
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	if err := write(w); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
