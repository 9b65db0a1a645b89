package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"allowance-app-go/internal/app"
	"allowance-app-go/internal/config"
	ledgerdomain "allowance-app-go/internal/domain/ledger"
	"allowance-app-go/pkg/logger"
	"github.com/shopspring/decimal"
)

func setupSQLite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STORE_DRIVER", config.StoreSQLite)
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "allowance.db"))
	t.Setenv("AUTH_TOKEN_SECRET", "test-secret")
	t.Setenv("AUTH_PASSWORD_COST", "4")
	return dir
}

func seedChild(t *testing.T, log logger.Logger) int64 {
	t.Helper()
	ctx := context.Background()
	cfg, err := config.Load(log, "")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	application, err := app.New(ctx, cfg, log)
	if err != nil {
		t.Fatalf("open app: %v", err)
	}
	defer application.Close()

	child, err := application.Ledger().AddChild(ctx, ledgerdomain.CreateChildInput{
		ParentID:         "parent-1",
		FirstName:        "Ana",
		TicketNumber:     "T1",
		BirthDate:        "2015-03-01",
		Password:         "ana123",
		MonthlyAllowance: decimal.RequireFromString("25"),
	})
	if err != nil {
		t.Fatalf("add child: %v", err)
	}
	return child.ID
}

func run(t *testing.T, log logger.Logger, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand(log)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestReleaseThenExport(t *testing.T) {
	dir := setupSQLite(t)
	log := logger.New(io.Discard, slog.LevelError, "text")
	childID := strconv.FormatInt(seedChild(t, log), 10)

	out, err := run(t, log, "release", "--child", childID)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if !strings.Contains(out, "released 25.00 to Ana, balance 25.00") {
		t.Fatalf("unexpected release output %q", out)
	}

	out, err = run(t, log, "export", "--child", childID)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || lines[0] != "Date,Type,Description,Amount,Balance" {
		t.Fatalf("unexpected csv %q", out)
	}
	if !strings.Contains(lines[1], "Monthly allowance,25.00,25.00") {
		t.Fatalf("unexpected row %q", lines[1])
	}

	path := filepath.Join(dir, "history.csv")
	if _, err := run(t, log, "export", "--child", childID, "--out", path); err != nil {
		t.Fatalf("export to file: %v", err)
	}
	written, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if strings.TrimSpace(string(written)) != strings.TrimSpace(out) {
		t.Fatalf("file export differs from stdout\nfile: %q\nstdout: %q", written, out)
	}
}

func TestReleaseUnknownChild(t *testing.T) {
	setupSQLite(t)
	log := logger.New(io.Discard, slog.LevelError, "text")

	if _, err := run(t, log, "release", "--child", "42"); err == nil {
		t.Fatalf("expected error for unknown child")
	}
}

func TestChildFlagRequired(t *testing.T) {
	setupSQLite(t)
	log := logger.New(io.Discard, slog.LevelError, "text")

	if _, err := run(t, log, "export"); err == nil {
		t.Fatalf("expected missing flag error")
	}
}
