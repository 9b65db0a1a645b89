package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
)

var transactionsCSVHeader = []string{"Date", "Type", "Description", "Amount", "Balance"}

// WriteTransactionsCSV writes entries as a spreadsheet-friendly history
// report, one row per entry in the given order.
func WriteTransactionsCSV(w io.Writer, entries []HistoryEntry) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(transactionsCSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, entry := range entries {
		row := []string{
			entry.CreatedAt.Format(birthDateLayout),
			string(entry.Kind),
			entry.Description,
			entry.Amount.StringFixed(2),
			entry.BalanceAfter.StringFixed(2),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", entry.ID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
