package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/cleared-dev/tithing/internal/tithe"
)

// TitheColumn is appended to the statement columns in CSV output.
const TitheColumn = "Tithe"

const statementDate = "01/02/2006"

var csvHeader = []string{"Date", "Amount", "Type", "Category", "Description", TitheColumn}

// WriteCSV writes the matched rows with a per-row tithe, then a blank line
// and the totals.
func WriteCSV(w io.Writer, res *tithe.Result) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, m := range res.Matches {
		t := m.Transaction
		row := []string{
			t.Date.Format(statementDate),
			t.Amount.StringFixed(2),
			t.Type,
			t.Category,
			t.Description,
			m.Tithe.StringFixed(2),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row for line %d: %w", t.Line, err)
		}
	}

	totals := [][]string{
		nil,
		{"Total Matched", res.TotalMatched.StringFixed(2)},
		{"Total Tithe", res.TotalTithe.StringFixed(2)},
	}
	for _, row := range totals {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing totals: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
