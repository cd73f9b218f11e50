package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cleared-dev/tithing/internal/tithe"
)

const isoDate = "2006-01-02"

// Summary is the JSON shape of a Result.
type Summary struct {
	Filters            Filters    `json:"filters"`
	Count              int        `json:"count"`
	TotalMatchedAmount string     `json:"total_matched_amount"`
	TitheRate          string     `json:"tithe_rate"`
	TotalTithe         string     `json:"total_tithe"`
	Matched            []MatchRow `json:"matched_transactions"`
	RowErrors          []RowError `json:"row_errors"`
}

// Filters echoes the effective query.
type Filters struct {
	Start         string `json:"start"`
	End           string `json:"end"`
	DescContains  string `json:"desc_contains"`
	CaseSensitive bool   `json:"case_sensitive"`
	Rate          string `json:"rate"`
}

// MatchRow is one matched transaction with its tithe.
type MatchRow struct {
	Line        int    `json:"line"`
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Tithe       string `json:"tithe"`
}

// RowError is one row that failed to parse.
type RowError struct {
	LineNumber int    `json:"line_number"`
	RawContent string `json:"raw_content"`
	Reason     string `json:"reason"`
	Detail     string `json:"detail"`
}

// NewSummary converts res into its JSON shape.
func NewSummary(res *tithe.Result) Summary {
	s := Summary{
		Filters: Filters{
			Start:         res.Start.Format(isoDate),
			End:           res.End.Format(isoDate),
			DescContains:  res.DescFilter,
			CaseSensitive: res.CaseSensitive,
			Rate:          res.Rate.String(),
		},
		Count:              len(res.Matches),
		TotalMatchedAmount: res.TotalMatched.StringFixed(2),
		TitheRate:          res.Rate.String(),
		TotalTithe:         res.TotalTithe.StringFixed(2),
		Matched:            make([]MatchRow, 0, len(res.Matches)),
		RowErrors:          RowErrors(res.RowErrors),
	}
	for _, m := range res.Matches {
		t := m.Transaction
		s.Matched = append(s.Matched, MatchRow{
			Line:        t.Line,
			Date:        t.Date.Format(isoDate),
			Amount:      t.Amount.StringFixed(2),
			Type:        t.Type,
			Category:    t.Category,
			Description: t.Description,
			Tithe:       m.Tithe.StringFixed(2),
		})
	}
	return s
}

// WriteJSON writes res as an indented JSON Summary.
func WriteJSON(w io.Writer, res *tithe.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewSummary(res)); err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	return nil
}
