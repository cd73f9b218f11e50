package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tithing/internal/model"
	"github.com/cleared-dev/tithing/internal/tithe"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleResult() *tithe.Result {
	return &tithe.Result{
		Matches: []tithe.Match{
			{
				Transaction: model.Transaction{
					Date:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
					Amount:      dec("1000"),
					Type:        "Credit",
					Category:    "Payroll",
					Description: "MWD MILLWORK DEV PAYROLL, INC",
					Line:        2,
				},
				Tithe: dec("100"),
			},
			{
				Transaction: model.Transaction{
					Date:        time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC),
					Amount:      dec("1250.05"),
					Type:        "*",
					Description: "MWD MILLWORK DEV PAYROLL",
					Line:        9,
				},
				Tithe: dec("125.01"),
			},
		},
		TotalMatched: dec("2250.05"),
		Rate:         dec("0.10"),
		TotalTithe:   dec("225.01"),
		RowErrors: []model.RowError{
			{Line: 4, Raw: "06/02/2025,abc,a,b,c", Reason: model.ReasonAmount, Detail: `parsing amount "abc": not a number`},
		},
		Start:      time.Date(2025, 5, 27, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC),
		DescFilter: "MILLWORK DEV PAYROLL",
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatJSON, "json": FormatJSON, " CSV ": FormatCSV, "csv": FormatCSV} {
		got, err := ParseFormat(in)
		require.NoError(t, err, "ParseFormat(%q)", in)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("xml")
	require.Error(t, err)
	assert.Equal(t, model.KindParameter, model.KindOf(err))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleResult()))

	want := "Date,Amount,Type,Category,Description,Tithe\n" +
		"06/01/2025,1000.00,Credit,Payroll,\"MWD MILLWORK DEV PAYROLL, INC\",100.00\n" +
		"07/15/2025,1250.05,*,,MWD MILLWORK DEV PAYROLL,125.01\n" +
		"\n" +
		"Total Matched,2250.05\n" +
		"Total Tithe,225.01\n"
	assert.Equal(t, want, buf.String())
	assert.NotContains(t, buf.String(), "abc", "row errors are not embedded")
}

func TestWriteCSV_NoMatches(t *testing.T) {
	res := &tithe.Result{TotalMatched: decimal.Zero, TotalTithe: decimal.Zero, Rate: dec("0.1")}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, res))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"Date,Amount,Type,Category,Description,Tithe",
		"",
		"Total Matched,0.00",
		"Total Tithe,0.00",
	}, lines)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleResult()))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, float64(2), got["count"])
	assert.Equal(t, "2250.05", got["total_matched_amount"])
	assert.Equal(t, "225.01", got["total_tithe"])
	assert.Equal(t, "0.1", got["tithe_rate"])

	filters := got["filters"].(map[string]any)
	assert.Equal(t, "2025-05-27", filters["start"])
	assert.Equal(t, "2025-09-30", filters["end"])
	assert.Equal(t, "MILLWORK DEV PAYROLL", filters["desc_contains"])
	assert.Equal(t, false, filters["case_sensitive"])

	matched := got["matched_transactions"].([]any)
	require.Len(t, matched, 2)
	first := matched[0].(map[string]any)
	assert.Equal(t, "2025-06-01", first["date"])
	assert.Equal(t, "1000.00", first["amount"])
	assert.Equal(t, "100.00", first["tithe"])
	assert.Equal(t, float64(2), first["line"])

	rowErrs := got["row_errors"].([]any)
	require.Len(t, rowErrs, 1)
	rowErr := rowErrs[0].(map[string]any)
	assert.Equal(t, float64(4), rowErr["line_number"])
	assert.Equal(t, "06/02/2025,abc,a,b,c", rowErr["raw_content"])
	assert.Equal(t, "amount", rowErr["reason"])
}

func TestNewSummary_EmptyListsAreArrays(t *testing.T) {
	res := &tithe.Result{TotalMatched: decimal.Zero, TotalTithe: decimal.Zero, Rate: dec("0.1")}
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, res))
	assert.Contains(t, buf.String(), `"matched_transactions": []`)
	assert.Contains(t, buf.String(), `"row_errors": []`)
}

func TestRender(t *testing.T) {
	out, err := Render(sampleResult(), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", out.ContentType)
	assert.Equal(t, "tithing_report.csv", out.Filename)
	assert.True(t, bytes.HasPrefix(out.Body, []byte("Date,Amount")))

	out, err = Render(sampleResult(), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "application/json", out.ContentType)
	assert.True(t, json.Valid(out.Body))

	_, err = Render(sampleResult(), Format("pdf"))
	assert.Error(t, err)
}

func TestErrorLines(t *testing.T) {
	assert.Equal(t, []int{4, 8}, ErrorLines([]model.RowError{{Line: 4}, {Line: 8}}))
	assert.Empty(t, ErrorLines(nil))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteCSV_ErrorNamesSourceLine(t *testing.T) {
	res := sampleResult()
	// Longer than the csv writer's buffer, so the write reaches failingWriter.
	res.Matches[1].Transaction.Description = strings.Repeat("x", 8192)

	err := WriteCSV(failingWriter{}, res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 9")
}
