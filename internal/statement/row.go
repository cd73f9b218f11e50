package statement

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tithing/internal/model"
)

// columns is the expected header of a statement export, in field order.
var columns = []string{"Date", "Amount", "Type", "Category", "Description"}

const (
	dateFormat  = "1/2/2006" // accepts 09/15/2025 and 9/15/2025
	numFields   = 5
	colDate     = 0
	colAmount   = 1
	colType     = 2
	colCategory = 3
	colDesc     = 4
)

var errNotANumber = errors.New("not a number")

// ParseRow converts one CSV record into a Transaction. Exactly one of the
// return values is meaningful: a nil *RowError means the Transaction is valid.
func ParseRow(rec []string, line int, raw string) (model.Transaction, *model.RowError) {
	if len(rec) != numFields {
		return model.Transaction{}, rowError(line, raw, model.ReasonStructural,
			"expected %d fields, got %d", numFields, len(rec))
	}

	dateStr := cleanField(rec[colDate])
	date, err := parseDate(dateStr)
	if err != nil {
		return model.Transaction{}, rowError(line, raw, model.ReasonDate,
			"parsing date %q (expected MM/DD/YYYY)", dateStr)
	}

	amountStr := cleanField(rec[colAmount])
	amount, err := parseAmount(amountStr)
	if err != nil {
		return model.Transaction{}, rowError(line, raw, model.ReasonAmount,
			"parsing amount %q: %v", amountStr, err)
	}

	return model.Transaction{
		Date:        date,
		Amount:      amount,
		Type:        cleanField(rec[colType]),
		Category:    cleanField(rec[colCategory]),
		Description: cleanField(rec[colDesc]),
		Line:        line,
	}, nil
}

func rowError(line int, raw string, reason model.RowReason, format string, args ...any) *model.RowError {
	return &model.RowError{
		Line:   line,
		Raw:    raw,
		Reason: reason,
		Detail: fmt.Sprintf(format, args...),
	}
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateFormat, s)
}

// parseAmount accepts values like "1000.00", "+1,000.00", "-$50.00" and "$-50.00".
func parseAmount(s string) (decimal.Decimal, error) {
	v := strings.ReplaceAll(s, ",", "")

	sign := ""
	if hasSign(v) {
		sign, v = v[:1], v[1:]
	}
	if strings.HasPrefix(v, "$") {
		v = strings.TrimSpace(v[1:])
		if sign == "" && hasSign(v) {
			sign, v = v[:1], v[1:]
		}
	}
	if v == "" || hasSign(v) || strings.ContainsAny(v, "eE") {
		return decimal.Zero, errNotANumber
	}

	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, errNotANumber
	}
	if sign == "-" {
		d = d.Neg()
	}
	return d, nil
}

func hasSign(s string) bool {
	return s != "" && (s[0] == '-' || s[0] == '+')
}

// cleanField trims whitespace and any quote characters the export left
// around the value.
func cleanField(s string) string {
	s = strings.TrimSpace(s)
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first != '"' && first != '\'') || first != last {
			break
		}
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// Columns returns the expected header of a statement export, in field order.
func Columns() []string {
	return append([]string(nil), columns...)
}
