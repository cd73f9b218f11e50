package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents one parsed statement row.
type Transaction struct {
	Date        time.Time
	Amount      decimal.Decimal // negative = debit, positive = deposit
	Type        string
	Category    string
	Description string
	Line        int // 1-based line in the source document
}

// RowReason classifies why a row could not be parsed.
type RowReason string

const (
	ReasonStructural RowReason = "structural"
	ReasonDate       RowReason = "date"
	ReasonAmount     RowReason = "amount"
)

// RowError describes a single malformed statement row.
type RowError struct {
	Line   int
	Raw    string
	Reason RowReason
	Detail string
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d [%s]: %s", e.Line, e.Reason, e.Detail)
}
