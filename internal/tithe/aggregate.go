package tithe

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tithing/internal/model"
)

// Match is a transaction that passed every filter, with its own tithe.
type Match struct {
	Transaction model.Transaction
	Tithe       decimal.Decimal
}

// Result is the outcome of one calculation.
type Result struct {
	Matches       []Match
	TotalMatched  decimal.Decimal
	Rate          decimal.Decimal
	TotalTithe    decimal.Decimal
	RowErrors     []model.RowError
	Start         time.Time
	End           time.Time
	DescFilter    string
	CaseSensitive bool
}

// Transactions returns the matched transactions in document order.
func (r *Result) Transactions() []model.Transaction {
	txns := make([]model.Transaction, len(r.Matches))
	for i, m := range r.Matches {
		txns[i] = m.Transaction
	}
	return txns
}

// Round2 rounds half away from zero to cents.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Aggregate filters txns by q and totals the deposits that match.
//
// Per-row tithes are rounded independently, so their sum can differ from
// TotalTithe by a few cents.
func Aggregate(txns []model.Transaction, q Query) (*Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	m := newMatcher(q)
	res := &Result{
		Matches:       []Match{},
		TotalMatched:  decimal.Zero,
		RowErrors:     []model.RowError{},
		Rate:          q.Rate,
		Start:         q.Start,
		End:           q.End,
		DescFilter:    q.DescFilter,
		CaseSensitive: q.CaseSensitive,
	}

	for _, txn := range txns {
		if !m.matches(txn) {
			continue
		}
		res.Matches = append(res.Matches, Match{
			Transaction: txn,
			Tithe:       Round2(txn.Amount.Mul(q.Rate)),
		})
		res.TotalMatched = res.TotalMatched.Add(txn.Amount)
	}
	res.TotalTithe = Round2(res.TotalMatched.Mul(q.Rate))
	return res, nil
}

type matcher struct {
	start, end    time.Time
	needle        string
	caseSensitive bool
}

func newMatcher(q Query) matcher {
	m := matcher{start: q.Start, end: q.End, needle: q.DescFilter, caseSensitive: q.CaseSensitive}
	if !m.caseSensitive {
		m.needle = strings.ToLower(m.needle)
	}
	return m
}

func (m matcher) matches(txn model.Transaction) bool {
	if txn.Date.Before(m.start) || txn.Date.After(m.end) {
		return false
	}
	if !txn.Amount.IsPositive() {
		return false
	}
	hay := txn.Description
	if !m.caseSensitive {
		hay = strings.ToLower(hay)
	}
	return strings.Contains(hay, m.needle)
}
