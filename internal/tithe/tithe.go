// Package tithe filters parsed statement transactions and computes the
// tithe owed on matching deposits.
package tithe

import (
	"github.com/cleared-dev/tithing/internal/statement"
)

// Calculate parses a statement export and aggregates it against q. Row
// errors are carried on the Result; any returned error is fatal.
func Calculate(data []byte, q Query, opts statement.Options) (*Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	doc, err := statement.Parse(data, opts)
	if err != nil {
		return nil, err
	}

	res, err := Aggregate(doc.Transactions, q)
	if err != nil {
		return nil, err
	}
	if len(doc.RowErrors) > 0 {
		res.RowErrors = doc.RowErrors
	}
	return res, nil
}
