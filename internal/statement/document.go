package statement

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/cleared-dev/tithing/internal/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Options controls document-level parsing.
type Options struct {
	// AllowHeaderless treats a first record whose date parses as data rather
	// than rejecting it as a bad header. Wells Fargo exports ship without one.
	AllowHeaderless bool
}

// Document is the parsed body of a statement export.
type Document struct {
	Transactions []model.Transaction
	RowErrors    []model.RowError
}

// Parse reads a whole statement export. Row-level problems are collected in
// Document.RowErrors; only document-level problems return an error.
func Parse(data []byte, opts Options) (*Document, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, model.Structural(model.ErrEmptyFile, "uploaded file has no content")
	}
	if !utf8.Valid(data) {
		return nil, model.Structural(model.ErrEncoding, "decoding upload")
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1

	doc := &Document{}
	headerSeen := false
	bodyRows := 0
	var offset int64

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		next := cr.InputOffset()
		raw := strings.Trim(string(data[offset:next]), "\r\n")
		offset = next

		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return nil, model.Structural(err, "reading CSV")
			}
			if !headerSeen {
				return nil, model.Structural(model.ErrHeader, "line %d: %v", pe.StartLine, pe.Err)
			}
			bodyRows++
			doc.RowErrors = append(doc.RowErrors, model.RowError{
				Line:   pe.StartLine,
				Raw:    raw,
				Reason: model.ReasonStructural,
				Detail: pe.Err.Error(),
			})
			continue
		}

		if isBlank(rec) {
			continue
		}
		line, _ := cr.FieldPos(0)

		if !headerSeen {
			headerSeen = true
			if isHeader(rec) {
				continue
			}
			if !opts.AllowHeaderless || !looksLikeData(rec) {
				return nil, model.Structural(model.ErrHeader, "line %d: expected %q, got %q",
					line, strings.Join(columns, ","), raw)
			}
		}

		bodyRows++
		txn, rowErr := ParseRow(rec, line, raw)
		if rowErr != nil {
			doc.RowErrors = append(doc.RowErrors, *rowErr)
			continue
		}
		doc.Transactions = append(doc.Transactions, txn)
	}

	if !headerSeen {
		return nil, model.Structural(model.ErrEmptyFile, "uploaded file has no rows")
	}
	if bodyRows > 0 && len(doc.Transactions) == 0 {
		return nil, model.AllRowsFailed(doc.RowErrors)
	}
	return doc, nil
}

// String summarizes the document for logs.
func (d *Document) String() string {
	return fmt.Sprintf("%d transactions, %d row errors", len(d.Transactions), len(d.RowErrors))
}

func isHeader(rec []string) bool {
	if len(rec) != len(columns) {
		return false
	}
	for i, col := range columns {
		if !strings.EqualFold(cleanField(rec[i]), col) {
			return false
		}
	}
	return true
}

func looksLikeData(rec []string) bool {
	if len(rec) == 0 {
		return false
	}
	_, err := parseDate(cleanField(rec[colDate]))
	return err == nil
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if cleanField(f) != "" {
			return false
		}
	}
	return true
}
