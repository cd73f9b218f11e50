// Package report renders a tithe Result as a JSON summary or an annotated CSV.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/cleared-dev/tithing/internal/model"
	"github.com/cleared-dev/tithing/internal/tithe"
)

// Format selects the output rendering.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Output is a rendered report ready for download.
type Output struct {
	Body        []byte
	ContentType string
	Filename    string
}

// ParseFormat validates a requested format. Blank means JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", model.Parameter("format must be json or csv, got %q", s)
	}
}

// Render formats res in the requested format.
func Render(res *tithe.Result, f Format) (Output, error) {
	var buf bytes.Buffer
	switch f {
	case FormatJSON:
		if err := WriteJSON(&buf, res); err != nil {
			return Output{}, err
		}
		return Output{Body: buf.Bytes(), ContentType: "application/json", Filename: "tithing_report.json"}, nil
	case FormatCSV:
		if err := WriteCSV(&buf, res); err != nil {
			return Output{}, err
		}
		return Output{Body: buf.Bytes(), ContentType: "text/csv", Filename: "tithing_report.csv"}, nil
	default:
		return Output{}, fmt.Errorf("unknown format %q", f)
	}
}
