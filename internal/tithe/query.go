package tithe

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tithing/internal/model"
)

// DefaultDescFilter is the description substring matched when none is given.
const DefaultDescFilter = "MILLWORK DEV PAYROLL"

// ParamDateFormat is the layout of the start and end parameters.
const ParamDateFormat = "2006-01-02"

// DefaultRate is the tithe rate applied when none is given.
var DefaultRate = decimal.RequireFromString("0.10")

var maxRate = decimal.NewFromInt(1)

// RawQuery holds request parameters exactly as received. Blank fields fall
// back to Defaults.
type RawQuery struct {
	Start         string
	End           string
	DescContains  string
	CaseSensitive string
	Rate          string
}

// Defaults supplies values for optional parameters.
type Defaults struct {
	DescContains  string
	CaseSensitive bool
	Rate          decimal.Decimal
}

// StandardDefaults returns the built-in parameter defaults.
func StandardDefaults() Defaults {
	return Defaults{
		DescContains: DefaultDescFilter,
		Rate:         DefaultRate,
	}
}

// Query is a validated set of filter and rate parameters.
type Query struct {
	Start         time.Time
	End           time.Time // inclusive
	DescFilter    string
	CaseSensitive bool
	Rate          decimal.Decimal
}

// ParseQuery validates raw parameters and applies defaults.
func ParseQuery(raw RawQuery, def Defaults) (Query, error) {
	start, err := parseParamDate("start", raw.Start)
	if err != nil {
		return Query{}, err
	}
	end, err := parseParamDate("end", raw.End)
	if err != nil {
		return Query{}, err
	}

	q := Query{
		Start:         start,
		End:           end,
		DescFilter:    raw.DescContains,
		CaseSensitive: def.CaseSensitive,
		Rate:          def.Rate,
	}
	if strings.TrimSpace(q.DescFilter) == "" {
		q.DescFilter = def.DescContains
	}
	if strings.TrimSpace(q.DescFilter) == "" {
		q.DescFilter = DefaultDescFilter
	}
	if q.Rate.IsZero() {
		q.Rate = DefaultRate
	}

	if s := strings.TrimSpace(raw.CaseSensitive); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Query{}, model.Parameter("case_sensitive must be true or false, got %q", s)
		}
		q.CaseSensitive = b
	}

	if s := strings.TrimSpace(raw.Rate); s != "" {
		rate, err := decimal.NewFromString(s)
		if err != nil {
			return Query{}, model.Parameter("rate must be a decimal number, got %q", s)
		}
		q.Rate = rate
	}

	if err := q.Validate(); err != nil {
		return Query{}, err
	}
	return q, nil
}

// Validate checks the range and rate constraints.
func (q Query) Validate() error {
	if q.Start.After(q.End) {
		return model.Parameter("start %s is after end %s",
			q.Start.Format(ParamDateFormat), q.End.Format(ParamDateFormat))
	}
	if !q.Rate.IsPositive() {
		return model.Parameter("rate must be greater than 0, got %s", q.Rate)
	}
	if q.Rate.GreaterThan(maxRate) {
		return model.Parameter("rate must not exceed 1, got %s", q.Rate)
	}
	return nil
}

func parseParamDate(name, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, model.Parameter("%s is required (YYYY-MM-DD)", name)
	}
	d, err := time.Parse(ParamDateFormat, s)
	if err != nil {
		return time.Time{}, model.Parameter("%s must be in YYYY-MM-DD format, got %q", name, s)
	}
	return d, nil
}
