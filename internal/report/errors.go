package report

import "github.com/cleared-dev/tithing/internal/model"

// RowErrors converts row errors into their JSON shape. The result is never nil.
func RowErrors(errs []model.RowError) []RowError {
	out := make([]RowError, 0, len(errs))
	for _, e := range errs {
		out = append(out, RowError{
			LineNumber: e.Line,
			RawContent: e.Raw,
			Reason:     string(e.Reason),
			Detail:     e.Detail,
		})
	}
	return out
}

// ErrorLines returns the line numbers of errs in order.
func ErrorLines(errs []model.RowError) []int {
	lines := make([]int, len(errs))
	for i, e := range errs {
		lines[i] = e.Line
	}
	return lines
}
