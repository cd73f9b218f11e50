package commands

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tithing/internal/model"
	"github.com/cleared-dev/tithing/internal/report"
	"github.com/cleared-dev/tithing/internal/tithe"
)

type calcFlags struct {
	start         string
	end           string
	desc          string
	caseSensitive bool
	rate          string
	format        string
	output        string
	headerless    bool
}

func newCalcCommand(gf *globalFlags) *cobra.Command {
	var f calcFlags

	cmd := &cobra.Command{
		Use:   "calc <statement.csv>",
		Short: "Compute the tithe for a statement export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalc(cmd, gf, &f, args[0])
		},
	}

	cmd.Flags().StringVar(&f.start, "start", "", "start date YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&f.end, "end", "", "end date YYYY-MM-DD, inclusive (required)")
	cmd.Flags().StringVar(&f.desc, "desc", "", "description substring to match")
	cmd.Flags().BoolVar(&f.caseSensitive, "case-sensitive", false, "match the description case-sensitively")
	cmd.Flags().StringVar(&f.rate, "rate", "", "tithe rate, e.g. 0.10")
	cmd.Flags().StringVar(&f.format, "format", "", "output format: json or csv")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&f.headerless, "headerless", false, "accept exports without a header row")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func runCalc(cmd *cobra.Command, gf *globalFlags, f *calcFlags, path string) error {
	cfg, err := loadConfig(cmd, gf)
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd.ErrOrStderr(), cfg.Log.Level)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading statement: %w", err)
	}

	raw := tithe.RawQuery{
		Start:        f.start,
		End:          f.end,
		DescContains: f.desc,
		Rate:         f.rate,
	}
	if cmd.Flags().Changed("case-sensitive") {
		raw.CaseSensitive = strconv.FormatBool(f.caseSensitive)
	}
	q, err := tithe.ParseQuery(raw, cfg.QueryDefaults())
	if err != nil {
		return err
	}

	formatName := f.format
	if formatName == "" {
		formatName = cfg.Defaults.Format
	}
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}

	opts := cfg.ParserOptions()
	if cmd.Flags().Changed("headerless") {
		opts.AllowHeaderless = f.headerless
	}

	res, err := tithe.Calculate(data, q, opts)
	if err != nil {
		var pe *model.Error
		if errors.As(err, &pe) {
			for _, row := range pe.Rows {
				logger.Error("row error", "line", row.Line, "reason", row.Reason, "detail", row.Detail)
			}
		}
		return fmt.Errorf("calculating %s: %w", path, err)
	}
	for _, row := range res.RowErrors {
		logger.Warn("skipped row", "line", row.Line, "reason", row.Reason, "detail", row.Detail, "raw", row.Raw)
	}
	logger.Debug("tithe computed",
		"file", path,
		"matches", len(res.Matches),
		"total", res.TotalMatched.StringFixed(2),
		"tithe", res.TotalTithe.StringFixed(2),
	)

	out, err := report.Render(res, format)
	if err != nil {
		return err
	}

	if f.output != "" {
		if err := os.WriteFile(f.output, out.Body, 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		logger.Info("wrote report", "path", f.output, "tithe", res.TotalTithe.StringFixed(2))
		return nil
	}
	_, err = cmd.OutOrStdout().Write(out.Body)
	return err
}
