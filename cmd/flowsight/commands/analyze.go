package commands

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/flowsight/flowsight/cmd/flowsight/internal/format"
	"github.com/flowsight/flowsight/pkg/analytics/prcurve"
	"github.com/flowsight/flowsight/pkg/analytics/view"
	"github.com/flowsight/flowsight/pkg/appctx"
	"github.com/flowsight/flowsight/pkg/dataset"
	"github.com/flowsight/flowsight/pkg/dataset/csvio"
	fserrors "github.com/flowsight/flowsight/pkg/errors"
	"github.com/flowsight/flowsight/pkg/scoring"
)

var (
	analyzeTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75"))
	analyzeSectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
	analyzeSubtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// analyzeReport is the JSON-mode output of the analyze command.
type analyzeReport struct {
	Filename       string                 `json:"filename"`
	RowCount       int                    `json:"row_count"`
	AnomalyCount   int                    `json:"anomaly_count"`
	AnomalyRate    float64                `json:"anomaly_rate"`
	Validation     csvio.ValidationReport `json:"validation"`
	LabelBreakdown map[string]int         `json:"label_breakdown"`
	AttackTaxonomy map[string]int         `json:"attack_taxonomy"`
	PRCurve        *prcurve.Curve         `json:"pr_curve,omitempty"`
	PRUnavailable  string                 `json:"pr_unavailable,omitempty"`
}

// newAnalyzeCommand creates the 'flowsight analyze' command: a one-shot
// offline analysis of a flow capture CSV without starting the server. The
// file is decoded, scored with the built-in heuristic, and summarized on the
// terminal the same way the dashboard would render it.
func newAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "analyze <file.csv>",
		Short:   "Score and summarize a flow capture CSV offline",
		GroupID: "analysis",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := format.FromCommand(cmd)

			labelHint, _ := cmd.Flags().GetString("label-hint")
			exportPath, _ := cmd.Flags().GetString("export")

			cfg, ok := appctx.Config(cmd.Context())
			if !ok {
				err := fmt.Errorf("configuration not initialized")
				return formatter.PrintTotalFailureSummary("analyze", err, fserrors.Code(err))
			}
			dsCfg := cfg.Get().Dataset
			if cmd.Flags().Changed("max-rows") {
				dsCfg.MaxRows, _ = cmd.Flags().GetInt("max-rows")
			}
			if labelHint == "" {
				labelHint = dsCfg.LabelHint
			}

			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return formatter.PrintTotalFailureSummary("analyze", err, fserrors.Code(err))
			}
			defer f.Close()

			frame, err := csvio.Decode(f)
			if err != nil {
				wrapped := fserrors.WithErrorCode(err, fserrors.CodeSchema)
				return formatter.PrintTotalFailureSummary("analyze", wrapped, fserrors.Code(wrapped))
			}

			frame, report, err := csvio.Validate(frame, dsCfg.RequiredColumns, dsCfg.MaxRows)
			if err != nil {
				wrapped := fserrors.WithErrorCode(err, fserrors.CodeSchema)
				return formatter.PrintTotalFailureSummary("analyze", wrapped, fserrors.Code(wrapped))
			}

			scorer := scoring.NewHeuristic(cfg.Get().Scoring.PositiveLabel)
			predictions, scores, err := scorer.Score(cmd.Context(), frame)
			if err != nil {
				return formatter.PrintTotalFailureSummary("analyze", err, fserrors.Code(err))
			}

			rows := frame.Rows(predictions, scores)
			schema := dataset.Resolve(frame.Columns, rows, labelHint)
			agg := view.Derive(rows, schema)

			anomalies := 0
			for _, row := range rows {
				if !dataset.IsBenignCategory(row.Prediction) {
					anomalies++
				}
			}
			rate := 0.0
			if len(rows) > 0 {
				rate = float64(anomalies) / float64(len(rows))
			}

			out := analyzeReport{
				Filename:       path,
				RowCount:       len(rows),
				AnomalyCount:   anomalies,
				AnomalyRate:    rate,
				Validation:     report,
				LabelBreakdown: agg.LabelBreakdown,
				AttackTaxonomy: agg.AttackTaxonomy,
			}

			curve, curveErr := prcurve.Compute(rows, schema, labelHint)
			switch {
			case curveErr == nil:
				out.PRCurve = curve
			default:
				out.PRUnavailable = curveErr.Error()
			}

			if exportPath != "" {
				if err := exportScored(exportPath, frame.Columns, rows); err != nil {
					return formatter.PrintTotalFailureSummary("analyze", err, fserrors.Code(err))
				}
				log.Info().Str("component", "analyze").Str("path", exportPath).Msg("Scored CSV exported")
			}

			if err := printAnalyzeReport(cmd, formatter, out, agg); err != nil {
				return err
			}

			return formatter.PrintSuccessSummary("analyzed", path, fmt.Sprintf("%d rows, %d flagged", len(rows), anomalies))
		},
	}

	cmd.Flags().String("label-hint", "", "Value of the ground-truth column treated as the attack class")
	cmd.Flags().Int("max-rows", 0, "Maximum rows analyzed before downsampling (0 uses the configured cap)")
	cmd.Flags().String("export", "", "Write the scored rows to a CSV file at this path")

	return cmd
}

func printAnalyzeReport(cmd *cobra.Command, formatter format.Formatter, out analyzeReport, agg view.Aggregates) error {
	if mode := cmd.Flags().Lookup("output"); mode != nil && format.ParseMode(mode.Value.String()) == format.ModeJSON {
		return formatter.PrintJSON(out)
	}

	noColor := false
	if flag := cmd.Flags().Lookup("no-color"); flag != nil && flag.Value.String() == "true" {
		noColor = true
	}
	styled := func(style lipgloss.Style, s string) string {
		if noColor {
			return s
		}
		return style.Render(s)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, styled(analyzeTitleStyle, "Flowsight analysis: "+out.Filename))
	if out.Validation.Downsampled && out.Validation.OriginalRowCount != nil {
		fmt.Fprintln(w, styled(analyzeSubtleStyle,
			fmt.Sprintf("downsampled from %d rows (%s sample)",
				*out.Validation.OriginalRowCount, csvio.FormatSamplingFraction(*out.Validation.SamplingFraction))))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, styled(analyzeSectionStyle, "Predictions"))
	if err := formatter.PrintTable([]string{"label", "count"}, breakdownRows(out.LabelBreakdown)); err != nil {
		return err
	}

	if len(out.AttackTaxonomy) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, styled(analyzeSectionStyle, "Attack categories"))
		if err := formatter.PrintTable([]string{"category", "count"}, breakdownRows(out.AttackTaxonomy)); err != nil {
			return err
		}
	}

	if len(agg.TopPorts) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, styled(analyzeSectionStyle, "Top attacked ports"))
		rows := make([][]string, 0, len(agg.TopPorts))
		for _, c := range agg.TopPorts {
			rows = append(rows, []string{c.Key, strconv.Itoa(c.Count)})
		}
		if err := formatter.PrintTable([]string{"port", "count"}, rows); err != nil {
			return err
		}
	}

	fmt.Fprintln(w)
	if out.PRCurve != nil {
		fmt.Fprintln(w, styled(analyzeSectionStyle, "Detection quality"))
		metrics := out.PRCurve.MetricsAt(out.PRCurve.BestThreshold)
		fmt.Fprintf(w, "  average precision: %.3f\n", out.PRCurve.AveragePrecision)
		fmt.Fprintf(w, "  best threshold:    %.3f (F1 %.3f, precision %.3f, recall %.3f)\n",
			metrics.Threshold, metrics.F1, metrics.Precision, metrics.Recall)
	} else {
		fmt.Fprintln(w, styled(analyzeSubtleStyle, "Detection quality unavailable: "+out.PRUnavailable))
	}
	fmt.Fprintln(w)

	return nil
}

// breakdownRows flattens a count map into table rows, largest count first.
func breakdownRows(counts map[string]int) [][]string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, strconv.Itoa(counts[k])})
	}
	return rows
}

func exportScored(path string, columns []string, rows []dataset.Row) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	return csvio.Encode(out, columns, rows)
}
