package csvio

import (
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/flowsight/flowsight/pkg/dataset"
)

// Encode writes enriched rows as CSV: header
// "row_index,prediction,score,<data columns>" with dataColumns in dataset
// order. The prediction field is always quoted; data fields are quoted only
// when they contain a comma, quote or newline, with internal quotes doubled.
// Absent scores render as empty fields.
func Encode(w io.Writer, dataColumns []string, rows []dataset.Row) error {
	header := make([]string, 0, len(dataColumns)+3)
	header = append(header, "row_index", "prediction", "score")
	header = append(header, dataColumns...)
	if _, err := io.WriteString(w, strings.Join(header, ",")+"\n"); err != nil {
		return err
	}

	fields := make([]string, 0, len(header))
	for _, row := range rows {
		fields = fields[:0]
		fields = append(fields, strconv.Itoa(row.RowIndex))
		fields = append(fields, `"`+strings.ReplaceAll(row.Prediction, `"`, `""`)+`"`)
		if score, ok := row.ScoreValue(); ok {
			fields = append(fields, strconv.FormatFloat(score, 'g', -1, 64))
		} else {
			fields = append(fields, "")
		}
		for _, col := range dataColumns {
			v, ok := row.Field(col)
			if !ok {
				fields = append(fields, "")
				continue
			}
			fields = append(fields, quoteField(formatCell(v)))
		}
		if _, err := io.WriteString(w, strings.Join(fields, ",")+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func formatCell(v any) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return cast.ToString(v)
}

func quoteField(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
