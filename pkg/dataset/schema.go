package dataset

import (
	"strings"
	"unicode"

	"github.com/spf13/cast"
)

// Candidate names for the attack-taxonomy column, in rank order.
var attackColumnCandidates = []string{
	"attack_type",
	"attack_cat",
	"category",
	"label",
	"label_family",
	"threat_type",
}

// Candidate names for the destination-port column, in rank order.
var portColumnCandidates = []string{
	"dst_port",
	"dsport",
	"dport",
	"destination_port",
	"dest_port",
	"dstport",
}

// Candidate names for the service column, in rank order.
var serviceColumnCandidates = []string{"service", "app_protocol", "protocol"}

// Candidate names for the timestamp column, in rank order; any column whose
// name contains "time" is accepted as a fallback.
var timeColumnCandidates = []string{"timestamp", "time", "event_time", "datetime", "capture_time"}

// Schema is the resolved column-name binding for one loaded dataset.
// It is computed once per load and threaded into every aggregator so the
// per-row hot paths never re-probe column names. Empty fields mean the role
// could not be resolved; consumers degrade to "unavailable" rather than
// guessing.
type Schema struct {
	LabelColumn   string
	AttackColumn  string
	ServiceColumn string
	PortColumn    string
	TimeColumn    string

	// PositiveLabel is the dataset's value for the anomalous class, inferred
	// from the ground-truth column when present, else from the predictions.
	PositiveLabel string
}

// HasLabels reports whether ground-truth metrics can be computed at all.
func (s Schema) HasLabels() bool { return s.LabelColumn != "" }

// Resolve binds the well-known column roles for a dataset. rows may be a
// sample; it is only consulted for value-shape checks (service letter probe,
// attack-column distinct counts, positive-label inference). hint, when
// non-empty, steers positive-label inference.
func Resolve(columns []string, rows []Row, hint string) Schema {
	sch := Schema{}
	if col, ok := FindLabelColumn(columns); ok {
		sch.LabelColumn = col
	}
	sch.AttackColumn = resolveAttackColumn(columns, rows)
	sch.PortColumn = firstColumn(columns, portColumnCandidates)
	sch.ServiceColumn = resolveServiceColumn(columns, rows)
	sch.TimeColumn = resolveTimeColumn(columns)
	sch.PositiveLabel = resolvePositiveLabel(sch.LabelColumn, rows, hint)
	return sch
}

func firstColumn(columns []string, candidates []string) string {
	lower := make(map[string]string, len(columns))
	for _, c := range columns {
		if _, seen := lower[strings.ToLower(c)]; !seen {
			lower[strings.ToLower(c)] = c
		}
	}
	for _, cand := range candidates {
		if orig, ok := lower[cand]; ok {
			return orig
		}
	}
	return ""
}

// resolveAttackColumn probes the ranked candidates and picks the first one
// yielding at least two distinct non-benign normalized values. When none
// reaches two, the candidate with the most distinct values wins, ties
// resolved by rank order.
func resolveAttackColumn(columns []string, rows []Row) string {
	bestCol := ""
	bestDistinct := 0
	for _, cand := range attackColumnCandidates {
		col := firstColumn(columns, []string{cand})
		if col == "" {
			continue
		}
		distinct := map[string]struct{}{}
		for _, row := range rows {
			raw, ok := row.Field(col)
			if !ok {
				continue
			}
			val := NormalizeAttackCategory(cast.ToString(raw))
			if IsBenignCategory(val) {
				continue
			}
			distinct[val] = struct{}{}
		}
		if len(distinct) >= 2 {
			return col
		}
		if len(distinct) > bestDistinct {
			bestCol = col
			bestDistinct = len(distinct)
		}
	}
	return bestCol
}

// resolveServiceColumn accepts a candidate only when its values actually look
// like service names: at least one sampled value containing a letter. This
// keeps numeric protocol codes and placeholder-only columns from being
// treated as services.
func resolveServiceColumn(columns []string, rows []Row) string {
	for _, cand := range serviceColumnCandidates {
		col := firstColumn(columns, []string{cand})
		if col == "" {
			continue
		}
		sampled := 0
		for _, row := range rows {
			if sampled >= 100 {
				break
			}
			raw, ok := row.Field(col)
			if !ok {
				continue
			}
			s := strings.TrimSpace(cast.ToString(raw))
			if IsPlaceholder(s) {
				continue
			}
			sampled++
			if strings.ContainsFunc(s, unicode.IsLetter) {
				return col
			}
		}
	}
	return ""
}

func resolveTimeColumn(columns []string) string {
	if col := firstColumn(columns, timeColumnCandidates); col != "" {
		return col
	}
	for _, c := range columns {
		if strings.Contains(strings.ToLower(c), "time") {
			return c
		}
	}
	return ""
}

func resolvePositiveLabel(labelColumn string, rows []Row, hint string) string {
	var distinct []string
	seen := map[string]struct{}{}
	collect := func(v string) {
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		distinct = append(distinct, v)
	}

	if labelColumn != "" {
		for _, row := range rows {
			raw, ok := row.Field(labelColumn)
			if !ok {
				continue
			}
			collect(NormalizeLabel(raw))
		}
	} else {
		for _, row := range rows {
			collect(NormalizeLabel(row.Prediction))
		}
	}

	if label, ok := InferPositiveLabel(distinct, hint); ok {
		return label
	}
	return "Attack"
}
