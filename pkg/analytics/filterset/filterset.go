// Package filterset implements the linked-filtering engine: a predicate set
// over scored rows where dimensions combine as a conjunction and values
// within a multi-value dimension combine as a disjunction. Applying an empty
// state returns the input slice itself so downstream caches can memoize on
// identity.
package filterset

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/flowsight/flowsight/pkg/dataset"
)

// Dimension identifies one filterable axis.
type Dimension string

const (
	DimLabels      Dimension = "labels"
	DimAttackTypes Dimension = "attack_types"
	DimServices    Dimension = "services"
	DimPorts       Dimension = "ports"
	DimPrediction  Dimension = "prediction"
	DimScoreRange  Dimension = "score_range"
	DimTimeRange   Dimension = "time_range"
)

// ScoreRange is an inclusive [Min, Max] score window.
type ScoreRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// TimeRange is an inclusive [Start, End] time window.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// State holds the active filter predicate for a session. The zero value is
// the empty state (no filtering). State is not safe for concurrent mutation;
// the owning session serializes access.
type State struct {
	Labels      map[string]struct{}
	AttackTypes map[string]struct{}
	Services    map[string]struct{}
	Ports       map[string]struct{}
	Prediction  string
	ScoreRange  *ScoreRange
	TimeRange   *TimeRange

	version uint64
}

// New returns an empty filter state.
func New() *State {
	return &State{}
}

// Version increments on every mutation; derived-state caches key on it.
func (s *State) Version() uint64 { return s.version }

func (s *State) setFor(dim Dimension) *map[string]struct{} {
	switch dim {
	case DimLabels:
		return &s.Labels
	case DimAttackTypes:
		return &s.AttackTypes
	case DimServices:
		return &s.Services
	case DimPorts:
		return &s.Ports
	}
	return nil
}

// Toggle adds value to a set-valued dimension, or removes it when already
// present. Toggling twice restores the prior state. Attack-type values are
// normalized before being stored so chart labels and raw data spellings meet
// in one bucket.
func (s *State) Toggle(dim Dimension, value string) {
	set := s.setFor(dim)
	if set == nil {
		return
	}
	if dim == DimAttackTypes {
		value = dataset.NormalizeAttackCategory(value)
	}
	if *set == nil {
		*set = make(map[string]struct{})
	}
	if _, ok := (*set)[value]; ok {
		delete(*set, value)
	} else {
		(*set)[value] = struct{}{}
	}
	s.version++
}

// SetPrediction sets the exact-match prediction filter. Selecting the value
// already active toggles the dimension off.
func (s *State) SetPrediction(value string) {
	if s.Prediction == value {
		s.Prediction = ""
	} else {
		s.Prediction = value
	}
	s.version++
}

// SetScoreRange replaces the score window atomically; nil clears it.
func (s *State) SetScoreRange(r *ScoreRange) {
	s.ScoreRange = r
	s.version++
}

// SetTimeRange replaces the time window atomically; nil clears it.
func (s *State) SetTimeRange(r *TimeRange) {
	s.TimeRange = r
	s.version++
}

// Clear resets a single dimension to its empty default.
func (s *State) Clear(dim Dimension) {
	switch dim {
	case DimPrediction:
		s.Prediction = ""
	case DimScoreRange:
		s.ScoreRange = nil
	case DimTimeRange:
		s.TimeRange = nil
	default:
		if set := s.setFor(dim); set != nil {
			*set = nil
		}
	}
	s.version++
}

// Reset clears every dimension simultaneously.
func (s *State) Reset() {
	s.Labels = nil
	s.AttackTypes = nil
	s.Services = nil
	s.Ports = nil
	s.Prediction = ""
	s.ScoreRange = nil
	s.TimeRange = nil
	s.version++
}

// ActiveCount returns the number of dimensions currently constraining rows.
func (s *State) ActiveCount() int {
	n := 0
	for _, set := range []map[string]struct{}{s.Labels, s.AttackTypes, s.Services, s.Ports} {
		if len(set) > 0 {
			n++
		}
	}
	if s.Prediction != "" {
		n++
	}
	if s.ScoreRange != nil {
		n++
	}
	if s.TimeRange != nil {
		n++
	}
	return n
}

// Summary renders one human-readable chip per active dimension, in a stable
// order, for the active-filters display.
func (s *State) Summary() []string {
	var out []string
	if len(s.AttackTypes) == 1 {
		out = append(out, "Attack: "+sortedValues(s.AttackTypes)[0])
	} else if len(s.AttackTypes) > 1 {
		out = append(out, fmt.Sprintf("Attacks: %d selected", len(s.AttackTypes)))
	}
	if s.ScoreRange != nil {
		out = append(out, fmt.Sprintf("Score: %.2f-%.2f", s.ScoreRange.Min, s.ScoreRange.Max))
	}
	if len(s.Services) == 1 {
		out = append(out, "Service: "+sortedValues(s.Services)[0])
	} else if len(s.Services) > 1 {
		out = append(out, fmt.Sprintf("Services: %d selected", len(s.Services)))
	}
	if len(s.Labels) > 0 {
		out = append(out, "Labels: "+strings.Join(sortedValues(s.Labels), ", "))
	}
	if len(s.Ports) > 0 {
		out = append(out, "Ports: "+strings.Join(sortedValues(s.Ports), ", "))
	}
	if s.Prediction != "" {
		out = append(out, "Type: "+s.Prediction)
	}
	if s.TimeRange != nil {
		out = append(out, fmt.Sprintf("Time: %s to %s",
			s.TimeRange.Start.Format(time.RFC3339), s.TimeRange.End.Format(time.RFC3339)))
	}
	return out
}

func sortedValues(set map[string]struct{}) []string {
	vals := make([]string, 0, len(set))
	for v := range set {
		vals = append(vals, v)
	}
	sort.Strings(vals)
	return vals
}

// Apply computes the filtered subset of rows. Every active dimension must
// match (short-circuit AND); dimensions at their empty default are skipped.
// Rows missing the relevant field never match a membership filter and fall
// outside time-range filtering when no parseable timestamp exists. When no
// dimension is active the input slice is returned unchanged.
func (s *State) Apply(rows []dataset.Row, schema dataset.Schema) []dataset.Row {
	if s.ActiveCount() == 0 {
		return rows
	}
	out := make([]dataset.Row, 0, len(rows))
	for _, row := range rows {
		if s.matches(row, schema) {
			out = append(out, row)
		}
	}
	return out
}

func (s *State) matches(row dataset.Row, schema dataset.Schema) bool {
	if len(s.AttackTypes) > 0 {
		if !matchesNormalized(row, schema.AttackColumn, s.AttackTypes) {
			return false
		}
	}
	if s.ScoreRange != nil {
		if score, ok := row.ScoreValue(); ok {
			if score < s.ScoreRange.Min || score > s.ScoreRange.Max {
				return false
			}
		}
	}
	if len(s.Services) > 0 {
		if !matchesRaw(row, schema.ServiceColumn, s.Services) {
			return false
		}
	}
	if s.Prediction != "" && row.Prediction != s.Prediction {
		return false
	}
	if len(s.Labels) > 0 {
		if _, ok := s.Labels[row.Prediction]; !ok {
			return false
		}
	}
	if len(s.Ports) > 0 {
		if !matchesPort(row, schema.PortColumn, s.Ports) {
			return false
		}
	}
	if s.TimeRange != nil {
		raw, ok := row.Field(schema.TimeColumn)
		if !ok {
			return false
		}
		ts, ok := dataset.ParseTime(raw)
		if !ok || ts.Before(s.TimeRange.Start) || ts.After(s.TimeRange.End) {
			return false
		}
	}
	return true
}

func matchesNormalized(row dataset.Row, column string, set map[string]struct{}) bool {
	if column == "" {
		return false
	}
	raw, ok := row.Field(column)
	if !ok {
		return false
	}
	val := dataset.NormalizeAttackCategory(cast.ToString(raw))
	if dataset.IsBenignCategory(val) {
		return false
	}
	for want := range set {
		if strings.EqualFold(val, want) {
			return true
		}
	}
	return false
}

func matchesRaw(row dataset.Row, column string, set map[string]struct{}) bool {
	if column == "" {
		return false
	}
	raw, ok := row.Field(column)
	if !ok {
		return false
	}
	val := strings.TrimSpace(cast.ToString(raw))
	if dataset.IsPlaceholder(val) {
		return false
	}
	_, ok = set[val]
	return ok
}

func matchesPort(row dataset.Row, column string, set map[string]struct{}) bool {
	if column == "" {
		return false
	}
	raw, ok := row.Field(column)
	if !ok {
		return false
	}
	port, ok := dataset.Port(raw)
	if !ok {
		return false
	}
	_, ok = set[cast.ToString(port)]
	return ok
}
