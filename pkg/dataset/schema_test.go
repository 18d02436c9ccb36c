package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleRows() []Row {
	mk := func(i int, data map[string]any) Row {
		return Row{RowIndex: i, Prediction: "Normal", Data: data}
	}
	return []Row{
		mk(0, map[string]any{"Label": "Normal", "attack_cat": "-", "service": "http", "dsport": "80", "Stime": 1700000000}),
		mk(1, map[string]any{"Label": "Attack", "attack_cat": "Exploits", "service": "dns", "dsport": "53", "Stime": 1700000060}),
		mk(2, map[string]any{"Label": "Attack", "attack_cat": "Fuzzers", "service": "-", "dsport": "21", "Stime": 1700000120}),
	}
}

func TestResolve_BindsAllRoles(t *testing.T) {
	columns := []string{"Label", "attack_cat", "service", "dsport", "Stime"}
	sch := Resolve(columns, sampleRows(), "")

	assert.Equal(t, "Label", sch.LabelColumn)
	assert.Equal(t, "attack_cat", sch.AttackColumn)
	assert.Equal(t, "service", sch.ServiceColumn)
	assert.Equal(t, "dsport", sch.PortColumn)
	assert.Equal(t, "Stime", sch.TimeColumn)
	assert.Equal(t, "Attack", sch.PositiveLabel)
	assert.True(t, sch.HasLabels())
}

func TestResolve_NoLabelColumn(t *testing.T) {
	rows := []Row{
		{RowIndex: 0, Prediction: "Normal", Data: map[string]any{"proto": "tcp"}},
		{RowIndex: 1, Prediction: "Attack", Data: map[string]any{"proto": "udp"}},
	}
	sch := Resolve([]string{"proto"}, rows, "")
	assert.False(t, sch.HasLabels())
	// Positive label is inferred from predictions when no label column exists.
	assert.Equal(t, "Attack", sch.PositiveLabel)
}

func TestResolve_AttackColumnPrefersDistinctCategories(t *testing.T) {
	// "category" only holds one non-benign value, while the lower-ranked
	// "label" holds two; the probe should pick "label".
	rows := []Row{
		{Data: map[string]any{"category": "Exploits", "label": "DoS"}},
		{Data: map[string]any{"category": "Exploits", "label": "Worms"}},
	}
	sch := Resolve([]string{"category", "label"}, rows, "")
	assert.Equal(t, "label", sch.AttackColumn)
}

func TestResolve_ServiceColumnRequiresLetters(t *testing.T) {
	// Numeric protocol codes must not be mistaken for service names.
	rows := []Row{
		{Data: map[string]any{"protocol": "6"}},
		{Data: map[string]any{"protocol": "17"}},
	}
	sch := Resolve([]string{"protocol"}, rows, "")
	assert.Empty(t, sch.ServiceColumn)
}

func TestResolve_TimeColumnSubstringFallback(t *testing.T) {
	sch := Resolve([]string{"proto", "flow_start_time_ms"}, nil, "")
	assert.Equal(t, "flow_start_time_ms", sch.TimeColumn)
}

func TestResolve_HintSteersPositiveLabel(t *testing.T) {
	rows := []Row{
		{Data: map[string]any{"Label": "foo"}},
		{Data: map[string]any{"Label": "bar"}},
	}
	sch := Resolve([]string{"Label"}, rows, "bar")
	assert.Equal(t, "bar", sch.PositiveLabel)
}

func TestRow_Field(t *testing.T) {
	r := Row{Data: map[string]any{"proto": "tcp", "gone": nil}}
	v, ok := r.Field("proto")
	assert.True(t, ok)
	assert.Equal(t, "tcp", v)

	_, ok = r.Field("missing")
	assert.False(t, ok)
	_, ok = r.Field("gone")
	assert.False(t, ok)

	empty := Row{}
	_, ok = empty.Field("proto")
	assert.False(t, ok)
}

func TestRow_ScoreValue(t *testing.T) {
	r := Row{Score: Float(0.73)}
	s, ok := r.ScoreValue()
	assert.True(t, ok)
	assert.Equal(t, 0.73, s)

	_, ok = Row{}.ScoreValue()
	assert.False(t, ok)
}
