package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowsight/flowsight/pkg/analytics/filterset"
	"github.com/flowsight/flowsight/pkg/dataset"
)

func testResult(id string) *Result {
	schema := dataset.Schema{
		AttackColumn:  "attack_cat",
		ServiceColumn: "service",
		PortColumn:    "dst_port",
		PositiveLabel: "Attack",
	}
	rows := []dataset.Row{
		{RowIndex: 0, Prediction: "Normal", Score: dataset.Float(0.1),
			Data: map[string]any{"attack_cat": "-", "service": "http", "dst_port": 80.0}},
		{RowIndex: 1, Prediction: "Attack", Score: dataset.Float(0.9),
			Data: map[string]any{"attack_cat": "Exploits", "service": "http", "dst_port": 80.0}},
		{RowIndex: 2, Prediction: "Attack", Score: dataset.Float(0.8),
			Data: map[string]any{"attack_cat": "DoS", "service": "dns", "dst_port": 53.0}},
	}
	return &Result{ID: id, Columns: []string{"attack_cat", "service", "dst_port"}, Rows: rows, Schema: schema}
}

func TestSession_InstallAndResult(t *testing.T) {
	s := NewSession()
	assert.Nil(t, s.Result())

	seq := s.Begin()
	require.True(t, s.Install(seq, testResult("r1")))
	require.NotNil(t, s.Result())
	assert.Equal(t, "r1", s.Result().ID)
}

func TestSession_StaleInstallRejected(t *testing.T) {
	s := NewSession()
	older := s.Begin()
	newer := s.Begin()

	// The older upload's response arrives after a newer upload began.
	assert.False(t, s.Install(older, testResult("stale")))
	assert.Nil(t, s.Result())

	require.True(t, s.Install(newer, testResult("fresh")))
	assert.Equal(t, "fresh", s.Result().ID)

	// Replaying the consumed sequence is also rejected.
	s.Begin()
	assert.False(t, s.Install(newer, testResult("replay")))
	assert.Equal(t, "fresh", s.Result().ID)
}

func TestSession_InstallResetsFilters(t *testing.T) {
	s := NewSession()
	require.True(t, s.Install(s.Begin(), testResult("r1")))
	s.Mutate(func(f *filterset.State) { f.Toggle(filterset.DimServices, "http") })
	require.Len(t, s.FilteredRows(), 2)

	require.True(t, s.Install(s.Begin(), testResult("r2")))
	assert.Empty(t, s.FilterSummary())
	assert.Len(t, s.FilteredRows(), 3)
}

func TestSession_FilteredRowsMemoized(t *testing.T) {
	s := NewSession()
	require.True(t, s.Install(s.Begin(), testResult("r1")))
	s.Mutate(func(f *filterset.State) { f.Toggle(filterset.DimServices, "dns") })

	a := s.FilteredRows()
	b := s.FilteredRows()
	require.Len(t, a, 1)
	assert.Same(t, &a[0], &b[0])

	// A filter mutation invalidates the memo.
	s.Mutate(func(f *filterset.State) { f.Toggle(filterset.DimServices, "http") })
	assert.Len(t, s.FilteredRows(), 3)
}

func TestSession_AggregatesFollowFilters(t *testing.T) {
	s := NewSession()
	require.True(t, s.Install(s.Begin(), testResult("r1")))

	agg := s.Aggregates()
	assert.Equal(t, map[string]int{"Normal": 1, "Attack": 2}, agg.LabelBreakdown)
	assert.Equal(t, map[string]int{"Exploits": 1, "DoS": 1}, agg.AttackTaxonomy)

	s.Mutate(func(f *filterset.State) { f.Toggle(filterset.DimAttackTypes, "DoS") })
	agg = s.Aggregates()
	assert.Equal(t, map[string]int{"Attack": 1}, agg.LabelBreakdown)
	assert.Equal(t, map[string]int{"DoS": 1}, agg.AttackTaxonomy)
}

func TestSession_AggregatesCached(t *testing.T) {
	s := NewSession()
	require.True(t, s.Install(s.Begin(), testResult("r1")))

	a := s.Aggregates()
	a.LabelBreakdown["sentinel"] = 1
	b := s.Aggregates()
	// Same underlying map: the second call served the cache.
	assert.Equal(t, 1, b.LabelBreakdown["sentinel"])
}

func TestSession_AggregatesBeforeUpload(t *testing.T) {
	s := NewSession()
	agg := s.Aggregates()
	assert.NotNil(t, agg.LabelBreakdown)
	assert.Empty(t, agg.LabelBreakdown)
	assert.Nil(t, s.FilteredRows())
}

func TestDerive(t *testing.T) {
	r := testResult("r1")
	agg := Derive(r.Rows, r.Schema)
	assert.Equal(t, 3, agg.LabelBreakdown["Normal"]+agg.LabelBreakdown["Attack"])
	require.NotNil(t, agg.Heatmap)
	assert.Len(t, agg.ScoreBands, 4)
	require.Len(t, agg.TopPorts, 2)
	assert.Equal(t, "53", agg.TopPorts[0].Key)
}
