package filterset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowsight/flowsight/pkg/dataset"
)

var testSchema = dataset.Schema{
	LabelColumn:   "Label",
	AttackColumn:  "attack_cat",
	ServiceColumn: "service",
	PortColumn:    "dst_port",
	TimeColumn:    "timestamp",
	PositiveLabel: "Attack",
}

func testRows() []dataset.Row {
	mk := func(i int, pred string, score float64, data map[string]any) dataset.Row {
		return dataset.Row{RowIndex: i, Prediction: pred, Score: dataset.Float(score), Data: data}
	}
	return []dataset.Row{
		mk(0, "Normal", 0.10, map[string]any{"attack_cat": "-", "service": "http", "dst_port": 80.0, "timestamp": 1700000000.0}),
		mk(1, "Attack", 0.90, map[string]any{"attack_cat": "Exploits", "service": "http", "dst_port": 80.0, "timestamp": 1700000300.0}),
		mk(2, "Attack", 0.80, map[string]any{"attack_cat": "Backdoors", "service": "ftp", "dst_port": 21.0, "timestamp": 1700000600.0}),
		mk(3, "Attack", 0.70, map[string]any{"attack_cat": "DoS", "service": "dns", "dst_port": 53.0, "timestamp": 1700000900.0}),
	}
}

func TestApply_EmptyStateReturnsInputIdentity(t *testing.T) {
	rows := testRows()
	state := New()
	out := state.Apply(rows, testSchema)
	// Identity, not a copy: derived-state caches memoize on this.
	assert.Same(t, &rows[0], &out[0])
	assert.Len(t, out, len(rows))
}

func TestToggle_IsIdempotentPair(t *testing.T) {
	state := New()
	state.Toggle(DimServices, "http")
	assert.Equal(t, 1, state.ActiveCount())
	state.Toggle(DimServices, "http")
	assert.Equal(t, 0, state.ActiveCount())
	assert.Equal(t, uint64(2), state.Version())
}

func TestToggle_NormalizesAttackTypes(t *testing.T) {
	state := New()
	state.Toggle(DimAttackTypes, "Backdoors")
	_, ok := state.AttackTypes["Backdoor"]
	assert.True(t, ok)
	// A different raw spelling of the same category toggles it back off.
	state.Toggle(DimAttackTypes, "backdoor")
	assert.Empty(t, state.AttackTypes)
}

func TestToggle_UnknownDimensionIsNoop(t *testing.T) {
	state := New()
	state.Toggle(DimScoreRange, "x")
	assert.Equal(t, uint64(0), state.Version())
}

func TestApply_SetValuedDimensionIsDisjunction(t *testing.T) {
	state := New()
	state.Toggle(DimServices, "http")
	state.Toggle(DimServices, "ftp")
	out := state.Apply(testRows(), testSchema)
	require.Len(t, out, 3)
}

func TestApply_DimensionsCombineAsConjunction(t *testing.T) {
	state := New()
	state.Toggle(DimServices, "http")
	state.Toggle(DimAttackTypes, "Exploits")
	out := state.Apply(testRows(), testSchema)
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].RowIndex)
}

func TestApply_AttackFilterExcludesBenignRows(t *testing.T) {
	state := New()
	state.Toggle(DimAttackTypes, "Exploits")
	state.Toggle(DimAttackTypes, "Backdoor")
	out := state.Apply(testRows(), testSchema)
	require.Len(t, out, 2)
	for _, row := range out {
		assert.NotEqual(t, 0, row.RowIndex)
	}
}

func TestApply_ScoreRange(t *testing.T) {
	state := New()
	state.SetScoreRange(&ScoreRange{Min: 0.75, Max: 1.0})
	out := state.Apply(testRows(), testSchema)
	require.Len(t, out, 2)

	// Rows with no score pass a score filter rather than vanishing.
	unscored := []dataset.Row{{RowIndex: 5, Prediction: "Attack", Data: map[string]any{}}}
	out = state.Apply(unscored, testSchema)
	assert.Len(t, out, 1)
}

func TestApply_Prediction(t *testing.T) {
	state := New()
	state.SetPrediction("Normal")
	out := state.Apply(testRows(), testSchema)
	require.Len(t, out, 1)
	assert.Equal(t, 0, out[0].RowIndex)

	// Selecting the active value again toggles the dimension off.
	state.SetPrediction("Normal")
	assert.Equal(t, 0, state.ActiveCount())
}

func TestApply_Ports(t *testing.T) {
	state := New()
	state.Toggle(DimPorts, "80")
	out := state.Apply(testRows(), testSchema)
	require.Len(t, out, 2)
}

func TestApply_TimeRange(t *testing.T) {
	state := New()
	state.SetTimeRange(&TimeRange{
		Start: time.Unix(1700000300, 0).UTC(),
		End:   time.Unix(1700000600, 0).UTC(),
	})
	out := state.Apply(testRows(), testSchema)
	require.Len(t, out, 2)

	// Rows with no parseable timestamp fall outside any time window.
	out = state.Apply([]dataset.Row{{Data: map[string]any{"timestamp": "garbage"}}}, testSchema)
	assert.Empty(t, out)
}

func TestApply_MissingColumnNeverMatchesMembershipFilter(t *testing.T) {
	state := New()
	state.Toggle(DimServices, "http")
	out := state.Apply(testRows(), dataset.Schema{})
	assert.Empty(t, out)
}

func TestClearAndReset(t *testing.T) {
	state := New()
	state.Toggle(DimServices, "http")
	state.SetPrediction("Attack")
	state.SetScoreRange(&ScoreRange{Min: 0, Max: 1})
	state.SetTimeRange(&TimeRange{Start: time.Unix(0, 0), End: time.Unix(1, 0)})
	state.Toggle(DimPorts, "80")
	require.Equal(t, 5, state.ActiveCount())

	state.Clear(DimServices)
	assert.Equal(t, 4, state.ActiveCount())
	state.Clear(DimScoreRange)
	assert.Equal(t, 3, state.ActiveCount())

	v := state.Version()
	state.Reset()
	assert.Equal(t, 0, state.ActiveCount())
	assert.Equal(t, v+1, state.Version())
}

func TestSummary(t *testing.T) {
	state := New()
	assert.Empty(t, state.Summary())

	state.Toggle(DimAttackTypes, "Exploits")
	state.SetScoreRange(&ScoreRange{Min: 0.5, Max: 0.9})
	state.Toggle(DimServices, "http")
	state.Toggle(DimServices, "dns")
	state.Toggle(DimPorts, "80")
	state.SetPrediction("Attack")

	chips := state.Summary()
	assert.Equal(t, []string{
		"Attack: Exploits",
		"Score: 0.50-0.90",
		"Services: 2 selected",
		"Ports: 80",
		"Type: Attack",
	}, chips)
}
