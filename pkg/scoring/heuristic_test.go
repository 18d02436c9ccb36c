package scoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowsight/flowsight/pkg/dataset/csvio"
)

func featureFrame(records ...[]string) *csvio.Frame {
	return &csvio.Frame{
		Columns: []string{"dst_port", "proto", "sbytes", "spkts", "dur"},
		Records: records,
	}
}

func TestHeuristic_ScoreIsDeterministic(t *testing.T) {
	frame := featureFrame(
		[]string{"80", "tcp", "12000", "20", "5"},
		[]string{"4444", "icmp", "40000", "2000", "0.5"},
	)
	h := NewHeuristic("")

	labels1, scores1, err := h.Score(context.Background(), frame)
	require.NoError(t, err)
	labels2, scores2, err := h.Score(context.Background(), frame)
	require.NoError(t, err)

	assert.Equal(t, labels1, labels2)
	assert.Equal(t, scores1, scores2)
	require.Len(t, scores1, 2)
	for _, s := range scores1 {
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestHeuristic_FlagsRiskyTraffic(t *testing.T) {
	frame := featureFrame(
		// Plain web flow: low risk.
		[]string{"80", "tcp", "12000", "20", "5"},
		// Known-bad port, tiny packets at volume, sub-ms inter-arrival.
		[]string{"31337", "udp", "50000", "2000", "0.5"},
	)
	h := NewHeuristic("Attack")

	labels, scores, err := h.Score(context.Background(), frame)
	require.NoError(t, err)

	assert.Equal(t, "Normal", labels[0])
	assert.Less(t, scores[0], 0.5)
	assert.Equal(t, "Attack", labels[1])
	assert.GreaterOrEqual(t, scores[1], 0.5)
}

func TestHeuristic_CustomPositiveLabel(t *testing.T) {
	h := NewHeuristic("Intrusion")
	assert.Equal(t, "Intrusion", h.PositiveLabel())

	frame := featureFrame([]string{"31337", "icmp", "50000", "2000", "0.5"})
	labels, _, err := h.Score(context.Background(), frame)
	require.NoError(t, err)
	assert.Equal(t, "Intrusion", labels[0])
}

func TestHeuristic_DefaultLabel(t *testing.T) {
	assert.Equal(t, "Attack", NewHeuristic("").PositiveLabel())
}

func TestHeuristic_MissingFeaturesStillScore(t *testing.T) {
	frame := &csvio.Frame{
		Columns: []string{"unrelated"},
		Records: [][]string{{"x"}},
	}
	labels, scores, err := NewHeuristic("").Score(context.Background(), frame)
	require.NoError(t, err)
	require.Len(t, labels, 1)
	assert.Equal(t, "Normal", labels[0])
	assert.Greater(t, scores[0], 0.0)
	assert.Less(t, scores[0], 0.5)
}

func TestHeuristic_PlaceholderCellsIgnored(t *testing.T) {
	frame := featureFrame([]string{"-", "nan", "", "-", "none"})
	_, scores, err := NewHeuristic("").Score(context.Background(), frame)
	require.NoError(t, err)
	assert.Less(t, scores[0], 0.5)
}

func TestHeuristic_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := NewHeuristic("").Score(ctx, featureFrame([]string{"80", "tcp", "1", "1", "1"}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHeuristic_ScoreFlow(t *testing.T) {
	h := NewHeuristic("Attack")

	benign, err := h.ScoreFlow(context.Background(), FlowRequest{
		SrcIP: "10.0.0.1", DstIP: "10.0.0.2",
		SrcPort: 50000, DstPort: 443, Protocol: "tcp",
		PktBytes: 12000, PktCount: 20, InterArrivalMS: 5,
	})
	require.NoError(t, err)
	assert.False(t, benign.Anomalous)
	assert.Equal(t, "Normal", benign.Prediction)

	hostile, err := h.ScoreFlow(context.Background(), FlowRequest{
		SrcIP: "10.0.0.1", DstIP: "10.0.0.2",
		SrcPort: 50000, DstPort: 4444, Protocol: "icmp",
		PktBytes: 50000, PktCount: 2000, InterArrivalMS: 0.5,
	})
	require.NoError(t, err)
	assert.True(t, hostile.Anomalous)
	assert.Equal(t, "Attack", hostile.Prediction)
	assert.Greater(t, hostile.Score, benign.Score)
	assert.False(t, hostile.Timestamp.IsZero())
}

func TestHeuristic_ScoreFlowTopFeatures(t *testing.T) {
	h := NewHeuristic("Attack")

	// Every rule fires: hot port, icmp, tiny packets at volume, many
	// packets, sub-ms inter-arrival.
	verdict, err := h.ScoreFlow(context.Background(), FlowRequest{
		SrcIP: "10.0.0.1", DstIP: "10.0.0.2",
		SrcPort: 50000, DstPort: 4444, Protocol: "icmp",
		PktBytes: 50000, PktCount: 2000, InterArrivalMS: 0.5,
	})
	require.NoError(t, err)

	require.Len(t, verdict.TopFeatures, 5)
	assert.Equal(t, FeatureContribution{Name: "dst_port", Contribution: 0.55}, verdict.TopFeatures[0])
	for i := 1; i < len(verdict.TopFeatures); i++ {
		assert.LessOrEqual(t, verdict.TopFeatures[i].Contribution, verdict.TopFeatures[i-1].Contribution)
	}

	// An unremarkable flow reports no contributions at all.
	quiet, err := h.ScoreFlow(context.Background(), FlowRequest{
		SrcIP: "10.0.0.1", DstIP: "10.0.0.2",
		SrcPort: 1, DstPort: 443, Protocol: "tcp",
		PktBytes: 12000, PktCount: 20, InterArrivalMS: 5,
	})
	require.NoError(t, err)
	assert.Empty(t, quiet.TopFeatures)
}

func TestHeuristic_EphemeralPortBump(t *testing.T) {
	h := NewHeuristic("")
	low, err := h.ScoreFlow(context.Background(), FlowRequest{
		SrcIP: "10.0.0.1", DstIP: "10.0.0.2", SrcPort: 1, DstPort: 443, Protocol: "tcp",
	})
	require.NoError(t, err)
	high, err := h.ScoreFlow(context.Background(), FlowRequest{
		SrcIP: "10.0.0.1", DstIP: "10.0.0.2", SrcPort: 1, DstPort: 55555, Protocol: "tcp",
	})
	require.NoError(t, err)
	assert.Greater(t, high.Score, low.Score)
}
