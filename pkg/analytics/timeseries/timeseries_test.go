package timeseries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowsight/flowsight/pkg/dataset"
)

var testSchema = dataset.Schema{TimeColumn: "timestamp", PositiveLabel: "Attack"}

func timedRow(epoch int64, pred string, score float64) dataset.Row {
	return dataset.Row{
		Prediction: pred,
		Score:      dataset.Float(score),
		Data:       map[string]any{"timestamp": float64(epoch)},
	}
}

func TestMinuteTallies(t *testing.T) {
	base := int64(1700000000) // not minute-aligned
	rows := []dataset.Row{
		timedRow(base, "Normal", 0.1),
		timedRow(base+10, "Attack", 0.9),
		timedRow(base+70, "Attack", 0.8),
		{Prediction: "Attack", Data: map[string]any{"timestamp": "garbage"}},
		{Prediction: "Attack", Data: map[string]any{}},
	}
	tallies := MinuteTallies(rows, testSchema)
	require.Len(t, tallies, 2)

	first := tallies[0]
	assert.Equal(t, time.Unix(base, 0).UTC().Truncate(time.Minute), first.Minute)
	assert.Equal(t, 2, first.Total)
	assert.Equal(t, 1, first.Anomalies)
	assert.InDelta(t, 1.0, first.ScoreSum, 1e-9)
	assert.Equal(t, 2, first.ScoreCount)
	assert.InDelta(t, 0.9, first.ScoreMax, 1e-9)

	assert.True(t, tallies[0].Minute.Before(tallies[1].Minute))
	assert.Equal(t, 1, tallies[1].Total)
}

func TestMinuteTallies_NoTimeColumn(t *testing.T) {
	assert.Nil(t, MinuteTallies([]dataset.Row{timedRow(1700000000, "Attack", 0.9)}, dataset.Schema{}))
}

func TestBucketize(t *testing.T) {
	base := time.Unix(1700000000, 0).UTC().Truncate(5 * time.Minute)
	tallies := []MinuteTally{
		{Minute: base, Total: 10, Anomalies: 4, ScoreSum: 1.8, ScoreCount: 2, ScoreMax: 0.95},
		{Minute: base.Add(time.Minute), Total: 20, Anomalies: 6},
		// Gap: nothing in the second window.
		{Minute: base.Add(11 * time.Minute), Total: 30, Anomalies: 0},
	}
	buckets := Bucketize(tallies, 5)
	require.Len(t, buckets, 3)

	b := buckets[0]
	assert.Equal(t, base, b.Start)
	assert.Equal(t, 2, b.Minutes)
	// Averages are per observed minute, not per bucket width.
	assert.InDelta(t, 15.0, b.AvgTotal, 1e-9)
	assert.InDelta(t, 5.0, b.AvgAnomaly, 1e-9)
	assert.InDelta(t, 10.0, b.AvgNormal, 1e-9)
	require.NotNil(t, b.AvgScore)
	assert.InDelta(t, 0.9, *b.AvgScore, 1e-9)
	require.NotNil(t, b.PeakScore)
	assert.InDelta(t, 0.95, *b.PeakScore, 1e-9)

	// Empty covered window is emitted zero-valued.
	assert.Equal(t, 0, buckets[1].Minutes)
	assert.Nil(t, buckets[1].AvgScore)
	assert.Nil(t, buckets[1].PeakScore)

	assert.Equal(t, 1, buckets[2].Minutes)
	assert.InDelta(t, 30.0, buckets[2].AvgTotal, 1e-9)
}

func TestBucketize_Empty(t *testing.T) {
	assert.Nil(t, Bucketize(nil, 5))
}

func TestBucketize_WidthBelowOneClamped(t *testing.T) {
	base := time.Unix(1700000040, 0).UTC().Truncate(time.Minute)
	tallies := []MinuteTally{
		{Minute: base, Total: 1},
		{Minute: base.Add(time.Minute), Total: 2},
	}
	buckets := Bucketize(tallies, 0)
	assert.Len(t, buckets, 2)
}

func TestSmooth_WindowSize(t *testing.T) {
	// Window is max(1, round(30/bucketMinutes)): 6 buckets at 5-minute
	// width, 1 bucket at 60-minute width.
	buckets := make([]Bucket, 10)
	for i := range buckets {
		buckets[i].AvgTotal = float64(i + 1)
	}

	smoothed := Smooth(buckets, 5)
	// Bucket 9 averages buckets 4..9: (5+6+7+8+9+10)/6.
	assert.InDelta(t, 7.5, smoothed[9].AvgTotal, 1e-9)
	// Bucket 0 has only itself in the trailing window.
	assert.InDelta(t, 1.0, smoothed[0].AvgTotal, 1e-9)

	// 60-minute buckets smooth with window 1, leaving values untouched.
	identity := Smooth(buckets, 60)
	for i := range buckets {
		assert.InDelta(t, buckets[i].AvgTotal, identity[i].AvgTotal, 1e-9)
	}
}

func TestSmooth_LeavesScoresUntouched(t *testing.T) {
	score := 0.7
	buckets := []Bucket{
		{AvgTotal: 1, AvgScore: &score},
		{AvgTotal: 100},
	}
	smoothed := Smooth(buckets, 1)
	assert.Same(t, &score, smoothed[0].AvgScore)
	assert.Nil(t, smoothed[1].AvgScore)
	// Input is not mutated.
	assert.InDelta(t, 1.0, buckets[0].AvgTotal, 1e-9)
}

func TestAnomalyTimeline(t *testing.T) {
	base := int64(1700000040) // minute-aligned
	rows := []dataset.Row{
		timedRow(base, "Attack", 0.9),
		timedRow(base+5, "Attack", 0.8),
		timedRow(base+60, "Normal", 0.1),
	}
	points := AnomalyTimeline(rows, testSchema)
	require.Len(t, points, 1)
	assert.Equal(t, time.Unix(base, 0).UTC().Format(time.RFC3339), points[0].Timestamp)
	assert.Equal(t, 2, points[0].Count)
}
