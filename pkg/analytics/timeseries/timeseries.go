// Package timeseries buckets timestamped rows into fixed-width windows for
// trend charts: per-minute tallies first, then caller-selected bucket widths
// with per-observed-minute averaging and optional moving-average smoothing.
package timeseries

import (
	"math"
	"sort"
	"time"

	"github.com/flowsight/flowsight/pkg/dataset"
)

// Smoothing spreads a trailing moving average over roughly this many minutes
// worth of buckets.
const smoothingSpanMinutes = 30.0

// MinuteTally accumulates one minute of activity.
type MinuteTally struct {
	Minute    time.Time `json:"minute"`
	Total     int       `json:"total"`
	Anomalies int       `json:"anomalies"`

	ScoreSum   float64 `json:"-"`
	ScoreCount int     `json:"-"`
	ScoreMax   float64 `json:"-"`
}

// Bucket is one fixed-width window of the trend series. The count fields are
// averages per minute actually observed within the bucket, not per minute of
// bucket width, so the y-axis stays comparable across sparse buckets.
// AvgScore and PeakScore are nil when no row in the bucket carried a score.
type Bucket struct {
	Start      time.Time `json:"start"`
	Minutes    int       `json:"minutes_observed"`
	AvgTotal   float64   `json:"avg_total"`
	AvgNormal  float64   `json:"avg_normal"`
	AvgAnomaly float64   `json:"avg_anomaly"`
	AvgScore   *float64  `json:"avg_score"`
	PeakScore  *float64  `json:"peak_score"`
}

// TimelinePoint is one minute of anomaly activity, for the
// anomalies-over-time chart.
type TimelinePoint struct {
	Timestamp string `json:"timestamp"`
	Count     int    `json:"count"`
}

// MinuteTallies truncates each row's timestamp to the minute and tallies
// totals, anomalies (prediction equals the positive label) and score
// statistics. Rows without a parseable timestamp are excluded from the
// series; they still count in every other aggregate. The result is sorted by
// minute ascending.
func MinuteTallies(rows []dataset.Row, schema dataset.Schema) []MinuteTally {
	if schema.TimeColumn == "" {
		return nil
	}
	byMinute := make(map[time.Time]*MinuteTally)
	for _, row := range rows {
		raw, ok := row.Field(schema.TimeColumn)
		if !ok {
			continue
		}
		ts, ok := dataset.ParseTime(raw)
		if !ok {
			continue
		}
		minute := ts.Truncate(time.Minute)
		tally := byMinute[minute]
		if tally == nil {
			tally = &MinuteTally{Minute: minute}
			byMinute[minute] = tally
		}
		tally.Total++
		if schema.PositiveLabel != "" && row.Prediction == schema.PositiveLabel {
			tally.Anomalies++
		}
		if score, ok := row.ScoreValue(); ok {
			tally.ScoreSum += score
			tally.ScoreCount++
			if score > tally.ScoreMax {
				tally.ScoreMax = score
			}
		}
	}
	out := make([]MinuteTally, 0, len(byMinute))
	for _, tally := range byMinute {
		out = append(out, *tally)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Minute.Before(out[j].Minute) })
	return out
}

// Bucketize re-buckets minute-level tallies into bucketMinutes-wide windows.
// Empty input yields an empty sequence. bucketMinutes below 1 is treated
// as 1. Buckets are emitted for the full covered span, including windows
// with no observed minutes.
func Bucketize(tallies []MinuteTally, bucketMinutes int) []Bucket {
	if len(tallies) == 0 {
		return nil
	}
	if bucketMinutes < 1 {
		bucketMinutes = 1
	}
	width := time.Duration(bucketMinutes) * time.Minute

	first := tallies[0].Minute.Truncate(width)
	last := tallies[len(tallies)-1].Minute.Truncate(width)
	n := int(last.Sub(first)/width) + 1

	buckets := make([]Bucket, n)
	scoreSums := make([]float64, n)
	scoreCounts := make([]int, n)
	for i := range buckets {
		buckets[i].Start = first.Add(time.Duration(i) * width)
	}
	for _, tally := range tallies {
		i := int(tally.Minute.Truncate(width).Sub(first) / width)
		b := &buckets[i]
		b.Minutes++
		b.AvgTotal += float64(tally.Total)
		b.AvgAnomaly += float64(tally.Anomalies)
		b.AvgNormal += float64(tally.Total - tally.Anomalies)
		scoreSums[i] += tally.ScoreSum
		scoreCounts[i] += tally.ScoreCount
		if tally.ScoreCount > 0 {
			if b.PeakScore == nil || tally.ScoreMax > *b.PeakScore {
				peak := tally.ScoreMax
				b.PeakScore = &peak
			}
		}
	}
	for i := range buckets {
		b := &buckets[i]
		if b.Minutes > 0 {
			m := float64(b.Minutes)
			b.AvgTotal /= m
			b.AvgAnomaly /= m
			b.AvgNormal /= m
		}
		if scoreCounts[i] > 0 {
			avg := scoreSums[i] / float64(scoreCounts[i])
			b.AvgScore = &avg
		}
	}
	return buckets
}

// Smooth applies a trailing moving average over the count averages. The
// window covers roughly thirty minutes worth of buckets:
// max(1, round(30/bucketMinutes)). Score fields are left untouched.
func Smooth(buckets []Bucket, bucketMinutes int) []Bucket {
	if len(buckets) == 0 {
		return buckets
	}
	if bucketMinutes < 1 {
		bucketMinutes = 1
	}
	window := int(math.Round(smoothingSpanMinutes / float64(bucketMinutes)))
	if window < 1 {
		window = 1
	}
	out := make([]Bucket, len(buckets))
	copy(out, buckets)
	for i := range out {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		var total, normal, anomaly float64
		span := i - start + 1
		for j := start; j <= i; j++ {
			total += buckets[j].AvgTotal
			normal += buckets[j].AvgNormal
			anomaly += buckets[j].AvgAnomaly
		}
		out[i].AvgTotal = total / float64(span)
		out[i].AvgNormal = normal / float64(span)
		out[i].AvgAnomaly = anomaly / float64(span)
	}
	return out
}

// AnomalyTimeline renders per-minute anomaly counts in the wire shape of the
// upload response, skipping minutes with no anomalies.
func AnomalyTimeline(rows []dataset.Row, schema dataset.Schema) []TimelinePoint {
	tallies := MinuteTallies(rows, schema)
	out := make([]TimelinePoint, 0, len(tallies))
	for _, tally := range tallies {
		if tally.Anomalies == 0 {
			continue
		}
		out = append(out, TimelinePoint{
			Timestamp: tally.Minute.Format(time.RFC3339),
			Count:     tally.Anomalies,
		})
	}
	return out
}
