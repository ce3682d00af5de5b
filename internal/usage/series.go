package usage

import (
	"hash/fnv"
	"math"
	"math/rand/v2"
	"time"

	"github.com/modelhub/portal/internal/model"
)

// DefaultSeriesDays is long enough for a 90-day window plus a full preceding window.
const DefaultSeriesDays = 180

// GenerateSeries returns a deterministic daily series of the given length
// ending on end's UTC date, oldest first. The same seed and end date always
// produce the same series.
func GenerateSeries(seed string, end time.Time, days int) []model.DailyUsage {
	if days <= 0 {
		return []model.DailyUsage{}
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	sum := h.Sum64()
	rng := rand.New(rand.NewPCG(sum, sum^0x9e3779b97f4a7c15))

	base := 200 + rng.Float64()*1800    // typical calls per day
	growth := (rng.Float64() - 0.3) * 2 // calls added per day over the series
	unitCost := 0.0005 + rng.Float64()*0.0045
	errRate := 0.002 + rng.Float64()*0.03
	latency := 80 + rng.Float64()*420

	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	series := make([]model.DailyUsage, days)

	for i := range days {
		date := last.AddDate(0, 0, i-days+1)

		level := base + growth*float64(i)
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			level *= 0.6
		}
		noise := 0.8 + rng.Float64()*0.4
		calls := int64(math.Max(0, math.Round(level*noise)))

		errCount := int64(math.Round(float64(calls) * errRate * (0.5 + rng.Float64())))
		series[i] = model.DailyUsage{
			Date:          date,
			Calls:         calls,
			Cost:          round2(float64(calls) * unitCost),
			Errors:        errCount,
			AvgResponseMs: round2(latency * (0.85 + rng.Float64()*0.3)),
		}
	}

	return series
}

// ZeroSeries returns days empty entries ending on end's UTC date.
func ZeroSeries(end time.Time, days int) []model.DailyUsage {
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	series := make([]model.DailyUsage, days)
	for i := range days {
		series[i] = model.DailyUsage{Date: last.AddDate(0, 0, i-days+1)}
	}
	return series
}

// MergeSeries adds equally dated series together. Response times are
// weighted by calls.
func MergeSeries(all ...[]model.DailyUsage) []model.DailyUsage {
	if len(all) == 0 {
		return []model.DailyUsage{}
	}

	n := len(all[0])
	merged := make([]model.DailyUsage, n)
	weights := make([]float64, n)
	for i := range n {
		merged[i].Date = all[0][i].Date
	}

	for _, s := range all {
		for i := 0; i < n && i < len(s); i++ {
			merged[i].Calls += s[i].Calls
			merged[i].Cost += s[i].Cost
			merged[i].Errors += s[i].Errors
			merged[i].AvgResponseMs += s[i].AvgResponseMs * float64(s[i].Calls)
			weights[i] += float64(s[i].Calls)
		}
	}

	for i := range merged {
		merged[i].Cost = round2(merged[i].Cost)
		if weights[i] > 0 {
			merged[i].AvgResponseMs = round2(merged[i].AvgResponseMs / weights[i])
		}
	}
	return merged
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
