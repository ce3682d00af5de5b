package usage

import (
	"math"

	"github.com/modelhub/portal/internal/model"
)

// Totals aggregates a run of daily entries.
type Totals struct {
	Calls         int64
	Cost          float64
	Errors        int64
	AvgResponseMs float64
}

// ErrorRate returns errors per call as a fraction in [0, 1], rounded to
// four places. A UI shows 0.0123 as 1.23%.
func (t Totals) ErrorRate() float64 {
	if t.Calls == 0 {
		return 0
	}
	return math.Round(float64(t.Errors)/float64(t.Calls)*10000) / 10000
}

// Result is a windowed summary of a series.
type Result struct {
	Window     Window
	Current    []model.DailyUsage
	Totals     Totals
	Previous   Totals
	CallsTrend float64
	CostTrend  float64
}

// Summarize totals the last N entries of series (N from the window, whole
// series for "all") and compares them with the N entries right before.
func Summarize(series []model.DailyUsage, w Window) Result {
	n := w.Days()
	if n <= 0 || n > len(series) {
		n = len(series)
	}

	cur := series[len(series)-n:]
	prevStart := max(len(series)-2*n, 0)
	prev := series[prevStart : len(series)-n]

	res := Result{
		Window:   w,
		Current:  cur,
		Totals:   total(cur),
		Previous: total(prev),
	}
	res.CallsTrend = Trend(float64(res.Totals.Calls), float64(res.Previous.Calls))
	res.CostTrend = Trend(res.Totals.Cost, res.Previous.Cost)
	return res
}

// Trend is the percentage change from prev to cur. A zero previous
// period reports 100.
func Trend(cur, prev float64) float64 {
	if prev == 0 {
		return 100
	}
	return round2((cur - prev) / prev * 100)
}

func total(entries []model.DailyUsage) Totals {
	var t Totals
	var weighted float64
	for _, e := range entries {
		t.Calls += e.Calls
		t.Cost += e.Cost
		t.Errors += e.Errors
		weighted += e.AvgResponseMs * float64(e.Calls)
	}
	t.Cost = round2(t.Cost)
	if t.Calls > 0 {
		t.AvgResponseMs = round2(weighted / float64(t.Calls))
	}
	return t
}
