package usage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/modelhub/portal/internal/model"
)

func TestParseWindow(t *testing.T) {
	testCases := []struct {
		in      string
		want    Window
		days    int
		wantErr bool
	}{
		{"", Window30D, 30, false},
		{"7d", Window7D, 7, false},
		{"30d", Window30D, 30, false},
		{"90d", Window90D, 90, false},
		{"all", WindowAll, 0, false},
		{"14d", "", 0, true},
		{"ALL", "", 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseWindow(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseWindow(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidWindow) {
					t.Errorf("expected ErrInvalidWindow, got %v", err)
				}
				return
			}
			if got != tc.want || got.Days() != tc.days {
				t.Errorf("ParseWindow(%q) = %s (%d days), want %s (%d days)", tc.in, got, got.Days(), tc.want, tc.days)
			}
		})
	}
}

func TestGenerateSeries_Deterministic(t *testing.T) {
	t.Parallel()

	end := time.Date(2026, 5, 20, 15, 30, 0, 0, time.UTC)
	a := GenerateSeries("user-1:model-a", end, 30)
	b := GenerateSeries("user-1:model-a", end, 30)
	c := GenerateSeries("user-1:model-b", end, 30)

	if len(a) != 30 {
		t.Fatalf("expected 30 entries, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("entry %d differs for same seed: %+v vs %+v", i, a[i], b[i])
		}
	}
	same := true
	for i := range a {
		if a[i].Calls != c[i].Calls {
			same = false
			break
		}
	}
	if same {
		t.Error("expected different seeds to produce different series")
	}
}

func TestGenerateSeries_OldestFirst(t *testing.T) {
	t.Parallel()

	end := time.Date(2026, 5, 20, 23, 59, 0, 0, time.UTC)
	series := GenerateSeries("seed", end, 10)

	want := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	if !series[9].Date.Equal(want) {
		t.Errorf("expected last date %v, got %v", want, series[9].Date)
	}
	for i := 1; i < len(series); i++ {
		if !series[i].Date.After(series[i-1].Date) {
			t.Fatalf("series not ascending at %d", i)
		}
		if series[i].Calls < 0 || series[i].Errors > series[i].Calls {
			t.Errorf("implausible entry %+v", series[i])
		}
	}
}

func TestSummarize_SevenDayTotalIsLastSevenEntries(t *testing.T) {
	t.Parallel()

	series := GenerateSeries("sum-check", time.Now(), DefaultSeriesDays)
	res := Summarize(series, Window7D)

	var want int64
	for _, e := range series[len(series)-7:] {
		want += e.Calls
	}
	if res.Totals.Calls != want {
		t.Errorf("expected 7d total %d, got %d", want, res.Totals.Calls)
	}
	if len(res.Current) != 7 {
		t.Errorf("expected 7 current entries, got %d", len(res.Current))
	}
}

func TestSummarize_Trend(t *testing.T) {
	t.Parallel()

	mk := func(calls ...int64) []model.DailyUsage {
		out := make([]model.DailyUsage, len(calls))
		for i, c := range calls {
			out[i] = model.DailyUsage{Calls: c, Cost: float64(c) / 10}
		}
		return out
	}

	testCases := []struct {
		name   string
		series []model.DailyUsage
		window Window
		want   float64
	}{
		{"growth", append(mk(10, 10, 10, 10, 10, 10, 10), mk(15, 15, 15, 15, 15, 15, 15)...), Window7D, 50},
		{"decline", append(mk(20, 20, 20, 20, 20, 20, 20), mk(10, 10, 10, 10, 10, 10, 10)...), Window7D, -50},
		{"zero previous", append(mk(0, 0, 0, 0, 0, 0, 0), mk(5, 5, 5, 5, 5, 5, 5)...), Window7D, 100},
		{"no previous window", mk(5, 5, 5), Window7D, 100},
		{"all has empty previous", mk(1, 2, 3, 4), WindowAll, 100},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res := Summarize(tc.series, tc.window)
			if res.CallsTrend != tc.want {
				t.Errorf("CallsTrend = %v, want %v", res.CallsTrend, tc.want)
			}
			if res.CostTrend != tc.want {
				t.Errorf("CostTrend = %v, want %v", res.CostTrend, tc.want)
			}
		})
	}
}

func TestSummarize_EmptySeries(t *testing.T) {
	t.Parallel()

	res := Summarize(nil, Window30D)
	if res.Totals.Calls != 0 || len(res.Current) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestTotals_ErrorRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		totals Totals
		want   float64
	}{
		{name: "no calls", totals: Totals{}, want: 0},
		{name: "no errors", totals: Totals{Calls: 500}, want: 0},
		{name: "fraction of calls", totals: Totals{Calls: 1000, Errors: 25}, want: 0.025},
		{name: "rounded to four places", totals: Totals{Calls: 3, Errors: 1}, want: 0.3333},
		{name: "all failed", totals: Totals{Calls: 7, Errors: 7}, want: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.totals.ErrorRate(); got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestService_Summary_ErrorRateIsFraction(t *testing.T) {
	t.Parallel()

	svc := newTestService(&fakeSubs{subs: []model.Subscription{
		{ID: "s1", ModelID: "m-a", ModelName: "Alpha"},
		{ID: "s2", ModelID: "m-b", ModelName: "Beta"},
	}})

	summary, err := svc.Summary(context.Background(), Query{Token: "tok", UserID: "usr_1", Window: Window30D})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.TotalErrors == 0 {
		t.Fatal("expected generated errors in a 30 day window")
	}
	if summary.ErrorRate <= 0 || summary.ErrorRate > 1 {
		t.Errorf("expected error rate in (0, 1], got %v", summary.ErrorRate)
	}
	want := Totals{Calls: summary.TotalCalls, Errors: summary.TotalErrors}.ErrorRate()
	if summary.ErrorRate != want {
		t.Errorf("expected %v errors per call, got %v", want, summary.ErrorRate)
	}
	for _, m := range summary.Models {
		if m.ErrorRate < 0 || m.ErrorRate > 1 {
			t.Errorf("expected %s error rate in [0, 1], got %v", m.ModelID, m.ErrorRate)
		}
	}
}

func TestMergeSeries(t *testing.T) {
	t.Parallel()

	d := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := []model.DailyUsage{{Date: d, Calls: 10, Cost: 1, Errors: 1, AvgResponseMs: 100}}
	b := []model.DailyUsage{{Date: d, Calls: 30, Cost: 2, Errors: 0, AvgResponseMs: 200}}

	got := MergeSeries(a, b)[0]
	if got.Calls != 40 || got.Cost != 3 || got.Errors != 1 {
		t.Errorf("unexpected merge %+v", got)
	}
	if got.AvgResponseMs != 175 {
		t.Errorf("expected weighted avg 175, got %v", got.AvgResponseMs)
	}
}

type fakeSubs struct {
	subs []model.Subscription
	err  error
}

func (f *fakeSubs) ListSubscriptions(ctx context.Context, token string) ([]model.Subscription, error) {
	return f.subs, f.err
}

func newTestService(subs SubscriptionLister) *Service {
	s := NewService(subs, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.now = func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestService_Summary(t *testing.T) {
	t.Parallel()

	svc := newTestService(&fakeSubs{subs: []model.Subscription{
		{ID: "s1", ModelID: "m-a", ModelName: "Alpha"},
		{ID: "s2", ModelID: "m-b", ModelName: "Beta"},
	}})

	got, err := svc.Summary(context.Background(), Query{Token: "t", UserID: "u1", Window: Window7D})
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if len(got.Daily) != 7 {
		t.Errorf("expected 7 daily entries, got %d", len(got.Daily))
	}
	if got.To != "2026-06-01" || got.From != "2026-05-26" {
		t.Errorf("unexpected range %s..%s", got.From, got.To)
	}
	if len(got.Models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(got.Models))
	}
	if got.Models[0].Calls < got.Models[1].Calls {
		t.Error("expected models sorted by calls descending")
	}
	if got.Models[0].Calls+got.Models[1].Calls != got.TotalCalls {
		t.Errorf("model calls do not add up to total %d", got.TotalCalls)
	}
	if got.Models[0].Daily != nil {
		t.Error("expected per-model daily series only when filtering")
	}
}

func TestService_Summary_ModelFilter(t *testing.T) {
	t.Parallel()

	svc := newTestService(&fakeSubs{subs: []model.Subscription{
		{ModelID: "m-a", ModelName: "Alpha"},
		{ModelID: "m-b", ModelName: "Beta"},
	}})

	got, err := svc.Summary(context.Background(), Query{Token: "t", UserID: "u1", Window: Window30D, ModelID: "m-b"})
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if len(got.Models) != 1 || got.Models[0].ModelID != "m-b" {
		t.Fatalf("expected only m-b, got %+v", got.Models)
	}
	if got.Models[0].Calls != got.TotalCalls {
		t.Errorf("expected filtered total to equal model calls")
	}
	if len(got.Models[0].Daily) != 30 {
		t.Errorf("expected 30 daily entries for filtered model, got %d", len(got.Models[0].Daily))
	}

	_, err = svc.Summary(context.Background(), Query{Token: "t", UserID: "u1", Window: Window30D, ModelID: "nope"})
	if !errors.Is(err, ErrUnknownModel) {
		t.Errorf("expected ErrUnknownModel, got %v", err)
	}
}

func TestService_Summary_NoSubscriptions(t *testing.T) {
	t.Parallel()

	svc := newTestService(&fakeSubs{})
	got, err := svc.Summary(context.Background(), Query{Token: "t", UserID: "u1", Window: Window7D})
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if got.TotalCalls != 0 || len(got.Daily) != 7 {
		t.Errorf("expected 7 zero entries, got total %d and %d entries", got.TotalCalls, len(got.Daily))
	}
	if got.CallsTrend != 100 {
		t.Errorf("expected zero-guard trend 100, got %v", got.CallsTrend)
	}
}

func TestService_Summary_BackendError(t *testing.T) {
	t.Parallel()

	boom := errors.New("backend down")
	svc := newTestService(&fakeSubs{err: boom})
	if _, err := svc.Summary(context.Background(), Query{Window: Window7D}); !errors.Is(err, boom) {
		t.Errorf("expected wrapped backend error, got %v", err)
	}
}
