package model

import "time"

// DailyUsage is one day of API usage.
type DailyUsage struct {
	Date          time.Time `json:"date"`
	Calls         int64     `json:"calls"`
	Cost          float64   `json:"cost"`
	Errors        int64     `json:"errors"`
	AvgResponseMs float64   `json:"avg_response_ms"`
}

// ModelUsageData aggregates usage of a single subscribed model.
type ModelUsageData struct {
	ModelID       string       `json:"model_id"`
	ModelName     string       `json:"model_name"`
	Calls         int64        `json:"calls"`
	Cost          float64      `json:"cost"`
	ErrorRate     float64      `json:"error_rate"`
	AvgResponseMs float64      `json:"avg_response_ms"`
	Daily         []DailyUsage `json:"daily,omitempty"`
}

// UsageSummary is the usage statistics page view-model.
type UsageSummary struct {
	Window        string           `json:"window"`
	From          string           `json:"from,omitempty"`
	To            string           `json:"to,omitempty"`
	TotalCalls    int64            `json:"total_calls"`
	TotalCost     float64          `json:"total_cost"`
	TotalErrors   int64            `json:"total_errors"`
	ErrorRate     float64          `json:"error_rate"`
	AvgResponseMs float64          `json:"avg_response_ms"`
	CallsTrend    float64          `json:"calls_trend"`
	CostTrend     float64          `json:"cost_trend"`
	Daily         []DailyUsage     `json:"daily"`
	Models        []ModelUsageData `json:"models,omitempty"`
	GeneratedAt   time.Time        `json:"generated_at"`
}
