package domain

import "time"

// ============================================================
// Dashboard insights
// ============================================================

// Date grouping granularities accepted by ?period= on the by-date endpoint.
const (
	GroupDaily   = "daily"
	GroupWeekly  = "weekly"
	GroupMonthly = "monthly"
)

// Month-over-month trend labels.
const (
	TrendIncrease = "increase"
	TrendDecrease = "decrease"
	TrendStable   = "stable"
)

// Period is an inclusive [Start, End] window.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether ts falls inside the period.
func (p Period) Contains(ts time.Time) bool {
	return !ts.Before(p.Start) && !ts.After(p.End)
}

// PeriodTotals is the spend and transaction count over a window.
// Period is nil for the all-time totals.
type PeriodTotals struct {
	TotalAmount      float64 `json:"total_amount"`
	TransactionCount int     `json:"transaction_count"`
	Period           *Period `json:"period,omitempty"`
}

// SummaryResponse is returned by POST /v1/analyze/summary.
type SummaryResponse struct {
	AllTime         PeriodTotals `json:"all_time"`
	ThisMonth       PeriodTotals `json:"this_month"`
	CategoriesCount int          `json:"categories_count"`
}

// DateBucket is one group of the by-date breakdown. Key is YYYY-MM-DD,
// YYYY-Www (ISO week) or YYYY-MM depending on the granularity.
type DateBucket struct {
	Key         string  `json:"key"`
	TotalAmount float64 `json:"total_amount"`
	Count       int     `json:"count"`
}

// DateRange reports the window a by-date breakdown covers.
type DateRange struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// DateBreakdownResponse is returned by POST /v1/analyze/by-date.
type DateBreakdownResponse struct {
	Period    string       `json:"period"`
	DateRange DateRange    `json:"date_range"`
	Buckets   []DateBucket `json:"buckets"`
}

// TopCategory is one entry of the top-categories ranking.
type TopCategory struct {
	Name        string  `json:"name"`
	TotalAmount float64 `json:"total_amount"`
	Count       int     `json:"count"`
}

// TopCategoriesResponse is returned by POST /v1/analyze/top-categories.
type TopCategoriesResponse struct {
	Limit      int           `json:"limit"`
	Categories []TopCategory `json:"categories"`
}

// TrendComparison compares the current month with the previous one.
// PercentageChange is 0 when the previous month has no positive spend.
type TrendComparison struct {
	Difference       float64 `json:"difference"`
	PercentageChange int     `json:"percentage_change"`
	Trend            string  `json:"trend"`
}

// TrendsResponse is returned by POST /v1/analyze/trends.
type TrendsResponse struct {
	CurrentMonth  PeriodTotals    `json:"current_month"`
	PreviousMonth PeriodTotals    `json:"previous_month"`
	Comparison    TrendComparison `json:"comparison"`
}
