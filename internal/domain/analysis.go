package domain

import (
	"bytes"
	"encoding/json"
)

// ============================================================
// Aggregation output
// ============================================================

// DatedAmount is one bucket of the daily series.
type DatedAmount struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	Amount float64 `json:"amount"`
}

// NamedAmount is one category (or item) with its summed value.
type NamedAmount struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// Aggregates holds the pure numeric results of the aggregation stage.
type Aggregates struct {
	TotalAmount    float64
	DailySeries    []DatedAmount
	CategoryTotals []NamedAmount
	ItemCounts     map[string]map[string]int
}

// ============================================================
// Ordered JSON objects
// ============================================================

// DailySeries marshals as a JSON object whose keys keep slice order.
type DailySeries []DatedAmount

// MarshalJSON implements json.Marshaler.
func (s DailySeries) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, p.Date, p.Amount); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// RankedAmounts marshals as a JSON object whose keys keep slice order.
type RankedAmounts []NamedAmount

// MarshalJSON implements json.Marshaler.
func (s RankedAmounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, p.Name, p.Amount); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, key string, value float64) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

// ============================================================
// API responses
// ============================================================

// NoTransactionsMessage is returned when the caller sends no transactions.
const NoTransactionsMessage = "No transactions sent"

// EmptyAnalysisResponse is the short-circuit answer for an empty request.
type EmptyAnalysisResponse struct {
	Message     string  `json:"message"`
	TotalAmount float64 `json:"total_amount"`
}

// AnalysisResponse is returned by POST /v1/analyze.
type AnalysisResponse struct {
	TotalAmount       float64                   `json:"total_amount"`
	AnalysisOverTime  DailySeries               `json:"analysis_over_time"`
	CategoryAnalysis  RankedAmounts             `json:"category_analysis"`
	ItemLevelAnalysis map[string]map[string]int `json:"item_level_analysis"`
	ChartAll          string                    `json:"chart_all_base64,omitempty"`
	ChartCategory     string                    `json:"chart_category_base64,omitempty"`
	ChartMaxMin       string                    `json:"chart_max_min_base64,omitempty"`
}

// CategoryBreakdown is a per-category summary with share of the grand total.
type CategoryBreakdown struct {
	Category   string  `json:"category"`
	Count      int     `json:"count"`
	Total      float64 `json:"total"`
	Average    float64 `json:"average"`
	Percentage int     `json:"percentage"`
}

// CategoryBreakdownResponse is returned by POST /v1/analyze/categories.
type CategoryBreakdownResponse struct {
	GrandTotal float64             `json:"grand_total"`
	Categories []CategoryBreakdown `json:"categories"`
}
