package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// ============================================================
// Loosely-typed input
// ============================================================

// RawRecord is a transaction-, category- or item-like object exactly as the
// caller sent it. Decoding never fails: anything that is not a JSON object
// becomes an empty record, and numbers keep their textual form.
type RawRecord map[string]any

// UnmarshalJSON implements json.Unmarshaler.
func (r *RawRecord) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		*r = nil
		return nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		*r = nil
		return nil
	}
	*r = obj
	return nil
}

// RawTimeRange carries the unparsed bounds of a time_range filter.
type RawTimeRange struct {
	Start any `json:"start"`
	End   any `json:"end"`
}

// AnalyzeRequest is the body accepted by the analysis endpoints.
// Items is accepted for interface compatibility and never read. AsOf is the
// reference instant for month-relative insights; blank means now.
type AnalyzeRequest struct {
	UserID       any           `json:"user_id,omitempty"`
	Transactions []RawRecord   `json:"transactions"`
	Categories   []RawRecord   `json:"categories"`
	Items        []RawRecord   `json:"items"`
	TimeRange    *RawTimeRange `json:"time_range,omitempty"`
	AsOf         any           `json:"as_of,omitempty"`
}

// ============================================================
// Canonical records
// ============================================================

// Item is a line item of a transaction. Only Name is used downstream.
type Item struct {
	ID    string   `json:"_id,omitempty"`
	Name  string   `json:"name,omitempty"`
	Price *float64 `json:"price,omitempty"`
}

// Category maps a category id to its display name.
type Category struct {
	ID      string   `json:"_id"`
	Name    string   `json:"name"`
	ItemIDs []string `json:"items,omitempty"`
}

// TimeRange is an inclusive [Start, End] window; nil means unbounded.
type TimeRange struct {
	Start *time.Time
	End   *time.Time
}

// Bounded reports whether at least one side of the range is set.
func (tr *TimeRange) Bounded() bool {
	return tr != nil && (tr.Start != nil || tr.End != nil)
}

// NormalizedRecord is one canonical row of the analysis table.
type NormalizedRecord struct {
	ID           string     `json:"_id,omitempty"`
	User         string     `json:"user,omitempty"`
	CategoryID   string     `json:"category,omitempty"`
	Price        float64    `json:"price"`
	Text         string     `json:"text,omitempty"`
	CreatedAt    *time.Time `json:"createdAt"`
	Items        []Item     `json:"items"`
	CategoryName string     `json:"category_name"`
}
