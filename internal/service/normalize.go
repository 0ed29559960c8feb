package service

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/boddenberg/spend-analysis-go/internal/domain"
)

// ============================================================
// TransactionNormalizer
// ============================================================

// NormalizeTransactions converts raw transaction records into the canonical
// table. Every input produces exactly one row; malformed fields fall back to
// their zero value and are never reported.
func NormalizeTransactions(raw []domain.RawRecord) []domain.NormalizedRecord {
	rows := make([]domain.NormalizedRecord, 0, len(raw))
	for _, r := range raw {
		row := domain.NormalizedRecord{
			ID:         stringField(r["_id"]),
			User:       stringField(r["user"]),
			CategoryID: categoryRef(r["category"]),
			Price:      coercePrice(r["price"]),
			Text:       stringField(r["text"]),
			Items:      normalizeItems(r["items"]),
		}

		createdAt := r["createdAt"]
		if isBlank(createdAt) {
			createdAt = r["created_at"]
		}
		if ts, ok := domain.ParseTimestamp(createdAt); ok {
			row.CreatedAt = &ts
		}

		rows = append(rows, row)
	}
	return rows
}

// NormalizeCategories keeps every object-shaped category record.
func NormalizeCategories(raw []domain.RawRecord) []domain.Category {
	cats := make([]domain.Category, 0, len(raw))
	for _, r := range raw {
		if r == nil {
			continue
		}
		cat := domain.Category{
			ID:   stringField(r["_id"]),
			Name: stringField(r["name"]),
		}
		if list, ok := r["items"].([]any); ok {
			for _, v := range list {
				if id := stringField(v); id != "" {
					cat.ItemIDs = append(cat.ItemIDs, id)
				}
			}
		}
		cats = append(cats, cat)
	}
	return cats
}

// ParseTimeRange validates the optional time_range of a request.
func ParseTimeRange(raw *domain.RawTimeRange) (*domain.TimeRange, error) {
	if raw == nil {
		return nil, nil
	}
	tr := &domain.TimeRange{}
	if !isBlank(raw.Start) {
		ts, ok := domain.ParseTimestamp(raw.Start)
		if !ok {
			return nil, &domain.ErrValidation{Field: "time_range.start", Message: "unrecognized timestamp"}
		}
		tr.Start = &ts
	}
	if !isBlank(raw.End) {
		ts, ok := domain.ParseTimestamp(raw.End)
		if !ok {
			return nil, &domain.ErrValidation{Field: "time_range.end", Message: "unrecognized timestamp"}
		}
		tr.End = &ts
	}
	return tr, nil
}

// ParseAsOf resolves the reference instant of a request, falling back to
// now() when the value is blank.
func ParseAsOf(raw any, now func() time.Time) (time.Time, error) {
	if isBlank(raw) {
		return now().UTC(), nil
	}
	ts, ok := domain.ParseTimestamp(raw)
	if !ok {
		return time.Time{}, &domain.ErrValidation{Field: "as_of", Message: "unrecognized timestamp"}
	}
	return ts.UTC(), nil
}

func normalizeItems(v any) []domain.Item {
	list, ok := v.([]any)
	if !ok {
		return []domain.Item{}
	}
	items := make([]domain.Item, 0, len(list))
	for _, el := range list {
		obj, ok := el.(map[string]any)
		if !ok {
			continue
		}
		it := domain.Item{
			ID:   stringField(obj["_id"]),
			Name: stringField(obj["name"]),
		}
		if p, ok := parseNumber(obj["price"]); ok {
			it.Price = &p
		}
		items = append(items, it)
	}
	return items
}

// categoryRef accepts either an id string or a populated category object.
func categoryRef(v any) string {
	if obj, ok := v.(map[string]any); ok {
		return stringField(obj["_id"])
	}
	return stringField(v)
}

func coercePrice(v any) float64 {
	if f, ok := parseNumber(v); ok {
		return f
	}
	return 0
}

func parseNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func stringField(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	}
	return ""
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
