package service

import "github.com/boddenberg/spend-analysis-go/internal/domain"

// ============================================================
// TimeRangeFilter
// ============================================================

// FilterByTimeRange keeps rows inside the inclusive window, preserving order.
// Rows without a timestamp are dropped whenever either bound is set and
// kept when the range is unbounded.
func FilterByTimeRange(rows []domain.NormalizedRecord, tr *domain.TimeRange) []domain.NormalizedRecord {
	if !tr.Bounded() {
		return rows
	}

	out := make([]domain.NormalizedRecord, 0, len(rows))
	for _, row := range rows {
		if row.CreatedAt == nil {
			continue
		}
		if tr.Start != nil && row.CreatedAt.Before(*tr.Start) {
			continue
		}
		if tr.End != nil && row.CreatedAt.After(*tr.End) {
			continue
		}
		out = append(out, row)
	}
	return out
}
