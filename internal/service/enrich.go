package service

import "github.com/boddenberg/spend-analysis-go/internal/domain"

// UnknownCategory names rows whose category could not be resolved.
const UnknownCategory = "Unknown"

// EnrichWithCategoryNames left-joins rows to their category display name.
// The input slice is not modified.
func EnrichWithCategoryNames(rows []domain.NormalizedRecord, categories []domain.Category) []domain.NormalizedRecord {
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name // last wins
	}

	out := make([]domain.NormalizedRecord, len(rows))
	for i, row := range rows {
		name := names[row.CategoryID]
		if name == "" {
			name = UnknownCategory
		}
		row.CategoryName = name
		out[i] = row
	}
	return out
}
