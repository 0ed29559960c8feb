package service

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/boddenberg/spend-analysis-go/internal/domain"
)

// ============================================================
// Voice transcript extractor
// ============================================================

// ExtractExpenses reads one expense out of a free-form transcript. The result
// always holds exactly one element; fields that cannot be found are nil.
// Surrounding whitespace is stripped before any field is read.
func ExtractExpenses(text string) []domain.ExtractedExpense {
	t := strings.TrimSpace(text)
	if t == "" {
		return []domain.ExtractedExpense{{Category: domain.ExpenseOther}}
	}

	return []domain.ExtractedExpense{{
		Amount:   ExtractAmount(t),
		Category: ClassifyCategory(t),
		Item:     ExtractItem(t),
		Place:    ExtractPlace(t),
	}}
}

// ExtractAmount returns the first number of up to six digits with an
// optional one or two digit fraction. A comma separator is dropped, so
// "3,50" reads as 350.
func ExtractAmount(text string) *float64 {
	m := amountPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return nil
	}
	return &v
}

// ExtractPlace returns the phrase after the first "at" or "in".
func ExtractPlace(text string) *string {
	return submatch(placePattern, text)
}

// ExtractItem returns the phrase after a purchase verb, or failing that the
// leftmost whole-word mention of a known item, as spelled in the text.
func ExtractItem(text string) *string {
	if item := submatch(itemPattern, text); item != nil {
		return item
	}
	return submatch(fallbackItemPattern, text)
}

// ClassifyCategory returns the first category whose keyword occurs in text,
// or "other".
func ClassifyCategory(text string) string {
	lower := strings.ToLower(text)
	for _, table := range ExpenseCategoryKeywords {
		for _, kw := range table.Keywords {
			if strings.Contains(lower, kw) {
				return table.Category
			}
		}
	}
	return domain.ExpenseOther
}

// submatch returns the trimmed first capture group, or nil when the pattern
// does not match or captures only spaces.
func submatch(re *regexp.Regexp, text string) *string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	s := strings.TrimSpace(m[1])
	if s == "" {
		return nil
	}
	return &s
}
