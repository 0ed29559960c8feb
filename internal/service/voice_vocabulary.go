package service

import (
	"regexp"
	"strings"

	"github.com/boddenberg/spend-analysis-go/internal/domain"
)

// ============================================================
// Transcript vocabularies
// ============================================================

// CategoryKeywords is one category's keyword list. A transcript containing any
// keyword (case-insensitive substring) belongs to the category.
type CategoryKeywords struct {
	Category string
	Keywords []string
}

// ExpenseCategoryKeywords is checked in order; the first table with a hit wins.
var ExpenseCategoryKeywords = []CategoryKeywords{
	{
		Category: domain.ExpenseFood,
		Keywords: []string{"restaurant", "cafe", "coffee", "burger", "pizza", "lunch", "dinner", "sandwich"},
	},
	{
		Category: domain.ExpenseTransport,
		Keywords: []string{"taxi", "uber", "cab", "bus", "train", "metro", "ticket", "transport"},
	},
	{
		Category: domain.ExpenseShopping,
		Keywords: []string{"buy", "bought", "shopping", "mall", "amazon", "shoes", "clothes", "store"},
	},
	{
		Category: domain.ExpenseBills,
		Keywords: []string{"bill", "electricity", "water", "internet", "rent", "subscription"},
	},
}

// FallbackItems are looked for as whole words when no purchase verb names an
// item. The earliest mention in the transcript wins.
var FallbackItems = []string{
	"coffee", "burger", "pizza", "taxi", "train ticket", "shoes", "sandwich", "lunch", "dinner",
}

var (
	amountPattern = regexp.MustCompile(`(?i)\b(?:\$|USD\s*)?(\d{1,6}(?:[.,]\d{1,2})?)\b`)
	placePattern  = regexp.MustCompile(`(?i)\b(?:at|in)\s+([A-Za-z0-9 &\-']+?)(?:[.,]| for | on |$)`)
	itemPattern   = regexp.MustCompile(`(?i)\b(?:for|bought|ordered|purchased|got|grabbed)\s+(?:a |an |the )?([A-Za-z0-9 &\-']+?)(?:[.,]| at | in |$)`)

	fallbackItemPattern = alternation(FallbackItems)
)

// alternation builds a case-insensitive whole-word pattern matching any of words.
func alternation(words []string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
}
