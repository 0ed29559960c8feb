package service

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/boddenberg/spend-analysis-go/internal/domain"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// ============================================================
// Aggregator
// ============================================================

// Aggregate computes every numeric output of the analysis from an enriched
// table. It sorts its own copy of the rows by creation time, so callers need
// not pre-sort.
func Aggregate(rows []domain.NormalizedRecord) *domain.Aggregates {
	sorted := SortByCreatedAt(rows)

	return &domain.Aggregates{
		TotalAmount:    TotalAmount(sorted),
		DailySeries:    DailySeries(sorted),
		CategoryTotals: CategoryTotals(sorted),
		ItemCounts:     ItemCounts(sorted),
	}
}

// SortByCreatedAt returns a copy ordered by creation time ascending.
// Undated rows go last; ties keep their input order.
func SortByCreatedAt(rows []domain.NormalizedRecord) []domain.NormalizedRecord {
	out := make([]domain.NormalizedRecord, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].CreatedAt, out[j].CreatedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.Before(*b)
	})
	return out
}

// CheckRepresentable reports an ErrValidation when the absolute prices sum
// past the float64 range. Every total, bucket and average is bounded by that
// sum, so passing the check means no output becomes infinite.
func CheckRepresentable(rows []domain.NormalizedRecord) error {
	sum := decimal.Zero
	for _, row := range rows {
		sum = sum.Add(decimal.NewFromFloat(row.Price).Abs())
	}
	if math.IsInf(sum.InexactFloat64(), 0) {
		return &domain.ErrValidation{Field: "transactions", Message: "amounts sum beyond the representable range"}
	}
	return nil
}

// TotalAmount sums every price.
func TotalAmount(rows []domain.NormalizedRecord) float64 {
	sum := decimal.Zero
	for _, row := range rows {
		sum = sum.Add(decimal.NewFromFloat(row.Price))
	}
	return sum.InexactFloat64()
}

// DailySeries buckets dated rows by UTC calendar day and returns one entry
// per day from the first to the last bucket, zero-filling the gaps.
func DailySeries(rows []domain.NormalizedRecord) []domain.DatedAmount {
	buckets := make(map[string]decimal.Decimal)
	var first, last time.Time
	seen := false

	for _, row := range rows {
		if row.CreatedAt == nil {
			continue
		}
		ts := row.CreatedAt.UTC()
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		key := day.Format(dateLayout)
		buckets[key] = buckets[key].Add(decimal.NewFromFloat(row.Price))

		if !seen || day.Before(first) {
			first = day
		}
		if !seen || day.After(last) {
			last = day
		}
		seen = true
	}

	if !seen {
		return []domain.DatedAmount{}
	}

	series := make([]domain.DatedAmount, 0, int(last.Sub(first).Hours()/24)+1)
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		key := day.Format(dateLayout)
		series = append(series, domain.DatedAmount{
			Date:   key,
			Amount: buckets[key].InexactFloat64(),
		})
	}
	return series
}

// CategoryTotals sums price per category name, largest first.
// Ties keep the order in which the category was first seen.
func CategoryTotals(rows []domain.NormalizedRecord) []domain.NamedAmount {
	sums := make(map[string]decimal.Decimal)
	order := make([]string, 0)

	for _, row := range rows {
		if _, ok := sums[row.CategoryName]; !ok {
			order = append(order, row.CategoryName)
		}
		sums[row.CategoryName] = sums[row.CategoryName].Add(decimal.NewFromFloat(row.Price))
	}

	totals := make([]domain.NamedAmount, 0, len(order))
	for _, name := range order {
		totals = append(totals, domain.NamedAmount{Name: name, Amount: sums[name].InexactFloat64()})
	}
	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Amount > totals[j].Amount
	})
	return totals
}

// ItemCounts counts named items per category. Categories with no named
// items are left out.
func ItemCounts(rows []domain.NormalizedRecord) map[string]map[string]int {
	counts := make(map[string]map[string]int)
	for _, row := range rows {
		for _, it := range row.Items {
			if it.Name == "" {
				continue
			}
			perCat, ok := counts[row.CategoryName]
			if !ok {
				perCat = make(map[string]int)
				counts[row.CategoryName] = perCat
			}
			perCat[it.Name]++
		}
	}
	return counts
}

// AscendingTotals returns a copy of totals ordered smallest first.
func AscendingTotals(totals []domain.NamedAmount) []domain.NamedAmount {
	out := make([]domain.NamedAmount, len(totals))
	copy(out, totals)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount < out[j].Amount
	})
	return out
}

// TailDays returns at most the last n entries of the series.
func TailDays(series []domain.DatedAmount, n int) []domain.DatedAmount {
	if n <= 0 || len(series) <= n {
		return series
	}
	return series[len(series)-n:]
}

// BreakdownByCategory summarizes count, total, average and share per category.
func BreakdownByCategory(rows []domain.NormalizedRecord) *domain.CategoryBreakdownResponse {
	sorted := SortByCreatedAt(rows)

	type acc struct {
		sum   decimal.Decimal
		count int
	}
	byName := make(map[string]*acc)
	order := make([]string, 0)
	grand := decimal.Zero

	for _, row := range sorted {
		a, ok := byName[row.CategoryName]
		if !ok {
			a = &acc{}
			byName[row.CategoryName] = a
			order = append(order, row.CategoryName)
		}
		price := decimal.NewFromFloat(row.Price)
		a.sum = a.sum.Add(price)
		a.count++
		grand = grand.Add(price)
	}

	hundred := decimal.NewFromInt(100)
	out := make([]domain.CategoryBreakdown, 0, len(order))
	for _, name := range order {
		a := byName[name]
		pct := 0
		if grand.IsPositive() {
			pct = int(a.sum.Div(grand).Mul(hundred).Round(0).IntPart())
		}
		out = append(out, domain.CategoryBreakdown{
			Category:   name,
			Count:      a.count,
			Total:      a.sum.Round(2).InexactFloat64(),
			Average:    a.sum.Div(decimal.NewFromInt(int64(a.count))).Round(2).InexactFloat64(),
			Percentage: pct,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total > out[j].Total
	})

	return &domain.CategoryBreakdownResponse{
		GrandTotal: grand.InexactFloat64(),
		Categories: out,
	}
}

// ============================================================
// Insights
// ============================================================

// DefaultTopCategories is the ranking size used when no valid limit is given.
const DefaultTopCategories = 5

// MonthPeriod returns the UTC calendar month containing ref, shifted by
// offset months.
func MonthPeriod(ref time.Time, offset int) domain.Period {
	ref = ref.UTC()
	start := time.Date(ref.Year(), ref.Month()+time.Month(offset), 1, 0, 0, 0, 0, time.UTC)
	return domain.Period{Start: start, End: start.AddDate(0, 1, 0).Add(-time.Nanosecond)}
}

// TotalsFor sums the rows dated inside p. A nil p covers every row,
// undated ones included.
func TotalsFor(rows []domain.NormalizedRecord, p *domain.Period) domain.PeriodTotals {
	sum, count := totalsFor(rows, p)
	return domain.PeriodTotals{TotalAmount: sum.InexactFloat64(), TransactionCount: count, Period: p}
}

func totalsFor(rows []domain.NormalizedRecord, p *domain.Period) (decimal.Decimal, int) {
	sum := decimal.Zero
	count := 0
	for _, row := range rows {
		if p != nil && (row.CreatedAt == nil || !p.Contains(*row.CreatedAt)) {
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(row.Price))
		count++
	}
	return sum, count
}

// Summarize reports all-time totals and the totals of the month containing ref.
func Summarize(rows []domain.NormalizedRecord, categoriesCount int, ref time.Time) *domain.SummaryResponse {
	month := MonthPeriod(ref, 0)
	return &domain.SummaryResponse{
		AllTime:         TotalsFor(rows, nil),
		ThisMonth:       TotalsFor(rows, &month),
		CategoriesCount: categoriesCount,
	}
}

// GroupByDate buckets dated rows by UTC day, ISO week or month, oldest
// first. An empty granularity means daily.
func GroupByDate(rows []domain.NormalizedRecord, granularity string) ([]domain.DateBucket, error) {
	var keyOf func(time.Time) string
	switch granularity {
	case "", domain.GroupDaily:
		keyOf = func(ts time.Time) string { return ts.Format(dateLayout) }
	case domain.GroupWeekly:
		keyOf = func(ts time.Time) string {
			year, week := ts.ISOWeek()
			return fmt.Sprintf("%04d-W%02d", year, week)
		}
	case domain.GroupMonthly:
		keyOf = func(ts time.Time) string { return ts.Format("2006-01") }
	default:
		return nil, &domain.ErrValidation{Field: "period", Message: "must be one of daily, weekly, monthly"}
	}

	type acc struct {
		sum   decimal.Decimal
		count int
	}
	byKey := make(map[string]*acc)
	keys := make([]string, 0)
	for _, row := range rows {
		if row.CreatedAt == nil {
			continue
		}
		key := keyOf(row.CreatedAt.UTC())
		a, ok := byKey[key]
		if !ok {
			a = &acc{}
			byKey[key] = a
			keys = append(keys, key)
		}
		a.sum = a.sum.Add(decimal.NewFromFloat(row.Price))
		a.count++
	}
	// Zero-padded keys sort chronologically.
	sort.Strings(keys)

	buckets := make([]domain.DateBucket, 0, len(keys))
	for _, key := range keys {
		a := byKey[key]
		buckets = append(buckets, domain.DateBucket{Key: key, TotalAmount: a.sum.InexactFloat64(), Count: a.count})
	}
	return buckets, nil
}

// DatedSpan returns the earliest and latest creation times among rows.
func DatedSpan(rows []domain.NormalizedRecord) domain.DateRange {
	var span domain.DateRange
	for _, row := range rows {
		if row.CreatedAt == nil {
			continue
		}
		ts := row.CreatedAt.UTC()
		if span.Start == nil || ts.Before(*span.Start) {
			span.Start = &ts
		}
		if span.End == nil || ts.After(*span.End) {
			span.End = &ts
		}
	}
	return span
}

// TopCategories ranks resolved categories by total spend, largest first,
// and keeps the first limit. Ties keep first-seen order by creation time.
// A limit below 1 falls back to DefaultTopCategories.
func TopCategories(rows []domain.NormalizedRecord, limit int) []domain.TopCategory {
	if limit < 1 {
		limit = DefaultTopCategories
	}

	type acc struct {
		sum   decimal.Decimal
		count int
	}
	byName := make(map[string]*acc)
	order := make([]string, 0)
	for _, row := range SortByCreatedAt(rows) {
		if row.CategoryName == UnknownCategory {
			continue
		}
		a, ok := byName[row.CategoryName]
		if !ok {
			a = &acc{}
			byName[row.CategoryName] = a
			order = append(order, row.CategoryName)
		}
		a.sum = a.sum.Add(decimal.NewFromFloat(row.Price))
		a.count++
	}

	ranked := make([]domain.TopCategory, 0, len(order))
	for _, name := range order {
		a := byName[name]
		ranked = append(ranked, domain.TopCategory{Name: name, TotalAmount: a.sum.InexactFloat64(), Count: a.count})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalAmount > ranked[j].TotalAmount
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// CompareMonths compares spend in the month containing ref with the month
// before it. The percentage is rounded half up.
func CompareMonths(rows []domain.NormalizedRecord, ref time.Time) *domain.TrendsResponse {
	current, previous := MonthPeriod(ref, 0), MonthPeriod(ref, -1)
	curSum, curCount := totalsFor(rows, &current)
	prevSum, prevCount := totalsFor(rows, &previous)

	diff := curSum.Sub(prevSum)
	pct := 0
	if prevSum.IsPositive() {
		pct = int(diff.Div(prevSum).Mul(decimal.NewFromInt(100)).Add(decimal.NewFromFloat(0.5)).Floor().IntPart())
	}

	trend := domain.TrendStable
	switch diff.Sign() {
	case 1:
		trend = domain.TrendIncrease
	case -1:
		trend = domain.TrendDecrease
	}

	return &domain.TrendsResponse{
		CurrentMonth:  domain.PeriodTotals{TotalAmount: curSum.InexactFloat64(), TransactionCount: curCount, Period: &current},
		PreviousMonth: domain.PeriodTotals{TotalAmount: prevSum.InexactFloat64(), TransactionCount: prevCount, Period: &previous},
		Comparison: domain.TrendComparison{
			Difference:       diff.InexactFloat64(),
			PercentageChange: pct,
			Trend:            trend,
		},
	}
}
