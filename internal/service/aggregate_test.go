package service_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/boddenberg/spend-analysis-go/internal/domain"
	"github.com/boddenberg/spend-analysis-go/internal/service"
)

func TestAggregate_ZeroFilledSeries(t *testing.T) {
	rows := []domain.NormalizedRecord{
		{Price: 5, CreatedAt: at("2024-01-03T09:00:00Z"), CategoryName: "Transport"},
		{Price: 10, CreatedAt: at("2024-01-01T18:00:00Z"), CategoryName: "Food",
			Items: []domain.Item{{Name: "coffee"}, {Name: ""}, {Name: "coffee"}}},
	}

	agg := service.Aggregate(rows)

	if agg.TotalAmount != 15 {
		t.Errorf("expected total 15, got %v", agg.TotalAmount)
	}

	series, _ := json.Marshal(domain.DailySeries(agg.DailySeries))
	if string(series) != `{"2024-01-01":10,"2024-01-02":0,"2024-01-03":5}` {
		t.Errorf("unexpected series %s", series)
	}

	totals, _ := json.Marshal(domain.RankedAmounts(agg.CategoryTotals))
	if string(totals) != `{"Food":10,"Transport":5}` {
		t.Errorf("unexpected category totals %s", totals)
	}

	if agg.ItemCounts["Food"]["coffee"] != 2 {
		t.Errorf("expected 2 coffees, got %v", agg.ItemCounts)
	}
	if _, ok := agg.ItemCounts["Transport"]; ok {
		t.Error("expected no entry for a category without items")
	}
}

func TestAggregate_SeriesSumsToTotal(t *testing.T) {
	rows := []domain.NormalizedRecord{
		{Price: 0.1, CreatedAt: at("2024-03-01T00:00:00Z")},
		{Price: 0.2, CreatedAt: at("2024-03-01T23:59:59Z")},
		{Price: -1.5, CreatedAt: at("2024-03-04T12:00:00Z")},
		{Price: 7.25, CreatedAt: at("2024-03-02T06:00:00Z")},
	}

	agg := service.Aggregate(rows)

	sum := 0.0
	for _, p := range agg.DailySeries {
		sum += p.Amount
	}
	if diff := sum - agg.TotalAmount; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected series to sum to %v, got %v", agg.TotalAmount, sum)
	}
	if agg.DailySeries[0].Amount != 0.3 {
		t.Errorf("expected exact decimal bucket 0.3, got %v", agg.DailySeries[0].Amount)
	}
	if len(agg.DailySeries) != 4 {
		t.Errorf("expected 4 days, got %d", len(agg.DailySeries))
	}
}

func TestAggregate_UndatedRowsSkipSeries(t *testing.T) {
	rows := []domain.NormalizedRecord{
		{Price: 4, CategoryName: "Unknown"},
		{Price: 6, CreatedAt: at("2024-05-01T00:00:00Z"), CategoryName: "Unknown"},
	}

	agg := service.Aggregate(rows)

	if agg.TotalAmount != 10 {
		t.Errorf("expected total 10, got %v", agg.TotalAmount)
	}
	if len(agg.DailySeries) != 1 || agg.DailySeries[0].Amount != 6 {
		t.Errorf("expected only the dated row in the series, got %+v", agg.DailySeries)
	}
	if agg.CategoryTotals[0].Amount != 10 {
		t.Errorf("expected undated row in category totals, got %+v", agg.CategoryTotals)
	}
}

func TestAggregate_Empty(t *testing.T) {
	agg := service.Aggregate(nil)

	if agg.TotalAmount != 0 {
		t.Errorf("expected 0, got %v", agg.TotalAmount)
	}
	series, _ := json.Marshal(domain.DailySeries(agg.DailySeries))
	if string(series) != `{}` {
		t.Errorf("expected empty object, got %s", series)
	}
	if len(agg.CategoryTotals) != 0 || len(agg.ItemCounts) != 0 {
		t.Errorf("expected empty outputs, got %+v", agg)
	}
}

func TestCategoryTotals_TiesKeepFirstSeenOrder(t *testing.T) {
	rows := []domain.NormalizedRecord{
		{Price: 5, CreatedAt: at("2024-01-02T00:00:00Z"), CategoryName: "B"},
		{Price: 5, CreatedAt: at("2024-01-01T00:00:00Z"), CategoryName: "A"},
		{Price: 9, CreatedAt: at("2024-01-03T00:00:00Z"), CategoryName: "C"},
	}

	agg := service.Aggregate(rows)

	got := []string{agg.CategoryTotals[0].Name, agg.CategoryTotals[1].Name, agg.CategoryTotals[2].Name}
	want := []string{"C", "A", "B"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestAscendingTotalsAndTailDays(t *testing.T) {
	totals := []domain.NamedAmount{{Name: "x", Amount: 9}, {Name: "y", Amount: 1}, {Name: "z", Amount: 4}}

	asc := service.AscendingTotals(totals)
	if asc[0].Name != "y" || asc[2].Name != "x" {
		t.Errorf("expected ascending order, got %+v", asc)
	}
	if totals[0].Name != "x" {
		t.Error("expected input to be left untouched")
	}

	series := make([]domain.DatedAmount, 45)
	for i := range series {
		series[i].Amount = float64(i)
	}
	tail := service.TailDays(series, 30)
	if len(tail) != 30 || tail[0].Amount != 15 {
		t.Errorf("expected last 30 points, got %d starting at %v", len(tail), tail[0].Amount)
	}
	if len(service.TailDays(series[:3], 30)) != 3 {
		t.Error("expected short series to be returned whole")
	}
}

func TestBreakdownByCategory(t *testing.T) {
	rows := []domain.NormalizedRecord{
		{Price: 10, CategoryName: "Transport"},
		{Price: 20, CategoryName: "Food"},
		{Price: 10.005, CategoryName: "Food"},
	}

	out := service.BreakdownByCategory(rows)

	if len(out.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(out.Categories))
	}
	food := out.Categories[0]
	if food.Category != "Food" || food.Count != 2 || food.Total != 30.01 || food.Average != 15 {
		t.Errorf("unexpected food breakdown %+v", food)
	}
	if food.Percentage != 75 || out.Categories[1].Percentage != 25 {
		t.Errorf("unexpected percentages %+v", out.Categories)
	}
}

func TestBreakdownByCategory_ZeroGrandTotal(t *testing.T) {
	out := service.BreakdownByCategory([]domain.NormalizedRecord{
		{Price: 5, CategoryName: "Refund"},
		{Price: -5, CategoryName: "Food"},
	})

	for _, c := range out.Categories {
		if c.Percentage != 0 {
			t.Errorf("expected 0%% with a zero grand total, got %+v", c)
		}
	}
}

func TestCheckRepresentable(t *testing.T) {
	huge := []domain.NormalizedRecord{{Price: 1.7e308}, {Price: -1.7e308}}
	err := service.CheckRepresentable(huge)

	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation for opposite huge prices, got %v", err)
	}

	if err := service.CheckRepresentable([]domain.NormalizedRecord{{Price: 1e308}, {Price: 5}}); err != nil {
		t.Errorf("expected a finite sum to pass, got %v", err)
	}
}

func TestCategoryTotals_MatchEnrichedNamesAndTotal(t *testing.T) {
	categories := []domain.Category{
		{ID: "c1", Name: "Food"},
		{ID: "c2", Name: "Transport"},
		{ID: "c3", Name: "Refunds"},
	}
	cases := map[string][]domain.NormalizedRecord{
		"mixed": {
			{CategoryID: "c1", Price: 12.5},
			{CategoryID: "c2", Price: 3.1},
			{CategoryID: "c1", Price: 0.2},
		},
		"negative": {
			{CategoryID: "c3", Price: -40},
			{CategoryID: "c1", Price: 15.75},
			{CategoryID: "c3", Price: -0.3},
		},
		"unknown": {
			{CategoryID: "missing", Price: 7},
			{Price: 2.25},
			{CategoryID: "c2", Price: 1},
		},
		"all together": {
			{CategoryID: "c1", Price: 0.1},
			{CategoryID: "c3", Price: -9.9},
			{CategoryID: "ghost", Price: 4.4},
			{CategoryID: "c2", Price: 0.7},
			{Price: -1},
		},
	}

	for name, rows := range cases {
		t.Run(name, func(t *testing.T) {
			enriched := service.EnrichWithCategoryNames(rows, categories)
			agg := service.Aggregate(enriched)

			want := make(map[string]bool)
			for _, row := range enriched {
				want[row.CategoryName] = true
			}

			got := make(map[string]bool)
			sum := 0.0
			for _, total := range agg.CategoryTotals {
				if got[total.Name] {
					t.Errorf("category %q listed twice", total.Name)
				}
				got[total.Name] = true
				sum += total.Amount
			}

			if len(got) != len(want) {
				t.Errorf("expected categories %v, got %v", want, got)
			}
			for name := range want {
				if !got[name] {
					t.Errorf("missing category %q in %v", name, agg.CategoryTotals)
				}
			}
			if diff := sum - agg.TotalAmount; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("expected category totals to sum to %v, got %v", agg.TotalAmount, sum)
			}
		})
	}
}
