package chart_test

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/boddenberg/spend-analysis-go/internal/domain"
	"github.com/boddenberg/spend-analysis-go/internal/infra/chart"
)

func assertPNG(t *testing.T, data []byte, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected image bytes")
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("expected a valid PNG, got %v", err)
	}
}

func TestRenderDailyBars(t *testing.T) {
	r := chart.NewRenderer(800, 400)

	data, err := r.RenderDailyBars([]domain.DatedAmount{
		{Date: "2024-01-01", Amount: 10},
		{Date: "2024-01-02", Amount: 0},
		{Date: "2024-01-03", Amount: 5},
	})
	assertPNG(t, data, err)
}

func TestRenderDailyBars_AllZero(t *testing.T) {
	r := chart.NewRenderer(800, 400)

	data, err := r.RenderDailyBars([]domain.DatedAmount{{Date: "2024-01-01", Amount: 0}})
	assertPNG(t, data, err)
}

func TestRenderCategoryPie(t *testing.T) {
	r := chart.NewRenderer(800, 400)

	data, err := r.RenderCategoryPie([]domain.NamedAmount{
		{Name: "Food", Amount: 30},
		{Name: "Transport", Amount: 10},
		{Name: "Refund", Amount: -5},
	})
	assertPNG(t, data, err)
}

func TestRenderCategoryPie_EmptyRendersBlank(t *testing.T) {
	r := chart.NewRenderer(800, 400)

	data, err := r.RenderCategoryPie(nil)
	assertPNG(t, data, err)

	data, err = r.RenderCategoryPie([]domain.NamedAmount{{Name: "Refund", Amount: -5}})
	assertPNG(t, data, err)
}

func TestRenderCategoryBars(t *testing.T) {
	r := chart.NewRenderer(0, 0)

	data, err := r.RenderCategoryBars([]domain.NamedAmount{
		{Name: "Refund", Amount: -5},
		{Name: "Transport", Amount: 10},
		{Name: "Food", Amount: 30},
	})
	assertPNG(t, data, err)
}

func TestRenderCategoryBars_Empty(t *testing.T) {
	r := chart.NewRenderer(800, 400)

	data, err := r.RenderCategoryBars(nil)
	assertPNG(t, data, err)
}
