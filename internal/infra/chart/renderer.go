// Package chart renders the analysis charts as PNG images with go-chart.
package chart

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/boddenberg/spend-analysis-go/internal/domain"

	gochart "github.com/wcharczuk/go-chart/v2"
)

const (
	titleDaily    = "Spending Over Time"
	titleCategory = "Spending by Category"
	titleMaxMin   = "Category Amounts"
)

// Renderer implements port.ChartRenderer.
type Renderer struct {
	width  int
	height int
}

// NewRenderer creates a renderer producing images of the given size.
func NewRenderer(width, height int) *Renderer {
	if width <= 0 {
		width = 800
	}
	if height <= 0 {
		height = 400
	}
	return &Renderer{width: width, height: height}
}

// RenderDailyBars draws one bar per day in slice order.
func (g *Renderer) RenderDailyBars(series []domain.DatedAmount) ([]byte, error) {
	if len(series) == 0 {
		return g.blank(titleDaily, g.width, g.height)
	}

	bars := make([]gochart.Value, 0, len(series))
	values := make([]float64, 0, len(series))
	for _, p := range series {
		label := p.Date
		if len(label) == len("2006-01-02") {
			label = label[5:] // MM-DD keeps thirty labels readable
		}
		bars = append(bars, gochart.Value{Label: label, Value: p.Amount})
		values = append(values, p.Amount)
	}

	graph := g.barChart(titleDaily, g.width, g.height, bars, values)
	return render(graph, "daily bars")
}

// RenderCategoryPie draws a pie of the positive category totals.
func (g *Renderer) RenderCategoryPie(values []domain.NamedAmount) ([]byte, error) {
	total := 0.0
	for _, v := range values {
		if v.Amount > 0 {
			total += v.Amount
		}
	}
	if total <= 0 {
		return g.blank(titleCategory, g.height, g.height)
	}

	slices := make([]gochart.Value, 0, len(values))
	for _, v := range values {
		if v.Amount <= 0 {
			continue
		}
		slices = append(slices, gochart.Value{
			Label: fmt.Sprintf("%s (%.1f%%)", v.Name, v.Amount/total*100),
			Value: v.Amount,
			Style: gochart.Style{
				FontSize:  10,
				FontColor: gochart.ColorBlack,
			},
		})
	}

	pie := gochart.PieChart{
		Title:  titleCategory,
		Width:  g.height,
		Height: g.height,
		Values: slices,
		Background: gochart.Style{
			Padding:   gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
			FillColor: gochart.ColorWhite,
		},
	}
	return render(pie, "category pie")
}

// RenderCategoryBars draws one bar per category in slice order.
func (g *Renderer) RenderCategoryBars(values []domain.NamedAmount) ([]byte, error) {
	if len(values) == 0 {
		return g.blank(titleMaxMin, g.width*3/4, g.height)
	}

	bars := make([]gochart.Value, 0, len(values))
	amounts := make([]float64, 0, len(values))
	for _, v := range values {
		bars = append(bars, gochart.Value{Label: v.Name, Value: v.Amount})
		amounts = append(amounts, v.Amount)
	}

	graph := g.barChart(titleMaxMin, g.width*3/4, g.height, bars, amounts)
	return render(graph, "category bars")
}

func (g *Renderer) barChart(title string, width, height int, bars []gochart.Value, values []float64) gochart.BarChart {
	barWidth := (width-100)/len(bars) - 4
	if barWidth > 40 {
		barWidth = 40
	}
	if barWidth < 4 {
		barWidth = 4
	}

	return gochart.BarChart{
		Title:    title,
		Width:    width,
		Height:   height,
		BarWidth: barWidth,
		Background: gochart.Style{
			Padding:   gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
			FillColor: gochart.ColorWhite,
		},
		XAxis: gochart.Style{
			FontSize:  8,
			FontColor: gochart.ColorBlack,
		},
		YAxis: gochart.YAxis{
			Range: valueRange(values),
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
			Style: gochart.Style{
				FontSize:  9,
				FontColor: gochart.ColorBlack,
			},
		},
		Bars: bars,
	}
}

// valueRange always spans zero and is never empty, so flat or all-zero
// series still render.
func valueRange(values []float64) *gochart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	return &gochart.ContinuousRange{Min: lo, Max: hi}
}

type renderable interface {
	Render(rp gochart.RendererProvider, w io.Writer) error
}

func render(c renderable, name string) ([]byte, error) {
	buffer := bytes.NewBuffer([]byte{})
	if err := c.Render(gochart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buffer.Bytes(), nil
}

// blank paints an empty white canvas carrying only the chart title.
func (g *Renderer) blank(title string, width, height int) ([]byte, error) {
	r, err := gochart.PNG(width, height)
	if err != nil {
		return nil, fmt.Errorf("failed to create canvas: %w", err)
	}

	r.SetFillColor(gochart.ColorWhite)
	r.MoveTo(0, 0)
	r.LineTo(width, 0)
	r.LineTo(width, height)
	r.LineTo(0, height)
	r.LineTo(0, 0)
	r.Close()
	r.Fill()

	if font, err := gochart.GetDefaultFont(); err == nil {
		r.SetFont(font)
		r.SetFontColor(gochart.ColorBlack)
		r.SetFontSize(14)
		r.Text(title, 20, 30)
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := r.Save(buffer); err != nil {
		return nil, fmt.Errorf("failed to encode blank %q chart: %w", title, err)
	}
	return buffer.Bytes(), nil
}
