package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/boddenberg/spend-analysis-go/internal/domain"
	"github.com/boddenberg/spend-analysis-go/internal/infra/observability"
	"github.com/boddenberg/spend-analysis-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("service")

// NoExportDataMessage is returned when an export has nothing to write.
const NoExportDataMessage = "No transactions found for export"

// AnalysisService runs the transaction pipeline:
// normalize → filter → enrich → aggregate → chart.
type AnalysisService struct {
	renderer      port.ChartRenderer
	exporter      port.WorkbookExporter
	chartTailDays int
	chartsEnabled bool
	metrics       *observability.Metrics
	logger        *zap.Logger
	now           func() time.Time
}

// NewAnalysisService creates the analysis service with all dependencies injected.
func NewAnalysisService(
	renderer port.ChartRenderer,
	exporter port.WorkbookExporter,
	chartTailDays int,
	chartsEnabled bool,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *AnalysisService {
	return &AnalysisService{
		renderer:      renderer,
		exporter:      exporter,
		chartTailDays: chartTailDays,
		chartsEnabled: chartsEnabled,
		metrics:       metrics,
		logger:        logger,
		now:           time.Now,
	}
}

// WithClock replaces the clock used when a request has no as_of.
func (s *AnalysisService) WithClock(now func() time.Time) *AnalysisService {
	s.now = now
	return s
}

// Analyze returns *domain.EmptyAnalysisResponse when the request carries no
// transactions and *domain.AnalysisResponse otherwise. Charts are rendered
// only when withCharts is set and charts are enabled.
func (s *AnalysisService) Analyze(ctx context.Context, req *domain.AnalyzeRequest, withCharts bool) (_ any, err error) {
	ctx, span := tracer.Start(ctx, "AnalysisService.Analyze")
	defer span.End()

	start := time.Now()
	defer s.observe(observability.OpAnalyze, start, &err)

	if len(req.Transactions) == 0 {
		return &domain.EmptyAnalysisResponse{Message: domain.NoTransactionsMessage, TotalAmount: 0}, nil
	}

	rows, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("transactions.received", len(req.Transactions)),
		attribute.Int("transactions.analysed", len(rows)),
	)

	agg := Aggregate(rows)
	resp := &domain.AnalysisResponse{
		TotalAmount:       agg.TotalAmount,
		AnalysisOverTime:  domain.DailySeries(agg.DailySeries),
		CategoryAnalysis:  domain.RankedAmounts(agg.CategoryTotals),
		ItemLevelAnalysis: agg.ItemCounts,
	}

	if withCharts && s.chartsEnabled {
		if err := s.renderCharts(ctx, agg, resp); err != nil {
			s.logger.Error("chart rendering failed", zap.Error(err))
			return nil, err
		}
	}

	s.metrics.AddTransactions(len(rows))
	s.logger.Info("analysis completed",
		zap.Int("received", len(req.Transactions)),
		zap.Int("analysed", len(rows)),
		zap.Int("days", len(agg.DailySeries)),
		zap.Int("categories", len(agg.CategoryTotals)),
		zap.Bool("charts", resp.ChartAll != ""),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}

// Categories summarizes the filtered transactions per category.
func (s *AnalysisService) Categories(ctx context.Context, req *domain.AnalyzeRequest) (_ *domain.CategoryBreakdownResponse, err error) {
	_, span := tracer.Start(ctx, "AnalysisService.Categories")
	defer span.End()
	defer s.observe(observability.OpCategories, time.Now(), &err)

	rows, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	return BreakdownByCategory(rows), nil
}

// Export writes the filtered transactions, daily series and category totals
// into a workbook. An empty result is reported as *domain.ErrNoData.
func (s *AnalysisService) Export(ctx context.Context, req *domain.AnalyzeRequest) (_ []byte, err error) {
	_, span := tracer.Start(ctx, "AnalysisService.Export")
	defer span.End()
	defer s.observe(observability.OpExport, time.Now(), &err)

	rows, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNoData{Message: NoExportDataMessage}
	}

	data, err := s.exporter.Export(SortByCreatedAt(rows), Aggregate(rows))
	if err != nil {
		return nil, fmt.Errorf("export workbook: %w", err)
	}

	s.logger.Info("export completed",
		zap.Int("rows", len(rows)),
		zap.Int("bytes", len(data)),
	)
	return data, nil
}

// Summary reports all-time totals, the totals of the month containing as_of
// and how many categories the caller sent.
func (s *AnalysisService) Summary(ctx context.Context, req *domain.AnalyzeRequest) (_ *domain.SummaryResponse, err error) {
	_, span := tracer.Start(ctx, "AnalysisService.Summary")
	defer span.End()
	defer s.observe(observability.OpSummary, time.Now(), &err)

	ref, err := ParseAsOf(req.AsOf, s.now)
	if err != nil {
		return nil, err
	}
	rows, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	return Summarize(rows, len(NormalizeCategories(req.Categories)), ref), nil
}

// ByDate groups the filtered transactions by day, ISO week or month.
func (s *AnalysisService) ByDate(ctx context.Context, req *domain.AnalyzeRequest, granularity string) (_ *domain.DateBreakdownResponse, err error) {
	_, span := tracer.Start(ctx, "AnalysisService.ByDate")
	defer span.End()
	span.SetAttributes(attribute.String("period", granularity))
	defer s.observe(observability.OpByDate, time.Now(), &err)

	rows, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	buckets, err := GroupByDate(rows, granularity)
	if err != nil {
		return nil, err
	}
	if granularity == "" {
		granularity = domain.GroupDaily
	}
	return &domain.DateBreakdownResponse{
		Period:    granularity,
		DateRange: DatedSpan(rows),
		Buckets:   buckets,
	}, nil
}

// TopCategories ranks resolved categories by spend and keeps the first limit.
func (s *AnalysisService) TopCategories(ctx context.Context, req *domain.AnalyzeRequest, limit int) (_ *domain.TopCategoriesResponse, err error) {
	_, span := tracer.Start(ctx, "AnalysisService.TopCategories")
	defer span.End()
	defer s.observe(observability.OpTopCategories, time.Now(), &err)

	rows, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = DefaultTopCategories
	}
	return &domain.TopCategoriesResponse{Limit: limit, Categories: TopCategories(rows, limit)}, nil
}

// Trends compares spend in the month containing as_of with the month before.
func (s *AnalysisService) Trends(ctx context.Context, req *domain.AnalyzeRequest) (_ *domain.TrendsResponse, err error) {
	_, span := tracer.Start(ctx, "AnalysisService.Trends")
	defer span.End()
	defer s.observe(observability.OpTrends, time.Now(), &err)

	ref, err := ParseAsOf(req.AsOf, s.now)
	if err != nil {
		return nil, err
	}
	rows, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	resp := CompareMonths(rows, ref)
	s.logger.Debug("trends computed",
		zap.Time("as_of", ref),
		zap.String("trend", resp.Comparison.Trend),
		zap.Int("percentage_change", resp.Comparison.PercentageChange),
	)
	return resp, nil
}

// observe reads *errp when the deferred call runs.
func (s *AnalysisService) observe(operation string, start time.Time, errp *error) {
	s.metrics.ObserveRequest(operation, start, *errp)
}

// prepare runs normalize → filter → enrich, rejecting totals that would
// overflow.
func (s *AnalysisService) prepare(req *domain.AnalyzeRequest) ([]domain.NormalizedRecord, error) {
	tr, err := ParseTimeRange(req.TimeRange)
	if err != nil {
		return nil, err
	}

	rows := NormalizeTransactions(req.Transactions)
	rows = FilterByTimeRange(rows, tr)
	if err := CheckRepresentable(rows); err != nil {
		return nil, err
	}
	return EnrichWithCategoryNames(rows, NormalizeCategories(req.Categories)), nil
}

// renderCharts draws the three charts concurrently and stores them base64
// encoded on resp.
func (s *AnalysisService) renderCharts(ctx context.Context, agg *domain.Aggregates, resp *domain.AnalysisResponse) error {
	_, span := tracer.Start(ctx, "AnalysisService.renderCharts")
	defer span.End()

	var g errgroup.Group

	g.Go(func() error {
		img, err := s.timed("daily", func() ([]byte, error) {
			return s.renderer.RenderDailyBars(TailDays(agg.DailySeries, s.chartTailDays))
		})
		resp.ChartAll = base64.StdEncoding.EncodeToString(img)
		return err
	})
	g.Go(func() error {
		img, err := s.timed("category_pie", func() ([]byte, error) {
			return s.renderer.RenderCategoryPie(agg.CategoryTotals)
		})
		resp.ChartCategory = base64.StdEncoding.EncodeToString(img)
		return err
	})
	g.Go(func() error {
		img, err := s.timed("category_bars", func() ([]byte, error) {
			return s.renderer.RenderCategoryBars(AscendingTotals(agg.CategoryTotals))
		})
		resp.ChartMaxMin = base64.StdEncoding.EncodeToString(img)
		return err
	})

	return g.Wait()
}

func (s *AnalysisService) timed(chart string, render func() ([]byte, error)) ([]byte, error) {
	start := time.Now()
	img, err := render()
	s.metrics.RecordChartRender(chart, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("render %s chart: %w", chart, err)
	}
	return img, nil
}
