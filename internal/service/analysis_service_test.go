package service_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/spend-analysis-go/internal/domain"
	"github.com/boddenberg/spend-analysis-go/internal/infra/observability"
	"github.com/boddenberg/spend-analysis-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockRenderer struct {
	mu    sync.Mutex
	daily []domain.DatedAmount
	bars  []domain.NamedAmount
	err   error
}

func (m *mockRenderer) RenderDailyBars(series []domain.DatedAmount) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.daily = series
	return []byte("daily"), m.err
}

func (m *mockRenderer) RenderCategoryPie([]domain.NamedAmount) ([]byte, error) {
	return []byte("pie"), nil
}

func (m *mockRenderer) RenderCategoryBars(values []domain.NamedAmount) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bars = values
	return []byte("bars"), nil
}

type mockExporter struct {
	rows []domain.NormalizedRecord
	agg  *domain.Aggregates
}

func (m *mockExporter) Export(rows []domain.NormalizedRecord, agg *domain.Aggregates) ([]byte, error) {
	m.rows, m.agg = rows, agg
	return []byte("xlsx"), nil
}

func newAnalysisService(renderer *mockRenderer, exporter *mockExporter, tailDays int) *service.AnalysisService {
	return service.NewAnalysisService(renderer, exporter, tailDays, true, observability.NewMetrics(), zap.NewNop())
}

// --- Tests ---

func TestAnalyze_EmptyShortCircuits(t *testing.T) {
	renderer := &mockRenderer{}
	svc := newAnalysisService(renderer, &mockExporter{}, 30)

	resp, err := svc.Analyze(context.Background(), decodeRequest(t, `{"transactions": []}`), true)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	got, _ := json.Marshal(resp)
	if string(got) != `{"message":"No transactions sent","total_amount":0}` {
		t.Errorf("unexpected response %s", got)
	}
	if renderer.daily != nil {
		t.Error("expected no rendering for an empty request")
	}
}

func TestAnalyze_FilteredToEmptyKeepsShape(t *testing.T) {
	svc := newAnalysisService(&mockRenderer{}, &mockExporter{}, 30)

	req := decodeRequest(t, `{
		"transactions": [{"price": 5, "createdAt": "2023-01-01"}],
		"time_range": {"start": "2024-01-01"}
	}`)
	resp, err := svc.Analyze(context.Background(), req, false)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	got, _ := json.Marshal(resp)
	want := `{"total_amount":0,"analysis_over_time":{},"category_analysis":{},"item_level_analysis":{}}`
	if string(got) != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestAnalyze_ChartsUseTailAndAscendingBars(t *testing.T) {
	renderer := &mockRenderer{}
	svc := newAnalysisService(renderer, &mockExporter{}, 2)

	req := decodeRequest(t, `{
		"transactions": [
			{"category": "c1", "price": 10, "createdAt": "2024-01-01"},
			{"category": "c2", "price": 2, "createdAt": "2024-01-02"},
			{"category": "c3", "price": 6, "createdAt": "2024-01-04"}
		],
		"categories": [{"_id": "c1", "name": "Food"}, {"_id": "c2", "name": "Bus"}, {"_id": "c3", "name": "Books"}]
	}`)
	out, err := svc.Analyze(context.Background(), req, true)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	resp := out.(*domain.AnalysisResponse)

	if len(resp.AnalysisOverTime) != 4 {
		t.Errorf("expected the full 4-day series in the response, got %d", len(resp.AnalysisOverTime))
	}
	if len(renderer.daily) != 2 || renderer.daily[0].Date != "2024-01-03" {
		t.Errorf("expected the last 2 days to be charted, got %+v", renderer.daily)
	}
	if renderer.bars[0].Name != "Bus" || renderer.bars[2].Name != "Food" {
		t.Errorf("expected ascending bars, got %+v", renderer.bars)
	}
	if resp.ChartAll != base64.StdEncoding.EncodeToString([]byte("daily")) {
		t.Errorf("unexpected daily chart %q", resp.ChartAll)
	}
}

func TestAnalyze_RenderFailure(t *testing.T) {
	svc := newAnalysisService(&mockRenderer{err: errors.New("no font")}, &mockExporter{}, 30)

	_, err := svc.Analyze(context.Background(), decodeRequest(t, `{"transactions": [{"price": 1}]}`), true)
	if err == nil {
		t.Fatal("expected render error")
	}
}

func TestAnalyze_InvalidTimeRange(t *testing.T) {
	svc := newAnalysisService(&mockRenderer{}, &mockExporter{}, 30)

	req := decodeRequest(t, `{"transactions": [{"price": 1}], "time_range": {"start": "soon"}}`)
	_, err := svc.Analyze(context.Background(), req, true)

	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestCategories(t *testing.T) {
	svc := newAnalysisService(&mockRenderer{}, &mockExporter{}, 30)

	resp, err := svc.Categories(context.Background(), decodeRequest(t, `{"transactions": [{"price": 4}, {"price": 6}]}`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.GrandTotal != 10 || len(resp.Categories) != 1 || resp.Categories[0].Category != service.UnknownCategory {
		t.Errorf("unexpected breakdown %+v", resp)
	}
}

func TestExport(t *testing.T) {
	exporter := &mockExporter{}
	svc := newAnalysisService(&mockRenderer{}, exporter, 30)

	data, err := svc.Export(context.Background(), decodeRequest(t, `{"transactions": [{"price": 4}, {"price": 6}]}`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if string(data) != "xlsx" {
		t.Errorf("unexpected payload %q", data)
	}
	if len(exporter.rows) != 2 || exporter.agg.TotalAmount != 10 {
		t.Errorf("unexpected export input %+v %+v", exporter.rows, exporter.agg)
	}
}

func TestExport_NoData(t *testing.T) {
	svc := newAnalysisService(&mockRenderer{}, &mockExporter{}, 30)

	_, err := svc.Export(context.Background(), decodeRequest(t, `{"transactions": []}`))

	var noData *domain.ErrNoData
	if !errors.As(err, &noData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if noData.Error() != service.NoExportDataMessage {
		t.Errorf("unexpected message %q", noData.Error())
	}
}

const insightsBody = `{
	"transactions": [
		{"category": "c1", "price": 30, "createdAt": "2024-02-05T10:00:00Z"},
		{"category": "c2", "price": 10, "createdAt": "2024-02-20"},
		{"category": "c1", "price": 20, "createdAt": "2024-01-15"},
		{"category": "gone", "price": 5, "createdAt": "2024-01-31"}
	],
	"categories": [{"_id": "c1", "name": "Food"}, {"_id": "c2", "name": "Transport"}, "junk"]
}`

func TestSummary_UsesClockWithoutAsOf(t *testing.T) {
	clock := func() time.Time { return time.Date(2024, 2, 14, 9, 0, 0, 0, time.UTC) }
	svc := newAnalysisService(&mockRenderer{}, &mockExporter{}, 30).WithClock(clock)

	resp, err := svc.Summary(context.Background(), decodeRequest(t, insightsBody))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.AllTime.TotalAmount != 65 || resp.ThisMonth.TotalAmount != 40 || resp.ThisMonth.TransactionCount != 2 {
		t.Errorf("unexpected summary %+v", resp)
	}
	if resp.CategoriesCount != 2 {
		t.Errorf("expected 2 categories, got %d", resp.CategoriesCount)
	}
}

func TestTrends_AsOfOverridesClock(t *testing.T) {
	clock := func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) }
	svc := newAnalysisService(&mockRenderer{}, &mockExporter{}, 30).WithClock(clock)

	req := decodeRequest(t, insightsBody)
	req.AsOf = "2024-02-29"

	resp, err := svc.Trends(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Comparison.Trend != domain.TrendIncrease || resp.Comparison.PercentageChange != 60 {
		t.Errorf("unexpected comparison %+v", resp.Comparison)
	}
}

func TestTrends_InvalidAsOf(t *testing.T) {
	svc := newAnalysisService(&mockRenderer{}, &mockExporter{}, 30)

	req := decodeRequest(t, insightsBody)
	req.AsOf = "whenever"

	_, err := svc.Trends(context.Background(), req)

	var validation *domain.ErrValidation
	if !errors.As(err, &validation) || validation.Field != "as_of" {
		t.Fatalf("expected ErrValidation on as_of, got %v", err)
	}
}

func TestByDate_DefaultsToDaily(t *testing.T) {
	svc := newAnalysisService(&mockRenderer{}, &mockExporter{}, 30)

	resp, err := svc.ByDate(context.Background(), decodeRequest(t, insightsBody), "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Period != domain.GroupDaily || len(resp.Buckets) != 4 {
		t.Errorf("unexpected breakdown %+v", resp)
	}
	if resp.DateRange.Start == nil || resp.DateRange.Start.Format("2006-01-02") != "2024-01-15" {
		t.Errorf("unexpected date range %+v", resp.DateRange)
	}
}

func TestTopCategories_Service(t *testing.T) {
	svc := newAnalysisService(&mockRenderer{}, &mockExporter{}, 30)

	resp, err := svc.TopCategories(context.Background(), decodeRequest(t, insightsBody), 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Limit != service.DefaultTopCategories || len(resp.Categories) != 2 || resp.Categories[0].Name != "Food" {
		t.Errorf("unexpected ranking %+v", resp)
	}
}

func TestAnalysisOperations_CountedAsAnalyzeRequests(t *testing.T) {
	metrics := observability.NewMetrics()
	svc := service.NewAnalysisService(&mockRenderer{}, &mockExporter{}, 30, true, metrics, zap.NewNop())
	ctx := context.Background()

	if _, err := svc.Analyze(ctx, decodeRequest(t, insightsBody), false); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if _, err := svc.Categories(ctx, decodeRequest(t, insightsBody)); err != nil {
		t.Fatalf("categories: %v", err)
	}
	if _, err := svc.Export(ctx, decodeRequest(t, `{"transactions": []}`)); err == nil {
		t.Fatal("expected the empty export to fail")
	}
	if _, err := svc.Summary(ctx, decodeRequest(t, insightsBody)); err != nil {
		t.Fatalf("summary: %v", err)
	}

	snap := metrics.Snapshot("")
	if snap.AnalyzeRequests != 4 {
		t.Errorf("expected 4 analyze requests, got %d", snap.AnalyzeRequests)
	}
	if snap.ErrorRate != 0.25 {
		t.Errorf("expected error rate 0.25, got %v", snap.ErrorRate)
	}

	for _, op := range []string{observability.OpAnalyze, observability.OpCategories, observability.OpExport, observability.OpSummary} {
		if n := histogramCount(t, metrics, op); n != 1 {
			t.Errorf("expected one %s duration sample, got %d", op, n)
		}
	}
}

// histogramCount reads the sample count of the request duration histogram
// for operation from the registry.
func histogramCount(t *testing.T, metrics *observability.Metrics, operation string) uint64 {
	t.Helper()
	families, err := metrics.Registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "spend_request_duration_seconds" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "operation" && l.GetValue() == operation {
					return m.GetHistogram().GetSampleCount()
				}
			}
		}
	}
	return 0
}
