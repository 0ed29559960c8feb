package handler

import (
	"net/http"
	"time"

	"github.com/boddenberg/spend-analysis-go/internal/domain"
	"github.com/boddenberg/spend-analysis-go/internal/infra/observability"
	"github.com/boddenberg/spend-analysis-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Limits bounds request bodies.
type Limits struct {
	MaxBodyBytes   int64
	MaxUploadBytes int64
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(analysisSvc *service.AnalysisService, voiceSvc *service.VoiceService, metrics *observability.Metrics, limits Limits, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.TracingMiddleware)
	r.Use(observability.AccessLogMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(voiceSvc))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	jsonBody := MaxBodyMiddleware(limits.MaxBodyBytes)
	uploadBody := MaxBodyMiddleware(limits.MaxUploadBytes)

	// --- Unversioned aliases ---
	r.With(jsonBody).Post("/analyze", analyzeHandler(analysisSvc, logger))
	r.With(uploadBody).Post("/voice", voiceHandler(voiceSvc, limits.MaxUploadBytes, logger))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// 1. Transaction analysis
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(jsonBody)
			r.Post("/analyze", analyzeHandler(analysisSvc, logger))
			r.Post("/analyze/categories", categoriesHandler(analysisSvc, logger))
			r.Post("/analyze/export", exportHandler(analysisSvc, logger))
			r.Post("/analyze/summary", summaryHandler(analysisSvc, logger))
			r.Post("/analyze/by-date", byDateHandler(analysisSvc, logger))
			r.Post("/analyze/top-categories", topCategoriesHandler(analysisSvc, logger))
			r.Post("/analyze/trends", trendsHandler(analysisSvc, logger))
		})

		// =============================================
		// 2. Voice expenses
		// =============================================
		r.With(uploadBody).Post("/voice", voiceHandler(voiceSvc, limits.MaxUploadBytes, logger))
		r.With(jsonBody).Post("/voice/text", voiceTextHandler(voiceSvc, logger))

		// =============================================
		// 3. Metrics
		// =============================================
		r.Get("/metrics/pipeline", pipelineMetricsHandler(metrics, voiceSvc))
	})

	return r
}

// ============================================================
// Health & metrics
// ============================================================

func healthzHandler(voiceSvc *service.VoiceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: observability.ServiceName, Status: "healthy", LastChecked: now},
		}

		if voiceSvc != nil {
			// An unloaded model is not a fault; it loads on the first upload.
			services = append(services, domain.ServiceHealth{
				Name:        "speech-model",
				Status:      "healthy",
				Detail:      voiceSvc.ModelState(),
				LastChecked: now,
			})
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   "healthy",
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func pipelineMetricsHandler(metrics *observability.Metrics, voiceSvc *service.VoiceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := ""
		if voiceSvc != nil {
			state = voiceSvc.ModelState()
		}
		writeJSON(w, http.StatusOK, metrics.Snapshot(state))
	}
}
