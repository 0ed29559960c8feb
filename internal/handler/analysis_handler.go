package handler

import (
	"net/http"
	"strconv"

	"github.com/boddenberg/spend-analysis-go/internal/domain"
	"github.com/boddenberg/spend-analysis-go/internal/infra/export"
	"github.com/boddenberg/spend-analysis-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Transaction analysis
// ============================================================

// analyzeHandler handles POST /v1/analyze. ?charts=false skips rendering.
func analyzeHandler(svc *service.AnalysisService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/analyze")
		defer span.End()

		var req domain.AnalyzeRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		withCharts := true
		if v := r.URL.Query().Get("charts"); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				withCharts = b
			}
		}
		span.SetAttributes(
			attribute.Int("transactions.count", len(req.Transactions)),
			attribute.Bool("charts", withCharts),
		)

		resp, err := svc.Analyze(ctx, &req, withCharts)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// categoriesHandler handles POST /v1/analyze/categories.
func categoriesHandler(svc *service.AnalysisService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/analyze/categories")
		defer span.End()

		var req domain.AnalyzeRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		resp, err := svc.Categories(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// exportHandler handles POST /v1/analyze/export and streams an XLSX workbook.
func exportHandler(svc *service.AnalysisService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/analyze/export")
		defer span.End()

		var req domain.AnalyzeRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		data, err := svc.Export(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.Header().Set("Content-Type", export.ContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="transactions.xlsx"`)
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(data); err != nil {
			logger.Warn("failed to write export", zap.Error(err))
		}
	}
}

// ============================================================
// Dashboard insights
// ============================================================

// summaryHandler handles POST /v1/analyze/summary.
func summaryHandler(svc *service.AnalysisService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/analyze/summary")
		defer span.End()

		var req domain.AnalyzeRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		resp, err := svc.Summary(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// byDateHandler handles POST /v1/analyze/by-date?period=daily|weekly|monthly.
func byDateHandler(svc *service.AnalysisService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/analyze/by-date")
		defer span.End()

		var req domain.AnalyzeRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		resp, err := svc.ByDate(ctx, &req, r.URL.Query().Get("period"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// topCategoriesHandler handles POST /v1/analyze/top-categories?limit=N.
// A missing or unparsable limit uses the default.
func topCategoriesHandler(svc *service.AnalysisService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/analyze/top-categories")
		defer span.End()

		var req domain.AnalyzeRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		span.SetAttributes(attribute.Int("limit", limit))

		resp, err := svc.TopCategories(ctx, &req, limit)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// trendsHandler handles POST /v1/analyze/trends.
func trendsHandler(svc *service.AnalysisService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/analyze/trends")
		defer span.End()

		var req domain.AnalyzeRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		resp, err := svc.Trends(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
