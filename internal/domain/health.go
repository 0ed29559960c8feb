package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual component.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	Detail      string `json:"detail,omitempty"`
	LastChecked string `json:"lastChecked"`
}

// PipelineMetrics is returned by GET /v1/metrics/pipeline.
type PipelineMetrics struct {
	AnalyzeRequests       int64   `json:"analyzeRequests"`
	VoiceRequests         int64   `json:"voiceRequests"`
	ErrorRate             float64 `json:"errorRate"`
	TransactionsAnalysed  int64   `json:"transactionsAnalysed"`
	TranscriptionFailures int64   `json:"transcriptionFailures"`
	ModelLoads            int64   `json:"modelLoads"`
	ModelLoadFailures     int64   `json:"modelLoadFailures"`
	TranscriptCacheHit    float64 `json:"transcriptCacheHitRate"`
	ModelState            string  `json:"modelState"`
}
