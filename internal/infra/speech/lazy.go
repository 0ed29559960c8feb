// Package speech provides the speech-to-text backends and the process-wide
// lazily loaded model that the voice pipeline transcribes with.
package speech

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/boddenberg/spend-analysis-go/internal/domain"
	"github.com/boddenberg/spend-analysis-go/internal/infra/observability"
	"github.com/boddenberg/spend-analysis-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("speech")

// Model lifecycle states reported by LazyModel.State.
const (
	StateUninitialized = "uninitialized"
	StateLoading       = "loading"
	StateReady         = "ready"
)

const (
	stateUninitialized int32 = iota
	stateLoading
	stateReady
)

// Loader builds a ready-to-use transcriber. It is called at most once per
// successful load.
type Loader func(ctx context.Context) (port.Transcriber, error)

// LazyModel implements port.TranscriberLoader. The first Get loads the model;
// concurrent first callers wait for that single load. A failed load leaves the
// model uninitialized so a later call can retry.
type LazyModel struct {
	backend string
	load    Loader
	logger  *zap.Logger
	metrics *observability.Metrics

	mu    sync.Mutex
	state atomic.Int32
	model port.Transcriber
}

// NewLazyModel wraps load in a lazy singleton. metrics may be nil.
func NewLazyModel(backend string, load Loader, logger *zap.Logger, metrics *observability.Metrics) *LazyModel {
	return &LazyModel{
		backend: backend,
		load:    load,
		logger:  logger,
		metrics: metrics,
	}
}

// Get returns the loaded model, loading it first if needed.
// Load failures are returned as *domain.ErrModelUnavailable.
func (m *LazyModel) Get(ctx context.Context) (port.Transcriber, error) {
	if m.state.Load() == stateReady {
		return m.model, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Load() == stateReady {
		return m.model, nil
	}

	ctx, span := tracer.Start(ctx, "LazyModel.Load")
	defer span.End()
	span.SetAttributes(attribute.String("speech.backend", m.backend))

	m.state.Store(stateLoading)
	start := time.Now()

	model, err := m.load(ctx)
	if err != nil {
		m.state.Store(stateUninitialized)
		span.RecordError(err)
		m.record("error")
		m.logger.Error("speech model load failed",
			zap.String("backend", m.backend),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, &domain.ErrModelUnavailable{Backend: m.backend, Err: err}
	}

	m.model = model
	m.state.Store(stateReady)
	m.record("success")
	m.logger.Info("speech model loaded",
		zap.String("backend", m.backend),
		zap.Duration("elapsed", time.Since(start)),
	)
	return model, nil
}

// State reports the current lifecycle state without blocking on a load.
func (m *LazyModel) State() string {
	switch m.state.Load() {
	case stateLoading:
		return StateLoading
	case stateReady:
		return StateReady
	default:
		return StateUninitialized
	}
}

func (m *LazyModel) record(status string) {
	if m.metrics != nil {
		m.metrics.IncrModelLoad(status)
	}
}
