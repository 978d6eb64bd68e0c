package observability

import (
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/casetree-backend/internal/platform/envutil"
	"github.com/yungbote/casetree-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	stepBatches        *CounterVec
	stepsWritten       *CounterVec
	structuralFallback *CounterVec
	folderMoves        *CounterVec
	folderDeletes      *CounterVec
	casesSoftDeleted   *CounterVec
	casesRestored      *CounterVec
	rootReassigned     *CounterVec
	constraintToggle   *HistogramVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

// Current returns the process metrics, nil when metrics are disabled. Every
// method is safe on a nil receiver.
func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
		if log != nil {
			log.Info("Observability metrics enabled")
		}
	})
	return instance
}

// NewMetrics builds an unregistered metric set; Init installs the process one.
func NewMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("ct_api_requests_total", "Total API requests.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"ct_api_request_duration_seconds",
			"API request latency in seconds.",
			[]string{"method", "route", "status"},
			nil,
		),
		apiInflight: NewGauge("ct_api_inflight_requests", "In-flight API requests."),

		stepBatches:        NewCounterVec("ct_step_batches_total", "Step reconcile batches by outcome.", []string{"outcome"}),
		stepsWritten:       NewCounterVec("ct_steps_written_total", "Step rows written by reconcile, by operation.", []string{"op"}),
		structuralFallback: NewCounterVec("ct_step_structural_fallback_total", "Step parent references resolved by fallback, by reason.", []string{"reason"}),
		folderMoves:        NewCounterVec("ct_folder_moves_total", "Folder moves by outcome.", []string{"outcome"}),
		folderDeletes:      NewCounterVec("ct_folder_deletes_total", "Folder deletes by outcome.", []string{"outcome"}),
		casesSoftDeleted:   NewCounterVec("ct_cases_soft_deleted_total", "Cases soft-deleted, by source.", []string{"source"}),
		casesRestored:      NewCounterVec("ct_cases_restored_total", "Cases restored.", []string{"relocated"}),
		rootReassigned:     NewCounterVec("ct_restore_root_resolution_total", "How the restore root folder was resolved.", []string{"via"}),
		constraintToggle: NewHistogramVec(
			"ct_constraint_toggle_duration_seconds",
			"Time spent with foreign-key enforcement suspended.",
			[]string{"status"},
			[]float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		),
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.stepBatches, m.stepsWritten, m.structuralFallback,
		m.folderMoves, m.folderDeletes,
		m.casesSoftDeleted, m.casesRestored, m.rootReassigned,
		m.constraintToggle,
	} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveStepBatch records one reconcile call. outcome is "ok", "noop" or
// "error".
func (m *Metrics) ObserveStepBatch(outcome string, created, updated, deleted int) {
	if m == nil {
		return
	}
	m.stepBatches.Inc(outcome)
	if outcome == "error" {
		return
	}
	m.stepsWritten.Add(float64(created), "create")
	m.stepsWritten.Add(float64(updated), "update")
	m.stepsWritten.Add(float64(deleted), "delete")
}

func (m *Metrics) IncStructuralFallback(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.structuralFallback.Add(float64(n), reason)
}

func (m *Metrics) IncFolderMove(outcome string) {
	if m == nil {
		return
	}
	m.folderMoves.Inc(outcome)
}

func (m *Metrics) IncFolderDelete(outcome string) {
	if m == nil {
		return
	}
	m.folderDeletes.Inc(outcome)
}

func (m *Metrics) AddCasesSoftDeleted(source string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.casesSoftDeleted.Add(float64(n), source)
}

func (m *Metrics) AddCasesRestored(relocated bool, n int64) {
	if m == nil || n <= 0 {
		return
	}
	lbl := "false"
	if relocated {
		lbl = "true"
	}
	m.casesRestored.Add(float64(n), lbl)
}

// IncRootResolution records whether the restore root was an existing root,
// any folder, or newly created.
func (m *Metrics) IncRootResolution(via string) {
	if m == nil {
		return
	}
	m.rootReassigned.Inc(strings.TrimSpace(via))
}

func (m *Metrics) ObserveConstraintToggle(dur time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.constraintToggle.Observe(dur.Seconds(), status)
}
