// Package metrics counts evaluations and exposes them in the Prometheus text
// exposition format.
package metrics

import (
	"io"
	"net/http"
	"sort"
	"sync"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

// Metric names.
const (
	EvaluationsTotal        = "retort_evaluations_total"
	ExtractionFailuresTotal = "retort_extraction_failures_total"
	AuditLogErrorsTotal     = "retort_audit_log_errors_total"
	LastF0                  = "retort_last_f0"
)

// Registry holds the counters. All methods are safe for concurrent use.
type Registry struct {
	mu          sync.Mutex
	evaluations map[string]float64 // by validation status
	failures    map[string]float64 // by reason
	logErrors   float64
	lastF0      float64
	haveF0      bool
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		evaluations: make(map[string]float64),
		failures:    make(map[string]float64),
	}
}

// ObserveEvaluation records a completed evaluation.
func (r *Registry) ObserveEvaluation(status string, f0 float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evaluations[status]++
	r.lastF0 = f0
	r.haveF0 = true
}

// ObserveFailure records an upload that produced no result.
func (r *Registry) ObserveFailure(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[reason]++
}

// ObserveAuditLogError records a failed audit log write.
func (r *Registry) ObserveAuditLogError() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logErrors++
}

// Families returns the current values as metric families, sorted by name.
func (r *Registry) Families() []*dto.MetricFamily {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []*dto.MetricFamily{
		counterVec(EvaluationsTotal, "Completed F0 evaluations by validation status.", "status", r.evaluations),
		counterVec(ExtractionFailuresTotal, "Uploads that produced no evaluation, by reason.", "reason", r.failures),
		{
			Name:   proto.String(AuditLogErrorsTotal),
			Help:   proto.String("Failed audit log writes."),
			Type:   dto.MetricType_COUNTER.Enum(),
			Metric: []*dto.Metric{{Counter: &dto.Counter{Value: proto.Float64(r.logErrors)}}},
		},
	}
	if r.haveF0 {
		out = append(out, &dto.MetricFamily{
			Name:   proto.String(LastF0),
			Help:   proto.String("F0 of the most recent evaluation, in minutes."),
			Type:   dto.MetricType_GAUGE.Enum(),
			Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: proto.Float64(r.lastF0)}}},
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GetName() < out[j].GetName() })
	return out
}

// Write encodes every family to w in the given exposition format.
func (r *Registry) Write(w io.Writer, format expfmt.Format) error {
	enc := expfmt.NewEncoder(w, format)
	for _, mf := range r.Families() {
		if len(mf.GetMetric()) == 0 {
			continue
		}
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		format := expfmt.NewFormat(expfmt.TypeTextPlain)
		w.Header().Set("Content-Type", string(format))
		if err := r.Write(w, format); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

func counterVec(name, help, label string, values map[string]float64) *dto.MetricFamily {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	mf := &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_COUNTER.Enum(),
	}
	for _, k := range keys {
		mf.Metric = append(mf.Metric, &dto.Metric{
			Label:   []*dto.LabelPair{{Name: proto.String(label), Value: proto.String(k)}},
			Counter: &dto.Counter{Value: proto.Float64(values[k])},
		})
	}
	return mf
}
