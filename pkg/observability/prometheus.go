package observability

import (
	"context"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// PrometheusHooks records weave, pipeline and cache events as Prometheus
// metrics. Metrics live in a private registry, so several instances (one per
// test, say) never collide.
type PrometheusHooks struct {
	registry *prometheus.Registry

	StageDuration *prometheus.HistogramVec
	StageChanges  *prometheus.CounterVec
	GraphNodes    *prometheus.GaugeVec
	GraphEdges    *prometheus.GaugeVec

	PipelineDuration *prometheus.HistogramVec
	PipelineErrors   *prometheus.CounterVec

	CacheOps *prometheus.CounterVec
}

// NewPrometheusHooks creates hooks whose metric names are prefixed with
// namespace.
func NewPrometheusHooks(namespace string) *PrometheusHooks {
	h := &PrometheusHooks{
		registry: prometheus.NewRegistry(),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of weave stages in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		StageChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_changed_edges_total",
				Help:      "Edges added, removed or ranked by weave stages",
			},
			[]string{"stage"},
		),
		GraphNodes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "graph_nodes",
				Help:      "Number of nodes after each weave stage",
			},
			[]string{"stage"},
		),
		GraphEdges: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "graph_edges",
				Help:      "Number of edges after each weave stage",
			},
			[]string{"stage"},
		),
		PipelineDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pipeline_step_duration_seconds",
				Help:      "Duration of pipeline steps in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"step"},
		),
		PipelineErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_errors_total",
				Help:      "Total number of failed pipeline steps",
			},
			[]string{"step"},
		),
		CacheOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_operations_total",
				Help:      "Total number of cache operations",
			},
			[]string{"op", "key_type"},
		),
	}

	h.registry.MustRegister(
		h.StageDuration,
		h.StageChanges,
		h.GraphNodes,
		h.GraphEdges,
		h.PipelineDuration,
		h.PipelineErrors,
		h.CacheOps,
	)
	return h
}

// Registry returns the registry holding the metrics.
func (h *PrometheusHooks) Registry() *prometheus.Registry {
	return h.registry
}

// WriteText writes every metric in the Prometheus text exposition format.
func (h *PrometheusHooks) WriteText(w io.Writer) error {
	families, err := h.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

func (h *PrometheusHooks) OnStageStart(Stage) {}

func (h *PrometheusHooks) OnCheckpoint(cp Checkpoint) {
	stage := string(cp.Stage)
	h.StageDuration.WithLabelValues(stage).Observe(cp.Duration.Seconds())
	h.StageChanges.WithLabelValues(stage).Add(float64(cp.Changed))
	h.GraphNodes.WithLabelValues(stage).Set(float64(cp.Nodes))
	h.GraphEdges.WithLabelValues(stage).Set(float64(cp.Edges))
}

func (h *PrometheusHooks) OnReadComplete(_ context.Context, _ string, _, _ int, d time.Duration, err error) {
	h.observeStep("read", d, err)
}

func (h *PrometheusHooks) OnWeaveComplete(_ context.Context, _, _ int, d time.Duration, err error) {
	h.observeStep("weave", d, err)
}

func (h *PrometheusHooks) OnExportComplete(_ context.Context, format string, _ int, d time.Duration, err error) {
	h.observeStep("export_"+format, d, err)
}

func (h *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	h.CacheOps.WithLabelValues("hit", keyType).Inc()
}

func (h *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.CacheOps.WithLabelValues("miss", keyType).Inc()
}

func (h *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, _ int) {
	h.CacheOps.WithLabelValues("set", keyType).Inc()
}

func (h *PrometheusHooks) observeStep(step string, d time.Duration, err error) {
	h.PipelineDuration.WithLabelValues(step).Observe(d.Seconds())
	if err != nil {
		h.PipelineErrors.WithLabelValues(step).Inc()
	}
}
