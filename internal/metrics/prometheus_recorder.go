package metrics

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics under the
// "scout" namespace.
type PrometheusRecorder struct {
	registry         *prom.Registry
	transitions      *prom.CounterVec
	llmDuration      *prom.HistogramVec
	llmTokens        *prom.CounterVec
	imports          *prom.CounterVec
	httpDuration     *prom.HistogramVec
	httpRequests     *prom.CounterVec
	taskResults      *prom.CounterVec
	overdueFollowups prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.transitions = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "scout",
		Name:      "pipeline_transitions_total",
		Help:      "Pipeline stage transitions by from/to stage and trigger",
	}, []string{"from", "to", "trigger"})
	pr.llmDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "scout",
		Name:      "llm_request_duration_seconds",
		Help:      "Duration of LLM completion requests",
		Buckets:   prom.DefBuckets,
	}, []string{"status"})
	pr.llmTokens = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "scout",
		Name:      "llm_tokens_total",
		Help:      "LLM token usage by direction",
	}, []string{"direction"})
	pr.imports = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "scout",
		Name:      "job_imports_total",
		Help:      "Imported job postings by source and result",
	}, []string{"source", "result"})
	pr.httpDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "scout",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of API requests",
		Buckets:   prom.DefBuckets,
	}, []string{"method", "path"})
	pr.httpRequests = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "scout",
		Name:      "http_requests_total",
		Help:      "API requests by method, path, and status code",
	}, []string{"method", "path", "code"})
	pr.taskResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "scout",
		Name:      "task_results_total",
		Help:      "Async task completions by kind and status",
	}, []string{"kind", "status"})
	pr.overdueFollowups = prom.NewGauge(prom.GaugeOpts{
		Namespace: "scout",
		Name:      "overdue_followups",
		Help:      "Applications past the follow-up window at the last sweep",
	})
	reg.MustRegister(pr.transitions, pr.llmDuration, pr.llmTokens, pr.imports,
		pr.httpDuration, pr.httpRequests, pr.taskResults, pr.overdueFollowups)
	return pr
}

func (p *PrometheusRecorder) IncTransition(from, to, trigger string) {
	if p == nil || p.transitions == nil {
		return
	}
	p.transitions.WithLabelValues(from, to, trigger).Inc()
}

func (p *PrometheusRecorder) ObserveLLMRequest(status string, d time.Duration) {
	if p == nil || p.llmDuration == nil {
		return
	}
	p.llmDuration.WithLabelValues(status).Observe(d.Seconds())
}

func (p *PrometheusRecorder) AddLLMTokens(input, output int) {
	if p == nil || p.llmTokens == nil {
		return
	}
	p.llmTokens.WithLabelValues("input").Add(float64(input))
	p.llmTokens.WithLabelValues("output").Add(float64(output))
}

func (p *PrometheusRecorder) IncImport(source, result string) {
	if p == nil || p.imports == nil {
		return
	}
	p.imports.WithLabelValues(source, result).Inc()
}

func (p *PrometheusRecorder) ObserveHTTPRequest(method, path string, status int, d time.Duration) {
	if p == nil || p.httpRequests == nil {
		return
	}
	p.httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
	p.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

func (p *PrometheusRecorder) IncTaskResult(kind, status string) {
	if p == nil || p.taskResults == nil {
		return
	}
	p.taskResults.WithLabelValues(kind, status).Inc()
}

func (p *PrometheusRecorder) SetOverdueFollowups(n int) {
	if p == nil || p.overdueFollowups == nil {
		return
	}
	p.overdueFollowups.Set(float64(n))
}

// HTTPHandler returns an http.Handler serving this recorder's registry,
// mounted at /metrics by the API server.
func (p *PrometheusRecorder) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
