package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestNoopRecorderSafe(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncTransition("discovered", "researched", "auto:analyze")
	r.ObserveLLMRequest("ok", 120*time.Millisecond)
	r.AddLLMTokens(100, 50)
	r.IncImport("url", "success")
	r.ObserveHTTPRequest("GET", "/api/v1/pipeline", 200, time.Millisecond)
	r.IncTaskResult("analyze", "completed")
	r.SetOverdueFollowups(3)
}

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.IncTransition("discovered", "researched", "auto:analyze")
	pr.ObserveLLMRequest("ok", 150*time.Millisecond)
	pr.AddLLMTokens(1200, 340)
	pr.IncImport("markdown", "success")
	pr.ObserveHTTPRequest("POST", "/api/v1/jobs/import", 201, 20*time.Millisecond)
	pr.IncTaskResult("resume", "failed")
	pr.SetOverdueFollowups(2)

	// Basic scrape to ensure metrics encode without panic
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatalf("expected metrics, got none")
	}

	rec := httptest.NewRecorder()
	pr.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics endpoint status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "scout_pipeline_transitions_total") {
		t.Fatalf("scrape output missing transition counter:\n%s", rec.Body.String())
	}
}

func TestPrometheusRecorderNilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.IncTransition("a", "b", "t")
	pr.ObserveLLMRequest("ok", time.Second)
	pr.AddLLMTokens(1, 1)
	pr.IncImport("url", "failed")
	pr.ObserveHTTPRequest("GET", "/", 200, time.Second)
	pr.IncTaskResult("k", "s")
	pr.SetOverdueFollowups(0)
}
