// Package metrics defines observability hooks behind a Recorder interface.
// Components receive a Recorder by injection; NoopRecorder is the default so
// callers never nil-check. The Prometheus implementation activates in serve
// mode.
package metrics

import "time"

// Recorder defines observability hooks for pipeline, LLM, import, and HTTP
// activity. Implementations must be safe for concurrent use.
type Recorder interface {
	IncTransition(from, to, trigger string)
	ObserveLLMRequest(status string, d time.Duration)
	AddLLMTokens(input, output int)
	IncImport(source, result string)
	ObserveHTTPRequest(method, path string, status int, d time.Duration)
	IncTaskResult(kind, status string)
	SetOverdueFollowups(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not
// configured).
type NoopRecorder struct{}

func (NoopRecorder) IncTransition(string, string, string)                  {}
func (NoopRecorder) ObserveLLMRequest(string, time.Duration)               {}
func (NoopRecorder) AddLLMTokens(int, int)                                 {}
func (NoopRecorder) IncImport(string, string)                              {}
func (NoopRecorder) ObserveHTTPRequest(string, string, int, time.Duration) {}
func (NoopRecorder) IncTaskResult(string, string)                          {}
func (NoopRecorder) SetOverdueFollowups(int)                               {}
