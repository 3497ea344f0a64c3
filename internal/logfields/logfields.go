// Package logfields centralizes canonical slog attribute constructors so log
// field names do not drift across packages.
package logfields

import "log/slog"

// Canonical log field name constants.
const (
	KeyJobID      = "job_id"
	KeyTaskID     = "task_id"
	KeyCompany    = "company"
	KeyStage      = "stage"
	KeyFromStage  = "from_stage"
	KeyToStage    = "to_stage"
	KeyOutcome    = "outcome"
	KeyTrigger    = "trigger"
	KeyArtifact   = "artifact"
	KeyLocation   = "location"
	KeyPath       = "path"
	KeyModel      = "model"
	KeyDurationMS = "duration_ms"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyRemoteAddr = "remote_addr"
	KeyURL        = "url"
	KeyName       = "name"
	KeyCount      = "count"
	KeyError      = "error"
)

// Granular helpers returning slog.Attr so callers can compose them.
func JobID(id string) slog.Attr       { return slog.String(KeyJobID, id) }
func TaskID(id string) slog.Attr      { return slog.String(KeyTaskID, id) }
func Company(name string) slog.Attr   { return slog.String(KeyCompany, name) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func FromStage(name string) slog.Attr { return slog.String(KeyFromStage, name) }
func ToStage(name string) slog.Attr   { return slog.String(KeyToStage, name) }
func Outcome(name string) slog.Attr   { return slog.String(KeyOutcome, name) }
func Trigger(name string) slog.Attr   { return slog.String(KeyTrigger, name) }
func Artifact(kind string) slog.Attr  { return slog.String(KeyArtifact, kind) }
func Location(name string) slog.Attr  { return slog.String(KeyLocation, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Model(name string) slog.Attr     { return slog.String(KeyModel, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Name(n string) slog.Attr         { return slog.String(KeyName, n) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
