// Package alert defines the operator-alerting sink used when storage
// or a collaborator fails. Alerts are best-effort: implementations
// must never block or fail the calling request path.
package alert

import "log/slog"

// Severity classifies an alert for routing on the operations side.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Sink accepts free-text alerts tagged with a severity and the
// originating component name.
type Sink interface {
	Alert(component string, severity Severity, message string)
}

// LogSink writes alerts to the structured logger. It is the fallback
// when no message broker is configured.
type LogSink struct{}

// Alert logs the alert at a level matching its severity.
func (LogSink) Alert(component string, severity Severity, message string) {
	if severity == SeverityCritical {
		slog.Error("alert", "component", component, "message", message)
		return
	}
	slog.Warn("alert", "component", component, "message", message)
}

// NopSink discards alerts. Used in tests.
type NopSink struct{}

// Alert does nothing.
func (NopSink) Alert(string, Severity, string) {}
