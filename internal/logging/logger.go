// Package logging provides the structured event log consumed by the
// cache orchestrator. Events are JSON lines on the process log, one
// struct per event kind; logging is observability only and never drives
// control flow.
package logging

import (
	"encoding/json"
	"log"
	"time"

	"github.com/cloo-solutions/veccache/internal/domain"
)

// Fields carries free-form structured event data.
type Fields map[string]interface{}

// Logger is the sink the orchestrator emits to at each workflow stage.
type Logger interface {
	// Step marks the start or completion of a workflow stage.
	Step(scope domain.Scope, operation, message string, fields Fields)
	// Metrics emits derived numbers for a completed operation.
	Metrics(scope domain.Scope, operation string, fields Fields)
	// Error reports a failure with its operation context.
	Error(scope domain.Scope, operation string, err error, fields Fields)
}

type logEntry struct {
	Timestamp       string                 `json:"ts"`
	Kind            string                 `json:"kind"`
	Operation       string                 `json:"operation"`
	OrgID           string                 `json:"org_id,omitempty"`
	ChatbotConfigID string                 `json:"chatbot_config_id,omitempty"`
	Message         string                 `json:"message,omitempty"`
	Error           string                 `json:"error,omitempty"`
	Fields          map[string]interface{} `json:"fields,omitempty"`
}

// JSONLogger emits one JSON line per event on the standard logger.
type JSONLogger struct{}

// NewJSONLogger creates a JSONLogger.
func NewJSONLogger() *JSONLogger {
	return &JSONLogger{}
}

func (l *JSONLogger) emit(entry logEntry) {
	entry.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	payload, err := json.Marshal(entry)
	if err != nil {
		log.Printf("cache_log_marshal_error: %v", err)
		return
	}
	log.Println(string(payload))
}

// Step implements Logger.
func (l *JSONLogger) Step(scope domain.Scope, operation, message string, fields Fields) {
	l.emit(logEntry{
		Kind:            "step",
		Operation:       operation,
		OrgID:           scope.OrgID,
		ChatbotConfigID: scope.ChatbotConfigID,
		Message:         message,
		Fields:          fields,
	})
}

// Metrics implements Logger.
func (l *JSONLogger) Metrics(scope domain.Scope, operation string, fields Fields) {
	l.emit(logEntry{
		Kind:            "metrics",
		Operation:       operation,
		OrgID:           scope.OrgID,
		ChatbotConfigID: scope.ChatbotConfigID,
		Fields:          fields,
	})
}

// Error implements Logger.
func (l *JSONLogger) Error(scope domain.Scope, operation string, err error, fields Fields) {
	entry := logEntry{
		Kind:            "error",
		Operation:       operation,
		OrgID:           scope.OrgID,
		ChatbotConfigID: scope.ChatbotConfigID,
		Fields:          fields,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	l.emit(entry)
}

// NopLogger discards every event. Used in tests and as the default when
// no logger is provided.
type NopLogger struct{}

// NewNopLogger creates a NopLogger.
func NewNopLogger() *NopLogger { return &NopLogger{} }

func (*NopLogger) Step(domain.Scope, string, string, Fields) {}
func (*NopLogger) Metrics(domain.Scope, string, Fields)      {}
func (*NopLogger) Error(domain.Scope, string, error, Fields) {}
