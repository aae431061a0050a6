// Package observability provides structured, redaction-aware logging for
// the review service, extending the LLM-call-scoped logging seam
// (internal/adapter/llm/http.Logger) to cover the whole job lifecycle.
package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	llmhttp "github.com/codecritics/codecritics/internal/adapter/llm/http"
	"github.com/codecritics/codecritics/internal/redaction"
)

// Fields carries the structured attributes attached to a log line. A job
// log call typically sets repo, pullNumber, trigger, stage and kind.
type Fields map[string]interface{}

// Logger is the structured logging seam used across the job pipeline. It
// keeps the LLM-call-scoped LogRequest/LogResponse/LogError shape and
// adds the job-lifecycle LogInfo/LogWarning/LogError calls needed once
// logging moved beyond a single provider call.
type Logger interface {
	LogRequest(ctx context.Context, req llmhttp.RequestLog)
	LogResponse(ctx context.Context, resp llmhttp.ResponseLog)
	LogProviderError(ctx context.Context, err llmhttp.ErrorLog)

	LogInfo(ctx context.Context, message string, fields Fields)
	LogWarning(ctx context.Context, message string, fields Fields)
	LogError(ctx context.Context, message string, err error, fields Fields)
}

// Level gates verbosity, mirroring llmhttp.LogLevel.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
)

// ParseLevel maps a LOG_LEVEL value onto a Level, defaulting to LevelInfo
// for anything unrecognized.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// JSONLogger writes newline-delimited JSON log records to stdout, routing
// every value through the redaction engine before formatting. ProductionMode
// controls whether provider error bodies are wholesale-redacted rather than
// span-redacted.
type JSONLogger struct {
	level          Level
	productionMode bool
	inner          llmhttp.Logger
}

// NewJSONLogger creates a Logger at the given verbosity. productionMode
// enables wholesale provider-body redaction on top of span redaction.
func NewJSONLogger(level Level, productionMode bool) *JSONLogger {
	llmLevel := llmhttp.LogLevelInfo
	switch level {
	case LevelDebug:
		llmLevel = llmhttp.LogLevelDebug
	case LevelError:
		llmLevel = llmhttp.LogLevelError
	}
	return &JSONLogger{
		level:          level,
		productionMode: productionMode,
		inner:          llmhttp.NewDefaultLogger(llmLevel, llmhttp.LogFormatJSON, true),
	}
}

func (l *JSONLogger) LogRequest(ctx context.Context, req llmhttp.RequestLog) {
	l.inner.LogRequest(ctx, req)
}

func (l *JSONLogger) LogResponse(ctx context.Context, resp llmhttp.ResponseLog) {
	l.inner.LogResponse(ctx, resp)
}

func (l *JSONLogger) LogProviderError(ctx context.Context, errLog llmhttp.ErrorLog) {
	errLog.Error = fmt.Errorf("%s", redaction.SanitizeErrorSurface(errLog.Error.Error(), l.productionMode))
	l.inner.LogError(ctx, errLog)
}

func (l *JSONLogger) LogInfo(ctx context.Context, message string, fields Fields) {
	l.write(LevelInfo, "info", message, nil, fields)
}

func (l *JSONLogger) LogWarning(ctx context.Context, message string, fields Fields) {
	l.write(LevelInfo, "warning", message, nil, fields)
}

func (l *JSONLogger) LogError(ctx context.Context, message string, err error, fields Fields) {
	l.write(LevelError, "error", message, err, fields)
}

func (l *JSONLogger) write(minLevel Level, levelName, message string, err error, fields Fields) {
	if l.level > minLevel {
		return
	}
	record := map[string]interface{}{
		"level":     levelName,
		"message":   redaction.SanitizeErrorSurface(message, false),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range fields {
		if s, ok := v.(string); ok {
			v = redaction.SanitizeErrorSurface(s, false)
		}
		record[k] = v
	}
	if err != nil {
		record["error"] = redaction.SanitizeErrorSurface(err.Error(), l.productionMode)
	}
	line, marshalErr := json.Marshal(record)
	if marshalErr != nil {
		log.Printf(`{"level":"error","message":"failed to marshal log record: %s"}`, marshalErr)
		return
	}
	log.Println(string(line))
}

var _ Logger = (*JSONLogger)(nil)
