// Package logging builds the zerolog logger shared by every component.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// traceHook stamps the OpenTelemetry trace and span ids carried by the
// event context. Events need .Ctx(ctx) for the hook to see them.
type traceHook struct{}

func (traceHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	spanCtx := trace.SpanContextFromContext(e.GetCtx())
	if spanCtx.HasTraceID() {
		e.Str("trace_id", spanCtx.TraceID().String())
	}
	if spanCtx.HasSpanID() {
		e.Str("span_id", spanCtx.SpanID().String())
	}
}

// Setup creates a configured logger.
// format: "json" or "console" (defaults to "json" if empty)
// If w is nil, writes to os.Stderr.
func Setup(service, level, format string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if strings.EqualFold(format, "console") {
		w = zerolog.ConsoleWriter{Out: w}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(w).
		Level(lvl).
		Hook(traceHook{}).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}
