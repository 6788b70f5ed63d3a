// Package logging wraps logrus with OpenTelemetry trace correlation.
package logging

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

var log = logrus.StandardLogger()

var serviceName = "vehicle-parking"

func init() {
	log.SetOutput(os.Stdout)
	log.SetFormatter(jsonFormatter())
	log.SetLevel(logrus.InfoLevel)
}

func jsonFormatter() logrus.Formatter {
	return &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
	}
}

// Configure applies level and format ("json" or "text") to the shared
// logger. An unknown level leaves the current one in place.
func Configure(level, format, service string) {
	if lvl, err := logrus.ParseLevel(level); err == nil {
		log.SetLevel(lvl)
	} else {
		log.Warnf("unknown log level %q, keeping %s", level, log.GetLevel())
	}
	if strings.EqualFold(format, "text") {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(jsonFormatter())
	}
	if service != "" {
		serviceName = service
	}
}

// SetOutput redirects the shared logger, mostly for tests.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

func Logger() *logrus.Logger {
	return log
}

// WithContext returns an entry carrying trace_id and span_id when ctx holds
// a valid span.
func WithContext(ctx context.Context) *logrus.Entry {
	fields := logrus.Fields{"service.name": serviceName}

	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		fields["trace_id"] = spanCtx.TraceID().String()
		fields["span_id"] = spanCtx.SpanID().String()
	}
	return log.WithFields(fields)
}

func WithFields(ctx context.Context, fields logrus.Fields) *logrus.Entry {
	return WithContext(ctx).WithFields(fields)
}

func Infof(ctx context.Context, format string, args ...any) {
	WithContext(ctx).Infof(format, args...)
}

func Warnf(ctx context.Context, format string, args ...any) {
	WithContext(ctx).Warnf(format, args...)
}

func Errorf(ctx context.Context, format string, args ...any) {
	WithContext(ctx).Errorf(format, args...)
}
