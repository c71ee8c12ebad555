package httpmiddleware

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Instrument returns a middleware that records a span plus request
// count and duration metrics for every request.
func Instrument(name string, tp trace.TracerProvider, mp metric.MeterProvider) Middleware {
	tracer := tp.Tracer(name)
	meter := mp.Meter(name)

	requests, _ := meter.Int64Counter("http.server.request_count",
		metric.WithDescription("Number of HTTP requests handled"),
	)
	duration, _ := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("ms"),
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
			)
			defer span.End()

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}

			attrs := metric.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.Int("http.status_code", status),
			)
			requests.Add(ctx, 1, attrs)
			duration.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)

			span.SetAttributes(
				attribute.String("http.method", r.Method),
				attribute.Int("http.status_code", status),
			)
		})
	}
}
