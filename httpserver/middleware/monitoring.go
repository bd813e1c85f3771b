package middleware

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/pure-golang/mailtester/logger"
)

var (
	meter = otel.GetMeterProvider().Meter("github.com/pure-golang/mailtester/httpserver/middleware")
	// nolint:errcheck // Sync OpenTelemetry instruments never return errors
	requestsCount, _       = meter.Int64Counter("http.request_count")
	requestTimeHist, _     = meter.Int64Histogram("http.request_time", metric.WithUnit("ms"))
	requestBodyLenHist, _  = meter.Int64Histogram("http.request_body_len", metric.WithUnit("KB"))
	responseBodyLenHist, _ = meter.Int64Histogram("http.response_body_len", metric.WithUnit("KB"))
	tracer                 = otel.Tracer("github.com/pure-golang/mailtester/httpserver/middleware")
)

// Monitoring traces incoming http requests using open telemetry tracer, records
// request metrics and attaches a request logger to the context.
func Monitoring(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqTime := time.Now()
		ctx := r.Context()

		ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(r.Header))

		uriWithoutParameters := strings.Split(r.RequestURI, "?")[0]
		ctx, span := tracer.Start(ctx, uriWithoutParameters, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		metricLabels := []attribute.KeyValue{
			attribute.String("http.method", r.Method),
			attribute.String("http.route", uriWithoutParameters),
		}

		traceID := span.SpanContext().TraceID().String()

		// logger
		log := slog.Default().With(slog.String("method", r.Method), slog.String("uri", r.RequestURI))
		if traceID != "" {
			log = log.With("trace_id", traceID)
		}

		// attributes
		attrs := semconv.NetAttributesFromHTTPRequest("tcp", r)
		attrs = append(attrs, semconv.EndUserAttributesFromHTTPRequest(r)...)
		attrs = append(attrs, semconv.HTTPServerAttributesFromHTTPRequest("webserver", r.RequestURI, r)...)
		attrs = append(attrs, attribute.String("http.request.header.User-Agent", r.Header.Get("User-Agent")))

		// Only the head of the body is buffered; the handler still reads the
		// full stream and applies its own size limit.
		reqHead, err := io.ReadAll(io.LimitReader(r.Body, BodyMaxLen))
		if err != nil {
			log.Error("failed to read body", "error", err)
		} else {
			r.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(reqHead), r.Body), Closer: r.Body}
			attrs = append(attrs, attribute.String("http.request.body_2048", cutSized(reqHead, int(max(r.ContentLength, int64(len(reqHead)))))))
		}

		w.Header().Set("X-Trace-Id", traceID)

		ctx = logger.NewContext(ctx, log)
		srw := newStatefulRespWriter(w)

		next.ServeHTTP(srw, r.WithContext(ctx))

		if srw.status == 0 {
			srw.status = http.StatusOK
		}
		log.Debug("request served", slog.Int("status", srw.status), slog.Duration("took", time.Since(reqTime)))

		attrs = append(attrs, attribute.Int("http.response.status", srw.status))
		attrs = append(attrs, attribute.String("http.response.body_2048", cutSized(srw.body, srw.size)))
		span.SetAttributes(attrs...)

		// metrics
		requestsCount.Add(ctx, 1, metric.WithAttributes(append(metricLabels,
			attribute.Int("http.response.code", srw.status))...))
		requestTimeHist.Record(ctx, time.Since(reqTime).Milliseconds(), metric.WithAttributes(metricLabels...))
		requestBodyLenHist.Record(ctx, max(r.ContentLength, 0)/1024, metric.WithAttributes(metricLabels...))
		responseBodyLenHist.Record(ctx, int64(srw.size)/1024, metric.WithAttributes(metricLabels...))
		if srw.status >= 500 {
			span.SetStatus(codes.Error, "")
			return
		}

		span.SetStatus(codes.Ok, "")
	})
}

// statefulRespWriter keeps the sent status and body after WriteHeader/Write calls
type statefulRespWriter struct {
	http.ResponseWriter
	status int
	body   []byte // first BodyMaxLen bytes
	size   int
}

func newStatefulRespWriter(w http.ResponseWriter) *statefulRespWriter {
	return &statefulRespWriter{ResponseWriter: w}
}

func (w *statefulRespWriter) WriteHeader(status int) {
	w.ResponseWriter.WriteHeader(status)
	w.status = status
}

func (w *statefulRespWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}
	w.size += len(b)
	if room := BodyMaxLen - len(w.body); room > 0 {
		w.body = append(w.body, b[:min(room, len(b))]...)
	}
	return w.ResponseWriter.Write(b)
}

func (w *statefulRespWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

const BodyMaxLen = 2048

type readCloser struct {
	io.Reader
	io.Closer
}

func cutSized(body []byte, size int) string {
	if size > BodyMaxLen {
		return fmt.Sprintf("%s...(%d bytes)", string(body[:min(BodyMaxLen, len(body))]), size)
	}
	return string(body)
}
