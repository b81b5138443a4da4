// Package otel turns compiler and HTTP events into OpenTelemetry spans.
package otel

import (
	"context"
	"sync"

	eventbus "github.com/hanpama/gqlc/internal/eventbus"
	events "github.com/hanpama/gqlc/internal/events"
	reqid "github.com/hanpama/gqlc/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const tracerName = "gqlc"

// Setup configures OpenTelemetry and attaches eventbus subscribers.
// If endpoint is empty, no telemetry is configured.
func Setup(ctx context.Context, endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	unsubscribe := Subscribe(tp.Tracer(tracerName))
	return func(ctx context.Context) error {
		unsubscribe()
		return tp.Shutdown(ctx)
	}, nil
}

// Subscribe records spans with tracer for events published on the global
// bus until the returned function is called.
func Subscribe(tracer trace.Tracer) (unsubscribe func()) {
	s := &subscriber{tracer: tracer}
	return s.register()
}

// Spans are keyed by the server-generated request ID, unique per request.
// Events published outside a request share the zero ID, which is fine for
// the CLI's single compile.
type subscriber struct {
	tracer       trace.Tracer
	httpSpans    sync.Map // rid -> trace.Span
	compileSpans sync.Map // rid -> trace.Span
	passSpans    sync.Map // rid -> trace.Span
}

func (s *subscriber) parent(ctx context.Context, rid int64, spans ...*sync.Map) context.Context {
	for _, m := range spans {
		if v, ok := m.Load(rid); ok {
			return trace.ContextWithSpan(ctx, v.(trace.Span))
		}
	}
	return ctx
}

func (s *subscriber) register() func() {
	subs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.HTTPStart) {
			rid, _ := reqid.FromContext(ctx)
			_, span := s.tracer.Start(ctx, "http.request")
			span.SetAttributes(
				semconv.HTTPMethodKey.String(e.Request.Method),
				attribute.String("http.target", e.Request.URL.Path),
				attribute.Int64("gqlc.request_id", rid),
			)
			if cid, ok := reqid.ClientID(ctx); ok {
				span.SetAttributes(attribute.Int64("gqlc.client_request_id", cid))
			}
			s.httpSpans.Store(rid, span)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
			rid, _ := reqid.FromContext(ctx)
			v, ok := s.httpSpans.LoadAndDelete(rid)
			if !ok {
				return
			}
			span := v.(trace.Span)
			span.SetAttributes(semconv.HTTPStatusCodeKey.Int(e.Status))
			if e.Status >= 500 {
				span.SetStatus(codes.Error, "")
			}
			span.End()
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.CompileStart) {
			rid, _ := reqid.FromContext(ctx)
			_, span := s.tracer.Start(s.parent(ctx, rid, &s.httpSpans), "gqlc.compile")
			span.SetAttributes(attribute.Int("gqlc.sources", e.Sources))
			s.compileSpans.Store(rid, span)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.CompileFinish) {
			rid, _ := reqid.FromContext(ctx)
			v, ok := s.compileSpans.LoadAndDelete(rid)
			if !ok {
				return
			}
			span := v.(trace.Span)
			span.SetAttributes(attribute.Int("gqlc.documents", e.Documents))
			endWithError(span, e.Err)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.PassStart) {
			rid, _ := reqid.FromContext(ctx)
			_, span := s.tracer.Start(s.parent(ctx, rid, &s.compileSpans, &s.httpSpans), "gqlc.pass")
			span.SetAttributes(
				attribute.String("gqlc.pass", e.Pass),
				attribute.Int("gqlc.documents", e.Documents),
			)
			s.passSpans.Store(rid, span)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.PassFinish) {
			rid, _ := reqid.FromContext(ctx)
			v, ok := s.passSpans.LoadAndDelete(rid)
			if !ok {
				return
			}
			endWithError(v.(trace.Span), e.Err)
		}),
	}
	return func() {
		for _, u := range subs {
			u()
		}
	}
}

func endWithError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
