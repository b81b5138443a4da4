package otel

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	eventbus "github.com/hanpama/gqlc/internal/eventbus"
	events "github.com/hanpama/gqlc/internal/events"
	reqid "github.com/hanpama/gqlc/internal/reqid"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSpansFollowEvents(t *testing.T) {
	eventbus.Use(eventbus.New())
	t.Cleanup(func() { eventbus.Use(nil) })

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	unsubscribe := Subscribe(tp.Tracer(tracerName))
	defer unsubscribe()

	ctx, _ := reqid.NewContext(context.Background())
	req := httptest.NewRequest("POST", "/compile", nil)
	eventbus.Publish(ctx, events.HTTPStart{Request: req})
	eventbus.Publish(ctx, events.CompileStart{Sources: 2})
	eventbus.Publish(ctx, events.PassStart{Pass: "strip-unused-variables", Documents: 3})
	eventbus.Publish(ctx, events.PassFinish{Pass: "strip-unused-variables", Documents: 3, Err: errors.New("boom")})
	eventbus.Publish(ctx, events.CompileFinish{Documents: 3})
	eventbus.Publish(ctx, events.HTTPFinish{Request: req, Status: 200})

	ended := rec.Ended()
	require.Len(t, ended, 3)
	pass, compile, httpSpan := ended[0], ended[1], ended[2]
	require.Equal(t, "gqlc.pass", pass.Name())
	require.Equal(t, "gqlc.compile", compile.Name())
	require.Equal(t, "http.request", httpSpan.Name())

	require.Equal(t, compile.SpanContext().SpanID(), pass.Parent().SpanID())
	require.Equal(t, httpSpan.SpanContext().SpanID(), compile.Parent().SpanID())
	require.Equal(t, codes.Error, pass.Status().Code)
	require.Equal(t, codes.Unset, compile.Status().Code)
}

func TestOverlappingRequestsWithSameClientID(t *testing.T) {
	eventbus.Use(eventbus.New())
	t.Cleanup(func() { eventbus.Use(nil) })

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer Subscribe(tp.Tracer(tracerName))()

	req1 := httptest.NewRequest("POST", "/compile", nil)
	req1.Header.Set(reqid.Header, "42")
	req2 := httptest.NewRequest("POST", "/compile", nil)
	req2.Header.Set(reqid.Header, "42")
	ctx1, _ := reqid.FromRequest(context.Background(), req1)
	ctx2, _ := reqid.FromRequest(context.Background(), req2)

	eventbus.Publish(ctx1, events.HTTPStart{Request: req1})
	eventbus.Publish(ctx2, events.HTTPStart{Request: req2})
	eventbus.Publish(ctx1, events.CompileStart{Sources: 1})
	eventbus.Publish(ctx2, events.CompileStart{Sources: 2})
	eventbus.Publish(ctx1, events.CompileFinish{Documents: 1})
	eventbus.Publish(ctx1, events.HTTPFinish{Request: req1, Status: 200})
	eventbus.Publish(ctx2, events.CompileFinish{Documents: 2})
	eventbus.Publish(ctx2, events.HTTPFinish{Request: req2, Status: 422})

	require.Len(t, rec.Started(), 4)
	ended := rec.Ended()
	require.Len(t, ended, 4)

	byName := map[string][]sdktrace.ReadOnlySpan{}
	for _, s := range ended {
		byName[s.Name()] = append(byName[s.Name()], s)
	}
	require.Len(t, byName["http.request"], 2)
	require.Len(t, byName["gqlc.compile"], 2)
	// each compile span ends under its own request span
	for i, c := range byName["gqlc.compile"] {
		require.Equal(t, byName["http.request"][i].SpanContext().SpanID(), c.Parent().SpanID())
	}
	for _, h := range byName["http.request"] {
		var client int64
		for _, kv := range h.Attributes() {
			if kv.Key == "gqlc.client_request_id" {
				client = kv.Value.AsInt64()
			}
		}
		require.Equal(t, int64(42), client)
	}
}

func TestUnsubscribe(t *testing.T) {
	eventbus.Use(eventbus.New())
	t.Cleanup(func() { eventbus.Use(nil) })

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	Subscribe(tp.Tracer(tracerName))()

	eventbus.Publish(context.Background(), events.CompileStart{})
	eventbus.Publish(context.Background(), events.CompileFinish{})
	require.Empty(t, rec.Started())
}

func TestSetupWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), "", "gqlc")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
