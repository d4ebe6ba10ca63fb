package restyutil

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/semconv/v1.13.0/httpconv"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentOutput receives a dump of every request/response pair going
// through an instrumented client. Useful when figuring out why an
// undocumented endpoint stopped cooperating.
type InstrumentOutput interface {
	Write(id string, contents string)
}

type exchangeIdKey struct{}

type instrumentation struct {
	output  InstrumentOutput
	tracer  trace.Tracer
	counter atomic.Uint64
}

// InstrumentClient attaches tracing, debug logging and exchange dumping
// middleware to a resty client. A nil output makes this a no-op; a nil
// tracer falls back to a tracer named "resty".
func InstrumentClient(client *resty.Client, tracer trace.Tracer, output InstrumentOutput) {
	if output == nil {
		return
	}
	if tracer == nil {
		tracer = otel.Tracer("resty")
	}

	i := &instrumentation{output: output, tracer: tracer}
	client.OnBeforeRequest(i.beforeRequest)
	client.OnAfterResponse(i.afterResponse)
	client.OnError(i.requestFailed)
}

func (i *instrumentation) beforeRequest(_ *resty.Client, req *resty.Request) error {
	ctx, _ := i.tracer.Start(req.Context(), req.Method)

	if slog.Default().Enabled(ctx, slog.LevelDebug) {
		id := strconv.FormatUint(i.counter.Add(1), 10)
		ctx = context.WithValue(ctx, exchangeIdKey{}, id)
		slog.DebugContext(
			ctx, "start request",
			"method", req.Method,
			"url", req.URL,
			"exchange_id", id,
		)
	}

	req.SetContext(ctx)
	return nil
}

func (i *instrumentation) afterResponse(_ *resty.Client, res *resty.Response) error {
	ctx := res.Request.Context()
	span := trace.SpanFromContext(ctx)
	defer span.End()

	// request attributes are set here because res.Request.RawRequest is
	// still nil in beforeRequest
	span.SetName(fmt.Sprintf("http %s", res.Request.Method))
	span.SetAttributes(httpconv.ClientRequest(res.Request.RawRequest)...)
	span.SetAttributes(httpconv.ClientResponse(res.RawResponse)...)

	if id, ok := ctx.Value(exchangeIdKey{}).(string); ok {
		i.output.Write(id, formatHttpMessage(res))
		slog.DebugContext(
			ctx, "request done",
			"method", res.Request.Method,
			"url", res.Request.URL,
			"status", res.StatusCode(),
			"exchange_id", id,
		)
	}

	return nil
}

func (i *instrumentation) requestFailed(req *resty.Request, err error) {
	ctx := req.Context()
	span := trace.SpanFromContext(ctx)
	defer span.End()

	span.RecordError(err)
	span.SetStatus(codes.Error, "request failed")
	span.SetName(fmt.Sprintf("http %s", req.Method))
	if req.RawRequest != nil {
		span.SetAttributes(httpconv.ClientRequest(req.RawRequest)...)
	}

	slog.ErrorContext(
		ctx, "request failed",
		"method", req.Method,
		"url", req.URL,
		"err", err,
	)
}
