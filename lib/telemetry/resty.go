package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/semconv/v1.13.0/httpconv"
	"go.opentelemetry.io/otel/trace"
)

// MessageOutput receives the formatted request/response pair of every
// request made by an instrumented client.
type MessageOutput interface {
	Write(id string, contents string)
}

var requestCounter, _ = Meter("racestats.http").Int64Counter(
	"http.client.requests",
	metric.WithDescription("requests made by instrumented resty clients"),
)

type instrumentResty struct {
	tracer    trace.Tracer
	output    MessageOutput
	idcounter *uint64
}

type reqCtxKeyType int

var reqCtxKey reqCtxKeyType

type reqCtx struct {
	id        string
	startTime time.Time
}

// InstrumentResty attaches tracing, logging and metrics to a resty client.
// `output` can be nil, if it is, messages are not written anywhere.
func InstrumentResty(client *resty.Client, tracerName string, output MessageOutput) {
	var idcounter uint64
	i := instrumentResty{
		tracer:    Tracer(tracerName),
		output:    output,
		idcounter: &idcounter,
	}

	client.OnBeforeRequest(i.onBeforeRequest)
	client.OnAfterResponse(i.onAfterResponse)
	client.OnError(i.onError)
}

func (i instrumentResty) onBeforeRequest(_ *resty.Client, req *resty.Request) error {
	ctx, _ := i.tracer.Start(req.Context(), req.Method)

	id := strconv.FormatUint(atomic.AddUint64(i.idcounter, 1), 10)
	ctx = context.WithValue(ctx, reqCtxKey, reqCtx{
		id:        id,
		startTime: time.Now(),
	})
	slog.DebugContext(
		ctx, "start request",
		"method", req.Method,
		"url", req.URL,
		"message_id", id,
	)

	req.SetContext(ctx)
	return nil
}

func requestInfo(ctx context.Context) reqCtx {
	info, ok := ctx.Value(reqCtxKey).(reqCtx)
	if !ok {
		return reqCtx{id: "unknown", startTime: time.Now()}
	}
	return info
}

func (i instrumentResty) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	ctx := res.Request.Context()
	span := trace.SpanFromContext(ctx)
	defer span.End()

	info := requestInfo(ctx)

	// request attributes are set here since res.Request.RawRequest is nil in onBeforeRequest
	span.SetName(fmt.Sprintf("http %s", res.Request.Method))
	span.SetAttributes(httpconv.ClientRequest(res.Request.RawRequest)...)
	span.SetAttributes(httpconv.ClientResponse(res.RawResponse)...)
	if res.IsError() {
		span.SetStatus(codes.Error, res.Status())
	}

	requestCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.Int("status", res.StatusCode()),
	))

	if i.output != nil {
		i.output.Write(info.id, formatHttpMessage(res))
	}
	slog.DebugContext(
		ctx, "request completed",
		"method", res.Request.Method,
		"url", res.Request.URL,
		"status", res.StatusCode(),
		"duration", time.Since(info.startTime).String(),
		"message_id", info.id,
	)

	return nil
}

func (i instrumentResty) onError(req *resty.Request, err error) {
	ctx := req.Context()
	span := trace.SpanFromContext(ctx)
	defer span.End()

	span.RecordError(err)
	span.SetStatus(codes.Error, "request failed")
	span.SetName(fmt.Sprintf("http %s", req.Method))

	info := requestInfo(ctx)
	requestCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.Int("status", 0),
	))

	if i.output != nil {
		i.output.Write(info.id, formatHttpRequest(req, err))
	}
	slog.ErrorContext(
		ctx, "request failed",
		"method", req.Method,
		"url", req.URL,
		"err", err,
		"duration", time.Since(info.startTime).String(),
		"message_id", info.id,
	)

	if req.RawRequest == nil {
		return
	}
	span.SetAttributes(httpconv.ClientRequest(req.RawRequest)...)
}
