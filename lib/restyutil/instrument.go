// Package restyutil traces resty requests and optionally dumps every
// exchange to an Output for later inspection.
package restyutil

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"surveyops/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/semconv/v1.13.0/httpconv"
	"go.opentelemetry.io/otel/trace"
)

type Options struct {
	// Tracer defaults to one named "resty".
	Tracer trace.Tracer
	// Output is optional, nothing is dumped when nil.
	Output Output
	// IDPrefix is prepended to every message id.
	IDPrefix string
}

type instrumentCtx struct {
	tel       telemetry.API
	output    Output
	tracer    trace.Tracer
	prefix    string
	idcounter *uint64
}

type messageIDKey struct{}

// Instrument installs request hooks on `client` that trace every request and
// report failures through `tel`.
func Instrument(client *resty.Client, tel telemetry.API, opts Options) {
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer("resty")
	}

	var idcounter uint64
	i := instrumentCtx{
		tel:       telemetry.NewScopedAPI("http", tel),
		output:    opts.Output,
		tracer:    tracer,
		prefix:    opts.IDPrefix,
		idcounter: &idcounter,
	}
	client.OnBeforeRequest(i.onBeforeRequest)
	client.OnAfterResponse(i.onAfterResponse)
	client.OnError(i.onError)
}

func (i instrumentCtx) onBeforeRequest(_ *resty.Client, req *resty.Request) error {
	ctx, _ := i.tracer.Start(req.Context(), fmt.Sprintf("http %s", req.Method))

	messageID := i.prefix + strconv.FormatUint(atomic.AddUint64(i.idcounter, 1), 10)
	i.tel.ReportDebug("start request", "method", req.Method, "url", req.URL, "message_id", messageID)
	ctx = context.WithValue(ctx, messageIDKey{}, messageID)

	req.SetContext(ctx)
	return nil
}

func messageID(ctx context.Context) string {
	id, _ := ctx.Value(messageIDKey{}).(string)
	return id
}

func (i instrumentCtx) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	ctx := res.Request.Context()
	span := trace.SpanFromContext(ctx)
	defer span.End()

	// request attributes are set here since RawRequest is nil before the request
	if res.Request.RawRequest != nil {
		span.SetAttributes(httpconv.ClientRequest(res.Request.RawRequest)...)
	}
	if res.RawResponse != nil {
		span.SetAttributes(httpconv.ClientResponse(res.RawResponse)...)
	}
	if res.IsError() {
		span.SetStatus(codes.Error, res.Status())
	}

	id := messageID(ctx)
	if i.output != nil {
		err := i.output.Write(id, FormatMessage(res))
		if err != nil {
			i.tel.ReportWarning("write-dump", id, err)
		}
	}
	i.tel.ReportDebug(
		"request finished",
		"method", res.Request.Method,
		"url", res.Request.URL,
		"status", res.StatusCode(),
		"message_id", id,
	)
	return nil
}

func (i instrumentCtx) onError(req *resty.Request, err error) {
	ctx := req.Context()
	span := trace.SpanFromContext(ctx)
	defer span.End()

	span.RecordError(err)
	span.SetStatus(codes.Error, "request failed")
	if req.RawRequest != nil {
		span.SetAttributes(httpconv.ClientRequest(req.RawRequest)...)
	}

	i.tel.ReportWarning("request-failed", req.Method, req.URL, messageID(ctx), err)
}
