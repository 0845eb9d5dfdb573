// Package invoke adapts the sampler and the plot generator to function
// invocations: bucket notifications, API Gateway requests and schedules.
package invoke

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda/messages"
	logging "github.com/ipfs/go-log/v2"

	"github.com/storacha/sizetracker/internal/db/sizehistory"
	"github.com/storacha/sizetracker/internal/failure"
	"github.com/storacha/sizetracker/internal/plotter"
	"github.com/storacha/sizetracker/internal/sampler"
)

var log = logging.Logger("invoke")

type Sampler interface {
	Sample(ctx context.Context) (sizehistory.SizeSample, error)
}

type Plotter interface {
	RenderPlot(ctx context.Context) (*plotter.PlotResult, error)
}

type Handlers struct {
	sampler Sampler
	plotter Plotter
}

func New(s Sampler, p Plotter) *Handlers {
	return &Handlers{sampler: s, plotter: p}
}

// HandleS3Event samples the bucket once for a notification, however many
// records it carries.
func (h *Handlers) HandleS3Event(ctx context.Context, ev events.S3Event) (sampler.Result, error) {
	for _, rec := range ev.Records {
		log.Infow("bucket event",
			"event", rec.EventName,
			"bucket", rec.S3.Bucket.Name,
			"key", rec.S3.Object.Key,
			"size", rec.S3.Object.Size,
		)
	}

	sample, err := h.sampler.Sample(ctx)
	if err != nil {
		return sampler.Result{}, err
	}
	return sampler.NewResult(sample), nil
}

// HandlePlotRequest renders the plot for an API Gateway request. Failures are
// reported in the response body, not as invocation errors.
func (h *Handlers) HandlePlotRequest(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	log.Debugw("plot request", "method", req.HTTPMethod, "path", req.Path, "request_id", req.RequestContext.RequestID)

	res, err := h.plotter.RenderPlot(ctx)
	if err != nil {
		return jsonResponse(failure.HTTPStatus(failure.KindOf(err)), failure.NewResponse(err))
	}
	return jsonResponse(http.StatusOK, res)
}

// HandleScheduledEvent renders the plot for a scheduled rule.
func (h *Handlers) HandleScheduledEvent(ctx context.Context, ev events.CloudWatchEvent) (*plotter.PlotResult, error) {
	log.Debugw("scheduled plot", "rule", ev.Resources, "time", ev.Time)
	return h.plotter.RenderPlot(ctx)
}

// SamplerFunction is HandleS3Event with failures reported to the runtime
// under their kind.
func (h *Handlers) SamplerFunction() func(context.Context, events.S3Event) (sampler.Result, error) {
	return func(ctx context.Context, ev events.S3Event) (sampler.Result, error) {
		res, err := h.HandleS3Event(ctx, ev)
		return res, lambdaError(err)
	}
}

func (h *Handlers) PlotterFunction() func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return h.HandlePlotRequest
}

func (h *Handlers) ScheduledPlotterFunction() func(context.Context, events.CloudWatchEvent) (*plotter.PlotResult, error) {
	return func(ctx context.Context, ev events.CloudWatchEvent) (*plotter.PlotResult, error) {
		res, err := h.HandleScheduledEvent(ctx, ev)
		return res, lambdaError(err)
	}
}

func lambdaError(err error) error {
	if err == nil {
		return nil
	}
	return messages.InvokeResponse_Error{
		Message: err.Error(),
		Type:    string(failure.KindOf(err)),
	}
}

func jsonResponse(status int, body any) (events.APIGatewayProxyResponse, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(b),
	}, nil
}
