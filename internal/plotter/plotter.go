// Package plotter reads the recent size history of a bucket and the largest
// size ever recorded for it, renders them as a chart and stores the image back
// into the bucket.
package plotter

import (
	"bytes"
	"context"
	"fmt"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/storacha/sizetracker/internal/db/sizehistory"
	"github.com/storacha/sizetracker/internal/failure"
	"github.com/storacha/sizetracker/internal/metrics"
	"github.com/storacha/sizetracker/internal/objectstore"
)

var log = logging.Logger("plotter")

const (
	DefaultWindow    = 60 * time.Second
	DefaultObjectKey = "plot.png"
	ContentType      = "image/png"
)

// EmptyWindowPolicy decides what RenderPlot does when the recent window holds
// no samples.
type EmptyWindowPolicy string

const (
	// PolicyFail produces no plot and reports OutcomeNoData.
	PolicyFail EmptyWindowPolicy = "fail"
	// PolicySyntheticZeroPoint plots a single point at (now, 0).
	PolicySyntheticZeroPoint EmptyWindowPolicy = "synthetic-zero-point"

	DefaultEmptyWindowPolicy = PolicySyntheticZeroPoint
)

func ParseEmptyWindowPolicy(s string) (EmptyWindowPolicy, error) {
	switch p := EmptyWindowPolicy(s); p {
	case PolicyFail, PolicySyntheticZeroPoint:
		return p, nil
	default:
		return "", fmt.Errorf("unknown empty window policy %q, expected %q or %q", s, PolicyFail, PolicySyntheticZeroPoint)
	}
}

type Outcome string

const (
	OutcomeUploaded Outcome = "uploaded"
	OutcomeNoData   Outcome = "no_data"
)

// PlotResult describes a completed invocation. OutcomeNoData is a result,
// not an error.
type PlotResult struct {
	Outcome       Outcome   `json:"outcome"`
	Bucket        string    `json:"bucket"`
	Key           string    `json:"key,omitempty"`
	Location      string    `json:"location,omitempty"`
	Points        int       `json:"points"`
	Synthetic     bool      `json:"synthetic,omitempty"`
	HistoricalMax uint64    `json:"historical_max"`
	WindowStart   time.Time `json:"window_start"`
	WindowEnd     time.Time `json:"window_end"`
}

// Snapshot is what the two history reads return for one point in time.
type Snapshot struct {
	Bucket        string
	WindowStart   time.Time
	WindowEnd     time.Time
	Samples       []sizehistory.SizeSample
	HistoricalMax uint64
}

type Generator struct {
	table    sizehistory.SizeHistoryTable
	store    objectstore.Writer
	renderer Renderer
	bucket   string
	window   time.Duration
	key      string
	policy   EmptyWindowPolicy
	now      func() time.Time
}

type Option func(*Generator)

func WithWindow(window time.Duration) Option {
	return func(g *Generator) {
		g.window = window
	}
}

func WithObjectKey(key string) Option {
	return func(g *Generator) {
		g.key = key
	}
}

func WithEmptyWindowPolicy(policy EmptyWindowPolicy) Option {
	return func(g *Generator) {
		g.policy = policy
	}
}

func WithRenderer(r Renderer) Option {
	return func(g *Generator) {
		g.renderer = r
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

func New(table sizehistory.SizeHistoryTable, store objectstore.Writer, bucket string, opts ...Option) *Generator {
	g := &Generator{
		table:    table,
		store:    store,
		renderer: NewChartRenderer(),
		bucket:   bucket,
		window:   DefaultWindow,
		key:      DefaultObjectKey,
		policy:   DefaultEmptyWindowPolicy,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) Bucket() string { return g.bucket }

func (g *Generator) Window() time.Duration { return g.window }

func (g *Generator) validate() error {
	switch {
	case g.bucket == "":
		return failure.NewConfigurationError("bucket name is not configured", nil)
	case g.window <= 0:
		return failure.NewConfigurationError(fmt.Sprintf("recent window must be positive, got %s", g.window), nil)
	case g.key == "":
		return failure.NewConfigurationError("plot object key is not configured", nil)
	}
	if _, err := ParseEmptyWindowPolicy(string(g.policy)); err != nil {
		return failure.NewConfigurationError("invalid empty window policy", err)
	}
	return nil
}

// Snapshot reads the samples in [now-window, now] and the historical max.
func (g *Generator) Snapshot(ctx context.Context) (*Snapshot, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	return g.snapshot(ctx, g.now().UTC())
}

func (g *Generator) snapshot(ctx context.Context, now time.Time) (*Snapshot, error) {
	snap := &Snapshot{
		Bucket:      g.bucket,
		WindowStart: now.Add(-g.window),
		WindowEnd:   now,
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		samples, err := g.table.Range(egCtx, g.bucket, snap.WindowStart, snap.WindowEnd)
		if err != nil {
			return failure.NewStoreUnavailableError(fmt.Sprintf("reading recent samples for bucket %s", g.bucket), err)
		}
		snap.Samples = samples
		return nil
	})
	eg.Go(func() error {
		maxSize, err := g.table.MaxSize(egCtx, g.bucket)
		if err != nil {
			return failure.NewStoreUnavailableError(fmt.Sprintf("reading historical max for bucket %s", g.bucket), err)
		}
		snap.HistoricalMax = maxSize
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	// the max index may lag the base table
	for _, s := range snap.Samples {
		snap.HistoricalMax = max(snap.HistoricalMax, s.TotalSize)
	}

	return snap, nil
}

// RenderPlot charts the recent window against the historical max and uploads
// the image under the configured key, replacing any previous plot.
func (g *Generator) RenderPlot(ctx context.Context) (*PlotResult, error) {
	res, err := g.renderPlot(ctx)
	if err != nil {
		metrics.RecordFailure(ctx, "plotter", err)
		log.Errorw("rendering plot", "bucket", g.bucket, "kind", failure.KindOf(err), "error", err)
		return nil, err
	}

	if res.Outcome == OutcomeNoData {
		log.Warnw("no samples in recent window, no plot produced", "bucket", g.bucket, "window", g.window)
		return res, nil
	}

	attributes := attribute.NewSet(attribute.String("bucket", g.bucket))
	metrics.PlotsRendered.Add(ctx, 1, metric.WithAttributeSet(attributes))
	log.Infow("uploaded plot", "location", res.Location, "points", res.Points, "historical_max", res.HistoricalMax)
	return res, nil
}

func (g *Generator) renderPlot(ctx context.Context) (*PlotResult, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}

	now := g.now().UTC()
	snap, err := g.snapshot(ctx, now)
	if err != nil {
		return nil, err
	}

	res := &PlotResult{
		Bucket:        g.bucket,
		HistoricalMax: snap.HistoricalMax,
		WindowStart:   snap.WindowStart,
		WindowEnd:     snap.WindowEnd,
	}

	series := make([]Point, 0, len(snap.Samples))
	for _, s := range snap.Samples {
		series = append(series, Point{Timestamp: s.Timestamp, Size: s.TotalSize})
	}

	if len(series) == 0 {
		switch g.policy {
		case PolicyFail:
			res.Outcome = OutcomeNoData
			return res, nil
		case PolicySyntheticZeroPoint:
			series = append(series, Point{Timestamp: now, Size: 0})
			res.Synthetic = true
		}
	}

	img, err := g.renderer.Render(Chart{
		Title:         fmt.Sprintf("Bucket size change in the last %s", g.window),
		Series:        series,
		HistoricalMax: snap.HistoricalMax,
	})
	if err != nil {
		return nil, failure.NewRenderError(fmt.Sprintf("encoding chart for bucket %s", g.bucket), err)
	}

	if err := g.store.Put(ctx, g.bucket, g.key, bytes.NewReader(img), int64(len(img)), ContentType); err != nil {
		return nil, failure.NewPersistenceError(fmt.Sprintf("uploading plot to %s/%s", g.bucket, g.key), err)
	}

	res.Outcome = OutcomeUploaded
	res.Key = g.key
	res.Location = fmt.Sprintf("s3://%s/%s", g.bucket, g.key)
	res.Points = len(series)
	return res, nil
}
