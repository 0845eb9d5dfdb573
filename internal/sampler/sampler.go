// Package sampler measures a bucket and appends the result to the size
// history table.
package sampler

import (
	"context"
	"fmt"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/storacha/sizetracker/internal/db/sizehistory"
	"github.com/storacha/sizetracker/internal/failure"
	"github.com/storacha/sizetracker/internal/metrics"
	"github.com/storacha/sizetracker/internal/objectstore"
)

var log = logging.Logger("sampler")

type Sampler struct {
	store  objectstore.Lister
	table  sizehistory.SizeHistoryTable
	bucket string
	now    func() time.Time
}

// Result is the payload reported for a successful invocation.
type Result struct {
	Bucket           string    `json:"bucket"`
	TotalSizeBytes   uint64    `json:"total_size_bytes"`
	TotalObjectCount uint64    `json:"total_object_count"`
	Timestamp        time.Time `json:"timestamp"`
}

func NewResult(sample sizehistory.SizeSample) Result {
	return Result{
		Bucket:           sample.BucketName,
		TotalSizeBytes:   sample.TotalSize,
		TotalObjectCount: sample.TotalObjects,
		Timestamp:        sample.Timestamp,
	}
}

type Option func(*Sampler)

// WithClock overrides the source of sample timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Sampler) {
		s.now = now
	}
}

func New(store objectstore.Lister, table sizehistory.SizeHistoryTable, bucket string, opts ...Option) *Sampler {
	s := &Sampler{
		store:  store,
		table:  table,
		bucket: bucket,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sample enumerates every object in the bucket and appends exactly one sample
// with the totals. Nothing is written if the enumeration fails. Every call
// produces a new sample.
func (s *Sampler) Sample(ctx context.Context) (sizehistory.SizeSample, error) {
	sample, err := s.sample(ctx)
	if err != nil {
		metrics.RecordFailure(ctx, "sampler", err)
		log.Errorw("sampling bucket", "bucket", s.bucket, "kind", failure.KindOf(err), "error", err)
		return sizehistory.SizeSample{}, err
	}

	attributes := attribute.NewSet(attribute.String("bucket", sample.BucketName))
	metrics.SamplesRecorded.Add(ctx, 1, metric.WithAttributeSet(attributes))
	metrics.BucketSizeBytes.Record(ctx, int64(sample.TotalSize), metric.WithAttributeSet(attributes))
	metrics.BucketObjects.Record(ctx, int64(sample.TotalObjects), metric.WithAttributeSet(attributes))

	log.Infow("recorded size sample",
		"bucket", sample.BucketName,
		"size", sample.TotalSize,
		"objects", sample.TotalObjects,
		"timestamp", sample.Timestamp,
	)
	return sample, nil
}

func (s *Sampler) sample(ctx context.Context) (sizehistory.SizeSample, error) {
	if s.bucket == "" {
		return sizehistory.SizeSample{}, failure.NewConfigurationError("bucket name is not configured", nil)
	}

	var totalSize, totalObjects uint64
	for obj, err := range s.store.List(ctx, s.bucket) {
		if err != nil {
			return sizehistory.SizeSample{}, failure.NewStoreUnavailableError(fmt.Sprintf("enumerating bucket %s", s.bucket), err)
		}
		if obj.Size < 0 {
			return sizehistory.SizeSample{}, failure.NewStoreUnavailableError(
				fmt.Sprintf("object %s in bucket %s reported negative size %d", obj.Key, s.bucket, obj.Size), nil)
		}
		totalObjects++
		totalSize += uint64(obj.Size)
	}

	sample := sizehistory.SizeSample{
		BucketName:   s.bucket,
		Timestamp:    s.now().UTC(),
		TotalSize:    totalSize,
		TotalObjects: totalObjects,
	}

	if err := s.table.Append(ctx, sample); err != nil {
		return sizehistory.SizeSample{}, failure.NewPersistenceError(fmt.Sprintf("appending size sample for bucket %s", s.bucket), err)
	}

	return sample, nil
}
