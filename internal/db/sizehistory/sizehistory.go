package sizehistory

import (
	"context"
	"time"
)

// SizeSample is one observation of a bucket's aggregate size and object count.
// Samples are append-only: never updated or deleted by this module.
type SizeSample struct {
	BucketName   string
	Timestamp    time.Time
	TotalSize    uint64
	TotalObjects uint64
}

type SizeHistoryTable interface {
	// Append writes a new sample. Two samples with the same timestamp coexist.
	Append(ctx context.Context, sample SizeSample) error
	// Range returns the samples of a bucket with a timestamp in [from, to],
	// ordered by timestamp ascending.
	Range(ctx context.Context, bucket string, from time.Time, to time.Time) ([]SizeSample, error)
	// MaxSize returns the largest size ever recorded for a bucket, or 0 when
	// there are no samples.
	MaxSize(ctx context.Context, bucket string) (uint64, error)
}
