// Package objectstore is the narrow view of a bucket store that the sampler
// and the plot generator need.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"iter"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// ObjectInfo is the listing entry for one object.
type ObjectInfo struct {
	Key  string
	Size int64
}

type Lister interface {
	// List yields every object in the bucket, following pagination. A non-nil
	// error ends the sequence.
	List(ctx context.Context, bucket string) iter.Seq2[ObjectInfo, error]
}

type Writer interface {
	// Put creates or overwrites an object.
	Put(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error
}

type ObjectStore interface {
	Lister
	Writer
	Delete(ctx context.Context, bucket, key string) error
}

const (
	BackendS3    = "s3"
	BackendMinio = "minio"
)

type Options struct {
	Backend string
	// AWSConfig and Endpoint configure the S3 backend.
	AWSConfig aws.Config
	Endpoint  string
	Minio     MinioOptions
}

// New creates the store for the configured backend.
func New(opts Options) (ObjectStore, error) {
	switch opts.Backend {
	case BackendS3, "":
		return NewS3StoreWithConfig(opts.AWSConfig, opts.Endpoint), nil
	case BackendMinio:
		return NewMinioStore(opts.Minio)
	default:
		return nil, fmt.Errorf("unknown object store backend %q", opts.Backend)
	}
}
