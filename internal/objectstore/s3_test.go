package objectstore

import (
	"context"
	"errors"
	"io"
	"strconv"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockS3 struct {
	pages        [][]types.Object
	listErrPage  int
	listErr      error
	listCalls    int
	putFunc      func(in *s3.PutObjectInput) error
	deleteFunc   func(in *s3.DeleteObjectInput) error
	continuation []string
}

var _ S3API = (*mockS3)(nil)

func (m *mockS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	page := 0
	if in.ContinuationToken != nil {
		page, _ = strconv.Atoi(*in.ContinuationToken)
	}
	m.continuation = append(m.continuation, aws.ToString(in.ContinuationToken))
	m.listCalls++

	if m.listErr != nil && page == m.listErrPage {
		return nil, m.listErr
	}

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	if page < len(m.pages) {
		out.Contents = m.pages[page]
		out.KeyCount = aws.Int32(int32(len(m.pages[page])))
	}
	if page+1 < len(m.pages) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(strconv.Itoa(page + 1))
	}
	return out, nil
}

func (m *mockS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putFunc != nil {
		return &s3.PutObjectOutput{}, m.putFunc(in)
	}
	return nil, errors.New("mockS3.PutObject not implemented")
}

func (m *mockS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if m.deleteFunc != nil {
		return &s3.DeleteObjectOutput{}, m.deleteFunc(in)
	}
	return nil, errors.New("mockS3.DeleteObject not implemented")
}

func object(key string, size int64) types.Object {
	return types.Object{Key: aws.String(key), Size: aws.Int64(size)}
}

func collect(t *testing.T, store Lister, bucket string) ([]ObjectInfo, error) {
	t.Helper()
	var objects []ObjectInfo
	for obj, err := range store.List(context.Background(), bucket) {
		if err != nil {
			return objects, err
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

func TestS3StoreList(t *testing.T) {
	t.Run("follows every page", func(t *testing.T) {
		client := &mockS3{pages: [][]types.Object{
			{object("a", 10), object("b", 20)},
			{object("c", 33)},
			{object("d", 0)},
		}}

		objects, err := collect(t, NewS3Store(client), "bucket")
		require.NoError(t, err)

		assert.Equal(t, []ObjectInfo{{"a", 10}, {"b", 20}, {"c", 33}, {"d", 0}}, objects)
		assert.Equal(t, 3, client.listCalls)
		assert.Equal(t, []string{"", "1", "2"}, client.continuation)
	})

	t.Run("empty bucket", func(t *testing.T) {
		objects, err := collect(t, NewS3Store(&mockS3{}), "bucket")
		require.NoError(t, err)
		assert.Empty(t, objects)
	})

	t.Run("error on a later page ends the sequence", func(t *testing.T) {
		expectedErr := errors.New("slow down")
		client := &mockS3{
			pages:       [][]types.Object{{object("a", 1)}, {object("b", 2)}},
			listErrPage: 1,
			listErr:     expectedErr,
		}

		objects, err := collect(t, NewS3Store(client), "bucket")
		require.ErrorIs(t, err, expectedErr)
		assert.ErrorContains(t, err, "s3://bucket")
		assert.Len(t, objects, 1)
	})

	t.Run("stops listing when the consumer breaks", func(t *testing.T) {
		client := &mockS3{pages: [][]types.Object{{object("a", 1), object("b", 2)}, {object("c", 3)}}}

		for range NewS3Store(client).List(context.Background(), "bucket") {
			break
		}
		assert.Equal(t, 1, client.listCalls)
	})
}

func TestS3StorePut(t *testing.T) {
	var got *s3.PutObjectInput
	var body []byte
	client := &mockS3{putFunc: func(in *s3.PutObjectInput) error {
		got = in
		var err error
		body, err = io.ReadAll(in.Body)
		return err
	}}

	err := NewS3Store(client).Put(context.Background(), "bucket", "plot.png", stringsReader("png"), 3, "image/png")
	require.NoError(t, err)

	assert.Equal(t, "bucket", aws.ToString(got.Bucket))
	assert.Equal(t, "plot.png", aws.ToString(got.Key))
	assert.Equal(t, "image/png", aws.ToString(got.ContentType))
	assert.Equal(t, int64(3), aws.ToInt64(got.ContentLength))
	assert.Equal(t, "png", string(body))

	client.putFunc = func(*s3.PutObjectInput) error { return errors.New("denied") }
	err = NewS3Store(client).Put(context.Background(), "bucket", "plot.png", stringsReader("png"), 3, "image/png")
	assert.ErrorContains(t, err, "put object s3://bucket/plot.png")
}

func TestS3StoreDelete(t *testing.T) {
	var deleted string
	client := &mockS3{deleteFunc: func(in *s3.DeleteObjectInput) error {
		deleted = aws.ToString(in.Key)
		return nil
	}}

	require.NoError(t, NewS3Store(client).Delete(context.Background(), "bucket", "assignment1.txt"))
	assert.Equal(t, "assignment1.txt", deleted)
}
