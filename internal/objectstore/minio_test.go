package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringsReader(s string) io.Reader {
	return strings.NewReader(s)
}

const listResponse = `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Name>bucket</Name>
  <Prefix></Prefix>
  <KeyCount>%d</KeyCount>
  <MaxKeys>1000</MaxKeys>
  <IsTruncated>false</IsTruncated>
  %s
</ListBucketResult>`

const contentsEntry = `<Contents><Key>%s</Key><LastModified>2025-01-01T00:00:00.000Z</LastModified><ETag>"etag"</ETag><Size>%d</Size><StorageClass>STANDARD</StorageClass></Contents>`

type fakeS3Server struct {
	mu      sync.Mutex
	objects map[string]int64
	order   []string
	denied  bool
}

func (f *fakeS3Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.denied {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>Access Denied</Message></Error>`)
		return
	}

	parts := strings.SplitN(strings.Trim(r.URL.Path, "/"), "/", 2)
	switch {
	case r.Method == http.MethodGet && len(parts) == 1:
		var entries strings.Builder
		for _, key := range f.order {
			fmt.Fprintf(&entries, contentsEntry, key, f.objects[key])
		}
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprintf(w, listResponse, len(f.order), entries.String())
	case r.Method == http.MethodPut && len(parts) == 2:
		body, _ := io.ReadAll(r.Body)
		size := int64(len(body))
		// aws-chunked uploads carry the payload length separately
		if decoded := r.Header.Get("X-Amz-Decoded-Content-Length"); decoded != "" {
			size, _ = strconv.ParseInt(decoded, 10, 64)
		}
		if _, ok := f.objects[parts[1]]; !ok {
			f.order = append(f.order, parts[1])
		}
		f.objects[parts[1]] = size
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodDelete && len(parts) == 2:
		delete(f.objects, parts[1])
		for i, key := range f.order {
			if key == parts[1] {
				f.order = append(f.order[:i], f.order[i+1:]...)
				break
			}
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func newMinioTestStore(t *testing.T, srv *fakeS3Server) *MinioStore {
	t.Helper()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	store, err := NewMinioStore(MinioOptions{
		Endpoint:  strings.TrimPrefix(ts.URL, "http://"),
		AccessKey: "access",
		SecretKey: "secret",
		Region:    "us-east-1",
	})
	require.NoError(t, err)
	return store
}

func TestMinioStore(t *testing.T) {
	t.Run("put, list and delete", func(t *testing.T) {
		srv := &fakeS3Server{objects: map[string]int64{}}
		store := newMinioTestStore(t, srv)
		ctx := context.Background()

		require.NoError(t, store.Put(ctx, "bucket", "assignment1.txt", stringsReader("Empty Assignment 1"), 18, "text/plain"))
		require.NoError(t, store.Put(ctx, "bucket", "assignment2.txt", stringsReader("33"), 2, "text/plain"))

		objects, err := collect(t, store, "bucket")
		require.NoError(t, err)
		assert.Equal(t, []ObjectInfo{{"assignment1.txt", 18}, {"assignment2.txt", 2}}, objects)

		require.NoError(t, store.Delete(ctx, "bucket", "assignment1.txt"))

		objects, err = collect(t, store, "bucket")
		require.NoError(t, err)
		assert.Equal(t, []ObjectInfo{{"assignment2.txt", 2}}, objects)
	})

	t.Run("listing errors are yielded", func(t *testing.T) {
		store := newMinioTestStore(t, &fakeS3Server{objects: map[string]int64{}, denied: true})

		_, err := collect(t, store, "bucket")
		require.Error(t, err)
		assert.ErrorContains(t, err, "list objects in bucket")
	})
}
