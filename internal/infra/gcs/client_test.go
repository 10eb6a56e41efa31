package gcs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/dvloznov/expense-dashboard/internal/fingerprint"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockBucket is an in-memory Bucket.
type MockBucket struct {
	mu           sync.Mutex
	Objects      map[string][]byte
	ContentTypes map[string]string
	ReadErr      error
	WriteErr     error
}

func NewMockBucket() *MockBucket {
	return &MockBucket{Objects: map[string][]byte{}, ContentTypes: map[string]string{}}
}

func (b *MockBucket) NewReader(ctx context.Context, object string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ReadErr != nil {
		return nil, b.ReadErr
	}
	data, ok := b.Objects[object]
	if !ok {
		return nil, ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *MockBucket) NewWriter(ctx context.Context, object, contentType string) io.WriteCloser {
	return &mockWriter{bucket: b, object: object, contentType: contentType}
}

type mockWriter struct {
	bucket      *MockBucket
	object      string
	contentType string
	buf         bytes.Buffer
}

func (w *mockWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *mockWriter) Close() error {
	w.bucket.mu.Lock()
	defer w.bucket.mu.Unlock()
	if w.bucket.WriteErr != nil {
		return w.bucket.WriteErr
	}
	w.bucket.Objects[w.object] = w.buf.Bytes()
	w.bucket.ContentTypes[w.object] = w.contentType
	return nil
}

func TestClient_ObjectNames(t *testing.T) {
	c := NewClientWithBucket("my-bucket", "/dash/", NewMockBucket(), zerolog.Nop())

	assert.Equal(t, "dash/index.html", c.ObjectName("index.html"))
	assert.Equal(t, "gs://my-bucket/dash/index.html", c.URI("index.html"))

	bare := NewClientWithBucket("my-bucket", "", NewMockBucket(), zerolog.Nop())
	assert.Equal(t, "index.html", bare.ObjectName("index.html"))
}

func TestClient_WriteAndRead(t *testing.T) {
	ctx := context.Background()
	bucket := NewMockBucket()
	c := NewClientWithBucket("b", "site", bucket, zerolog.Nop())

	require.NoError(t, c.WriteFile(ctx, "views.json", []byte(`[]`), "application/json"))

	data, err := c.ReadObject(ctx, "views.json")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))
	assert.Equal(t, "application/json", bucket.ContentTypes["site/views.json"])
}

func TestClient_ReadMissingObject(t *testing.T) {
	c := NewClientWithBucket("b", "", NewMockBucket(), zerolog.Nop())

	_, err := c.ReadObject(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestClient_WriteFiles(t *testing.T) {
	bucket := NewMockBucket()
	c := NewClientWithBucket("b", "p", bucket, zerolog.Nop())

	err := c.WriteFiles(context.Background(), []File{
		{Name: "index.html", Data: []byte("<html>"), ContentType: "text/html"},
		{Name: "views.json", Data: []byte("[]"), ContentType: "application/json"},
	})
	require.NoError(t, err)
	assert.Len(t, bucket.Objects, 2)

	bucket.WriteErr = errors.New("quota exceeded")
	err = c.WriteFiles(context.Background(), []File{{Name: "x", Data: []byte("x")}})
	assert.ErrorIs(t, err, bucket.WriteErr)
}

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantPrefix string
		wantErr    bool
	}{
		{"gs://bucket/path/to/site", "bucket", "path/to/site", false},
		{"gs://bucket", "bucket", "", false},
		{"gs://bucket/", "bucket", "", false},
		{"s3://bucket/x", "", "", true},
		{"gs:///x", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, prefix, err := ParseURI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantPrefix, prefix)
		})
	}
}

func TestFingerprintStore(t *testing.T) {
	ctx := context.Background()
	bucket := NewMockBucket()
	store := NewFingerprintStore(NewClientWithBucket("b", "dash", bucket, zerolog.Nop()), "")

	_, ok, err := store.ReadPrevious(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Write(ctx, fingerprint.Digest("abc")))
	assert.Equal(t, "abc\n", string(bucket.Objects["dash/state/fingerprint.txt"]))

	digest, ok, err := store.ReadPrevious(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, fingerprint.Digest("abc"), digest)
}

func TestFingerprintStore_BackendError(t *testing.T) {
	bucket := NewMockBucket()
	bucket.ReadErr = errors.New("permission denied")
	store := NewFingerprintStore(NewClientWithBucket("b", "", bucket, zerolog.Nop()), "")

	_, _, err := store.ReadPrevious(context.Background())
	assert.ErrorIs(t, err, bucket.ReadErr)
}
