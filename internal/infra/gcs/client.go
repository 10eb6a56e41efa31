package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"
)

// ErrNotExist is returned by Bucket implementations for missing objects.
var ErrNotExist = storage.ErrObjectNotExist

// Bucket is the subset of object storage the dashboard needs.
type Bucket interface {
	NewReader(ctx context.Context, object string) (io.ReadCloser, error)
	NewWriter(ctx context.Context, object, contentType string) io.WriteCloser
}

// storageBucket adapts a *storage.BucketHandle to Bucket.
type storageBucket struct {
	handle *storage.BucketHandle
}

func (b *storageBucket) NewReader(ctx context.Context, object string) (io.ReadCloser, error) {
	r, err := b.handle.Object(object).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (b *storageBucket) NewWriter(ctx context.Context, object, contentType string) io.WriteCloser {
	w := b.handle.Object(object).NewWriter(ctx)
	w.ContentType = contentType
	// The dashboard is rebuilt on every change; keep edge caches short.
	w.CacheControl = "public, max-age=60"
	return w
}

// Client reads and writes objects under a prefix of one bucket.
// It assumes Application Default Credentials unless options say otherwise.
type Client struct {
	bucketName string
	prefix     string
	bucket     Bucket
	closer     io.Closer
	log        zerolog.Logger

	// Parallel bounds concurrent uploads in WriteFiles.
	Parallel int
	// Timeout bounds a single upload.
	Timeout time.Duration
}

// NewClient creates a GCS client for bucketName. Objects are named prefix/name.
func NewClient(ctx context.Context, bucketName, prefix string, log zerolog.Logger, opts ...option.ClientOption) (*Client, error) {
	sc, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	c := NewClientWithBucket(bucketName, prefix, &storageBucket{handle: sc.Bucket(bucketName)}, log)
	c.closer = sc
	return c, nil
}

// NewClientWithBucket wraps an existing Bucket implementation.
func NewClientWithBucket(bucketName, prefix string, bucket Bucket, log zerolog.Logger) *Client {
	return &Client{
		bucketName: bucketName,
		prefix:     strings.Trim(prefix, "/"),
		bucket:     bucket,
		log:        log,
		Parallel:   4,
		Timeout:    2 * time.Minute,
	}
}

func (c *Client) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// ObjectName returns the full object name for name.
func (c *Client) ObjectName(name string) string {
	if c.prefix == "" {
		return name
	}
	return path.Join(c.prefix, name)
}

// URI returns the gs:// URI for name.
func (c *Client) URI(name string) string {
	return fmt.Sprintf("gs://%s/%s", c.bucketName, c.ObjectName(name))
}

// ReadObject downloads name. Missing objects return an error matching ErrNotExist.
func (c *Client) ReadObject(ctx context.Context, name string) ([]byte, error) {
	r, err := c.bucket.NewReader(ctx, c.ObjectName(name))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("open GCS object reader %s: %w", c.URI(name), err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read GCS object %s: %w", c.URI(name), err)
	}
	return data, nil
}

// WriteFile uploads data as name.
func (c *Client) WriteFile(ctx context.Context, name string, data []byte, contentType string) error {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	w := c.bucket.NewWriter(ctx, c.ObjectName(name), contentType)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write GCS object %s: %w", c.URI(name), err)
	}

	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload %s: %w", c.URI(name), err)
	}

	c.log.Debug().Str("uri", c.URI(name)).Int("bytes", len(data)).Msg("Uploaded object")
	return nil
}

// File is one object to upload.
type File struct {
	Name        string
	Data        []byte
	ContentType string
}

// WriteFiles uploads files concurrently and returns the first error.
func (c *Client) WriteFiles(ctx context.Context, files []File) error {
	g, ctx := errgroup.WithContext(ctx)
	if c.Parallel > 0 {
		g.SetLimit(c.Parallel)
	}

	for _, f := range files {
		g.Go(func() error {
			return c.WriteFile(ctx, f.Name, f.Data, f.ContentType)
		})
	}
	return g.Wait()
}

// ParseURI splits "gs://bucket/prefix" into its bucket and prefix.
func ParseURI(uri string) (bucket, prefix string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}

	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if parts[0] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no bucket): %s", uri)
	}
	if len(parts) == 1 {
		return parts[0], "", nil
	}
	return parts[0], strings.Trim(parts[1], "/"), nil
}
