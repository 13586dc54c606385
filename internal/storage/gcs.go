package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	gcstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
)

// GCS stores uploads as objects in a Google Cloud Storage bucket.
type GCS struct {
	client *gcstorage.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// NewGCS creates a client using Application Default Credentials.
func NewGCS(ctx context.Context, bucket, prefix string, logger *zap.Logger) (*GCS, error) {
	client, err := gcstorage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCS{client: client, bucket: bucket, prefix: prefix, logger: logger}, nil
}

// Put uploads body as a new object. An existing object with the same key yields ErrExists.
func (g *GCS) Put(ctx context.Context, name string, body io.Reader, size int64, contentType string) (Object, error) {
	key := joinKey(g.prefix, name)
	obj := g.client.Bucket(g.bucket).Object(key).If(gcstorage.Conditions{DoesNotExist: true})

	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := obj.NewWriter(writeCtx)
	if contentType != "" {
		w.ContentType = contentType
	}

	n, err := io.Copy(w, body)
	if err != nil {
		// Cancelling before Close aborts the upload instead of committing a partial object.
		cancel()
		_ = w.Close()
		return Object{}, fmt.Errorf("write gcs object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed {
			return Object{}, fmt.Errorf("%w: gs://%s/%s", ErrExists, g.bucket, key)
		}
		g.logger.Error("failed to finalize gcs object", zap.String("bucket", g.bucket), zap.String("key", key), zap.Error(err))
		return Object{}, err
	}

	g.logger.Debug("object uploaded to gcs", zap.String("key", key), zap.Int64("size", n))
	return Object{Location: "gs://" + g.bucket + "/" + key, Size: n}, nil
}

// Close releases the underlying client.
func (g *GCS) Close() error {
	return g.client.Close()
}
