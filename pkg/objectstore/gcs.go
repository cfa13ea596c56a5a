package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
)

// metadataUserKey is the custom-metadata key the upload surface writes
// and the pipeline reads to attribute a document to its owner.
const metadataUserKey = "userId"

// ErrNotFound is returned when the requested key does not exist in the
// bucket.
var ErrNotFound = errors.New("object does not exist")

// Object is a fetched document: the raw bytes plus the metadata the
// pipeline needs. UserID is empty when the stored object carries no
// owner metadata; callers decide whether that is fatal.
type Object struct {
	Key         string
	Data        []byte
	UserID      string
	ContentType string
}

// Client reads and writes documents in a single GCS bucket.
type Client struct {
	client *storage.Client
	bucket *storage.BucketHandle
	logger *zap.Logger
}

func NewClient(ctx context.Context, bucketName string, logger *zap.Logger) (*Client, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	logger.Info("Object store client created", zap.String("bucket", bucketName))

	return &Client{
		client: client,
		bucket: client.Bucket(bucketName),
		logger: logger,
	}, nil
}

// Fetch downloads an object and its owner metadata.
func (c *Client) Fetch(ctx context.Context, key string) (*Object, error) {
	handle := c.bucket.Object(key)

	attrs, err := handle.Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("read object attrs %s: %w", key, err)
	}

	reader, err := handle.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("open object reader %s: %w", key, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}

	return &Object{
		Key:         key,
		Data:        data,
		UserID:      attrs.Metadata[metadataUserKey],
		ContentType: attrs.ContentType,
	}, nil
}

// Upload streams a document into the bucket, recording the owning user
// in custom metadata so the pipeline can attribute it later.
func (c *Client) Upload(ctx context.Context, key string, r io.Reader, contentType, userID string) error {
	writer := c.bucket.Object(key).NewWriter(ctx)
	writer.ContentType = contentType
	writer.Metadata = map[string]string{metadataUserKey: userID}

	if _, err := io.Copy(writer, r); err != nil {
		_ = writer.Close()
		return fmt.Errorf("write object %s: %w", key, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize object %s: %w", key, err)
	}

	c.logger.Info("Object uploaded",
		zap.String("key", key),
		zap.String("content_type", contentType),
	)
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
