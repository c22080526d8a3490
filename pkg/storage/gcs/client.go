// Package gcs stores generated documents in Cloud Storage.
package gcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/angelmondragon/wedplan-backend/pkg/config"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
)

const (
	pingTimeout  = 5 * time.Second
	writeTimeout = 30 * time.Second
)

var (
	errNoBucket     = errors.New("gcs: bucket name is required")
	errNoObject     = errors.New("gcs: object name is required")
	errNotConnected = errors.New("gcs: client not connected")
)

// Object is where an upload landed.
type Object struct {
	Bucket      string
	Name        string
	ContentType string
	Size        int64
	Generation  int64
}

func (o Object) URI() string {
	return "gs://" + o.Bucket + "/" + o.Name
}

type Client struct {
	sc     *storage.Client
	bucket string
}

// NewClient opens a storage client and checks that the default bucket can be
// listed.
func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	bucket := strings.TrimSpace(cfg.BucketName)
	if bucket == "" {
		return nil, errNoBucket
	}

	sc, err := storage.NewClient(ctx, credentials(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("gcs: dial: %w", err)
	}

	c := &Client{sc: sc, bucket: bucket}
	if err := c.Ping(ctx); err != nil {
		_ = sc.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", bucket), "gcs client ready")
	}
	return c, nil
}

func credentials(gcp config.GCPConfig) []option.ClientOption {
	if raw := strings.TrimSpace(gcp.CredentialsJSON); raw != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(raw))}
	}
	if path := strings.TrimSpace(gcp.ApplicationCredentials); path != "" {
		return []option.ClientOption{option.WithCredentialsFile(path)}
	}
	return nil
}

// objectName strips surrounding whitespace and leading slashes.
func objectName(name string) string {
	return strings.TrimLeft(strings.TrimSpace(name), "/")
}

func (c *Client) bucketOr(bucket string) string {
	if b := strings.TrimSpace(bucket); b != "" {
		return b
	}
	return c.bucket
}

// Upload writes data to bucket/name and overwrites any existing object. An
// empty bucket means the default bucket.
func (c *Client) Upload(ctx context.Context, bucket, name, contentType string, data []byte) (Object, error) {
	if c == nil || c.sc == nil {
		return Object{}, errNotConnected
	}
	obj := Object{
		Bucket:      c.bucketOr(bucket),
		Name:        objectName(name),
		ContentType: contentType,
		Size:        int64(len(data)),
	}
	if obj.Bucket == "" {
		return Object{}, errNoBucket
	}
	if obj.Name == "" {
		return Object{}, errNoObject
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	w := c.sc.Bucket(obj.Bucket).Object(obj.Name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return Object{}, fmt.Errorf("gcs: write %s: %w", obj.URI(), err)
	}
	if err := w.Close(); err != nil {
		return Object{}, fmt.Errorf("gcs: commit %s: %w", obj.URI(), err)
	}

	if attrs := w.Attrs(); attrs != nil {
		obj.Size = attrs.Size
		obj.Generation = attrs.Generation
	}
	return obj, nil
}

// Ping lists at most one object from the default bucket.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.sc == nil {
		return errNotConnected
	}
	if c.bucket == "" {
		return errNoBucket
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	_, err := c.sc.Bucket(c.bucket).Objects(ctx, nil).Next()
	if err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("gcs: list %s: %w", c.bucket, err)
	}
	return nil
}

func (c *Client) Close() error {
	if c == nil || c.sc == nil {
		return nil
	}
	return c.sc.Close()
}
