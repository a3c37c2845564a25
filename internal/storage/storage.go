// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package storage publishes rendered documents. LocalStore leaves them in
// the output directory; GCSStore uploads them to a Cloud Storage bucket
// without ever overwriting an existing object.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"

	"github.com/pdiddy/paperforge/pkg/types"
)

// ErrExists is returned when the destination object is already present.
var ErrExists = errors.New("object already exists")

// Store publishes a finished local file and returns its URI.
type Store interface {
	Put(ctx context.Context, localPath string) (string, error)
}

// LocalStore keeps files where the renderer wrote them.
type LocalStore struct{}

// Put returns the absolute path of the file after checking it exists.
func (LocalStore) Put(_ context.Context, localPath string) (string, error) {
	if _, err := os.Stat(localPath); err != nil {
		return "", fmt.Errorf("publishing %s: %w", localPath, err)
	}
	abs, err := filepath.Abs(localPath)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", localPath, err)
	}
	return abs, nil
}

// GCSStore uploads to bucket under prefix.
type GCSStore struct {
	client *gcs.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// NewGCSStore creates a Cloud Storage client using application default
// credentials.
func NewGCSStore(ctx context.Context, cfg types.StorageConfig, logger *zap.Logger) (*GCSStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage.bucket is required")
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GCSStore{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		logger: logger.With(zap.String("component", "storage")),
	}, nil
}

// Close releases the client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

// ObjectName joins prefix and the file's base name with a single slash.
func ObjectName(prefix, localPath string) string {
	base := filepath.Base(localPath)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return base
	}
	return path.Join(prefix, base)
}

// Put uploads the file with a DoesNotExist precondition and returns its
// gs:// URI. An existing object yields ErrExists.
func (s *GCSStore) Put(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer f.Close()

	name := ObjectName(s.prefix, localPath)
	w := s.client.Bucket(s.bucket).Object(name).If(gcs.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", uploadError(name, err)
	}
	if err := w.Close(); err != nil {
		return "", uploadError(name, err)
	}

	uri := fmt.Sprintf("gs://%s/%s", s.bucket, name)
	s.logger.Info("published document", zap.String("uri", uri))
	return uri, nil
}

func uploadError(name string, err error) error {
	if isPreconditionFailed(err) {
		return fmt.Errorf("uploading %s: %w", name, ErrExists)
	}
	return fmt.Errorf("uploading %s: %w", name, err)
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}

// New returns the store selected by cfg: GCS when a bucket is set,
// otherwise local.
func New(ctx context.Context, cfg types.StorageConfig, logger *zap.Logger) (Store, error) {
	if cfg.Bucket == "" {
		return LocalStore{}, nil
	}
	return NewGCSStore(ctx, cfg, logger)
}
