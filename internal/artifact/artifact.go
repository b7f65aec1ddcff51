// Package artifact persists analysis results as one document per run.
package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/danielolaszy/ticketpulse/internal/config"
	"github.com/danielolaszy/ticketpulse/internal/logging"
)

// TimestampLayout stamps artifact names.
const TimestampLayout = "20060102_150405"

// ErrExists is returned when an artifact with the same name was already written.
var ErrExists = errors.New("artifact already exists")

// Store writes named artifacts. Each name is written at most once.
type Store interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// ProjectReportName is the base name of a single project's artifacts; add
// ".json" or ".txt".
func ProjectReportName(projectKey string, at time.Time) string {
	return fmt.Sprintf("report_%s_%s", strings.ToUpper(projectKey), at.Format(TimestampLayout))
}

// BatchName is the name of a batch run's artifact.
func BatchName(at time.Time) string {
	return fmt.Sprintf("batch_analysis_%s.json", at.Format(TimestampLayout))
}

// WriteJSON writes v as indented JSON.
func WriteJSON(ctx context.Context, store Store, name string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return store.Put(ctx, name, append(data, '\n'))
}

// NewStore returns an S3 store when a bucket is configured and a directory
// store otherwise.
func NewStore(ctx context.Context, cfg config.ArtifactConfig) (Store, error) {
	if cfg.S3Bucket != "" {
		return NewS3Store(ctx, cfg.S3Bucket, cfg.S3Region)
	}
	return NewFileStore(cfg.Dir), nil
}

// FileStore writes artifacts into a local directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir; "" means the working directory.
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = "."
	}
	return &FileStore{dir: dir}
}

// Put creates the file and fails with ErrExists rather than overwrite it.
func (s *FileStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrExists, path)
		}
		return "", fmt.Errorf("failed to create artifact: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	logging.Info("artifact written", "path", path, "bytes", len(data))
	return path, nil
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads artifacts to a bucket.
type S3Store struct {
	client objectPutter
	bucket string
}

// NewS3Store loads the default AWS configuration for region.
func NewS3Store(ctx context.Context, bucket, region string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	logging.Info("artifacts go to s3", "bucket", bucket, "region", region)
	return &S3Store{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

// Put uploads the object. Names carry a second-resolution timestamp so each
// run writes a fresh key.
func (s *S3Store) Put(ctx context.Context, name string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(name),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(name)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload artifact to s3: %w", err)
	}

	location := fmt.Sprintf("s3://%s/%s", s.bucket, name)
	logging.Info("artifact written", "path", location, "bytes", len(data))
	return location, nil
}

func contentType(name string) string {
	if strings.HasSuffix(name, ".json") {
		return "application/json"
	}
	return "text/plain; charset=utf-8"
}
