package kg

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	pkgerrors "ekg-backend/pkg/errors"
)

// ArtifactFetcher retrieves serialized graph artifacts by path.
type ArtifactFetcher interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// ArtifactStore fetches artifacts from s3://bucket/key paths or from the
// local filesystem. The S3 client may be nil when only local paths are used.
type ArtifactStore struct {
	client *s3.Client
	logger *zap.Logger
}

// NewArtifactStore creates an artifact store.
func NewArtifactStore(client *s3.Client, logger *zap.Logger) *ArtifactStore {
	return &ArtifactStore{client: client, logger: logger}
}

// Fetch reads the artifact bytes at path.
func (s *ArtifactStore) Fetch(ctx context.Context, path string) ([]byte, error) {
	if strings.HasPrefix(path, "s3://") {
		return s.fetchS3(ctx, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "reading local artifact")
	}
	return data, nil
}

func (s *ArtifactStore) fetchS3(ctx context.Context, path string) ([]byte, error) {
	if s.client == nil {
		return nil, pkgerrors.NewInternalError("s3 artifact requested but no s3 client is configured")
	}

	bucket, key, ok := splitS3Path(path)
	if !ok {
		return nil, pkgerrors.NewValidationError("invalid s3 artifact path: " + path)
	}

	s.logger.Info("fetching graph artifact",
		zap.String("bucket", bucket),
		zap.String("key", key),
	)

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, pkgerrors.NewExternalError("s3", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, pkgerrors.NewExternalError("s3", err)
	}
	return data, nil
}

func splitS3Path(path string) (bucket, key string, ok bool) {
	rest := strings.TrimPrefix(path, "s3://")
	idx := strings.Index(rest, "/")
	if idx <= 0 || idx == len(rest)-1 {
		return "", "", false
	}
	return rest[:idx], rest[idx+1:], true
}
