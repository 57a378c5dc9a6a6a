package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

type Archiver interface {
	Archive(ctx context.Context, objectName string, data []byte) error
}

// GCSArchiver keeps a copy of every produced archive in a bucket.
type GCSArchiver struct {
	client *storage.Client
	bucket string
	logger *slog.Logger
}

func NewGCSArchiver(ctx context.Context, bucket string) (*GCSArchiver, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	return &GCSArchiver{
		client: client,
		bucket: bucket,
		logger: slog.Default(),
	}, nil
}

// Archive writes data to objectName only if the object does not exist yet.
// An existing object is not an error.
func (a *GCSArchiver) Archive(ctx context.Context, objectName string, data []byte) error {
	writer := a.client.Bucket(a.bucket).Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = "application/zip"

	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		_ = writer.Close()
		if isPreconditionFailed(err) {
			a.logger.Info("object already archived", "object", objectName)
			return nil
		}
		return fmt.Errorf("failed to write to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		if isPreconditionFailed(err) {
			a.logger.Info("object already archived", "object", objectName)
			return nil
		}
		return fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return nil
}

func (a *GCSArchiver) Close() error {
	return a.client.Close()
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}

// ObjectName is where the archive of a job is stored.
func ObjectName(jobID string) string {
	return fmt.Sprintf("jobs/%s/processed_output.zip", jobID)
}
