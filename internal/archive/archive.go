// Package archive stores uploaded statements and their reports in Google
// Cloud Storage for later audit reference. Archiving is optional: when no
// bucket is configured the archiver is a no-op, and archive failures never
// fail the analysis that produced the report.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"github.com/atlaudit/statement-auditor/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Archiver writes statements and reports to a GCS bucket.
type Archiver struct {
	client *storage.Client
	bucket string
	log    zerolog.Logger
}

// New creates an Archiver for the given bucket. An empty bucket name
// returns a nil Archiver, which all methods treat as "archiving disabled".
func New(ctx context.Context, bucket string, log zerolog.Logger) (*Archiver, error) {
	if bucket == "" {
		return nil, nil
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Archiver{client: client, bucket: bucket, log: log}, nil
}

// ArchiveStatement uploads the raw statement document and returns the
// object name. Returns "" when archiving is disabled.
func (a *Archiver) ArchiveStatement(ctx context.Context, document []byte, filename string) string {
	if a == nil {
		return ""
	}

	object := fmt.Sprintf("statements/%s/%s-%s",
		time.Now().Format("2006-01-02"), uuid.NewString(), path.Base(filename))

	if err := a.write(ctx, object, document); err != nil {
		a.log.Warn().Err(err).Str("object", object).Msg("statement archive failed")
		return ""
	}
	return object
}

// ArchiveReport uploads the finished report as JSON next to its statement.
func (a *Archiver) ArchiveReport(ctx context.Context, statementObject string, report *domain.Report) {
	if a == nil || statementObject == "" {
		return
	}

	data, err := json.Marshal(report)
	if err != nil {
		a.log.Warn().Err(err).Msg("report marshal for archive failed")
		return
	}

	object := statementObject + ".report.json"
	if err := a.write(ctx, object, data); err != nil {
		a.log.Warn().Err(err).Str("object", object).Msg("report archive failed")
	}
}

func (a *Archiver) write(ctx context.Context, object string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := a.client.Bucket(a.bucket).Object(object).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}
	return nil
}

// Close releases the underlying storage client.
func (a *Archiver) Close() error {
	if a == nil {
		return nil
	}
	return a.client.Close()
}
