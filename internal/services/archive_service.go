package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"rentgrid/internal/repositories"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const archiveBatchSize = 1000

// ObjectStore is the cold-storage sink for exported audit batches.
type ObjectStore interface {
	Put(ctx context.Context, objectName string, data []byte) error
	EnsureBucketExists(ctx context.Context) error
}

// ArchiveService exports aged audit log entries to object storage. Entries
// stay in the database; the archived flag only records the export. A failed
// export leaves rows untouched, so the job is at-least-once.
type ArchiveService interface {
	ArchiveAuditLogs(ctx context.Context) error
}

type archiveService struct {
	auditRepo repositories.AuditLogsRepository
	store     ObjectStore
	retention time.Duration
}

func NewArchiveService(auditRepo repositories.AuditLogsRepository, store ObjectStore, retention time.Duration) ArchiveService {
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}
	return &archiveService{
		auditRepo: auditRepo,
		store:     store,
		retention: retention,
	}
}

func (s *archiveService) ArchiveAuditLogs(ctx context.Context) error {
	cutoff := time.Now().Add(-s.retention)

	total := 0
	for {
		batch, err := s.auditRepo.ListUnarchivedBefore(ctx, cutoff, archiveBatchSize)
		if err != nil {
			return fmt.Errorf("failed to load audit entries for archival: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		data, err := json.Marshal(batch)
		if err != nil {
			return fmt.Errorf("failed to marshal audit batch: %w", err)
		}

		objectName := fmt.Sprintf("audit/%s-%s.json", time.Now().UTC().Format("2006-01-02"), batch[0].ID)
		if err := s.store.Put(ctx, objectName, data); err != nil {
			return fmt.Errorf("failed to upload audit batch %s: %w", objectName, err)
		}

		ids := make([]uuid.UUID, len(batch))
		for i, entry := range batch {
			ids[i] = entry.ID
		}
		if err := s.auditRepo.MarkArchived(ctx, ids); err != nil {
			return fmt.Errorf("failed to mark audit batch archived: %w", err)
		}

		total += len(batch)
		if len(batch) < archiveBatchSize {
			break
		}
	}

	if total > 0 {
		log.Printf("Archived %d audit log entries older than %s", total, cutoff.Format(time.RFC3339))
	}
	return nil
}

type minioStore struct {
	client *minio.Client
	bucket string
}

func NewMinioStore(endpoint, accessKey, secretKey string, useSSL bool, bucket string) (ObjectStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &minioStore{client: client, bucket: bucket}, nil
}

func (m *minioStore) Put(ctx context.Context, objectName string, data []byte) error {
	_, err := m.client.PutObject(ctx, m.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	return err
}

func (m *minioStore) EnsureBucketExists(ctx context.Context) error {
	found, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if !found {
		return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
	}
	return nil
}
