package storage

import (
	"context"
	"time"

	"sethosts/internal/storage/models"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Record cache operations
	UpsertRecord(ctx context.Context, record *models.DNSRecord) error
	GetRecord(ctx context.Context, domain string, maxAge time.Duration) (*models.DNSRecord, error)
	GetAllRecords(ctx context.Context) ([]*models.DNSRecord, error)
	PurgeExpiredRecords(ctx context.Context, maxAge time.Duration) (int64, error)

	// Measurement history operations
	RecordMeasurement(ctx context.Context, m *models.Measurement) error
	GetMeasurementHistory(ctx context.Context, ip string, limit int) ([]*models.Measurement, error)

	// Settings operations
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	GetAllSettings(ctx context.Context) (map[string]string, error)

	// Close closes the storage connection
	Close() error
}
