package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"sethosts/internal/storage/models"
	pkgerrors "sethosts/pkg/errors"
)

// DB implements the Storage interface using SQLite
type DB struct {
	db *sql.DB
}

// New creates a new SQLite storage instance
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store := &DB{db: db}

	// Run migrations
	if err := runMigrations(store); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// ─── Record cache operations ────────────────────────────────────────────────

func (d *DB) UpsertRecord(ctx context.Context, record *models.DNSRecord) error {
	ipv4, err := json.Marshal(record.IPv4)
	if err != nil {
		return err
	}
	ipv6, err := json.Marshal(record.IPv6)
	if err != nil {
		return err
	}
	if record.FetchedAt.IsZero() {
		record.FetchedAt = time.Now()
	}

	query := `
		INSERT INTO dns_records (domain, ipv4, ipv6, source, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(domain) DO UPDATE SET
			ipv4 = excluded.ipv4,
			ipv6 = excluded.ipv6,
			source = excluded.source,
			fetched_at = excluded.fetched_at
	`
	result, err := d.db.ExecContext(ctx, query,
		record.Domain, string(ipv4), string(ipv6), record.Source, record.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert record: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		record.ID = id
	}
	return nil
}

func (d *DB) GetRecord(ctx context.Context, domain string, maxAge time.Duration) (*models.DNSRecord, error) {
	query := `
		SELECT id, domain, ipv4, ipv6, source, fetched_at
		FROM dns_records WHERE domain = ?
	`
	record, err := scanRecord(d.db.QueryRowContext(ctx, query, domain))
	if err == sql.ErrNoRows {
		return nil, pkgerrors.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	if record.Expired(maxAge, time.Now()) {
		return nil, pkgerrors.ErrRecordExpired
	}
	return record, nil
}

func (d *DB) GetAllRecords(ctx context.Context) ([]*models.DNSRecord, error) {
	query := `
		SELECT id, domain, ipv4, ipv6, source, fetched_at
		FROM dns_records ORDER BY domain
	`
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.DNSRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (d *DB) PurgeExpiredRecords(ctx context.Context, maxAge time.Duration) (int64, error) {
	result, err := d.db.ExecContext(ctx,
		`DELETE FROM dns_records WHERE fetched_at < ?`, time.Now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("failed to purge records: %w", err)
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*models.DNSRecord, error) {
	record := &models.DNSRecord{}
	var ipv4, ipv6 string
	err := row.Scan(&record.ID, &record.Domain, &ipv4, &ipv6, &record.Source, &record.FetchedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(ipv4), &record.IPv4); err != nil {
		return nil, fmt.Errorf("corrupt ipv4 list for %s: %w", record.Domain, err)
	}
	if err := json.Unmarshal([]byte(ipv6), &record.IPv6); err != nil {
		return nil, fmt.Errorf("corrupt ipv6 list for %s: %w", record.Domain, err)
	}
	return record, nil
}

// ─── Measurement history operations ─────────────────────────────────────────

func (d *DB) RecordMeasurement(ctx context.Context, m *models.Measurement) error {
	if m.ProbedAt.IsZero() {
		m.ProbedAt = time.Now()
	}
	query := `
		INSERT INTO measurements (ip, hostname, latency_ms, success, error_message, strategy, probed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := d.db.ExecContext(ctx, query,
		m.IP, m.Hostname, m.LatencyMS, m.Success, m.ErrorMessage, m.Strategy, m.ProbedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record measurement: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		m.ID = id
	}
	return nil
}

func (d *DB) GetMeasurementHistory(ctx context.Context, ip string, limit int) ([]*models.Measurement, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, ip, hostname, latency_ms, success, error_message, strategy, probed_at
		FROM measurements WHERE ip = ?
		ORDER BY probed_at DESC LIMIT ?
	`
	rows, err := d.db.QueryContext(ctx, query, ip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []*models.Measurement
	for rows.Next() {
		m := &models.Measurement{}
		var hostname, errMsg sql.NullString
		err := rows.Scan(&m.ID, &m.IP, &hostname, &m.LatencyMS, &m.Success, &errMsg, &m.Strategy, &m.ProbedAt)
		if err != nil {
			return nil, err
		}
		m.Hostname = hostname.String
		m.ErrorMessage = errMsg.String
		history = append(history, m)
	}
	return history, rows.Err()
}

// ─── Settings operations ────────────────────────────────────────────────────

func (d *DB) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := d.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("setting not found: %s", key)
	}
	return value, err
}

func (d *DB) SetSetting(ctx context.Context, key, value string) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	return err
}

func (d *DB) GetAllSettings(ctx context.Context) (map[string]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value
	}
	return settings, rows.Err()
}
