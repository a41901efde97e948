// Package store provides database operations for the notification_log
// table: one append-only row per (alert, channel) dispatch attempt,
// including failed attempts.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

// Dispatch attempt statuses.
const (
	StatusSent   = "SENT"
	StatusFailed = "FAILED"
)

// Record is one dispatch attempt row.
type Record struct {
	RecordID     string
	AlertID      string
	AlertType    string
	SensorID     string
	Channel      string
	Recipient    string
	Status       string
	Priority     string
	AttemptedAt  time.Time
	SentAt       *time.Time
	ErrorMessage string
}

// Stats summarizes notification activity over a window.
type Stats struct {
	Total  int
	Sent   int
	Failed int
}

// Store wraps a database connection and provides notification log operations.
type Store struct {
	conn *sql.DB
}

// NewStore opens a connection using the provided DSN and verifies it.
func NewStore(dsn string) (*Store, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Connected to notification log database")

	return &Store{conn: conn}, nil
}

// NewStoreWithConn wraps an existing connection. Used by tests.
func NewStoreWithConn(conn *sql.DB) *Store {
	return &Store{conn: conn}
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// InsertRecord appends one dispatch attempt to the log.
func (s *Store) InsertRecord(ctx context.Context, r *Record) error {
	query := `
		INSERT INTO notification_log
			(record_id, alert_id, alert_type, sensor_id, channel, recipient, status, priority, attempted_at, sent_at, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	var sentAt sql.NullTime
	if r.SentAt != nil {
		sentAt = sql.NullTime{Time: *r.SentAt, Valid: true}
	}
	var errMsg sql.NullString
	if r.ErrorMessage != "" {
		errMsg = sql.NullString{String: r.ErrorMessage, Valid: true}
	}

	_, err := s.conn.ExecContext(ctx, query,
		r.RecordID, r.AlertID, r.AlertType, r.SensorID, r.Channel, r.Recipient,
		r.Status, r.Priority, r.AttemptedAt, sentAt, errMsg,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification record: %w", err)
	}

	slog.Debug("Notification record saved",
		"record_id", r.RecordID,
		"alert_id", r.AlertID,
		"channel", r.Channel,
		"status", r.Status,
	)
	return nil
}

// ListRecent returns dispatch attempts, newest first.
func (s *Store) ListRecent(ctx context.Context, limit, offset int) ([]Record, error) {
	query := `
		SELECT record_id, alert_id, alert_type, sensor_id, channel, recipient, status, priority, attempted_at, sent_at, error_message
		FROM notification_log
		ORDER BY attempted_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := s.conn.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notification records: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var r Record
		var sentAt sql.NullTime
		var errMsg sql.NullString
		if err := rows.Scan(
			&r.RecordID, &r.AlertID, &r.AlertType, &r.SensorID, &r.Channel, &r.Recipient,
			&r.Status, &r.Priority, &r.AttemptedAt, &sentAt, &errMsg,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification record: %w", err)
		}
		if sentAt.Valid {
			t := sentAt.Time
			r.SentAt = &t
		}
		if errMsg.Valid {
			r.ErrorMessage = errMsg.String
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notification records: %w", err)
	}

	return records, nil
}

// StatsSince returns totals for attempts made since the cutoff.
func (s *Store) StatsSince(ctx context.Context, since time.Time) (*Stats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'SENT'),
			COUNT(*) FILTER (WHERE status = 'FAILED')
		FROM notification_log
		WHERE attempted_at >= $1
	`
	var stats Stats
	if err := s.conn.QueryRowContext(ctx, query, since).Scan(&stats.Total, &stats.Sent, &stats.Failed); err != nil {
		return nil, fmt.Errorf("failed to query notification stats: %w", err)
	}
	return &stats, nil
}
