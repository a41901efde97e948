// Package store provides database operations for the alerts table, owned
// exclusively by the analysis engine.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

// Alert is one derived threshold-violation row. Alerts are append-only.
type Alert struct {
	AlertID   string
	AlertType string
	SensorID  string
	Value     float64
	Threshold float64
	RaisedAt  time.Time
}

// Store wraps a database connection and provides alert operations.
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

	slog.Info("Connected to alerts database")

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

// InsertAlert persists an alert row.
func (s *Store) InsertAlert(ctx context.Context, a *Alert) error {
	query := `
		INSERT INTO alerts (alert_id, alert_type, sensor_id, value, threshold, raised_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.conn.ExecContext(ctx, query,
		a.AlertID, a.AlertType, a.SensorID, a.Value, a.Threshold, a.RaisedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	slog.Debug("Alert persisted", "alert_id", a.AlertID, "alert_type", a.AlertType)
	return nil
}

// CountByTypeSince returns the number of alerts raised since the cutoff,
// grouped by alert type.
func (s *Store) CountByTypeSince(ctx context.Context, since time.Time) (map[string]int, error) {
	query := `
		SELECT alert_type, COUNT(*)
		FROM alerts
		WHERE raised_at >= $1
		GROUP BY alert_type
	`
	rows, err := s.conn.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count alerts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var alertType string
		var count int
		if err := rows.Scan(&alertType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan alert count: %w", err)
		}
		counts[alertType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alert counts: %w", err)
	}

	return counts, nil
}

// ListRecent returns alerts newest first.
func (s *Store) ListRecent(ctx context.Context, limit, offset int) ([]Alert, error) {
	query := `
		SELECT alert_id, alert_type, sensor_id, value, threshold, raised_at
		FROM alerts
		ORDER BY raised_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := s.conn.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]Alert, 0)
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.AlertID, &a.AlertType, &a.SensorID, &a.Value, &a.Threshold, &a.RaisedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerts: %w", err)
	}

	return alerts, nil
}
