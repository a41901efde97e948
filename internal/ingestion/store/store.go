// Package store provides database operations for the sensor_readings table.
// The readings store is owned exclusively by the ingestion gateway; other
// services see readings only through bus events.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

// Reading is one immutable sensor reading row.
type Reading struct {
	ID         string
	SensorID   string
	SensorType string
	Value      float64
	ObservedAt time.Time
	RecordedAt time.Time
}

// Store wraps a database connection and provides reading operations.
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

	slog.Info("Connected to readings database")

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

// InsertReading persists a reading. Readings are append-only; there is no
// update or delete path.
func (s *Store) InsertReading(ctx context.Context, r *Reading) error {
	query := `
		INSERT INTO sensor_readings (id, sensor_id, sensor_type, value, observed_at, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.conn.ExecContext(ctx, query,
		r.ID, r.SensorID, r.SensorType, r.Value, r.ObservedAt, r.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reading: %w", err)
	}

	slog.Debug("Reading persisted", "reading_id", r.ID, "sensor_id", r.SensorID)
	return nil
}

// ListBySensor returns readings for one sensor, newest first.
func (s *Store) ListBySensor(ctx context.Context, sensorID string, limit, offset int) ([]Reading, error) {
	query := `
		SELECT id, sensor_id, sensor_type, value, observed_at, recorded_at
		FROM sensor_readings
		WHERE sensor_id = $1
		ORDER BY observed_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := s.conn.QueryContext(ctx, query, sensorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}
	defer rows.Close()

	readings := make([]Reading, 0)
	for rows.Next() {
		var r Reading
		if err := rows.Scan(&r.ID, &r.SensorID, &r.SensorType, &r.Value, &r.ObservedAt, &r.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate readings: %w", err)
	}

	return readings, nil
}
