package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/Alias1177/SqueezeAlert/models"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// ConnectionString builds the lib/pq keyword/value DSN
func (p ConnectionParams) ConnectionString() string {
	sslMode := p.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, sslMode,
	)
}

// New creates a new database connection
func New(params ConnectionParams) (*DB, error) {
	db, err := sql.Open("postgres", params.ConnectionString())
	if err != nil {
		return nil, err
	}

	// Check connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres at %s: %w", params.Host, err)
	}

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS squeeze_alerts (
			id UUID PRIMARY KEY,
			symbol TEXT NOT NULL,
			timeframe TEXT NOT NULL,
			bar_time TIMESTAMPTZ NOT NULL,
			direction TEXT NOT NULL,
			close DOUBLE PRECISION NOT NULL,
			sent_at TIMESTAMPTZ NOT NULL,
			UNIQUE (symbol, timeframe, bar_time)
		)
	`)
	return err
}

// Seen reports whether an alert for this trigger bar was already recorded
func (db *DB) Seen(ctx context.Context, symbol, timeframe string, barTime time.Time) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM squeeze_alerts
			WHERE symbol = $1 AND timeframe = $2 AND bar_time = $3
		)
	`, symbol, timeframe, barTime.UTC()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking alert journal: %w", err)
	}
	return exists, nil
}

// Record stores a sent alert. A second alert for the same bar is ignored.
func (db *DB) Record(ctx context.Context, rec models.AlertRecord) error {
	rec = prepareRecord(rec, time.Now())

	_, err := db.ExecContext(ctx, `
		INSERT INTO squeeze_alerts (
			id, symbol, timeframe, bar_time, direction, close, sent_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol, timeframe, bar_time) DO NOTHING
	`,
		rec.ID, rec.Symbol, rec.Timeframe, rec.BarTime, string(rec.Direction), rec.Close, rec.SentAt)
	if err != nil {
		return fmt.Errorf("recording alert: %w", err)
	}
	return nil
}

// prepareRecord fills the id and send time and normalizes times to UTC
func prepareRecord(rec models.AlertRecord, now time.Time) models.AlertRecord {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.SentAt.IsZero() {
		rec.SentAt = now
	}
	rec.BarTime = rec.BarTime.UTC()
	rec.SentAt = rec.SentAt.UTC()
	return rec
}
