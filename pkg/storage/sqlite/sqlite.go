package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danmuhq/danmuz/pkg/storage"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS webhook_delivery (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source TEXT NOT NULL,
	event TEXT NOT NULL,
	outcome TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	season INTEGER NOT NULL DEFAULT 0,
	episode INTEGER NOT NULL DEFAULT 0,
	task_key TEXT NOT NULL DEFAULT '',
	received_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_webhook_delivery_received_at ON webhook_delivery (received_at);
`

type SQLite struct {
	db *sql.DB
}

// New creates a new sqlite database given a path to the database file
func New(filePath string) (storage.Storage, error) {
	db, err := sql.Open("sqlite3", filePath)
	if err != nil {
		return nil, err
	}

	// sqlite handles one writer at a time; a single pooled connection also
	// keeps ":memory:" databases coherent across calls
	db.SetMaxOpenConns(1)

	return SQLite{
		db: db,
	}, nil
}

// Init applies the schema to the database
func (s SQLite) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// CreateDelivery stores a handled webhook delivery
func (s SQLite) CreateDelivery(ctx context.Context, delivery storage.Delivery) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO webhook_delivery (source, event, outcome, detail, title, season, episode, task_key, received_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		delivery.Source,
		delivery.Event,
		string(delivery.Outcome),
		delivery.Detail,
		delivery.Title,
		delivery.Season,
		delivery.Episode,
		delivery.TaskKey,
		delivery.ReceivedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert delivery: %w", err)
	}

	return result.LastInsertId()
}

// ListDeliveries returns the most recent deliveries, newest first
func (s SQLite) ListDeliveries(ctx context.Context, limit int) ([]storage.Delivery, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, event, outcome, detail, title, season, episode, task_key, received_at
		 FROM webhook_delivery ORDER BY received_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []storage.Delivery
	for rows.Next() {
		var d storage.Delivery
		var outcome string
		err := rows.Scan(&d.ID, &d.Source, &d.Event, &outcome, &d.Detail, &d.Title, &d.Season, &d.Episode, &d.TaskKey, &d.ReceivedAt)
		if err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		d.Outcome = storage.DeliveryOutcome(outcome)
		deliveries = append(deliveries, d)
	}

	return deliveries, rows.Err()
}
