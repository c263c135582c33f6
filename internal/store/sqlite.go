package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"mt5-guard/internal/models"
)

// SQLiteStore implements GuardStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based guard store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Durable trailing-stop registrations, reloaded on guard start
	CREATE TABLE IF NOT EXISTS trail_configs (
		ticket INTEGER PRIMARY KEY,
		symbol TEXT NOT NULL,
		distance REAL NOT NULL,
		activation REAL NOT NULL,
		last_stop REAL NOT NULL DEFAULT 0,
		registered_at DATETIME NOT NULL
	);

	-- Journal of guard actions and their outcomes
	CREATE TABLE IF NOT EXISTS guard_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		kind TEXT NOT NULL,
		ticket INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		fill_mode TEXT,
		success INTEGER NOT NULL,
		reason TEXT NOT NULL,
		message TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_events_ticket ON guard_events(ticket);
	CREATE INDEX IF NOT EXISTS idx_events_time ON guard_events(timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveTrailConfig inserts or replaces the registration for a ticket.
func (s *SQLiteStore) SaveTrailConfig(ctx context.Context, cfg *models.TrailConfig) error {
	registered := cfg.RegisteredAt
	if registered.IsZero() {
		registered = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trail_configs (ticket, symbol, distance, activation, last_stop, registered_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(ticket) DO UPDATE SET
			symbol = excluded.symbol,
			distance = excluded.distance,
			activation = excluded.activation,
			last_stop = excluded.last_stop`,
		cfg.Ticket, cfg.Symbol, cfg.Distance, cfg.Activation, cfg.LastStop, registered)
	if err != nil {
		return fmt.Errorf("saving trail config for ticket %d: %w", cfg.Ticket, err)
	}
	return nil
}

// DeleteTrailConfig removes the registration for a ticket.
func (s *SQLiteStore) DeleteTrailConfig(ctx context.Context, ticket uint64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM trail_configs WHERE ticket = ?`, ticket); err != nil {
		return fmt.Errorf("deleting trail config for ticket %d: %w", ticket, err)
	}
	return nil
}

// ListTrailConfigs returns all persisted registrations.
func (s *SQLiteStore) ListTrailConfigs(ctx context.Context) ([]models.TrailConfig, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ticket, symbol, distance, activation, last_stop, registered_at
		FROM trail_configs ORDER BY ticket`)
	if err != nil {
		return nil, fmt.Errorf("listing trail configs: %w", err)
	}
	defer rows.Close()

	var out []models.TrailConfig
	for rows.Next() {
		var cfg models.TrailConfig
		if err := rows.Scan(&cfg.Ticket, &cfg.Symbol, &cfg.Distance, &cfg.Activation, &cfg.LastStop, &cfg.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scanning trail config: %w", err)
		}
		out = append(out, cfg)
	}
	return out, rows.Err()
}

// LogEvent appends a journal row.
func (s *SQLiteStore) LogEvent(ctx context.Context, event *Event) error {
	ts := event.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO guard_events (timestamp, kind, ticket, symbol, fill_mode, success, reason, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ts, string(event.Kind), event.Ticket, event.Symbol, event.Mode, event.Success, event.Reason, event.Message)
	if err != nil {
		return fmt.Errorf("logging guard event: %w", err)
	}
	return nil
}

// GetEvents returns journal rows matching the filter, newest first.
func (s *SQLiteStore) GetEvents(ctx context.Context, filter EventFilter) ([]Event, error) {
	var conds []string
	var args []interface{}

	if filter.Ticket != 0 {
		conds = append(conds, "ticket = ?")
		args = append(args, filter.Ticket)
	}
	if filter.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if !filter.Since.IsZero() {
		conds = append(conds, "timestamp >= ?")
		args = append(args, filter.Since)
	}

	query := `SELECT id, timestamp, kind, ticket, symbol, fill_mode, success, reason, message FROM guard_events`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY timestamp DESC, id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying guard events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var kind string
		var mode, message sql.NullString
		if err := rows.Scan(&e.ID, &e.Time, &kind, &e.Ticket, &e.Symbol, &mode, &e.Success, &e.Reason, &message); err != nil {
			return nil, fmt.Errorf("scanning guard event: %w", err)
		}
		e.Kind = EventKind(kind)
		e.Mode = mode.String
		e.Message = message.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
