package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"rackplan/internal/domain"
	"rackplan/internal/repository"
)

const (
	metaSeq     = "seq"
	metaTakenAt = "taken_at"
)

// Store implements repository.SnapshotStore on SQLite or PostgreSQL.
//
// Each device is one row: a few indexed columns for ad-hoc queries and the
// full device document as JSON. Save replaces all rows in one transaction.
type Store struct {
	db      *sql.DB
	dialect dialect
}

// Open opens a store for driver "sqlite" (target is a file path or
// ":memory:") or "postgres" (target is a DSN)
func Open(driver, target string) (*Store, error) {
	switch driver {
	case "sqlite", "":
		return OpenSQLite(target)
	case "postgres":
		return OpenPostgres(target)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// OpenSQLite opens a SQLite database file, creating it when missing
func OpenSQLite(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	if path == ":memory:" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps an in-memory database alive and serializes writers
	db.SetMaxOpenConns(1)
	return newStore(db, sqliteDialect{})
}

// OpenPostgres opens a PostgreSQL database through the pgx driver
func OpenPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newStore(db, postgresDialect{})
}

func newStore(db *sql.DB, d dialect) (*Store, error) {
	s := &Store{db: db, dialect: d}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS devices (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		category TEXT NOT NULL,
		code TEXT NOT NULL DEFAULT '',
		before_rack TEXT,
		after_rack TEXT,
		complete %[1]s NOT NULL,
		data %[2]s NOT NULL
	);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_devices_position ON devices(position);
	CREATE INDEX IF NOT EXISTS idx_devices_before_rack ON devices(before_rack);
	CREATE INDEX IF NOT EXISTS idx_devices_after_rack ON devices(after_rack);
	`, s.dialect.BoolType(), s.dialect.JSONType())

	// pgx runs one statement per Exec
	for _, stmt := range splitStatements(schema) {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Save replaces the stored state with snap
func (s *Store) Save(ctx context.Context, snap domain.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM devices`); err != nil {
		return fmt.Errorf("failed to clear devices: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.q(`
		INSERT INTO devices (id, position, category, code, before_rack, after_rack, complete, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		return fmt.Errorf("failed to prepare device statement: %w", err)
	}
	defer stmt.Close()

	for i, d := range snap.Devices {
		data, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("failed to marshal device %s: %w", d.ID, err)
		}
		_, err = stmt.ExecContext(ctx,
			d.ID, i, string(d.Category), d.Code,
			rackOf(d.Before), rackOf(d.After),
			domain.IsComplete(d), string(data),
		)
		if err != nil {
			return fmt.Errorf("failed to insert device %s: %w", d.ID, err)
		}
	}

	meta := map[string]string{
		metaSeq:     strconv.FormatUint(snap.Seq, 10),
		metaTakenAt: snap.TakenAt.UTC().Format(time.RFC3339Nano),
	}
	for key, value := range meta {
		if _, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO metadata (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`), key, value); err != nil {
			return fmt.Errorf("failed to store %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Load returns the stored devices as raw records in their saved order
func (s *Store) Load(ctx context.Context) (*domain.RawSnapshot, error) {
	var seqText string
	err := s.db.QueryRowContext(ctx, s.q(`SELECT value FROM metadata WHERE key = ?`), metaSeq).Scan(&seqText)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot sequence: %w", err)
	}
	seq, err := strconv.ParseUint(seqText, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot sequence %q: %w", seqText, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, data FROM devices ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	raw := &domain.RawSnapshot{Seq: seq, Devices: make([]domain.Record, 0)}
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		var rec domain.Record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			// keep the row; seeding repairs it from what remains
			rec = domain.Record{"id": id}
		}
		raw.Devices = append(raw.Devices, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read devices: %w", err)
	}
	return raw, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) q(query string) string {
	return s.dialect.Rebind(query)
}

func rackOf(p *domain.Placement) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: p.RackID, Valid: true}
}
