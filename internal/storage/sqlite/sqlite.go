package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"vulture/internal/storage"
	"vulture/internal/storage/models"
)

// dbHandle is the common interface between *sql.DB and *sql.Tx.
type dbHandle interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// DB implements the Storage interface using SQLite
type DB struct {
	db *sql.DB
}

// New creates a new SQLite storage instance
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// CLI and TUI processes may share the file; keep the pool small.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	storage := &DB{db: db}
	if err := runMigrations(storage); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return storage, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) handle() dbHandle { return d.db }

// BeginTx starts a new transaction
func (d *DB) BeginTx(ctx context.Context) (storage.Transaction, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx}, nil
}

// Tx implements the Transaction interface
type Tx struct {
	tx *sql.Tx
}

func (t *Tx) Commit() error    { return t.tx.Commit() }
func (t *Tx) Rollback() error  { return t.tx.Rollback() }
func (t *Tx) handle() dbHandle { return t.tx }

func (t *Tx) BeginTx(ctx context.Context) (storage.Transaction, error) {
	return nil, fmt.Errorf("nested transactions not supported")
}

func (t *Tx) Close() error { return nil }

// ─── Settings operations ────────────────────────────────────────────────────

func (d *DB) GetSetting(ctx context.Context, key string) (string, error) {
	return getSetting(ctx, d.handle(), key)
}
func (t *Tx) GetSetting(ctx context.Context, key string) (string, error) {
	return getSetting(ctx, t.handle(), key)
}

func getSetting(ctx context.Context, h dbHandle, key string) (string, error) {
	var value string
	err := h.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: %s", storage.ErrSettingNotFound, key)
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (d *DB) SetSetting(ctx context.Context, key, value string) error {
	return setSetting(ctx, d.handle(), key, value)
}
func (t *Tx) SetSetting(ctx context.Context, key, value string) error {
	return setSetting(ctx, t.handle(), key, value)
}

func setSetting(ctx context.Context, h dbHandle, key, value string) error {
	query := `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	_, err := h.ExecContext(ctx, query, key, value)
	return err
}

func (d *DB) GetAllSettings(ctx context.Context) (map[string]string, error) {
	return getAllSettings(ctx, d.handle())
}
func (t *Tx) GetAllSettings(ctx context.Context) (map[string]string, error) {
	return getAllSettings(ctx, t.handle())
}

func getAllSettings(ctx context.Context, h dbHandle) (map[string]string, error) {
	rows, err := h.QueryContext(ctx, "SELECT key, value FROM settings")
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

// ─── Active connection operations ───────────────────────────────────────────

func (d *DB) SetActiveConnection(ctx context.Context, conn *models.ActiveConnection) error {
	return setActiveConnection(ctx, d.handle(), conn)
}
func (t *Tx) SetActiveConnection(ctx context.Context, conn *models.ActiveConnection) error {
	return setActiveConnection(ctx, t.handle(), conn)
}

func setActiveConnection(ctx context.Context, h dbHandle, conn *models.ActiveConnection) error {
	startedAt := conn.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	query := `
		INSERT INTO active_connection (id, config_id, server_name, started_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			config_id = excluded.config_id,
			server_name = excluded.server_name,
			started_at = excluded.started_at
	`
	_, err := h.ExecContext(ctx, query, conn.ConfigID, conn.ServerName, startedAt.UTC())
	return err
}

func (d *DB) GetActiveConnection(ctx context.Context) (*models.ActiveConnection, error) {
	return getActiveConnection(ctx, d.handle())
}
func (t *Tx) GetActiveConnection(ctx context.Context) (*models.ActiveConnection, error) {
	return getActiveConnection(ctx, t.handle())
}

func getActiveConnection(ctx context.Context, h dbHandle) (*models.ActiveConnection, error) {
	query := `SELECT id, config_id, server_name, started_at FROM active_connection WHERE id = 1`
	conn := &models.ActiveConnection{}
	err := h.QueryRowContext(ctx, query).Scan(
		&conn.ID, &conn.ConfigID, &conn.ServerName, &conn.StartedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (d *DB) ClearActiveConnection(ctx context.Context) error {
	return clearActiveConnection(ctx, d.handle())
}
func (t *Tx) ClearActiveConnection(ctx context.Context) error {
	return clearActiveConnection(ctx, t.handle())
}

func clearActiveConnection(ctx context.Context, h dbHandle) error {
	_, err := h.ExecContext(ctx, "DELETE FROM active_connection WHERE id = 1")
	return err
}

// ─── Session history ────────────────────────────────────────────────────────

func (d *DB) RecordSession(ctx context.Context, session *models.Session) error {
	return recordSession(ctx, d.handle(), session)
}
func (t *Tx) RecordSession(ctx context.Context, session *models.Session) error {
	return recordSession(ctx, t.handle(), session)
}

func recordSession(ctx context.Context, h dbHandle, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	query := `
		INSERT INTO sessions (id, config_id, server_name, started_at, ended_at, duration_sec, upload_kbps, download_kbps)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := h.ExecContext(ctx, query,
		session.ID, session.ConfigID, session.ServerName,
		session.StartedAt.UTC(), session.EndedAt.UTC(), session.DurationSec,
		session.UploadKbps, session.DownloadKbps,
	)
	if err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}
	return nil
}

func (d *DB) ListSessions(ctx context.Context, limit int) ([]*models.Session, error) {
	return listSessions(ctx, d.handle(), limit)
}
func (t *Tx) ListSessions(ctx context.Context, limit int) ([]*models.Session, error) {
	return listSessions(ctx, t.handle(), limit)
}

func listSessions(ctx context.Context, h dbHandle, limit int) ([]*models.Session, error) {
	query := `
		SELECT id, config_id, server_name, started_at, ended_at, duration_sec, upload_kbps, download_kbps
		FROM sessions
		ORDER BY ended_at DESC
		LIMIT ?
	`
	rows, err := h.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		s := &models.Session{}
		err := rows.Scan(
			&s.ID, &s.ConfigID, &s.ServerName, &s.StartedAt, &s.EndedAt,
			&s.DurationSec, &s.UploadKbps, &s.DownloadKbps,
		)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
