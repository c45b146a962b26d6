package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"finstream/src/helpers"
	"finstream/src/logger"
	"finstream/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type SQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*SQLiteDB, error) {
	return &SQLiteDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Initialize() error {
	dsn := d.Config.Storage.DBPath

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return &helpers.DatabaseError{ProxyError: helpers.ProxyError{Message: "failed to open sqlite database", Cause: err}}
	}

	if err := db.Ping(); err != nil {
		return &helpers.DatabaseError{ProxyError: helpers.ProxyError{Message: "sqlite database unreachable", Cause: err}}
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) createTables() error {
	// Subscriptions survive restarts, so no drop here.
	query := `
		CREATE TABLE IF NOT EXISTS email_subscriptions (
			email TEXT PRIMARY KEY,
			symbols TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create email_subscriptions: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) SaveSubscription(email string, symbols []string) error {
	query := `
		INSERT INTO email_subscriptions (email, symbols, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET symbols = excluded.symbols;
	`
	_, err := d.DB.Exec(query, email, strings.Join(symbols, ","), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save subscription for %s: %w", email, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) RemoveSubscription(email string) error {
	_, err := d.DB.Exec("DELETE FROM email_subscriptions WHERE email = ?", email)
	if err != nil {
		return fmt.Errorf("failed to remove subscription for %s: %w", email, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) ListSubscriptions() ([]models.MEmailSubscription, error) {
	rows, err := d.DB.Query("SELECT email, symbols, created_at FROM email_subscriptions ORDER BY email")
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	return scanSubscriptions(rows)
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
