package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"finstream/src/helpers"
	"finstream/src/logger"
	"finstream/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	return &PostgresDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return &helpers.DatabaseError{ProxyError: helpers.ProxyError{Message: "failed to open postgres database", Cause: err}}
	}

	if err := db.Ping(); err != nil {
		return &helpers.DatabaseError{ProxyError: helpers.ProxyError{Message: "postgres database unreachable", Cause: err}}
	}

	d.DB = db

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully")
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) createTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS email_subscriptions (
			email TEXT PRIMARY KEY,
			symbols TEXT NOT NULL,
			created_at BIGINT NOT NULL
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create email_subscriptions: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveSubscription(email string, symbols []string) error {
	query := `
		INSERT INTO email_subscriptions (email, symbols, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET symbols = EXCLUDED.symbols;
	`
	_, err := d.DB.Exec(query, email, strings.Join(symbols, ","), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save subscription for %s: %w", email, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) RemoveSubscription(email string) error {
	_, err := d.DB.Exec("DELETE FROM email_subscriptions WHERE email = $1", email)
	if err != nil {
		return fmt.Errorf("failed to remove subscription for %s: %w", email, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) ListSubscriptions() ([]models.MEmailSubscription, error) {
	rows, err := d.DB.Query("SELECT email, symbols, created_at FROM email_subscriptions ORDER BY email")
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	return scanSubscriptions(rows)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
