package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/absmach/flock/pkg/errors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"
)

var (
	ErrDBConnection = errors.New("database connection error")
	ErrDBQuery      = errors.New("database query error")
	ErrDBScan       = errors.New("database scan error")
	ErrMigration    = errors.New("database migration error")
	ErrCreate       = errors.New("create error")
	ErrUpdate       = errors.New("update error")
	ErrDelete       = errors.New("delete error")
)

type Database struct {
	*sqlx.DB
}

func NewDatabase(host, port, user, pass, name, sslMode string) (*Database, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s", host, port, user, pass, name, sslMode)
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	database := &Database{DB: db}

	if err := database.Migrate(); err != nil {
		db.Close()

		return nil, err
	}

	return database, nil
}

func (db *Database) Migrate() error {
	migrations := &migrate.MemoryMigrationSource{
		Migrations: []*migrate.Migration{
			{
				Id: "1_create_tables",
				Up: []string{
					`CREATE TABLE IF NOT EXISTS rounds (
						session_id VARCHAR(36) NOT NULL,
						idx INTEGER NOT NULL,
						record JSONB NOT NULL,
						completed_at TIMESTAMPTZ NOT NULL,
						PRIMARY KEY (session_id, idx)
					)`,
					`CREATE TABLE IF NOT EXISTS participants (
						id VARCHAR(255) PRIMARY KEY,
						name VARCHAR(255) NOT NULL,
						alive BOOLEAN DEFAULT FALSE,
						record JSONB NOT NULL
					)`,
					`CREATE INDEX IF NOT EXISTS idx_participants_alive ON participants(alive)`,
				},
				Down: []string{
					`DROP INDEX IF EXISTS idx_participants_alive`,
					`DROP TABLE IF EXISTS participants`,
					`DROP TABLE IF EXISTS rounds`,
				},
			},
		},
	}

	if _, err := migrate.Exec(db.DB.DB, "postgres", migrations, migrate.Up); err != nil {
		return fmt.Errorf("%w: %w", ErrMigration, err)
	}

	return nil
}

func (db *Database) execAffecting(ctx context.Context, absent error, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return absent
	}

	return nil
}

func wrap(kind, err error) error {
	if errors.Is(err, pkgerrors.ErrNotFound) || errors.Is(err, pkgerrors.ErrEntityExists) {
		return err
	}

	return fmt.Errorf("%w: %w", kind, err)
}
