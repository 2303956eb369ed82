package storage

import (
	"fmt"
	"io"

	"github.com/absmach/flock/pkg/storage/badger"
	"github.com/absmach/flock/pkg/storage/postgres"
	"github.com/absmach/flock/pkg/storage/sqlite"
)

type Config struct {
	Type string `env:"COORDINATOR_STORAGE_TYPE" envDefault:"memory"`

	PostgresHost    string `env:"COORDINATOR_POSTGRES_HOST"    envDefault:"localhost"`
	PostgresPort    string `env:"COORDINATOR_POSTGRES_PORT"    envDefault:"5432"`
	PostgresUser    string `env:"COORDINATOR_POSTGRES_USER"    envDefault:"flock"`
	PostgresPass    string `env:"COORDINATOR_POSTGRES_PASS"    envDefault:"flock"`
	PostgresDB      string `env:"COORDINATOR_POSTGRES_DB"      envDefault:"flock"`
	PostgresSSLMode string `env:"COORDINATOR_POSTGRES_SSLMODE" envDefault:"disable"`

	SQLitePath string `env:"COORDINATOR_SQLITE_PATH" envDefault:"./flock.db"`

	BadgerPath string `env:"COORDINATOR_BADGER_PATH" envDefault:"./data/badger"`
}

type Repositories struct {
	Rounds       RoundRepository
	Participants ParticipantRepository
	// Closer closes the underlying persistent storage connection.
	// It is nil for the in-memory backend.
	Closer io.Closer
}

func NewRepositories(cfg Config) (*Repositories, error) {
	switch cfg.Type {
	case "postgres":
		db, err := postgres.NewDatabase(
			cfg.PostgresHost,
			cfg.PostgresPort,
			cfg.PostgresUser,
			cfg.PostgresPass,
			cfg.PostgresDB,
			cfg.PostgresSSLMode,
		)
		if err != nil {
			return nil, err
		}

		return &Repositories{
			Rounds:       postgres.NewRoundRepository(db),
			Participants: postgres.NewParticipantRepository(db),
			Closer:       db,
		}, nil
	case "sqlite":
		db, err := sqlite.NewDatabase(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}

		return &Repositories{
			Rounds:       sqlite.NewRoundRepository(db),
			Participants: sqlite.NewParticipantRepository(db),
			Closer:       db,
		}, nil
	case "badger":
		db, err := badger.NewDatabase(cfg.BadgerPath)
		if err != nil {
			return nil, err
		}

		return &Repositories{
			Rounds:       badger.NewRoundRepository(db),
			Participants: badger.NewParticipantRepository(db),
			Closer:       db,
		}, nil
	case "memory":
		return &Repositories{
			Rounds:       NewMemoryRoundRepository(NewInMemoryStorage()),
			Participants: NewMemoryParticipantRepository(NewInMemoryStorage()),
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, cfg.Type)
	}
}
