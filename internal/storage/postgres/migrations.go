package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// migration is one versioned schema change
type migration struct {
	Version     int
	Description string
	Up          string
}

var migrations = []migration{
	{Version: 1, Description: "create accounts and students", Up: migration001Up},
}

const migration001Up = `
CREATE TABLE IF NOT EXISTS accounts (
    id BIGSERIAL PRIMARY KEY,
    display_name VARCHAR(511) NOT NULL,
    email VARCHAR(255) NOT NULL,
    handle VARCHAR(255) NOT NULL,
    credential_secret TEXT NOT NULL,
    level INTEGER NOT NULL DEFAULT 1,
    experience_points INTEGER NOT NULL DEFAULT 0,
    is_privileged BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_level CHECK (level >= 1),
    CONSTRAINT valid_xp CHECK (experience_points >= 0)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_email_lower ON accounts (lower(email));
CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_handle ON accounts (handle);
CREATE INDEX IF NOT EXISTS idx_accounts_xp_level ON accounts (experience_points DESC, level DESC);

CREATE TABLE IF NOT EXISTS students (
    id BIGSERIAL PRIMARY KEY,
    student_id VARCHAR(255) NOT NULL,
    first_name VARCHAR(255) NOT NULL,
    last_name VARCHAR(255) NOT NULL,
    birthday DATE NOT NULL,
    linked_account_id BIGINT REFERENCES accounts (id),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT students_student_id_key UNIQUE (student_id),
    CONSTRAINT students_linked_account_id_key UNIQUE (linked_account_id)
);
`

// migrate applies pending migrations, each in its own transaction
func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version INTEGER PRIMARY KEY,
    description TEXT NOT NULL,
    applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
)`)
	if err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, m := range migrations {
		err := s.withTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
			// serialise concurrent migrators on the same database
			if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(727361)`); err != nil {
				return err
			}
			var applied bool
			err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, m.Version).Scan(&applied)
			if err != nil || applied {
				return err
			}
			if _, err := tx.Exec(ctx, m.Up); err != nil {
				return err
			}
			_, err = tx.Exec(ctx, `INSERT INTO schema_migrations (version, description) VALUES ($1, $2)`, m.Version, m.Description)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %03d: %w", m.Version, err)
		}
	}
	return nil
}
