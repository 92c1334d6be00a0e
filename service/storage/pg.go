package storage

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

var pool *pgxpool.Pool

// InitPG connects the shared pool and makes sure the schema exists.
func InitPG(ctx context.Context, databaseURL string) error {
	p, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "pgxpool new")
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return errors.Wrap(err, "pg ping")
	}
	pool = p
	return ensureSchema(ctx)
}

// PG returns the shared pool; InitPG must have run.
func PG() *pgxpool.Pool { return pool }

func ClosePG() {
	if pool != nil {
		pool.Close()
	}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id              BIGSERIAL PRIMARY KEY,
		email           VARCHAR(255) UNIQUE NOT NULL,
		username        VARCHAR(100) UNIQUE NOT NULL,
		full_name       VARCHAR(255),
		hashed_password VARCHAR(255),
		avatar_url      VARCHAR(500),
		is_active       BOOLEAN NOT NULL DEFAULT TRUE,
		credits         DOUBLE PRECISION NOT NULL DEFAULT 100.0,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_login      TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS chat_groups (
		id          BIGSERIAL PRIMARY KEY,
		name        VARCHAR(255) NOT NULL,
		description TEXT,
		avatar_url  VARCHAR(500),
		is_private  BOOLEAN NOT NULL DEFAULT FALSE,
		invite_code VARCHAR(50) UNIQUE,
		max_members INT NOT NULL DEFAULT 100,
		ai_enabled  BOOLEAN NOT NULL DEFAULT FALSE,
		ai_model    VARCHAR(50),
		creator_id  BIGINT NOT NULL REFERENCES users(id),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS group_members (
		user_id   BIGINT NOT NULL REFERENCES users(id),
		group_id  BIGINT NOT NULL REFERENCES chat_groups(id),
		joined_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		is_admin  BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (user_id, group_id)
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id            BIGSERIAL PRIMARY KEY,
		content       TEXT NOT NULL,
		message_type  VARCHAR(20) NOT NULL DEFAULT 'text',
		is_ai_message BOOLEAN NOT NULL DEFAULT FALSE,
		ai_model_used VARCHAR(50),
		credits_used  DOUBLE PRECISION,
		user_id       BIGINT NOT NULL REFERENCES users(id),
		group_id      BIGINT NOT NULL REFERENCES chat_groups(id),
		reply_to_id   BIGINT REFERENCES messages(id),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_group_created
		ON messages (group_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS group_invitations (
		id              BIGSERIAL PRIMARY KEY,
		email           VARCHAR(255) NOT NULL,
		invitation_code VARCHAR(100) UNIQUE NOT NULL,
		is_used         BOOLEAN NOT NULL DEFAULT FALSE,
		expires_at      TIMESTAMPTZ NOT NULL,
		group_id        BIGINT NOT NULL REFERENCES chat_groups(id),
		invited_by_id   BIGINT NOT NULL REFERENCES users(id),
		used_by_id      BIGINT REFERENCES users(id),
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		used_at         TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS credit_transactions (
		id               BIGSERIAL PRIMARY KEY,
		amount           DOUBLE PRECISION NOT NULL,
		transaction_type VARCHAR(20) NOT NULL,
		description      VARCHAR(500),
		ai_model         VARCHAR(50),
		message_id       BIGINT REFERENCES messages(id),
		payment_id       VARCHAR(100),
		payment_status   VARCHAR(20),
		user_id          BIGINT NOT NULL REFERENCES users(id),
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id         BIGSERIAL PRIMARY KEY,
		type       VARCHAR(50) NOT NULL,
		title      VARCHAR(255) NOT NULL,
		message    TEXT NOT NULL,
		data       TEXT,
		is_read    BOOLEAN NOT NULL DEFAULT FALSE,
		user_id    BIGINT NOT NULL REFERENCES users(id),
		related_id BIGINT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		read_at    TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user_created
		ON notifications (user_id, created_at DESC)`,
}

func ensureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return errors.Wrap(err, "ensure schema")
		}
	}
	return nil
}
