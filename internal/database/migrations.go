package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		email VARCHAR(255) NOT NULL,
		username VARCHAR(20) NOT NULL,
		password_hash VARCHAR(255),
		full_name VARCHAR(255) NOT NULL DEFAULT '',
		bio TEXT NOT NULL DEFAULT '',
		role VARCHAR(20) NOT NULL DEFAULT 'user',
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		email_verified BOOLEAN NOT NULL DEFAULT FALSE,
		auth_provider VARCHAR(20) NOT NULL DEFAULT 'local',
		profile_picture VARCHAR(1000),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		CONSTRAINT users_role_check CHECK (role IN ('user', 'moderator', 'admin')),
		CONSTRAINT users_status_check CHECK (status IN ('active', 'suspended', 'deactivated')),
		CONSTRAINT users_password_local_check CHECK ((auth_provider = 'local') = (password_hash IS NOT NULL)),
		CONSTRAINT users_email_verified_check CHECK (email_verified OR (role <> 'admin' AND auth_provider = 'local'))
	)`,

	// Uniqueness is enforced here, not in application code, so racing inserts lose with 23505.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_lower ON users (lower(email))`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_lower ON users (lower(username))`,
	`CREATE INDEX IF NOT EXISTS idx_users_role ON users(role)`,

	`CREATE TABLE IF NOT EXISTS federated_identities (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		provider VARCHAR(20) NOT NULL,
		subject VARCHAR(255) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(provider, subject)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_federated_identities_user_id ON federated_identities(user_id)`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token_hash VARCHAR(255) NOT NULL UNIQUE,
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user_id ON refresh_tokens(user_id)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
