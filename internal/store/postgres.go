package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database pool: %w", err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err = store.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id BIGSERIAL PRIMARY KEY,
        email TEXT UNIQUE NOT NULL,
        password_hash TEXT NOT NULL,
        plan TEXT NOT NULL DEFAULT 'free',
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    );

    CREATE TABLE IF NOT EXISTS leads (
        id TEXT PRIMARY KEY, -- UUID
        user_id BIGINT REFERENCES users (id),
        name TEXT NOT NULL,
        email TEXT NOT NULL,
        phone TEXT NOT NULL DEFAULT '',
        plan TEXT NOT NULL DEFAULT 'free',
        goal TEXT NOT NULL DEFAULT '',
        details TEXT NOT NULL DEFAULT '',
        source TEXT NOT NULL DEFAULT '',
        status TEXT NOT NULL DEFAULT 'new',
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    );
    `
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// User methods

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := s.pool.QueryRow(ctx,
		"SELECT id, email, password_hash, plan, created_at FROM users WHERE email = $1", email,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Plan, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (*User, error) {
	var user User
	err := s.pool.QueryRow(ctx,
		"SELECT id, email, password_hash, plan, created_at FROM users WHERE id = $1", id,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Plan, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, email, passwordHash, plan string) (*User, error) {
	var user User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, plan) VALUES ($1, $2, $3)
         RETURNING id, email, password_hash, plan, created_at`,
		email, passwordHash, plan,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Plan, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return &user, nil
}

func (s *PostgresStore) UpdateUserPlan(ctx context.Context, id int64, plan string) error {
	_, err := s.pool.Exec(ctx, "UPDATE users SET plan = $1 WHERE id = $2", plan, id)
	if err != nil {
		return fmt.Errorf("failed to update user plan: %w", err)
	}
	return nil
}

// Lead methods

func (s *PostgresStore) CreateLead(ctx context.Context, lead *Lead) error {
	lead.ID = uuid.NewString()
	now := time.Now()
	lead.CreatedAt = now
	lead.UpdatedAt = now
	if lead.Status == "" {
		lead.Status = "new"
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO leads (id, user_id, name, email, phone, plan, goal, details, source, status, created_at, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		lead.ID, lead.UserID, lead.Name, lead.Email, lead.Phone, lead.Plan,
		lead.Goal, lead.Details, lead.Source, lead.Status, lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert lead: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetLeadByID(ctx context.Context, id string) (*Lead, error) {
	var lead Lead
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, name, email, phone, plan, goal, details, source, status, created_at, updated_at
         FROM leads WHERE id = $1`, id,
	).Scan(&lead.ID, &lead.UserID, &lead.Name, &lead.Email, &lead.Phone, &lead.Plan,
		&lead.Goal, &lead.Details, &lead.Source, &lead.Status, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Lead not found
		}
		return nil, fmt.Errorf("failed to query lead: %w", err)
	}
	return &lead, nil
}

func (s *PostgresStore) MarkLeadConverted(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx,
		"UPDATE leads SET status = 'converted', updated_at = NOW() WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to mark lead converted: %w", err)
	}
	return nil
}
