package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores each conversation as one jsonb document.
type Postgres struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (s *Postgres) Close() {
	s.pool.Close()
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS conversations (
		id         uuid PRIMARY KEY,
		user_id    text NOT NULL,
		doc        jsonb NOT NULL,
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS conversations_user_created_idx ON conversations (user_id, created_at)`,
}

// Migrate creates the schema if it does not exist.
func (s *Postgres) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Find returns the user's conversations ordered by creation.
func (s *Postgres) Find(ctx context.Context, userID string) ([]Document, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT doc FROM conversations
		WHERE user_id = $1
		ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// Get returns one conversation by id.
func (s *Postgres) Get(ctx context.Context, id string) (Document, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var doc []byte
	err = s.pool.QueryRow(ctx, `SELECT doc FROM conversations WHERE id = $1`, uid).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return doc, nil
}

func (s *Postgres) Insert(ctx context.Context, c Conversation) (string, error) {
	id := uuid.New()
	doc, err := newDocument(id.String(), c)
	if err != nil {
		return "", err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO conversations (id, user_id, doc, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now())`,
		id, c.UserID, string(doc), c.StartTime,
	)
	if err != nil {
		return "", fmt.Errorf("insert conversation: %w", err)
	}
	return id.String(), nil
}

// Update locks the row, applies u and writes it back in one transaction.
func (s *Postgres) Update(ctx context.Context, id string, u Update) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var doc []byte
	err = tx.QueryRow(ctx, `SELECT doc FROM conversations WHERE id = $1 FOR UPDATE`, uid).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock conversation: %w", err)
	}

	next, err := Apply(doc, u)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE conversations SET doc = $2, updated_at = now()
		WHERE id = $1`,
		uid, string(next),
	); err != nil {
		return fmt.Errorf("update conversation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
