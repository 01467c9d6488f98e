package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"

	"github.com/hongminglow/contribution-be/internal/models"
	"github.com/hongminglow/contribution-be/internal/storage"
)

// Ensure Store satisfies the storage.UserStore interface at compile time.
var _ storage.UserStore = (*Store)(nil)

const (
	connectAttempts = 5
	connectBackoff  = 500 * time.Millisecond
)

// DBTX is the subset of pgxpool.Pool used by Store. pgxmock pools satisfy it too.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Store provides Postgres-backed persistence for users.
type Store struct {
	db   DBTX
	pool *pgxpool.Pool
}

// New wraps an existing connection. Migrate is unavailable on stores built this way.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// Open connects to databaseURL, retrying the initial ping with exponential backoff.
func Open(ctx context.Context, databaseURL string, logger *slog.Logger) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	backoff := retry.WithMaxRetries(connectAttempts, retry.NewExponential(connectBackoff))
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := pool.Ping(ctx); err != nil {
			logger.Warn("database ping failed",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: pool, pool: pool}, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// CreateUser inserts a new user row with an empty contributions array.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id, username, password_hash, contributions, created_at, updated_at`
	row := s.db.QueryRow(ctx, query, user.Username, user.PasswordHash)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

// FindByUsername fetches a user by username.
func (s *Store) FindByUsername(ctx context.Context, username string) (models.User, error) {
	const query = `
		SELECT id, username, password_hash, contributions, created_at, updated_at
		FROM users
		WHERE username = $1`
	return scanUser(s.db.QueryRow(ctx, query, username))
}

// AppendContribution pushes contribution onto the array in a single UPDATE.
func (s *Store) AppendContribution(ctx context.Context, username, contribution string) error {
	const query = `
		UPDATE users
		SET contributions = array_append(contributions, $2), updated_at = NOW()
		WHERE username = $1`
	tag, err := s.db.Exec(ctx, query, username, contribution)
	if err != nil {
		return fmt.Errorf("append contribution: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListContributions returns the user's contributions in insertion order.
func (s *Store) ListContributions(ctx context.Context, username string) ([]string, error) {
	const query = `SELECT contributions FROM users WHERE username = $1`
	var contributions []string
	if err := s.db.QueryRow(ctx, query, username).Scan(&contributions); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("list contributions: %w", err)
	}
	if contributions == nil {
		contributions = []string{}
	}
	return contributions, nil
}

// ReplacePasswordHash updates the hash only if it still equals currentHash.
func (s *Store) ReplacePasswordHash(ctx context.Context, username, currentHash, newHash string) error {
	const query = `
		UPDATE users
		SET password_hash = $3, updated_at = NOW()
		WHERE username = $1 AND password_hash = $2`
	tag, err := s.db.Exec(ctx, query, username, currentHash, newHash)
	if err != nil {
		return fmt.Errorf("replace password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// SetPasswordHash overwrites the hash unconditionally.
func (s *Store) SetPasswordHash(ctx context.Context, username, newHash string) error {
	const query = `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE username = $1`
	tag, err := s.db.Exec(ctx, query, username, newHash)
	if err != nil {
		return fmt.Errorf("set password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Contributions, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	if user.Contributions == nil {
		user.Contributions = []string{}
	}
	return user, nil
}
