package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/contribution-be/internal/models"
	"github.com/hongminglow/contribution-be/internal/storage"
)

var userColumns = []string{"id", "username", "password_hash", "contributions", "created_at", "updated_at"}

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(mock.Close)
	return New(mock), mock
}

func TestStore_CreateUser(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		errMsg    string
	}{
		{
			name: "inserts user",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(userColumns).
					AddRow(int64(7), "alice", "hash", []string{}, now, now)
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("alice", "hash").
					WillReturnRows(rows)
			},
		},
		{
			name: "unique violation maps to ErrAlreadyExists",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("alice", "hash").
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
			},
			wantErr: storage.ErrAlreadyExists,
		},
		{
			name: "other errors are wrapped",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("alice", "hash").
					WillReturnError(errors.New("connection refused"))
			},
			errMsg: "insert user: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			tt.setupMock(mock)

			got, err := store.CreateUser(context.Background(), models.User{Username: "alice", PasswordHash: "hash"})
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			default:
				require.NoError(t, err)
				assert.Equal(t, int64(7), got.ID)
				assert.Equal(t, "alice", got.Username)
				assert.Equal(t, []string{}, got.Contributions)
				assert.Equal(t, now, got.CreatedAt)
			}
			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestStore_FindByUsername(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("found", func(t *testing.T) {
		store, mock := newMockStore(t)
		rows := pgxmock.NewRows(userColumns).
			AddRow(int64(1), "alice", "hash", []string{"x", "y"}, now, now)
		mock.ExpectQuery(`SELECT id, username, password_hash, contributions`).
			WithArgs("alice").
			WillReturnRows(rows)

		got, err := store.FindByUsername(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, "hash", got.PasswordHash)
		assert.Equal(t, []string{"x", "y"}, got.Contributions)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`SELECT id, username, password_hash, contributions`).
			WithArgs("ghost").
			WillReturnRows(pgxmock.NewRows(userColumns))

		_, err := store.FindByUsername(context.Background(), "ghost")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_AppendContribution(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		errMsg    string
	}{
		{
			name: "appends",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE users\s+SET contributions = array_append`).
					WithArgs("alice", "x").
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
		},
		{
			name: "no row",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE users\s+SET contributions = array_append`).
					WithArgs("alice", "x").
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			},
			wantErr: storage.ErrNotFound,
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE users\s+SET contributions = array_append`).
					WithArgs("alice", "x").
					WillReturnError(errors.New("timeout"))
			},
			errMsg: "append contribution: timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			tt.setupMock(mock)

			err := store.AppendContribution(context.Background(), "alice", "x")
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			default:
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStore_ListContributions(t *testing.T) {
	t.Run("returns in order", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`SELECT contributions FROM users`).
			WithArgs("alice").
			WillReturnRows(pgxmock.NewRows([]string{"contributions"}).AddRow([]string{"x", "y"}))

		got, err := store.ListContributions(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y"}, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil array becomes empty slice", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`SELECT contributions FROM users`).
			WithArgs("alice").
			WillReturnRows(pgxmock.NewRows([]string{"contributions"}).AddRow([]string(nil)))

		got, err := store.ListContributions(context.Background(), "alice")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("missing user", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`SELECT contributions FROM users`).
			WithArgs("ghost").
			WillReturnRows(pgxmock.NewRows([]string{"contributions"}))

		_, err := store.ListContributions(context.Background(), "ghost")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestStore_ReplacePasswordHash(t *testing.T) {
	t.Run("swaps when current hash matches", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(`UPDATE users\s+SET password_hash = \$3`).
			WithArgs("alice", "old", "new").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, store.ReplacePasswordHash(context.Background(), "alice", "old", "new"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale hash", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(`UPDATE users\s+SET password_hash = \$3`).
			WithArgs("alice", "old", "new").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := store.ReplacePasswordHash(context.Background(), "alice", "old", "new")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestStore_SetPasswordHash(t *testing.T) {
	t.Run("updates", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(`UPDATE users\s+SET password_hash = \$2`).
			WithArgs("alice", "new").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, store.SetPasswordHash(context.Background(), "alice", "new"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing user", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(`UPDATE users\s+SET password_hash = \$2`).
			WithArgs("ghost", "new").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		assert.ErrorIs(t, store.SetPasswordHash(context.Background(), "ghost", "new"), storage.ErrNotFound)
	})
}

func TestStore_MigrateRequiresPool(t *testing.T) {
	store, _ := newMockStore(t)
	err := store.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection pool")
}
