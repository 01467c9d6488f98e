package storage

import (
	"context"
	"errors"

	"github.com/hongminglow/contribution-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// UserStore captures persistence operations needed by the auth service.
// Every mutation is a single atomic statement against the backing store.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	// AppendContribution adds contribution to the end of the user's list.
	AppendContribution(ctx context.Context, username, contribution string) error
	ListContributions(ctx context.Context, username string) ([]string, error)
	// ReplacePasswordHash swaps the hash only while it still equals currentHash.
	// It returns ErrNotFound when no row matches both username and currentHash.
	ReplacePasswordHash(ctx context.Context, username, currentHash, newHash string) error
	SetPasswordHash(ctx context.Context, username, newHash string) error
	Ping(ctx context.Context) error
}
