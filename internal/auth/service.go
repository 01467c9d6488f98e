package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/samber/oops"

	"github.com/hongminglow/contribution-be/internal/metrics"
	"github.com/hongminglow/contribution-be/internal/models"
	"github.com/hongminglow/contribution-be/internal/storage"
)

// MinPasswordLength is the minimum number of characters in a password.
const MinPasswordLength = 6

// Service orchestrates registration, login, token checks, contributions and
// password changes.
type Service struct {
	store   storage.UserStore
	hasher  PasswordHasher
	tokens  *TokenManager
	logger  *slog.Logger
	metrics metrics.Recorder
}

// Option customises a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.metrics = r
		}
	}
}

// NewService creates a Service. store, hasher and tokens are required.
func NewService(store storage.UserStore, hasher PasswordHasher, tokens *TokenManager, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, oops.Errorf("user store is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Errorf("token manager is required")
	}
	s := &Service{
		store:   store,
		hasher:  hasher,
		tokens:  tokens,
		logger:  slog.Default(),
		metrics: metrics.NewNoop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register creates a user with an empty contribution list.
//
// An existing username is reported as ErrConflict before the password is
// checked. The fast-path lookup is only an optimisation: a concurrent insert
// of the same username is rejected by the store's unique constraint and is
// also reported as ErrConflict.
func (s *Service) Register(ctx context.Context, username, password string) (err error) {
	defer s.record("register", &err)

	username = strings.TrimSpace(username)
	if username == "" {
		return invalidInput("USERNAME_REQUIRED", "Username is required")
	}
	if hasNUL(username) {
		return invalidInput("USERNAME_INVALID", "Username contains invalid characters")
	}

	if _, lookupErr := s.store.FindByUsername(ctx, username); lookupErr == nil {
		return conflict(username)
	} else if !errors.Is(lookupErr, storage.ErrNotFound) {
		return internal("find user", lookupErr)
	}

	if tooShort(password) {
		return invalidInput("PASSWORD_TOO_SHORT", "Password must be at least 6 characters long")
	}

	hash, err := s.hash(password, "Password")
	if err != nil {
		return err
	}

	if _, err := s.store.CreateUser(ctx, models.User{Username: username, PasswordHash: hash}); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return conflict(username)
		}
		return internal("create user", err)
	}
	return nil
}

// Login checks credentials and issues a bearer token.
func (s *Service) Login(ctx context.Context, username, password string) (token string, err error) {
	defer s.record("login", &err)

	username = strings.TrimSpace(username)
	if hasNUL(username) {
		return "", notFound(username)
	}
	user, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", notFound(username)
		}
		return "", internal("find user", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return "", internal("verify password", err)
	}
	if !ok {
		return "", oops.Code("INVALID_CREDENTIALS").
			With("username", username).
			Public("Invalid credentials").
			Wrap(ErrUnauthorized)
	}

	token, err = s.tokens.Generate(user.Username)
	if err != nil {
		return "", internal("generate token", err)
	}
	return token, nil
}

// VerifyToken validates a bearer token. A missing token yields
// ErrUnauthenticated; a bad, expired or foreign token yields ErrForbidden.
func (s *Service) VerifyToken(token string) (Claims, error) {
	if strings.TrimSpace(token) == "" {
		return Claims{}, oops.Code("TOKEN_MISSING").
			Public("Access token missing").
			Wrap(ErrUnauthenticated)
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return Claims{}, oops.Code("TOKEN_INVALID").
			With("reason", err.Error()).
			Public("Invalid or expired token").
			Wrap(ErrForbidden)
	}
	return claims, nil
}

// AddContribution appends contribution to the user's list.
func (s *Service) AddContribution(ctx context.Context, username, contribution string) (err error) {
	defer s.record("add_contribution", &err)

	if contribution == "" {
		return invalidInput("CONTRIBUTION_REQUIRED", "Contribution data is required")
	}
	if hasNUL(contribution) {
		return invalidInput("CONTRIBUTION_INVALID", "Contribution contains invalid characters")
	}
	if err := s.store.AppendContribution(ctx, username, contribution); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return notFound(username)
		}
		return internal("append contribution", err)
	}
	return nil
}

// ListContributions returns the user's contributions in insertion order.
func (s *Service) ListContributions(ctx context.Context, username string) (contributions []string, err error) {
	defer s.record("list_contributions", &err)

	contributions, err = s.store.ListContributions(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, notFound(username)
		}
		return nil, internal("list contributions", err)
	}
	if contributions == nil {
		contributions = []string{}
	}
	return contributions, nil
}

// UpdatePassword replaces the password after verifying the current one. The
// write is conditional on the hash that was verified, so a concurrent change
// makes this call fail with ErrUnauthorized instead of overwriting it.
func (s *Service) UpdatePassword(ctx context.Context, username, currentPassword, newPassword string) (err error) {
	defer s.record("update_password", &err)

	if tooShort(newPassword) {
		return invalidInput("PASSWORD_TOO_SHORT", "New password must be at least 6 characters long")
	}

	user, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return notFound(username)
		}
		return internal("find user", err)
	}

	ok, err := s.hasher.Verify(currentPassword, user.PasswordHash)
	if err != nil {
		return internal("verify password", err)
	}
	if !ok {
		return currentPasswordIncorrect(username)
	}

	hash, err := s.hash(newPassword, "New password")
	if err != nil {
		return err
	}

	if err := s.store.ReplacePasswordHash(ctx, username, user.PasswordHash, hash); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return currentPasswordIncorrect(username)
		}
		return internal("replace password hash", err)
	}
	return nil
}

// ResetPassword overwrites the password without proving knowledge of the
// current one. Anyone who knows a username can take over the account through
// this call; it exists for compatibility and every use is logged at WARN.
func (s *Service) ResetPassword(ctx context.Context, username, newPassword string) (err error) {
	defer s.record("reset_password", &err)

	if tooShort(newPassword) {
		return invalidInput("PASSWORD_TOO_SHORT", "New password must be at least 6 characters long")
	}

	username = strings.TrimSpace(username)
	if hasNUL(username) {
		return notFound(username)
	}
	if _, err := s.store.FindByUsername(ctx, username); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return notFound(username)
		}
		return internal("find user", err)
	}

	hash, err := s.hash(newPassword, "New password")
	if err != nil {
		return err
	}

	if err := s.store.SetPasswordHash(ctx, username, hash); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return notFound(username)
		}
		return internal("set password hash", err)
	}

	s.logger.WarnContext(ctx, "password reset without current password",
		slog.String("username", username),
	)
	return nil
}

func (s *Service) hash(password, field string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, ErrPasswordTooLong) {
			return "", invalidInput("PASSWORD_TOO_LONG", field+" must be at most 72 bytes long")
		}
		return "", internal("hash password", err)
	}
	return hash, nil
}

func (s *Service) record(operation string, err *error) {
	s.metrics.IncAuthEvent(operation, Kind(*err))
}

// hasNUL reports whether s contains U+0000, which Postgres TEXT cannot store.
func hasNUL(s string) bool {
	return strings.IndexByte(s, 0) >= 0
}

func tooShort(password string) bool {
	return utf8.RuneCountInString(password) < MinPasswordLength
}

func conflict(username string) error {
	return oops.Code("USER_EXISTS").
		With("username", username).
		Public("User already exists").
		Wrap(ErrConflict)
}

func currentPasswordIncorrect(username string) error {
	return oops.Code("CURRENT_PASSWORD_INCORRECT").
		With("username", username).
		Public("Current password is incorrect").
		Wrap(ErrUnauthorized)
}
