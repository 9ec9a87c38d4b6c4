// Package services orchestrates the domain operations: account lifecycle,
// transaction CRUD with merge semantics, aggregation access and report
// export requests. Handlers hand in already-parsed values; services own
// validation and the calls into storage.
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Credentials is what a successful register or login returns: a fresh
// bearer token and the public user fields. The password hash never appears
// here.
type Credentials struct {
	Token string          `json:"token"`
	User  core.PublicUser `json:"user"`
}

type AuthService struct {
	repo       *storage.Repository
	secret     []byte
	tokenTTL   time.Duration
	bcryptCost int
}

func NewAuthService(repo *storage.Repository, secret []byte, tokenTTL time.Duration, bcryptCost int) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = auth.DefaultTokenTTL
	}
	return &AuthService{
		repo:       repo,
		secret:     secret,
		tokenTTL:   tokenTTL,
		bcryptCost: bcryptCost,
	}
}

// Register creates an account and signs the new user in. The first violated
// schema constraint is reported; a duplicate email is a ConflictError.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (Credentials, error) {
	if err := core.ValidateName(name); err != nil {
		return Credentials{}, err
	}
	if err := core.ValidateEmail(email); err != nil {
		return Credentials{}, err
	}
	if err := core.ValidatePassword(password); err != nil {
		return Credentials{}, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return Credentials{}, &core.StoreError{Op: "hash password", Err: err}
	}

	user, err := s.repo.CreateUser(ctx, name, email, hash)
	if err != nil {
		return Credentials{}, err
	}

	token, err := auth.GenerateToken(user.ID, s.secret, s.tokenTTL)
	if err != nil {
		return Credentials{}, &core.StoreError{Op: "issue token", Err: err}
	}

	return Credentials{Token: token, User: user.Public()}, nil
}

// Login verifies the credentials and issues a fresh token. Unknown email and
// wrong password produce the identical error so callers cannot tell which
// one failed.
func (s *AuthService) Login(ctx context.Context, email, password string) (Credentials, error) {
	invalid := &core.AuthError{Msg: "Invalid credentials"}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		var notFound *core.NotFoundError
		if errors.As(err, &notFound) {
			return Credentials{}, invalid
		}
		return Credentials{}, err
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return Credentials{}, invalid
	}

	token, err := auth.GenerateToken(user.ID, s.secret, s.tokenTTL)
	if err != nil {
		return Credentials{}, &core.StoreError{Op: "issue token", Err: err}
	}

	slog.InfoContext(ctx, "User logged in", "user_id", user.ID)
	return Credentials{Token: token, User: user.Public()}, nil
}

// ChangePassword replaces the stored hash after checking the current
// password. Tokens issued before the change keep working; there is no
// revocation epoch (known gap).
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		var notFound *core.NotFoundError
		if errors.As(err, &notFound) {
			// Only reachable with a token for a row that no longer exists.
			return &core.AuthError{Msg: "User not found"}
		}
		return err
	}

	if !auth.CheckPassword(currentPassword, user.PasswordHash) {
		return &core.ValidationError{Msg: "Current password is incorrect"}
	}
	if err := core.ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return &core.StoreError{Op: "hash password", Err: err}
	}

	if err := s.repo.UpdateUserPassword(ctx, userID, hash); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Password changed", "user_id", userID)
	return nil
}

// ValidateToken checks a bearer token and returns the embedded user id.
// Used as the precondition gate for every transaction operation.
func (s *AuthService) ValidateToken(token string) (int64, error) {
	return auth.ParseToken(token, s.secret)
}
