package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/okian/typeboard/internal/adapters/repository"
	"github.com/okian/typeboard/internal/auth"
	"github.com/okian/typeboard/internal/domain/model"
	"github.com/okian/typeboard/pkg/logger"
	"github.com/okian/typeboard/pkg/metrics"
)

const minPasswordLen = 7

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Register creates an active account and signs a token for it.
func (s *Service) Register(ctx context.Context, username, email, password string) (AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	switch {
	case username == "" || email == "" || password == "":
		return s.authFailed(ctx, "register", fmt.Errorf("%w: username, email, and password are required", ErrInvalidRegistration))
	case !usernamePattern.MatchString(username):
		return s.authFailed(ctx, "register", fmt.Errorf("%w: username may only contain letters, numbers, and underscores", ErrInvalidRegistration))
	case len(password) < minPasswordLen:
		return s.authFailed(ctx, "register", fmt.Errorf("%w: password must be at least %d characters long", ErrInvalidRegistration, minPasswordLen))
	}

	taken, err := s.store.UserExists(ctx, username, email)
	if err != nil {
		return AuthResult{}, s.storeFailure(ctx, "register", err)
	}
	if taken {
		return s.authFailed(ctx, "register", ErrUserExists)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return AuthResult{}, err
	}

	u, err := s.store.CreateUser(ctx, model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    s.clock.Now().UTC(),
	})
	if errors.Is(err, repository.ErrConflict) {
		return s.authFailed(ctx, "register", ErrUserExists)
	}
	if err != nil {
		return AuthResult{}, s.storeFailure(ctx, "register", err)
	}

	s.logger.Info(ctx, "user registered", logger.String("user_id", u.ID), logger.String("username", u.Username))
	return s.issue(ctx, "register", u)
}

// Login checks credentials and signs a token.
func (s *Service) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return s.authFailed(ctx, "login", fmt.Errorf("%w: email and password are required", ErrInvalidCredentials))
	}

	u, found, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return AuthResult{}, s.storeFailure(ctx, "login", err)
	}
	if !found {
		return s.authFailed(ctx, "login", ErrInvalidCredentials)
	}
	if !u.IsActive {
		return s.authFailed(ctx, "login", ErrAccountDisabled)
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return s.authFailed(ctx, "login", ErrInvalidCredentials)
	}
	return s.issue(ctx, "login", u)
}

// Authenticate verifies a bearer token.
func (s *Service) Authenticate(_ context.Context, token string) (auth.Identity, error) {
	return s.tokens.Verify(token)
}

func (s *Service) issue(ctx context.Context, kind string, u model.User) (AuthResult, error) {
	token, err := s.tokens.Generate(auth.Identity{UserID: u.ID, Email: u.Email, Username: u.Username})
	if err != nil {
		s.logger.Error(ctx, "token signing failed", logger.String("user_id", u.ID), logger.Error(err))
		return AuthResult{}, err
	}
	metrics.RecordAuthAttempt(kind, "ok")
	return AuthResult{User: userView(u), Token: token}, nil
}

func (s *Service) authFailed(ctx context.Context, kind string, err error) (AuthResult, error) {
	metrics.RecordAuthAttempt(kind, "rejected")
	s.logger.Debug(ctx, "auth rejected", logger.String("kind", kind), logger.Error(err))
	return AuthResult{}, err
}
