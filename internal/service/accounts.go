// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/olegiv/eventdesk/internal/auth"
	"github.com/olegiv/eventdesk/internal/mail"
	"github.com/olegiv/eventdesk/internal/model"
	"github.com/olegiv/eventdesk/internal/store"
	"github.com/olegiv/eventdesk/internal/validation"
)

// AccountService handles signup, login and password resets.
type AccountService struct {
	db      *sql.DB
	queries *store.Queries
	tokens  *auth.ResetTokens
	mailer  mail.Mailer
	baseURL string
	now     func() time.Time

	// dummyHash is verified against when the email is unknown so both
	// failure paths cost the same.
	dummyOnce sync.Once
	dummyHash string
}

// NewAccountService creates an AccountService. baseURL is the public origin
// used to build reset links.
func NewAccountService(db *sql.DB, tokens *auth.ResetTokens, mailer mail.Mailer, baseURL string) *AccountService {
	return &AccountService{
		db:      db,
		queries: store.New(db),
		tokens:  tokens,
		mailer:  mailer,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// Signup creates a user account with the user role.
func (s *AccountService) Signup(ctx context.Context, in validation.SignupInput) (store.User, error) {
	in.Name = validation.Clean(in.Name)
	in.Email = validation.CleanEmail(in.Email)
	in.RegistrationNumber = strings.ToUpper(validation.Clean(in.RegistrationNumber))

	if err := invalid(validation.ValidateSignup(in)); err != nil {
		return store.User{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return store.User{}, fmt.Errorf("hashing password: %w", err)
	}

	params := store.CreateUserParams{
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		Role:         model.RoleUser,
		CreatedAt:    s.now().UTC(),
	}
	if in.RegistrationNumber != "" {
		params.RegistrationNumber = sql.NullString{String: in.RegistrationNumber, Valid: true}
	}
	if n, ok := validation.ParseOptionalInt(in.Semester); ok {
		params.Semester = sql.NullInt64{Int64: int64(n), Valid: true}
	}
	if n, ok := validation.ParseOptionalInt(in.Year); ok {
		params.Year = sql.NullInt64{Int64: int64(n), Valid: true}
	}

	user, err := s.queries.CreateUser(ctx, params)
	switch {
	case errors.Is(err, store.ErrDuplicateEmail):
		return store.User{}, ErrEmailTaken
	case errors.Is(err, store.ErrDuplicateRegistrationNumber):
		return store.User{}, ErrRegNumberTaken
	case err != nil:
		return store.User{}, err
	}

	slog.Info("user signed up", "user_id", user.ID)
	return user, nil
}

// Authenticate checks email and password. Unknown emails and wrong passwords
// both return ErrInvalidCredentials. Outdated hashes are upgraded in place.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (store.User, error) {
	email = validation.CleanEmail(email)

	user, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_, _ = auth.VerifyPassword(s.dummy(), password)
			return store.User{}, ErrInvalidCredentials
		}
		return store.User{}, err
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		slog.Error("stored password hash is malformed", "user_id", user.ID, "error", err)
		return store.User{}, ErrInvalidCredentials
	}
	if !ok {
		return store.User{}, ErrInvalidCredentials
	}

	now := s.now().UTC()
	if auth.NeedsRehash(user.PasswordHash) {
		if hash, err := auth.HashPassword(password); err == nil {
			if err := s.queries.UpdateUserPassword(ctx, user.ID, hash, now); err != nil {
				slog.Error("rehashing password", "user_id", user.ID, "error", err)
			}
		}
	}
	if err := s.queries.UpdateUserLastLogin(ctx, user.ID, now); err != nil {
		slog.Error("recording last login", "user_id", user.ID, "error", err)
	}

	return user, nil
}

func (s *AccountService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = auth.HashPassword("eventdesk-dummy-password")
	})
	return s.dummyHash
}

// RequestReset mails a reset link if email belongs to an account. It returns
// nil for unknown or malformed addresses so callers cannot probe for accounts.
func (s *AccountService) RequestReset(ctx context.Context, email string) error {
	email = validation.CleanEmail(email)
	if !validation.IsEmail(email) {
		return nil
	}

	user, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	token, err := s.tokens.Issue(user.Email)
	if err != nil {
		return err
	}

	link := s.baseURL + "/reset-password/" + token
	msg := mail.Message{
		To:      user.Email,
		Subject: "Reset your eventdesk password",
		Body: fmt.Sprintf("Hello %s,\n\nUse the link below to choose a new password. "+
			"It expires in %d minutes and works once.\n\n%s\n\n"+
			"If you did not ask for a reset you can ignore this message.\n",
			user.Name, int(s.tokens.MaxAge().Minutes()), link),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("sending reset mail: %w", err)
	}

	slog.Info("password reset requested", "user_id", user.ID)
	return nil
}

// CheckResetToken verifies a reset token without consuming it and returns
// the email it was issued for. A consumed token returns ErrResetTokenUsed.
func (s *AccountService) CheckResetToken(ctx context.Context, token string) (string, error) {
	claims, err := s.tokens.Verify(token, 0)
	if err != nil {
		return "", ErrResetTokenInvalid
	}

	used, err := s.queries.ResetTokenUsed(ctx, claims.ID)
	if err != nil {
		return "", err
	}
	if used {
		return "", ErrResetTokenUsed
	}
	return claims.Email(), nil
}

// ResetPassword sets a new password using a reset token. Each token works
// once; a second use returns ErrResetTokenUsed.
func (s *AccountService) ResetPassword(ctx context.Context, token, password, confirm string) (store.User, error) {
	claims, err := s.tokens.Verify(token, 0)
	if err != nil {
		return store.User{}, ErrResetTokenInvalid
	}

	if err := invalid(validation.ValidatePassword(password, confirm)); err != nil {
		return store.User{}, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return store.User{}, fmt.Errorf("hashing password: %w", err)
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.tokens.MaxAge())
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	var user store.User
	err = store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		user, err = q.GetUserByEmail(ctx, claims.Email())
		if err != nil {
			return err
		}
		if err := q.MarkResetTokenUsed(ctx, claims.ID, user.Email, expiresAt, now); err != nil {
			return err
		}
		return q.UpdateUserPassword(ctx, user.ID, hash, now)
	})
	switch {
	case errors.Is(err, store.ErrTokenUsed):
		return store.User{}, ErrResetTokenUsed
	case errors.Is(err, store.ErrNotFound):
		return store.User{}, ErrResetTokenInvalid
	case err != nil:
		return store.User{}, err
	}

	slog.Info("password reset completed", "user_id", user.ID)
	return user, nil
}

// GetUser returns the user with id.
func (s *AccountService) GetUser(ctx context.Context, id int64) (store.User, error) {
	return s.queries.GetUserByID(ctx, id)
}

// ListUsers returns every account.
func (s *AccountService) ListUsers(ctx context.Context) ([]store.User, error) {
	return s.queries.ListUsers(ctx)
}
