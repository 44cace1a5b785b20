// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/eventdesk/internal/auth"
	"github.com/olegiv/eventdesk/internal/mail"
	"github.com/olegiv/eventdesk/internal/model"
	"github.com/olegiv/eventdesk/internal/testutil"
	"github.com/olegiv/eventdesk/internal/validation"
)

const testSecret = "test-Secret-key-32-bytes-long!!!"

// recordingMailer keeps every message it is asked to send.
type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

// lastToken extracts the token from the last reset mail.
func (m *recordingMailer) lastToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	body := m.sent[len(m.sent)-1].Body
	i := strings.Index(body, "/reset-password/")
	require.GreaterOrEqual(t, i, 0)
	return strings.Fields(body[i+len("/reset-password/"):])[0]
}

func newAccountService(t *testing.T) (*AccountService, *recordingMailer) {
	t.Helper()
	db := testutil.TestMemoryDB(t)
	mailer := &recordingMailer{}
	return NewAccountService(db, auth.NewResetTokens(testSecret, time.Hour), mailer, "http://localhost:8080/"), mailer
}

func validSignup() validation.SignupInput {
	return validation.SignupInput{
		Name:               "Alice Example",
		Email:              "Alice@Example.com",
		RegistrationNumber: "std001",
		Semester:           "1",
		Year:               "2",
		Password:           "password1",
		ConfirmPassword:    "password1",
	}
}

func TestSignup(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()

	user, err := svc.Signup(ctx, validSignup())
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.Equal(t, "STD001", user.RegistrationNumber.String)
	assert.Equal(t, int64(1), user.Semester.Int64)
	assert.Equal(t, int64(2), user.Year.Int64)
	assert.NotContains(t, user.PasswordHash, "password1")

	t.Run("duplicate email", func(t *testing.T) {
		in := validSignup()
		in.RegistrationNumber = "STD002"
		_, err := svc.Signup(ctx, in)
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("duplicate registration number", func(t *testing.T) {
		in := validSignup()
		in.Email = "bob@example.com"
		_, err := svc.Signup(ctx, in)
		assert.ErrorIs(t, err, ErrRegNumberTaken)
	})

	t.Run("validation", func(t *testing.T) {
		in := validSignup()
		in.Email = "bob@example"
		in.ConfirmPassword = "nope"
		_, err := svc.Signup(ctx, in)

		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, []string{validation.MsgEmailFormat, validation.MsgPasswordMismatch}, verr.Messages)
	})

	t.Run("optional academic fields", func(t *testing.T) {
		in := validSignup()
		in.Email = "carol@example.com"
		in.RegistrationNumber, in.Semester, in.Year = "", "", ""
		u, err := svc.Signup(ctx, in)
		require.NoError(t, err)
		assert.False(t, u.RegistrationNumber.Valid)
		assert.False(t, u.Semester.Valid)
	})
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, validSignup())
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, " ALICE@example.com ", "password1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)

	stored, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.LastLoginAt.Valid, "last login should be recorded")

	_, err = svc.Authenticate(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "unknown users get the same error")
}

func TestPasswordReset(t *testing.T) {
	svc, mailer := newAccountService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, validSignup())
	require.NoError(t, err)

	require.NoError(t, svc.RequestReset(ctx, "alice@example.com"))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "alice@example.com", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].Body, "http://localhost:8080/reset-password/")

	token := mailer.lastToken(t)

	email, err := svc.CheckResetToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email)

	t.Run("mismatched confirmation", func(t *testing.T) {
		_, err := svc.ResetPassword(ctx, token, "new-password", "other-password")
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
	})

	_, err = svc.ResetPassword(ctx, token, "new-password", "new-password")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "alice@example.com", "new-password")
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, "alice@example.com", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.ResetPassword(ctx, token, "another-password", "another-password")
	assert.ErrorIs(t, err, ErrResetTokenUsed)
	assert.Equal(t, []string{MsgResetTokenUsed}, Messages(err))

	_, err = svc.CheckResetToken(ctx, token)
	assert.ErrorIs(t, err, ErrResetTokenUsed, "a spent link is refused before the form is shown")
}

func TestRequestReset_NoEnumeration(t *testing.T) {
	svc, mailer := newAccountService(t)
	ctx := context.Background()

	assert.NoError(t, svc.RequestReset(ctx, "nobody@example.com"))
	assert.NoError(t, svc.RequestReset(ctx, "not an email"))
	assert.Empty(t, mailer.sent)
}

func TestRequestReset_MailFailure(t *testing.T) {
	svc, mailer := newAccountService(t)
	ctx := context.Background()
	_, err := svc.Signup(ctx, validSignup())
	require.NoError(t, err)

	mailer.err = errors.New("relay down")
	assert.Error(t, svc.RequestReset(ctx, "alice@example.com"))
}

func TestResetPassword_InvalidToken(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()

	_, err := svc.ResetPassword(ctx, "garbage", "new-password", "new-password")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)

	_, err = svc.CheckResetToken(ctx, "garbage")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)

	// A valid token for an address without an account.
	token, err := svc.tokens.Issue("ghost@example.com")
	require.NoError(t, err)
	_, err = svc.ResetPassword(ctx, token, "new-password", "new-password")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestListUsers(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, validSignup())
	require.NoError(t, err)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Alice Example", users[0].Name)
}
