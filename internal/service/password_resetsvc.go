package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"tilakamserver/internal/auth"
	"tilakamserver/internal/domain"
)

type ResetUsersStore interface {
	GetUserByEmail(ctx context.Context, email string) (domain.UserWithSecrets, error)
	SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, userID string) error
	GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (domain.User, error)
	SetPasswordAndClearReset(ctx context.Context, userID, passwordHash string) error
}

type Mailer interface {
	Send(toEmail, subject, htmlBody string) error
}

type PasswordResetService struct {
	Users    ResetUsersStore
	Mail     Mailer
	ResetURL func(rawToken string) string
	TokenTTL time.Duration
	Now      func() time.Time
}

// Request issues a reset token and mails its raw form. If the mail
// cannot be delivered the stored token is cleared again so the account
// is left exactly as it was.
func (s *PasswordResetService) Request(ctx context.Context, email string) error {
	if s.Users == nil || s.Mail == nil {
		return fmt.Errorf("reset service unavailable")
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	if s.TokenTTL == 0 {
		s.TokenTTL = 10 * time.Minute
	}

	u, err := s.Users.GetUserByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return err
	}
	switch u.AccountType() {
	case domain.AccountLocal, domain.AccountLinked:
		// has a password to reset
	case domain.AccountFederated, domain.AccountIncomplete:
		// Sign-in for this account happens through its identity
		// provider; there is no password to reset.
		return domain.ErrFederatedAccount
	}

	raw, tokenHash, err := newResetToken()
	if err != nil {
		return err
	}

	if err := s.Users.SetResetToken(ctx, u.ID, tokenHash, s.Now().Add(s.TokenTTL)); err != nil {
		return err
	}

	resetURL := raw
	if s.ResetURL != nil {
		resetURL = s.ResetURL(raw)
	}
	subject := "Your TeluguTilakam password reset"
	body := fmt.Sprintf(
		"<p>You requested a password reset.</p>"+
			"<p><a href=%q>Reset your password</a> within %d minutes.</p>"+
			"<p>If you did not request this, you can ignore this email.</p>",
		resetURL, int(s.TokenTTL.Minutes()),
	)
	if err := s.Mail.Send(u.Email, subject, body); err != nil {
		if clearErr := s.Users.ClearResetToken(ctx, u.ID); clearErr != nil {
			return fmt.Errorf("%w: %v (clear token: %v)", domain.ErrMailDelivery, err, clearErr)
		}
		return fmt.Errorf("%w: %v", domain.ErrMailDelivery, err)
	}
	return nil
}

// Consume exchanges a raw reset token for a new password. The stored
// hash is cleared in the same statement that sets the password, so a
// token can only ever be spent once.
func (s *PasswordResetService) Consume(ctx context.Context, rawToken, newPassword string) error {
	if s.Users == nil {
		return fmt.Errorf("reset service unavailable")
	}
	if s.Now == nil {
		s.Now = time.Now
	}

	u, err := s.Users.GetUserByResetToken(ctx, hashResetToken(rawToken), s.Now())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrResetTokenInvalid
		}
		return err
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.Users.SetPasswordAndClearReset(ctx, u.ID, hash)
}

func newResetToken() (string, string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("read token: %w", err)
	}
	raw := base64.RawURLEncoding.EncodeToString(buf)
	return raw, hashResetToken(raw), nil
}

func hashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
