package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"tilakamserver/internal/auth"
	"tilakamserver/internal/domain"
)

type stubResetUsersStore struct {
	t *testing.T

	getUserByEmailFunc           func(context.Context, string) (domain.UserWithSecrets, error)
	setResetTokenFunc            func(context.Context, string, string, time.Time) error
	clearResetTokenFunc          func(context.Context, string) error
	getUserByResetTokenFunc      func(context.Context, string, time.Time) (domain.User, error)
	setPasswordAndClearResetFunc func(context.Context, string, string) error
}

func (s *stubResetUsersStore) GetUserByEmail(ctx context.Context, email string) (domain.UserWithSecrets, error) {
	if s.getUserByEmailFunc != nil {
		return s.getUserByEmailFunc(ctx, email)
	}
	s.t.Fatalf("GetUserByEmail called unexpectedly")
	return domain.UserWithSecrets{}, errors.New("unexpected call")
}

func (s *stubResetUsersStore) SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	if s.setResetTokenFunc != nil {
		return s.setResetTokenFunc(ctx, userID, tokenHash, expiresAt)
	}
	s.t.Fatalf("SetResetToken called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubResetUsersStore) ClearResetToken(ctx context.Context, userID string) error {
	if s.clearResetTokenFunc != nil {
		return s.clearResetTokenFunc(ctx, userID)
	}
	s.t.Fatalf("ClearResetToken called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubResetUsersStore) GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (domain.User, error) {
	if s.getUserByResetTokenFunc != nil {
		return s.getUserByResetTokenFunc(ctx, tokenHash, now)
	}
	s.t.Fatalf("GetUserByResetToken called unexpectedly")
	return domain.User{}, errors.New("unexpected call")
}

func (s *stubResetUsersStore) SetPasswordAndClearReset(ctx context.Context, userID, passwordHash string) error {
	if s.setPasswordAndClearResetFunc != nil {
		return s.setPasswordAndClearResetFunc(ctx, userID, passwordHash)
	}
	s.t.Fatalf("SetPasswordAndClearReset called unexpectedly")
	return errors.New("unexpected call")
}

type stubMailer struct {
	sendFunc func(toEmail, subject, htmlBody string) error
}

func (m *stubMailer) Send(toEmail, subject, htmlBody string) error {
	if m.sendFunc != nil {
		return m.sendFunc(toEmail, subject, htmlBody)
	}
	return nil
}

func localUser(id, email string) domain.UserWithSecrets {
	return domain.UserWithSecrets{
		User:         domain.User{ID: id, Email: email},
		PasswordHash: "existing-hash",
	}
}

func TestPasswordResetRequestStoresHashedToken(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	var storedHash string
	var mailedURL string
	users := &stubResetUsersStore{
		t: t,
		getUserByEmailFunc: func(_ context.Context, email string) (domain.UserWithSecrets, error) {
			if email != "rao@example.com" {
				t.Fatalf("unexpected email lookup: %s", email)
			}
			return localUser("user-1", email), nil
		},
		setResetTokenFunc: func(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
			if userID != "user-1" {
				t.Fatalf("unexpected user id: %s", userID)
			}
			if !expiresAt.Equal(now.Add(10 * time.Minute)) {
				t.Fatalf("unexpected expiry: %s", expiresAt)
			}
			storedHash = tokenHash
			return nil
		},
	}
	mail := &stubMailer{
		sendFunc: func(toEmail, subject, htmlBody string) error {
			if toEmail != "rao@example.com" {
				t.Fatalf("unexpected recipient: %s", toEmail)
			}
			start := strings.Index(htmlBody, "https://tilakam.example.org/reset-password/")
			if start < 0 {
				t.Fatalf("reset url missing from mail body: %s", htmlBody)
			}
			mailedURL = htmlBody[start:]
			mailedURL = mailedURL[:strings.IndexByte(mailedURL, '"')]
			return nil
		},
	}

	svc := &PasswordResetService{
		Users: users,
		Mail:  mail,
		ResetURL: func(raw string) string {
			return "https://tilakam.example.org/reset-password/" + raw
		},
		Now: func() time.Time { return now },
	}

	if err := svc.Request(context.Background(), " Rao@Example.com "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw := strings.TrimPrefix(mailedURL, "https://tilakam.example.org/reset-password/")
	if raw == "" || raw == storedHash {
		t.Fatalf("raw token must be mailed, hash must be stored (raw=%q hash=%q)", raw, storedHash)
	}
	if hashResetToken(raw) != storedHash {
		t.Fatalf("stored hash does not match mailed token")
	}
}

func TestPasswordResetRequestPasswordlessAccounts(t *testing.T) {
	cases := map[string]domain.UserWithSecrets{
		"federated account": {
			User:        domain.User{ID: "user-2", Email: "rao@example.com"},
			FirebaseUID: "fb-123",
		},
		"account with neither credential": {
			User: domain.User{ID: "user-3", Email: "rao@example.com"},
		},
	}

	for name, u := range cases {
		t.Run(name, func(t *testing.T) {
			users := &stubResetUsersStore{
				t: t,
				getUserByEmailFunc: func(_ context.Context, _ string) (domain.UserWithSecrets, error) {
					return u, nil
				},
			}
			svc := &PasswordResetService{Users: users, Mail: &stubMailer{}}

			err := svc.Request(context.Background(), "rao@example.com")
			if !errors.Is(err, domain.ErrFederatedAccount) {
				t.Fatalf("expected federated account error, got %v", err)
			}
		})
	}
}

func TestPasswordResetRequestRollsBackOnMailFailure(t *testing.T) {
	cleared := false
	users := &stubResetUsersStore{
		t: t,
		getUserByEmailFunc: func(_ context.Context, email string) (domain.UserWithSecrets, error) {
			return localUser("user-1", email), nil
		},
		setResetTokenFunc: func(_ context.Context, _, _ string, _ time.Time) error {
			return nil
		},
		clearResetTokenFunc: func(_ context.Context, userID string) error {
			if userID != "user-1" {
				t.Fatalf("unexpected user id: %s", userID)
			}
			cleared = true
			return nil
		},
	}
	mail := &stubMailer{
		sendFunc: func(_, _, _ string) error {
			return errors.New("smtp connection refused")
		},
	}
	svc := &PasswordResetService{Users: users, Mail: mail}

	err := svc.Request(context.Background(), "rao@example.com")
	if !errors.Is(err, domain.ErrMailDelivery) {
		t.Fatalf("expected mail delivery error, got %v", err)
	}
	if !cleared {
		t.Fatal("expected stored token to be cleared after mail failure")
	}
}

func TestPasswordResetConsume(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	var newHash string
	users := &stubResetUsersStore{
		t: t,
		getUserByResetTokenFunc: func(_ context.Context, tokenHash string, at time.Time) (domain.User, error) {
			if tokenHash != hashResetToken("raw-token") {
				t.Fatalf("lookup must use the token hash, got %q", tokenHash)
			}
			if !at.Equal(now) {
				t.Fatalf("unexpected lookup time: %s", at)
			}
			return domain.User{ID: "user-1"}, nil
		},
		setPasswordAndClearResetFunc: func(_ context.Context, userID, passwordHash string) error {
			if userID != "user-1" {
				t.Fatalf("unexpected user id: %s", userID)
			}
			newHash = passwordHash
			return nil
		},
	}
	svc := &PasswordResetService{Users: users, Now: func() time.Time { return now }}

	if err := svc.Consume(context.Background(), "raw-token", "new-password-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ok, err := auth.VerifyPassword(newHash, "new-password-1")
	if err != nil || !ok {
		t.Fatalf("stored hash does not verify new password (ok=%v err=%v)", ok, err)
	}
}

// fakeResetStore keeps one account's reset columns in memory so request
// and consume can be exercised as a sequence.
type fakeResetStore struct {
	user      domain.UserWithSecrets
	tokenHash string
	expiresAt time.Time
}

func (s *fakeResetStore) GetUserByEmail(_ context.Context, email string) (domain.UserWithSecrets, error) {
	if email != s.user.Email {
		return domain.UserWithSecrets{}, domain.ErrNotFound
	}
	return s.user, nil
}

func (s *fakeResetStore) SetResetToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	if userID != s.user.ID {
		return domain.ErrNotFound
	}
	s.tokenHash, s.expiresAt = tokenHash, expiresAt
	return nil
}

func (s *fakeResetStore) ClearResetToken(_ context.Context, userID string) error {
	if userID == s.user.ID {
		s.tokenHash, s.expiresAt = "", time.Time{}
	}
	return nil
}

func (s *fakeResetStore) GetUserByResetToken(_ context.Context, tokenHash string, now time.Time) (domain.User, error) {
	if s.tokenHash == "" || tokenHash != s.tokenHash || !s.expiresAt.After(now) {
		return domain.User{}, domain.ErrNotFound
	}
	return s.user.User, nil
}

func (s *fakeResetStore) SetPasswordAndClearReset(_ context.Context, userID, passwordHash string) error {
	if userID != s.user.ID {
		return domain.ErrNotFound
	}
	s.user.PasswordHash = passwordHash
	s.tokenHash, s.expiresAt = "", time.Time{}
	return nil
}

func TestPasswordResetTokenSingleUse(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	store := &fakeResetStore{user: localUser("user-1", "rao@example.com")}

	var raw string
	svc := &PasswordResetService{
		Users: store,
		Mail:  &stubMailer{},
		ResetURL: func(r string) string {
			raw = r
			return "https://tilakam.example.org/reset-password/" + r
		},
		Now: func() time.Time { return now },
	}

	if err := svc.Request(context.Background(), "rao@example.com"); err != nil {
		t.Fatalf("request: %v", err)
	}
	if raw == "" || store.tokenHash == "" {
		t.Fatal("expected a stored token after request")
	}

	if err := svc.Consume(context.Background(), raw, "new-password-1"); err != nil {
		t.Fatalf("first consume: %v", err)
	}
	ok, err := auth.VerifyPassword(store.user.PasswordHash, "new-password-1")
	if err != nil || !ok {
		t.Fatalf("new password not stored (ok=%v err=%v)", ok, err)
	}

	err = svc.Consume(context.Background(), raw, "another-password")
	if !errors.Is(err, domain.ErrResetTokenInvalid) {
		t.Fatalf("expected second consume to fail, got %v", err)
	}
	if ok, _ := auth.VerifyPassword(store.user.PasswordHash, "new-password-1"); !ok {
		t.Fatal("second consume must not change the password")
	}
}

func TestPasswordResetTokenExpires(t *testing.T) {
	clock := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	store := &fakeResetStore{user: localUser("user-1", "rao@example.com")}

	var raw string
	svc := &PasswordResetService{
		Users: store,
		Mail:  &stubMailer{},
		ResetURL: func(r string) string {
			raw = r
			return "https://tilakam.example.org/reset-password/" + r
		},
		Now: func() time.Time { return clock },
	}

	if err := svc.Request(context.Background(), "rao@example.com"); err != nil {
		t.Fatalf("request: %v", err)
	}

	clock = clock.Add(11 * time.Minute)
	err := svc.Consume(context.Background(), raw, "new-password-1")
	if !errors.Is(err, domain.ErrResetTokenInvalid) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
	if store.user.PasswordHash != "existing-hash" {
		t.Fatal("expired consume must not change the password")
	}
}

func TestPasswordResetConsumeInvalidToken(t *testing.T) {
	users := &stubResetUsersStore{
		t: t,
		getUserByResetTokenFunc: func(_ context.Context, _ string, _ time.Time) (domain.User, error) {
			return domain.User{}, domain.ErrNotFound
		},
	}
	svc := &PasswordResetService{Users: users}

	err := svc.Consume(context.Background(), "expired-or-bogus", "new-password-1")
	if !errors.Is(err, domain.ErrResetTokenInvalid) {
		t.Fatalf("expected reset token invalid, got %v", err)
	}
}
