package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"tilakamserver/internal/auth"
	"tilakamserver/internal/domain"
)

type UsersStore interface {
	CreateUser(ctx context.Context, email, name, passwordHash string) (domain.User, error)
	CreateFederatedUser(ctx context.Context, email, name, firebaseUID string) (domain.User, error)
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.UserWithSecrets, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (domain.User, error)
	LinkFirebaseUID(ctx context.Context, userID, firebaseUID string) error
}

type AuthService struct {
	Users             UsersStore
	Tokens            auth.TokenCodec
	FirebaseProjectID string

	// VerifyFirebaseIDToken is swappable so tests can avoid Google's
	// certificate endpoints.
	VerifyFirebaseIDToken func(ctx context.Context, tokenString, projectID string) (*auth.ExternalTokenClaims, error)

	Now func() time.Time
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (domain.User, string, error) {
	if s.Now == nil {
		s.Now = time.Now
	}

	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", err
	}

	u, err := s.Users.CreateUser(ctx, email, name, passwordHash)
	if err != nil {
		return domain.User{}, "", err
	}

	token, err := s.Tokens.Issue(u.ID, u.Email, s.Now())
	if err != nil {
		return domain.User{}, "", err
	}
	return u, token, nil
}

// Login authenticates a local account. Unknown emails, wrong passwords
// and password-less federated accounts are indistinguishable to the
// caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, string, error) {
	if s.Now == nil {
		s.Now = time.Now
	}

	email = strings.TrimSpace(strings.ToLower(email))

	u, err := s.Users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, "", domain.ErrInvalidCredentials
		}
		return domain.User{}, "", err
	}
	switch u.AccountType() {
	case domain.AccountLocal, domain.AccountLinked:
		// has a password to check
	case domain.AccountFederated, domain.AccountIncomplete:
		return domain.User{}, "", domain.ErrInvalidCredentials
	}

	ok, err := auth.VerifyPassword(u.PasswordHash, password)
	if err != nil {
		return domain.User{}, "", err
	}
	if !ok {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}

	token, err := s.Tokens.Issue(u.ID, u.Email, s.Now())
	if err != nil {
		return domain.User{}, "", err
	}
	return u.User, token, nil
}

// RegisterWithFirebase creates a fresh account from a verified Firebase
// ID token. Any existing claim on the uid or the email fails the signup.
func (s *AuthService) RegisterWithFirebase(ctx context.Context, idToken, name string) (domain.User, string, error) {
	if s.Now == nil {
		s.Now = time.Now
	}

	claims, err := s.verifyExternal(ctx, idToken)
	if err != nil {
		return domain.User{}, "", err
	}

	if _, err := s.Users.GetUserByFirebaseUID(ctx, claims.Subject); err == nil {
		return domain.User{}, "", domain.ErrAccountTaken
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, "", err
	}
	if _, err := s.Users.GetUserByEmail(ctx, claims.Email); err == nil {
		return domain.User{}, "", domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, "", err
	}

	u, err := s.Users.CreateFederatedUser(ctx, claims.Email, strings.TrimSpace(name), claims.Subject)
	if err != nil {
		return domain.User{}, "", err
	}

	token, err := s.Tokens.Issue(u.ID, u.Email, s.Now())
	if err != nil {
		return domain.User{}, "", err
	}
	return u, token, nil
}

// LoginWithFirebase reconciles a verified Firebase identity against the
// user table: match by uid first, then link by email, then create. A
// concurrent signup losing the unique-index race falls back to lookup.
func (s *AuthService) LoginWithFirebase(ctx context.Context, idToken string) (domain.User, string, error) {
	if s.Now == nil {
		s.Now = time.Now
	}

	claims, err := s.verifyExternal(ctx, idToken)
	if err != nil {
		return domain.User{}, "", err
	}

	u, err := s.reconcileFirebase(ctx, claims)
	if err != nil {
		return domain.User{}, "", err
	}

	token, err := s.Tokens.Issue(u.ID, u.Email, s.Now())
	if err != nil {
		return domain.User{}, "", err
	}
	return u, token, nil
}

func (s *AuthService) reconcileFirebase(ctx context.Context, claims *auth.ExternalTokenClaims) (domain.User, error) {
	u, err := s.Users.GetUserByFirebaseUID(ctx, claims.Subject)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, err
	}

	existing, err := s.Users.GetUserByEmail(ctx, claims.Email)
	switch {
	case err == nil:
		if err := s.Users.LinkFirebaseUID(ctx, existing.ID, claims.Subject); err != nil {
			if errors.Is(err, domain.ErrAccountTaken) {
				return s.Users.GetUserByFirebaseUID(ctx, claims.Subject)
			}
			return domain.User{}, err
		}
		return existing.User, nil
	case !errors.Is(err, domain.ErrNotFound):
		return domain.User{}, err
	}

	created, err := s.Users.CreateFederatedUser(ctx, claims.Email, "", claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrAccountTaken) || errors.Is(err, domain.ErrEmailTaken) {
			return s.Users.GetUserByFirebaseUID(ctx, claims.Subject)
		}
		return domain.User{}, err
	}
	return created, nil
}

func (s *AuthService) verifyExternal(ctx context.Context, idToken string) (*auth.ExternalTokenClaims, error) {
	verify := s.VerifyFirebaseIDToken
	if verify == nil {
		verify = auth.VerifyFirebaseIDToken
	}
	claims, err := verify(ctx, idToken, s.FirebaseProjectID)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	// Phone-auth tokens carry no email; an account cannot be keyed
	// without one.
	if claims.Email == "" {
		return nil, domain.NewValidationError(map[string]string{"idToken": "must carry an email claim"})
	}
	return claims, nil
}

// GetUserForToken resolves a session token to its live account. A token
// that verifies but points at a deleted account is reported distinctly.
func (s *AuthService) GetUserForToken(ctx context.Context, tokenString string) (domain.User, error) {
	claims, err := s.Tokens.Verify(tokenString)
	if err != nil {
		return domain.User{}, domain.ErrInvalidCredential
	}

	u, err := s.Users.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.ErrStaleCredential
		}
		return domain.User{}, err
	}
	return u, nil
}
