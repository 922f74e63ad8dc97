package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"tilakamserver/internal/auth"
	"tilakamserver/internal/domain"
)

type stubUsersStore struct {
	t *testing.T

	createUserFunc           func(context.Context, string, string, string) (domain.User, error)
	createFederatedUserFunc  func(context.Context, string, string, string) (domain.User, error)
	getUserByIDFunc          func(context.Context, string) (domain.User, error)
	getUserByEmailFunc       func(context.Context, string) (domain.UserWithSecrets, error)
	getUserByFirebaseUIDFunc func(context.Context, string) (domain.User, error)
	linkFirebaseUIDFunc      func(context.Context, string, string) error
}

func (s *stubUsersStore) CreateUser(ctx context.Context, email, name, passwordHash string) (domain.User, error) {
	if s.createUserFunc != nil {
		return s.createUserFunc(ctx, email, name, passwordHash)
	}
	s.t.Fatalf("CreateUser called unexpectedly")
	return domain.User{}, errors.New("unexpected call")
}

func (s *stubUsersStore) CreateFederatedUser(ctx context.Context, email, name, firebaseUID string) (domain.User, error) {
	if s.createFederatedUserFunc != nil {
		return s.createFederatedUserFunc(ctx, email, name, firebaseUID)
	}
	s.t.Fatalf("CreateFederatedUser called unexpectedly")
	return domain.User{}, errors.New("unexpected call")
}

func (s *stubUsersStore) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	if s.getUserByIDFunc != nil {
		return s.getUserByIDFunc(ctx, id)
	}
	s.t.Fatalf("GetUserByID called unexpectedly")
	return domain.User{}, errors.New("unexpected call")
}

func (s *stubUsersStore) GetUserByEmail(ctx context.Context, email string) (domain.UserWithSecrets, error) {
	if s.getUserByEmailFunc != nil {
		return s.getUserByEmailFunc(ctx, email)
	}
	s.t.Fatalf("GetUserByEmail called unexpectedly")
	return domain.UserWithSecrets{}, errors.New("unexpected call")
}

func (s *stubUsersStore) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (domain.User, error) {
	if s.getUserByFirebaseUIDFunc != nil {
		return s.getUserByFirebaseUIDFunc(ctx, firebaseUID)
	}
	s.t.Fatalf("GetUserByFirebaseUID called unexpectedly")
	return domain.User{}, errors.New("unexpected call")
}

func (s *stubUsersStore) LinkFirebaseUID(ctx context.Context, userID, firebaseUID string) error {
	if s.linkFirebaseUIDFunc != nil {
		return s.linkFirebaseUIDFunc(ctx, userID, firebaseUID)
	}
	s.t.Fatalf("LinkFirebaseUID called unexpectedly")
	return errors.New("unexpected call")
}

func testCodec() auth.TokenCodec {
	return auth.NewTokenCodec([]byte("unit-test-secret"), time.Hour)
}

func TestAuthServiceRegisterNormalizesEmail(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	users := &stubUsersStore{
		t: t,
		createUserFunc: func(_ context.Context, email, name, passwordHash string) (domain.User, error) {
			if email != "rao@example.com" {
				t.Fatalf("unexpected email: %s", email)
			}
			if name != "Rao" {
				t.Fatalf("unexpected name: %s", name)
			}
			if passwordHash == "" || passwordHash == "sekret123" {
				t.Fatalf("password not hashed")
			}
			return domain.User{ID: "user-1", Email: email, Name: name}, nil
		},
	}

	svc := &AuthService{
		Users:  users,
		Tokens: testCodec(),
		Now:    func() time.Time { return now },
	}

	u, token, err := svc.Register(context.Background(), " Rao ", "  Rao@Example.COM ", "sekret123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != "user-1" {
		t.Fatalf("unexpected user: %+v", u)
	}

	claims, err := svc.Tokens.Verify(token)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	if claims.Subject != "user-1" || claims.Email != "rao@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAuthServiceRegisterEmailTaken(t *testing.T) {
	users := &stubUsersStore{
		t: t,
		createUserFunc: func(_ context.Context, _, _, _ string) (domain.User, error) {
			return domain.User{}, domain.ErrEmailTaken
		},
	}
	svc := &AuthService{Users: users, Tokens: testCodec()}

	_, _, err := svc.Register(context.Background(), "Rao", "rao@example.com", "sekret123")
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected email taken, got %v", err)
	}
}

func TestAuthServiceLogin(t *testing.T) {
	hash, err := auth.HashPassword("sekret123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	users := &stubUsersStore{
		t: t,
		getUserByEmailFunc: func(_ context.Context, email string) (domain.UserWithSecrets, error) {
			if email != "rao@example.com" {
				t.Fatalf("unexpected email lookup: %s", email)
			}
			return domain.UserWithSecrets{
				User:         domain.User{ID: "user-1", Email: email},
				PasswordHash: hash,
			}, nil
		},
	}
	svc := &AuthService{Users: users, Tokens: testCodec()}

	u, token, err := svc.Login(context.Background(), " Rao@Example.com ", "sekret123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != "user-1" || token == "" {
		t.Fatalf("unexpected login result: %+v %q", u, token)
	}

	_, _, err = svc.Login(context.Background(), "rao@example.com", "wrong password")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestAuthServiceLoginIndistinguishableFailures(t *testing.T) {
	cases := map[string]func(context.Context, string) (domain.UserWithSecrets, error){
		"unknown email": func(_ context.Context, _ string) (domain.UserWithSecrets, error) {
			return domain.UserWithSecrets{}, domain.ErrNotFound
		},
		"federated account without password": func(_ context.Context, email string) (domain.UserWithSecrets, error) {
			return domain.UserWithSecrets{
				User:        domain.User{ID: "user-2", Email: email},
				FirebaseUID: "firebase-uid",
			}, nil
		},
		"account with neither credential": func(_ context.Context, email string) (domain.UserWithSecrets, error) {
			return domain.UserWithSecrets{
				User: domain.User{ID: "user-6", Email: email},
			}, nil
		},
	}

	for name, lookup := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &AuthService{
				Users:  &stubUsersStore{t: t, getUserByEmailFunc: lookup},
				Tokens: testCodec(),
			}
			_, _, err := svc.Login(context.Background(), "rao@example.com", "sekret123")
			if !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Fatalf("expected invalid credentials, got %v", err)
			}
		})
	}
}

func firebaseVerifier(t *testing.T, subject, email string) func(context.Context, string, string) (*auth.ExternalTokenClaims, error) {
	return func(_ context.Context, token, projectID string) (*auth.ExternalTokenClaims, error) {
		if projectID != "tilakam-test" {
			t.Fatalf("unexpected project id: %s", projectID)
		}
		if token == "bad-token" {
			return nil, errors.New("bad token")
		}
		return &auth.ExternalTokenClaims{Subject: subject, Email: email}, nil
	}
}

func TestAuthServiceLoginWithFirebaseExistingAccount(t *testing.T) {
	users := &stubUsersStore{
		t: t,
		getUserByFirebaseUIDFunc: func(_ context.Context, uid string) (domain.User, error) {
			if uid != "fb-123" {
				t.Fatalf("unexpected uid lookup: %s", uid)
			}
			return domain.User{ID: "user-1", Email: "rao@example.com"}, nil
		},
	}
	svc := &AuthService{
		Users:                 users,
		Tokens:                testCodec(),
		FirebaseProjectID:     "tilakam-test",
		VerifyFirebaseIDToken: firebaseVerifier(t, "fb-123", "rao@example.com"),
	}

	u, token, err := svc.LoginWithFirebase(context.Background(), "token-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != "user-1" || token == "" {
		t.Fatalf("unexpected result: %+v %q", u, token)
	}
}

func TestAuthServiceLoginWithFirebaseLinksByEmail(t *testing.T) {
	linked := false
	users := &stubUsersStore{
		t: t,
		getUserByFirebaseUIDFunc: func(_ context.Context, _ string) (domain.User, error) {
			return domain.User{}, domain.ErrNotFound
		},
		getUserByEmailFunc: func(_ context.Context, email string) (domain.UserWithSecrets, error) {
			if email != "rao@example.com" {
				t.Fatalf("unexpected email lookup: %s", email)
			}
			return domain.UserWithSecrets{
				User:         domain.User{ID: "user-3", Email: email},
				PasswordHash: "some-hash",
			}, nil
		},
		linkFirebaseUIDFunc: func(_ context.Context, userID, uid string) error {
			if userID != "user-3" || uid != "fb-456" {
				t.Fatalf("unexpected link args: %s %s", userID, uid)
			}
			linked = true
			return nil
		},
	}
	svc := &AuthService{
		Users:                 users,
		Tokens:                testCodec(),
		FirebaseProjectID:     "tilakam-test",
		VerifyFirebaseIDToken: firebaseVerifier(t, "fb-456", "rao@example.com"),
	}

	u, _, err := svc.LoginWithFirebase(context.Background(), "token-456")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != "user-3" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if !linked {
		t.Fatal("expected account to be linked")
	}
}

func TestAuthServiceLoginWithFirebaseCreatesUser(t *testing.T) {
	users := &stubUsersStore{
		t: t,
		getUserByFirebaseUIDFunc: func(_ context.Context, _ string) (domain.User, error) {
			return domain.User{}, domain.ErrNotFound
		},
		getUserByEmailFunc: func(_ context.Context, _ string) (domain.UserWithSecrets, error) {
			return domain.UserWithSecrets{}, domain.ErrNotFound
		},
		createFederatedUserFunc: func(_ context.Context, email, name, uid string) (domain.User, error) {
			if email != "rao@example.com" || uid != "fb-789" {
				t.Fatalf("unexpected create args: %s %s", email, uid)
			}
			return domain.User{ID: "user-4", Email: email, Name: name}, nil
		},
	}
	svc := &AuthService{
		Users:                 users,
		Tokens:                testCodec(),
		FirebaseProjectID:     "tilakam-test",
		VerifyFirebaseIDToken: firebaseVerifier(t, "fb-789", "rao@example.com"),
	}

	u, _, err := svc.LoginWithFirebase(context.Background(), "token-789")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != "user-4" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestAuthServiceLoginWithFirebaseCreateRaceFallsBackToLookup(t *testing.T) {
	uidLookups := 0
	users := &stubUsersStore{
		t: t,
		getUserByFirebaseUIDFunc: func(_ context.Context, _ string) (domain.User, error) {
			uidLookups++
			if uidLookups == 1 {
				return domain.User{}, domain.ErrNotFound
			}
			return domain.User{ID: "user-5"}, nil
		},
		getUserByEmailFunc: func(_ context.Context, _ string) (domain.UserWithSecrets, error) {
			return domain.UserWithSecrets{}, domain.ErrNotFound
		},
		createFederatedUserFunc: func(_ context.Context, _, _, _ string) (domain.User, error) {
			return domain.User{}, domain.ErrAccountTaken
		},
	}
	svc := &AuthService{
		Users:                 users,
		Tokens:                testCodec(),
		FirebaseProjectID:     "tilakam-test",
		VerifyFirebaseIDToken: firebaseVerifier(t, "fb-race", "rao@example.com"),
	}

	u, _, err := svc.LoginWithFirebase(context.Background(), "token-race")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != "user-5" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if uidLookups != 2 {
		t.Fatalf("expected fallback lookup, got %d lookups", uidLookups)
	}
}

func TestAuthServiceLoginWithFirebaseInvalidToken(t *testing.T) {
	svc := &AuthService{
		Users:                 &stubUsersStore{t: t},
		Tokens:                testCodec(),
		FirebaseProjectID:     "tilakam-test",
		VerifyFirebaseIDToken: firebaseVerifier(t, "fb-000", "rao@example.com"),
	}

	_, _, err := svc.LoginWithFirebase(context.Background(), "bad-token")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestAuthServiceFirebaseTokenWithoutEmail(t *testing.T) {
	svc := &AuthService{
		Users:                 &stubUsersStore{t: t},
		Tokens:                testCodec(),
		FirebaseProjectID:     "tilakam-test",
		VerifyFirebaseIDToken: firebaseVerifier(t, "fb-phone", ""),
	}

	t.Run("login", func(t *testing.T) {
		_, _, err := svc.LoginWithFirebase(context.Background(), "token-phone")
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("signup", func(t *testing.T) {
		_, _, err := svc.RegisterWithFirebase(context.Background(), "token-phone", "Rao")
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestAuthServiceRegisterWithFirebaseDuplicates(t *testing.T) {
	t.Run("uid already claimed", func(t *testing.T) {
		users := &stubUsersStore{
			t: t,
			getUserByFirebaseUIDFunc: func(_ context.Context, _ string) (domain.User, error) {
				return domain.User{ID: "user-1"}, nil
			},
		}
		svc := &AuthService{
			Users:                 users,
			Tokens:                testCodec(),
			FirebaseProjectID:     "tilakam-test",
			VerifyFirebaseIDToken: firebaseVerifier(t, "fb-dup", "rao@example.com"),
		}
		_, _, err := svc.RegisterWithFirebase(context.Background(), "token", "Rao")
		if !errors.Is(err, domain.ErrAccountTaken) {
			t.Fatalf("expected account taken, got %v", err)
		}
	})

	t.Run("email already claimed", func(t *testing.T) {
		users := &stubUsersStore{
			t: t,
			getUserByFirebaseUIDFunc: func(_ context.Context, _ string) (domain.User, error) {
				return domain.User{}, domain.ErrNotFound
			},
			getUserByEmailFunc: func(_ context.Context, _ string) (domain.UserWithSecrets, error) {
				return domain.UserWithSecrets{User: domain.User{ID: "user-2"}}, nil
			},
		}
		svc := &AuthService{
			Users:                 users,
			Tokens:                testCodec(),
			FirebaseProjectID:     "tilakam-test",
			VerifyFirebaseIDToken: firebaseVerifier(t, "fb-dup2", "rao@example.com"),
		}
		_, _, err := svc.RegisterWithFirebase(context.Background(), "token", "Rao")
		if !errors.Is(err, domain.ErrEmailTaken) {
			t.Fatalf("expected email taken, got %v", err)
		}
	})
}

func TestAuthServiceGetUserForToken(t *testing.T) {
	codec := testCodec()
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	token, err := codec.Issue("user-1", "rao@example.com", time.Now())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	t.Run("resolves live account", func(t *testing.T) {
		users := &stubUsersStore{
			t: t,
			getUserByIDFunc: func(_ context.Context, id string) (domain.User, error) {
				if id != "user-1" {
					t.Fatalf("unexpected id lookup: %s", id)
				}
				return domain.User{ID: id, Email: "rao@example.com"}, nil
			},
		}
		svc := &AuthService{Users: users, Tokens: codec, Now: func() time.Time { return now }}

		u, err := svc.GetUserForToken(context.Background(), token)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u.ID != "user-1" {
			t.Fatalf("unexpected user: %+v", u)
		}
	})

	t.Run("malformed token", func(t *testing.T) {
		svc := &AuthService{Users: &stubUsersStore{t: t}, Tokens: codec}
		_, err := svc.GetUserForToken(context.Background(), "not-a-token")
		if !errors.Is(err, domain.ErrInvalidCredential) {
			t.Fatalf("expected invalid credential, got %v", err)
		}
	})

	t.Run("deleted account", func(t *testing.T) {
		users := &stubUsersStore{
			t: t,
			getUserByIDFunc: func(_ context.Context, _ string) (domain.User, error) {
				return domain.User{}, domain.ErrNotFound
			},
		}
		svc := &AuthService{Users: users, Tokens: codec}
		_, err := svc.GetUserForToken(context.Background(), token)
		if !errors.Is(err, domain.ErrStaleCredential) {
			t.Fatalf("expected stale credential, got %v", err)
		}
	})
}
