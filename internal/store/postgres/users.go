package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tilakamserver/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersStore struct {
	pool *pgxpool.Pool
}

func NewUsersStore(pool *pgxpool.Pool) *UsersStore {
	return &UsersStore{pool: pool}
}

const userColumns = `id, email, name, is_admin, is_visited, phone, country, bio, genres_touched, created_at, updated_at`

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u      domain.User
		idUUID pgtype.UUID
		genres pgtype.FlatArray[string]
	)
	err := row.Scan(
		&idUUID,
		&u.Email,
		&u.Name,
		&u.IsAdmin,
		&u.IsVisited,
		&u.Phone,
		&u.Country,
		&u.Bio,
		&genres,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	u.ID = uuidOrEmpty(idUUID)
	u.GenresTouched = textArrayOrEmpty(genres)
	return u, nil
}

func (s *UsersStore) CreateUser(ctx context.Context, email, name, passwordHash string) (domain.User, error) {
	const q = `
		INSERT INTO users (email, name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	u, err := scanUser(s.pool.QueryRow(ctx, q, email, name, passwordHash))
	if err != nil {
		return domain.User{}, mapUserWriteError(err)
	}
	return u, nil
}

func (s *UsersStore) CreateFederatedUser(ctx context.Context, email, name, firebaseUID string) (domain.User, error) {
	const q = `
		INSERT INTO users (email, name, firebase_uid)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	u, err := scanUser(s.pool.QueryRow(ctx, q, email, name, firebaseUID))
	if err != nil {
		return domain.User{}, mapUserWriteError(err)
	}
	return u, nil
}

func (s *UsersStore) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

func (s *UsersStore) GetUserByEmail(ctx context.Context, email string) (domain.UserWithSecrets, error) {
	const q = `
		SELECT ` + userColumns + `, password_hash, firebase_uid
		FROM users
		WHERE lower(email) = lower($1)
		LIMIT 1
	`

	var (
		u        domain.UserWithSecrets
		idUUID   pgtype.UUID
		genres   pgtype.FlatArray[string]
		pwHash   pgtype.Text
		firebase pgtype.Text
	)
	err := s.pool.QueryRow(ctx, q, email).Scan(
		&idUUID,
		&u.Email,
		&u.Name,
		&u.IsAdmin,
		&u.IsVisited,
		&u.Phone,
		&u.Country,
		&u.Bio,
		&genres,
		&u.CreatedAt,
		&u.UpdatedAt,
		&pwHash,
		&firebase,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UserWithSecrets{}, domain.ErrNotFound
		}
		return domain.UserWithSecrets{}, fmt.Errorf("get user by email: %w", err)
	}

	u.ID = uuidOrEmpty(idUUID)
	u.GenresTouched = textArrayOrEmpty(genres)
	u.PasswordHash = textOrEmpty(pwHash)
	u.FirebaseUID = textOrEmpty(firebase)
	return u, nil
}

func (s *UsersStore) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE firebase_uid = $1 LIMIT 1`

	u, err := scanUser(s.pool.QueryRow(ctx, q, firebaseUID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user by firebase uid: %w", err)
	}
	return u, nil
}

func (s *UsersStore) LinkFirebaseUID(ctx context.Context, userID, firebaseUID string) error {
	const q = `
		UPDATE users
		SET firebase_uid = $2, updated_at = now()
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, q, userID, firebaseUID)
	if err != nil {
		return mapUserWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *UsersStore) SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	const q = `
		UPDATE users
		SET reset_token_hash = $2, reset_token_expires_at = $3, updated_at = now()
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, q, userID, tokenHash, expiresAt)
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *UsersStore) ClearResetToken(ctx context.Context, userID string) error {
	const q = `
		UPDATE users
		SET reset_token_hash = NULL, reset_token_expires_at = NULL, updated_at = now()
		WHERE id = $1
	`
	if _, err := s.pool.Exec(ctx, q, userID); err != nil {
		return fmt.Errorf("clear reset token: %w", err)
	}
	return nil
}

// GetUserByResetToken resolves an unexpired reset token hash. Expiry is
// enforced here so callers cannot accept a stale token by mistake.
func (s *UsersStore) GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (domain.User, error) {
	const q = `
		SELECT ` + userColumns + `
		FROM users
		WHERE reset_token_hash = $1 AND reset_token_expires_at > $2
		LIMIT 1
	`

	u, err := scanUser(s.pool.QueryRow(ctx, q, tokenHash, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user by reset token: %w", err)
	}
	return u, nil
}

func (s *UsersStore) SetPasswordAndClearReset(ctx context.Context, userID, passwordHash string) error {
	const q = `
		UPDATE users
		SET password_hash = $2,
		    reset_token_hash = NULL,
		    reset_token_expires_at = NULL,
		    updated_at = now()
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, q, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *UsersStore) UpdatePersonalInfo(ctx context.Context, userID, name, phone, country, bio string) error {
	const q = `
		UPDATE users
		SET name = $2, phone = $3, country = $4, bio = $5, is_visited = true, updated_at = now()
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, q, userID, name, phone, country, bio)
	if err != nil {
		return fmt.Errorf("update personal info: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *UsersStore) UpdateAboutMe(ctx context.Context, userID, name, bio string) error {
	const q = `
		UPDATE users
		SET name = $2, bio = $3, updated_at = now()
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, q, userID, name, bio)
	if err != nil {
		return fmt.Errorf("update about me: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// EnsureAdminUser creates or promotes the bootstrap admin account.
func (s *UsersStore) EnsureAdminUser(ctx context.Context, email, name, passwordHash string) (domain.User, error) {
	const q = `
		INSERT INTO users (email, name, password_hash, is_admin)
		VALUES ($1, $2, $3, true)
		ON CONFLICT (lower(email)) DO UPDATE
		SET is_admin = true, updated_at = now()
		RETURNING ` + userColumns

	u, err := scanUser(s.pool.QueryRow(ctx, q, email, name, passwordHash))
	if err != nil {
		return domain.User{}, fmt.Errorf("ensure admin user: %w", err)
	}
	return u, nil
}

func mapUserWriteError(err error) error {
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) && pgerr.Code == "23505" {
		switch pgerr.ConstraintName {
		case "users_email_uq":
			return domain.ErrEmailTaken
		case "users_firebase_uid_uq":
			return domain.ErrAccountTaken
		default:
			return fmt.Errorf("unique violation (%s): %w", pgerr.ConstraintName, err)
		}
	}
	return fmt.Errorf("write user: %w", err)
}

// helpers in scan.go
