package postgres

import (
	"context"
	"fmt"

	"tilakamserver/internal/domain"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AdminUsersStore struct {
	pool *pgxpool.Pool
}

func NewAdminUsersStore(pool *pgxpool.Pool) *AdminUsersStore {
	return &AdminUsersStore{pool: pool}
}

func (s *AdminUsersStore) ListUsers(ctx context.Context, limit, offset int) ([]domain.AdminUserRow, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	const q = `
		SELECT u.id, u.email, u.name, u.is_admin, u.is_visited, u.phone, u.country,
		       u.bio, u.genres_touched, u.created_at, u.updated_at,
		       (SELECT count(*) FROM user_posts up WHERE up.user_id = u.id)
		FROM users u
		ORDER BY u.created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := s.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []domain.AdminUserRow
	for rows.Next() {
		var (
			r      domain.AdminUserRow
			idUUID pgtype.UUID
			genres pgtype.FlatArray[string]
		)
		if err := rows.Scan(
			&idUUID,
			&r.Email,
			&r.Name,
			&r.IsAdmin,
			&r.IsVisited,
			&r.Phone,
			&r.Country,
			&r.Bio,
			&genres,
			&r.CreatedAt,
			&r.UpdatedAt,
			&r.PostCount,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		r.ID = uuidOrEmpty(idUUID)
		r.GenresTouched = textArrayOrEmpty(genres)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return out, nil
}

// DeleteUser removes the account; posts, comments, likes, uploads and
// competition entries follow through the cascading foreign keys.
func (s *AdminUsersStore) DeleteUser(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *AdminUsersStore) DashboardStats(ctx context.Context) (domain.DashboardStats, error) {
	const q = `
		SELECT
			(SELECT count(*) FROM users),
			(SELECT count(*) FROM posts WHERE type = 'poem'),
			(SELECT count(*) FROM posts WHERE type = 'story'),
			(SELECT count(*) FROM posts WHERE type = 'essay'),
			(SELECT count(*) FROM video_uploads)
	`

	var stats domain.DashboardStats
	err := s.pool.QueryRow(ctx, q).Scan(
		&stats.Users,
		&stats.Poems,
		&stats.Stories,
		&stats.Essays,
		&stats.VideoUploads,
	)
	if err != nil {
		return domain.DashboardStats{}, fmt.Errorf("dashboard stats: %w", err)
	}
	return stats, nil
}
