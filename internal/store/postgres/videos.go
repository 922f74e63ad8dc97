package postgres

import (
	"context"
	"fmt"

	"tilakamserver/internal/domain"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type VideosStore struct {
	pool *pgxpool.Pool
}

func NewVideosStore(pool *pgxpool.Pool) *VideosStore {
	return &VideosStore{pool: pool}
}

func (s *VideosStore) CreateVideoUpload(ctx context.Context, v domain.VideoUpload) (domain.VideoUpload, error) {
	const q = `
		INSERT INTO video_uploads (author_id, title, url, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	var idUUID pgtype.UUID
	if err := s.pool.QueryRow(ctx, q, v.AuthorID, v.Title, v.URL, v.Description).Scan(&idUUID, &v.CreatedAt); err != nil {
		return domain.VideoUpload{}, fmt.Errorf("insert video upload: %w", err)
	}
	v.ID = uuidOrEmpty(idUUID)
	return v, nil
}

func (s *VideosStore) ListVideoUploads(ctx context.Context) ([]domain.VideoUpload, error) {
	const q = `
		SELECT v.id, v.author_id, u.name, v.title, v.url, v.description, v.created_at
		FROM video_uploads v
		JOIN users u ON u.id = v.author_id
		ORDER BY v.created_at DESC
	`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list video uploads: %w", err)
	}
	defer rows.Close()

	var out []domain.VideoUpload
	for rows.Next() {
		var (
			v          domain.VideoUpload
			idUUID     pgtype.UUID
			authorUUID pgtype.UUID
		)
		if err := rows.Scan(&idUUID, &authorUUID, &v.AuthorName, &v.Title, &v.URL, &v.Description, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan video upload: %w", err)
		}
		v.ID = uuidOrEmpty(idUUID)
		v.AuthorID = uuidOrEmpty(authorUUID)
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list video uploads: %w", err)
	}
	return out, nil
}
