package postgres

import (
	"context"
	"errors"
	"fmt"

	"tilakamserver/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CompetitionsStore struct {
	pool *pgxpool.Pool
}

func NewCompetitionsStore(pool *pgxpool.Pool) *CompetitionsStore {
	return &CompetitionsStore{pool: pool}
}

func (s *CompetitionsStore) CreateEntry(ctx context.Context, e domain.CompetitionEntry) (domain.CompetitionEntry, error) {
	const q = `
		INSERT INTO competition_entries (author_id, roll, title, content, language)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	var idUUID pgtype.UUID
	err := s.pool.QueryRow(ctx, q, e.AuthorID, e.Roll, e.Title, e.Content, e.Language).Scan(&idUUID, &e.CreatedAt)
	if err != nil {
		var pgerr *pgconn.PgError
		if errors.As(err, &pgerr) && pgerr.Code == "23505" {
			switch pgerr.ConstraintName {
			case "competition_entries_author_uq":
				return domain.CompetitionEntry{}, domain.ErrAlreadySubmitted
			case "competition_entries_roll_uq":
				return domain.CompetitionEntry{}, domain.ErrDuplicateEntry
			}
		}
		return domain.CompetitionEntry{}, fmt.Errorf("insert competition entry: %w", err)
	}
	e.ID = uuidOrEmpty(idUUID)
	return e, nil
}

func (s *CompetitionsStore) ListEntries(ctx context.Context) ([]domain.CompetitionEntry, error) {
	const q = `
		SELECT e.id, e.author_id, u.name, e.roll, e.title, e.content, e.language, e.created_at
		FROM competition_entries e
		JOIN users u ON u.id = e.author_id
		ORDER BY e.created_at DESC
	`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list competition entries: %w", err)
	}
	defer rows.Close()

	var out []domain.CompetitionEntry
	for rows.Next() {
		var (
			e          domain.CompetitionEntry
			idUUID     pgtype.UUID
			authorUUID pgtype.UUID
		)
		if err := rows.Scan(&idUUID, &authorUUID, &e.AuthorName, &e.Roll, &e.Title, &e.Content, &e.Language, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan competition entry: %w", err)
		}
		e.ID = uuidOrEmpty(idUUID)
		e.AuthorID = uuidOrEmpty(authorUUID)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list competition entries: %w", err)
	}
	return out, nil
}

func (s *CompetitionsStore) DeleteEntry(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM competition_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete competition entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
