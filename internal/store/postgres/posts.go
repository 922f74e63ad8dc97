package postgres

import (
	"context"
	"errors"
	"fmt"

	"tilakamserver/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostsStore struct {
	pool *pgxpool.Pool
}

func NewPostsStore(pool *pgxpool.Pool) *PostsStore {
	return &PostsStore{pool: pool}
}

// CreatePost inserts the post, appends it to the author's post list and
// merges its genres into the author's touched set, in one transaction.
func (s *PostsStore) CreatePost(ctx context.Context, p domain.Post) (domain.Post, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Post{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertPost = `
		INSERT INTO posts (author_id, title, description, content, language, type, genres)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	var idUUID pgtype.UUID
	if err := tx.QueryRow(ctx, insertPost,
		p.AuthorID, p.Title, p.Description, p.Content, p.Language, p.Type, p.Genres,
	).Scan(&idUUID, &p.CreatedAt); err != nil {
		return domain.Post{}, fmt.Errorf("insert post: %w", err)
	}
	p.ID = uuidOrEmpty(idUUID)

	const insertUserPost = `
		INSERT INTO user_posts (user_id, post_id)
		VALUES ($1, $2)
	`
	if _, err := tx.Exec(ctx, insertUserPost, p.AuthorID, p.ID); err != nil {
		return domain.Post{}, fmt.Errorf("insert user post: %w", err)
	}

	const mergeGenres = `
		UPDATE users
		SET genres_touched = ARRAY(
			SELECT DISTINCT g FROM unnest(genres_touched || $2::text[]) AS g ORDER BY g
		), updated_at = now()
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, mergeGenres, p.AuthorID, p.Genres); err != nil {
		return domain.Post{}, fmt.Errorf("merge genres: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Post{}, fmt.Errorf("commit tx: %w", err)
	}
	return p, nil
}

func (s *PostsStore) GetPost(ctx context.Context, postID, viewerID string) (domain.Post, error) {
	const q = `
		SELECT p.id, p.author_id, u.name, p.title, p.description, p.content,
		       p.language, p.type, p.genres, p.created_at,
		       (SELECT count(*) FROM post_likes pl WHERE pl.post_id = p.id),
		       EXISTS (SELECT 1 FROM post_likes pl WHERE pl.post_id = p.id AND pl.user_id = $2)
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.id = $1
	`

	var (
		p          domain.Post
		idUUID     pgtype.UUID
		authorUUID pgtype.UUID
		genres     pgtype.FlatArray[string]
	)
	err := s.pool.QueryRow(ctx, q, postID, nullIfEmpty(viewerID)).Scan(
		&idUUID,
		&authorUUID,
		&p.AuthorName,
		&p.Title,
		&p.Description,
		&p.Content,
		&p.Language,
		&p.Type,
		&genres,
		&p.CreatedAt,
		&p.LikeCount,
		&p.IsLiked,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Post{}, domain.ErrNotFound
		}
		return domain.Post{}, fmt.Errorf("get post: %w", err)
	}
	p.ID = uuidOrEmpty(idUUID)
	p.AuthorID = uuidOrEmpty(authorUUID)
	p.Genres = textArrayOrEmpty(genres)

	comments, err := s.listComments(ctx, p.ID)
	if err != nil {
		return domain.Post{}, err
	}
	p.Comments = comments
	return p, nil
}

func (s *PostsStore) ListPosts(ctx context.Context, language domain.Language, postType domain.PostType, viewerID string) ([]domain.Post, error) {
	const q = `
		SELECT p.id, p.author_id, u.name, p.title, p.description, p.content,
		       p.language, p.type, p.genres, p.created_at,
		       (SELECT count(*) FROM post_likes pl WHERE pl.post_id = p.id),
		       EXISTS (SELECT 1 FROM post_likes pl WHERE pl.post_id = p.id AND pl.user_id = $3)
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.language = $1 AND p.type = $2
		ORDER BY p.created_at DESC
	`

	rows, err := s.pool.Query(ctx, q, language, postType, nullIfEmpty(viewerID))
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		var (
			p          domain.Post
			idUUID     pgtype.UUID
			authorUUID pgtype.UUID
			genres     pgtype.FlatArray[string]
		)
		if err := rows.Scan(
			&idUUID,
			&authorUUID,
			&p.AuthorName,
			&p.Title,
			&p.Description,
			&p.Content,
			&p.Language,
			&p.Type,
			&genres,
			&p.CreatedAt,
			&p.LikeCount,
			&p.IsLiked,
		); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		p.ID = uuidOrEmpty(idUUID)
		p.AuthorID = uuidOrEmpty(authorUUID)
		p.Genres = textArrayOrEmpty(genres)
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// ListRecent is the public browse feed: newest summaries first.
func (s *PostsStore) ListRecent(ctx context.Context, language domain.Language, postType domain.PostType, limit int) ([]domain.PostSummary, error) {
	const q = `
		SELECT p.id, u.name, p.title, p.description, p.language, p.type, p.genres, p.created_at,
		       (SELECT count(*) FROM post_likes pl WHERE pl.post_id = p.id)
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.language = $1 AND p.type = $2
		ORDER BY p.created_at DESC
		LIMIT $3
	`

	rows, err := s.pool.Query(ctx, q, language, postType, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent posts: %w", err)
	}
	defer rows.Close()

	return scanPostSummaries(rows)
}

// ListByAuthor returns the author's post list via the back-reference
// table, not a scan of posts.
func (s *PostsStore) ListByAuthor(ctx context.Context, authorID string) ([]domain.PostSummary, error) {
	const q = `
		SELECT p.id, u.name, p.title, p.description, p.language, p.type, p.genres, p.created_at,
		       (SELECT count(*) FROM post_likes pl WHERE pl.post_id = p.id)
		FROM user_posts up
		JOIN posts p ON p.id = up.post_id
		JOIN users u ON u.id = p.author_id
		WHERE up.user_id = $1
		ORDER BY p.created_at DESC
	`

	rows, err := s.pool.Query(ctx, q, authorID)
	if err != nil {
		return nil, fmt.Errorf("list posts by author: %w", err)
	}
	defer rows.Close()

	return scanPostSummaries(rows)
}

func scanPostSummaries(rows pgx.Rows) ([]domain.PostSummary, error) {
	var out []domain.PostSummary
	for rows.Next() {
		var (
			p      domain.PostSummary
			idUUID pgtype.UUID
			genres pgtype.FlatArray[string]
		)
		if err := rows.Scan(
			&idUUID,
			&p.AuthorName,
			&p.Title,
			&p.Description,
			&p.Language,
			&p.Type,
			&genres,
			&p.CreatedAt,
			&p.LikeCount,
		); err != nil {
			return nil, fmt.Errorf("scan post summary: %w", err)
		}
		p.ID = uuidOrEmpty(idUUID)
		p.Genres = textArrayOrEmpty(genres)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan post summaries: %w", err)
	}
	return out, nil
}

// ToggleLike adds the viewer's like, or removes it if already present.
// Returns whether the post is now liked and the new like count.
func (s *PostsStore) ToggleLike(ctx context.Context, postID, userID string) (bool, int, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, postID).Scan(&exists); err != nil {
		return false, 0, fmt.Errorf("check post: %w", err)
	}
	if !exists {
		return false, 0, domain.ErrNotFound
	}

	const insert = `
		INSERT INTO post_likes (post_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT ON CONSTRAINT post_likes_pk DO NOTHING
	`
	tag, err := tx.Exec(ctx, insert, postID, userID)
	if err != nil {
		return false, 0, fmt.Errorf("insert like: %w", err)
	}

	liked := tag.RowsAffected() == 1
	if !liked {
		if _, err := tx.Exec(ctx, `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID); err != nil {
			return false, 0, fmt.Errorf("delete like: %w", err)
		}
	}

	var count int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM post_likes WHERE post_id = $1`, postID).Scan(&count); err != nil {
		return false, 0, fmt.Errorf("count likes: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, 0, fmt.Errorf("commit tx: %w", err)
	}
	return liked, count, nil
}

func (s *PostsStore) AddComment(ctx context.Context, postID, authorID, body string) (domain.Comment, error) {
	const q = `
		INSERT INTO comments (post_id, author_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	c := domain.Comment{PostID: postID, AuthorID: authorID, Body: body}
	var idUUID pgtype.UUID
	if err := s.pool.QueryRow(ctx, q, postID, authorID, body).Scan(&idUUID, &c.CreatedAt); err != nil {
		var pgerr *pgconn.PgError
		if errors.As(err, &pgerr) && pgerr.Code == "23503" {
			return domain.Comment{}, domain.ErrNotFound
		}
		return domain.Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	c.ID = uuidOrEmpty(idUUID)

	const nameQ = `SELECT name FROM users WHERE id = $1`
	if err := s.pool.QueryRow(ctx, nameQ, authorID).Scan(&c.AuthorName); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return domain.Comment{}, fmt.Errorf("comment author name: %w", err)
	}
	return c, nil
}

func (s *PostsStore) listComments(ctx context.Context, postID string) ([]domain.Comment, error) {
	const q = `
		SELECT c.id, c.post_id, c.author_id, u.name, c.body, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.post_id = $1
		ORDER BY c.created_at
	`

	rows, err := s.pool.Query(ctx, q, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var (
			c          domain.Comment
			idUUID     pgtype.UUID
			postUUID   pgtype.UUID
			authorUUID pgtype.UUID
		)
		if err := rows.Scan(&idUUID, &postUUID, &authorUUID, &c.AuthorName, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		c.ID = uuidOrEmpty(idUUID)
		c.PostID = uuidOrEmpty(postUUID)
		c.AuthorID = uuidOrEmpty(authorUUID)
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// DeletePostOwned removes a post on behalf of its author: the ownership
// check, comment deletion, post-list removal and post deletion either
// all happen or none do.
func (s *PostsStore) DeletePostOwned(ctx context.Context, postID, requesterID string) error {
	return s.deletePost(ctx, postID, requesterID)
}

// DeletePostAny runs the same cascade without the ownership check.
func (s *PostsStore) DeletePostAny(ctx context.Context, postID string) error {
	return s.deletePost(ctx, postID, "")
}

func (s *PostsStore) deletePost(ctx context.Context, postID, requesterID string) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var authorUUID pgtype.UUID
	err = tx.QueryRow(ctx, `SELECT author_id FROM posts WHERE id = $1 FOR UPDATE`, postID).Scan(&authorUUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("lock post: %w", err)
	}
	authorID := uuidOrEmpty(authorUUID)
	if requesterID != "" && authorID != requesterID {
		return domain.ErrForbidden
	}

	for _, q := range []string{
		`DELETE FROM comments WHERE post_id = $1`,
		`DELETE FROM post_likes WHERE post_id = $1`,
		`DELETE FROM user_posts WHERE post_id = $1`,
		`DELETE FROM posts WHERE id = $1`,
	} {
		if _, err := tx.Exec(ctx, q, postID); err != nil {
			return fmt.Errorf("delete post: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
