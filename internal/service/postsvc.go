package service

import (
	"context"
	"strings"

	"tilakamserver/internal/domain"
)

type PostsStore interface {
	CreatePost(ctx context.Context, p domain.Post) (domain.Post, error)
	GetPost(ctx context.Context, postID, viewerID string) (domain.Post, error)
	ListPosts(ctx context.Context, language domain.Language, postType domain.PostType, viewerID string) ([]domain.Post, error)
	ListRecent(ctx context.Context, language domain.Language, postType domain.PostType, limit int) ([]domain.PostSummary, error)
	ListByAuthor(ctx context.Context, authorID string) ([]domain.PostSummary, error)
	ToggleLike(ctx context.Context, postID, userID string) (bool, int, error)
	AddComment(ctx context.Context, postID, authorID, body string) (domain.Comment, error)
	DeletePostOwned(ctx context.Context, postID, requesterID string) error
	DeletePostAny(ctx context.Context, postID string) error
}

type PostService struct {
	Posts PostsStore
}

const browseLimit = 20

func (s *PostService) Create(ctx context.Context, author domain.User, p domain.Post) (domain.Post, error) {
	p.AuthorID = author.ID
	p.AuthorName = author.Name
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)

	genres := make([]string, 0, len(p.Genres))
	for _, g := range p.Genres {
		g = strings.TrimSpace(strings.ToLower(g))
		if g != "" {
			genres = append(genres, g)
		}
	}
	p.Genres = genres

	return s.Posts.CreatePost(ctx, p)
}

func (s *PostService) Get(ctx context.Context, postID, viewerID string) (domain.Post, error) {
	return s.Posts.GetPost(ctx, postID, viewerID)
}

func (s *PostService) List(ctx context.Context, language domain.Language, postType domain.PostType, viewerID string) ([]domain.Post, error) {
	return s.Posts.ListPosts(ctx, language, postType, viewerID)
}

func (s *PostService) Browse(ctx context.Context, language domain.Language, postType domain.PostType) ([]domain.PostSummary, error) {
	return s.Posts.ListRecent(ctx, language, postType, browseLimit)
}

func (s *PostService) ToggleLike(ctx context.Context, postID, userID string) (bool, int, error) {
	return s.Posts.ToggleLike(ctx, postID, userID)
}

func (s *PostService) Comment(ctx context.Context, postID, authorID, body string) (domain.Comment, error) {
	return s.Posts.AddComment(ctx, postID, authorID, strings.TrimSpace(body))
}

// Delete removes the requester's own post together with its comments
// and the back-reference on the author.
func (s *PostService) Delete(ctx context.Context, postID, requesterID string) error {
	return s.Posts.DeletePostOwned(ctx, postID, requesterID)
}
