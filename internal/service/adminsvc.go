package service

import (
	"context"

	"tilakamserver/internal/domain"
)

type AdminUsersStore interface {
	ListUsers(ctx context.Context, limit, offset int) ([]domain.AdminUserRow, error)
	DeleteUser(ctx context.Context, id string) error
	DashboardStats(ctx context.Context) (domain.DashboardStats, error)
}

type AdminPostsStore interface {
	ListPosts(ctx context.Context, language domain.Language, postType domain.PostType, viewerID string) ([]domain.Post, error)
	DeletePostAny(ctx context.Context, postID string) error
}

type AdminCompetitionsStore interface {
	ListEntries(ctx context.Context) ([]domain.CompetitionEntry, error)
	DeleteEntry(ctx context.Context, id string) error
}

type AdminService struct {
	Users        AdminUsersStore
	Posts        AdminPostsStore
	Competitions AdminCompetitionsStore
}

func (s *AdminService) Stats(ctx context.Context) (domain.DashboardStats, error) {
	return s.Users.DashboardStats(ctx)
}

func (s *AdminService) ListUsers(ctx context.Context, limit, offset int) ([]domain.AdminUserRow, error) {
	return s.Users.ListUsers(ctx, limit, offset)
}

func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	return s.Users.DeleteUser(ctx, id)
}

func (s *AdminService) ListPosts(ctx context.Context, language domain.Language, postType domain.PostType) ([]domain.Post, error) {
	return s.Posts.ListPosts(ctx, language, postType, "")
}

// DeletePost runs the owner cascade without the ownership check, so
// moderation does not leave orphaned comments behind.
func (s *AdminService) DeletePost(ctx context.Context, postID string) error {
	return s.Posts.DeletePostAny(ctx, postID)
}

func (s *AdminService) ListCompetitionEntries(ctx context.Context) ([]domain.CompetitionEntry, error) {
	return s.Competitions.ListEntries(ctx)
}

func (s *AdminService) DeleteCompetitionEntry(ctx context.Context, id string) error {
	return s.Competitions.DeleteEntry(ctx, id)
}
