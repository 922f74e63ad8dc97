package service

import (
	"context"
	"strings"

	"tilakamserver/internal/domain"
)

type ProfileUsersStore interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	UpdatePersonalInfo(ctx context.Context, userID, name, phone, country, bio string) error
	UpdateAboutMe(ctx context.Context, userID, name, bio string) error
}

type ProfilePostsStore interface {
	ListByAuthor(ctx context.Context, authorID string) ([]domain.PostSummary, error)
}

type ProfileService struct {
	Users ProfileUsersStore
	Posts ProfilePostsStore
}

// SavePersonalInfo records the first-visit details and marks the
// account as visited.
func (s *ProfileService) SavePersonalInfo(ctx context.Context, userID, name, phone, country, bio string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.NewValidationError(map[string]string{"name": "is required"})
	}
	if len(name) > 80 {
		return domain.NewValidationError(map[string]string{"name": "must be 80 characters or less"})
	}
	return s.Users.UpdatePersonalInfo(ctx, userID, name, strings.TrimSpace(phone), strings.TrimSpace(country), strings.TrimSpace(bio))
}

// AboutMe assembles the profile page: the account, its post list and
// the genres it has written in.
func (s *ProfileService) AboutMe(ctx context.Context, userID string) (domain.Profile, error) {
	u, err := s.Users.GetUserByID(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}
	posts, err := s.Posts.ListByAuthor(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}
	return domain.Profile{
		User:          u,
		Posts:         posts,
		GenresTouched: u.GenresTouched,
	}, nil
}

func (s *ProfileService) UpdateAboutMe(ctx context.Context, userID, name, bio string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.NewValidationError(map[string]string{"name": "is required"})
	}
	if len(name) > 80 {
		return domain.NewValidationError(map[string]string{"name": "must be 80 characters or less"})
	}
	return s.Users.UpdateAboutMe(ctx, userID, name, strings.TrimSpace(bio))
}
