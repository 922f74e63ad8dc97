package service

import (
	"context"
	"strings"

	"tilakamserver/internal/domain"
)

type CompetitionsStore interface {
	CreateEntry(ctx context.Context, e domain.CompetitionEntry) (domain.CompetitionEntry, error)
	ListEntries(ctx context.Context) ([]domain.CompetitionEntry, error)
	DeleteEntry(ctx context.Context, id string) error
}

type CompetitionService struct {
	Entries CompetitionsStore
}

// Submit records a competition entry. One entry per author and one per
// roll number; the unique constraints arbitrate concurrent submissions.
func (s *CompetitionService) Submit(ctx context.Context, author domain.User, roll, title, content string, language domain.Language) (domain.CompetitionEntry, error) {
	roll = strings.TrimSpace(roll)
	title = strings.TrimSpace(title)

	fields := map[string]string{}
	if roll == "" {
		fields["roll"] = "is required"
	}
	if title == "" {
		fields["title"] = "is required"
	}
	if strings.TrimSpace(content) == "" {
		fields["content"] = "is required"
	}
	switch language {
	case domain.LanguageTelugu, domain.LanguageEnglish:
	default:
		fields["language"] = "must be te or en"
	}
	if len(fields) > 0 {
		return domain.CompetitionEntry{}, domain.NewValidationError(fields)
	}

	return s.Entries.CreateEntry(ctx, domain.CompetitionEntry{
		AuthorID:   author.ID,
		AuthorName: author.Name,
		Roll:       roll,
		Title:      title,
		Content:    content,
		Language:   language,
	})
}

func (s *CompetitionService) List(ctx context.Context) ([]domain.CompetitionEntry, error) {
	return s.Entries.ListEntries(ctx)
}
