package service

import (
	"context"
	"regexp"
	"strings"

	"tilakamserver/internal/domain"
)

type VideosStore interface {
	CreateVideoUpload(ctx context.Context, v domain.VideoUpload) (domain.VideoUpload, error)
	ListVideoUploads(ctx context.Context) ([]domain.VideoUpload, error)
}

type GalleryService struct {
	Videos VideosStore
}

var youtubeLinkRE = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com|youtu\.?be)/.+$`)

func (s *GalleryService) Submit(ctx context.Context, author domain.User, title, url, description string) (domain.VideoUpload, error) {
	title = strings.TrimSpace(title)
	url = strings.TrimSpace(url)

	fields := map[string]string{}
	if title == "" {
		fields["title"] = "is required"
	}
	switch {
	case url == "":
		fields["url"] = "is required"
	case !youtubeLinkRE.MatchString(url):
		fields["url"] = "must be a YouTube link"
	}
	if len(fields) > 0 {
		return domain.VideoUpload{}, domain.NewValidationError(fields)
	}

	return s.Videos.CreateVideoUpload(ctx, domain.VideoUpload{
		AuthorID:    author.ID,
		AuthorName:  author.Name,
		Title:       title,
		URL:         url,
		Description: strings.TrimSpace(description),
	})
}

func (s *GalleryService) List(ctx context.Context) ([]domain.VideoUpload, error) {
	return s.Videos.ListVideoUploads(ctx)
}
