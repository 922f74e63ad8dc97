package httpapi

import (
	"net/http"
	"time"

	"tilakamserver/internal/domain"
)

type videoUploadResponse struct {
	ID          string    `json:"id"`
	AuthorName  string    `json:"authorName"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toVideoUploadResponse(v domain.VideoUpload) videoUploadResponse {
	return videoUploadResponse{
		ID:          v.ID,
		AuthorName:  v.AuthorName,
		Title:       v.Title,
		URL:         v.URL,
		Description: v.Description,
		CreatedAt:   v.CreatedAt,
	}
}

type videoUploadRequest struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

func (a *api) handleVideoUpload(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req videoUploadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	v, err := a.gallerySvc.Submit(r.Context(), u, req.Title, req.URL, req.Description)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, toVideoUploadResponse(v))
}

func (a *api) handleVideoList(w http.ResponseWriter, r *http.Request) {
	videos, err := a.gallerySvc.List(r.Context())
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	out := make([]videoUploadResponse, 0, len(videos))
	for _, v := range videos {
		out = append(out, toVideoUploadResponse(v))
	}
	WriteJSON(w, http.StatusOK, out)
}
