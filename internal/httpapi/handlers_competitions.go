package httpapi

import (
	"net/http"
	"time"

	"tilakamserver/internal/domain"
)

type competitionEntryResponse struct {
	ID         string          `json:"id"`
	AuthorName string          `json:"authorName"`
	Roll       string          `json:"roll"`
	Title      string          `json:"title"`
	Content    string          `json:"content"`
	Language   domain.Language `json:"language"`
	CreatedAt  time.Time       `json:"createdAt"`
}

func toCompetitionEntryResponse(e domain.CompetitionEntry) competitionEntryResponse {
	return competitionEntryResponse{
		ID:         e.ID,
		AuthorName: e.AuthorName,
		Roll:       e.Roll,
		Title:      e.Title,
		Content:    e.Content,
		Language:   e.Language,
		CreatedAt:  e.CreatedAt,
	}
}

type competitionUploadRequest struct {
	Roll     string `json:"roll"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Language string `json:"language"`
}

func (a *api) handleCompetitionUpload(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req competitionUploadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	e, err := a.competitionSvc.Submit(r.Context(), u, req.Roll, req.Title, req.Content, domain.Language(req.Language))
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, toCompetitionEntryResponse(e))
}

func (a *api) handleCompetitionFetch(w http.ResponseWriter, r *http.Request) {
	entries, err := a.competitionSvc.List(r.Context())
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	out := make([]competitionEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toCompetitionEntryResponse(e))
	}
	WriteJSON(w, http.StatusOK, out)
}
