package httpapi

import (
	"net/http"
	"strconv"

	"tilakamserver/internal/domain"
)

type dashboardStatsResponse struct {
	Users        int `json:"users"`
	Poems        int `json:"poems"`
	Stories      int `json:"stories"`
	Essays       int `json:"essays"`
	VideoUploads int `json:"videoUploads"`
}

func (a *api) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.adminSvc.Stats(r.Context())
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, dashboardStatsResponse{
		Users:        stats.Users,
		Poems:        stats.Poems,
		Stories:      stats.Stories,
		Essays:       stats.Essays,
		VideoUploads: stats.VideoUploads,
	})
}

type adminUserResponse struct {
	userResponse
	PostCount int `json:"postCount"`
}

func (a *api) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	users, err := a.adminSvc.ListUsers(r.Context(), limit, offset)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	out := make([]adminUserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, adminUserResponse{
			userResponse: toUserResponse(u.User),
			PostCount:    u.PostCount,
		})
	}
	WriteJSON(w, http.StatusOK, out)
}

func (a *api) handleAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	requester, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}
	id := r.PathValue("id")
	if id == requester.ID {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"id": "cannot delete your own account"}))
		return
	}

	if err := a.adminSvc.DeleteUser(r.Context(), id); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleAdminListPosts(w http.ResponseWriter, r *http.Request) {
	lang, typ, err := postFilter(r)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	posts, err := a.adminSvc.ListPosts(r.Context(), lang, typ)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	out := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostResponse(p))
	}
	WriteJSON(w, http.StatusOK, out)
}

func (a *api) handleAdminDeletePost(w http.ResponseWriter, r *http.Request) {
	if err := a.adminSvc.DeletePost(r.Context(), r.PathValue("id")); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleAdminListCompetition(w http.ResponseWriter, r *http.Request) {
	entries, err := a.adminSvc.ListCompetitionEntries(r.Context())
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

func (a *api) handleAdminDeleteCompetition(w http.ResponseWriter, r *http.Request) {
	if err := a.adminSvc.DeleteCompetitionEntry(r.Context(), r.PathValue("id")); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
