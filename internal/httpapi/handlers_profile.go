package httpapi

import (
	"net/http"

	"tilakamserver/internal/domain"
)

type personalInfoRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Country string `json:"country"`
	Bio     string `json:"bio"`
}

func (a *api) handlePersonalInfo(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req personalInfoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	if err := a.profileSvc.SavePersonalInfo(r.Context(), u.ID, req.Name, req.Phone, req.Country, req.Bio); err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"message": "personal info saved"})
}

type profileResponse struct {
	User          userResponse          `json:"user"`
	Posts         []postSummaryResponse `json:"posts"`
	GenresTouched []string              `json:"genresTouched"`
}

func (a *api) handleAboutMe(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	profile, err := a.profileSvc.AboutMe(r.Context(), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	posts := make([]postSummaryResponse, 0, len(profile.Posts))
	for _, p := range profile.Posts {
		posts = append(posts, toPostSummaryResponse(p))
	}
	genres := profile.GenresTouched
	if genres == nil {
		genres = []string{}
	}
	WriteJSON(w, http.StatusOK, profileResponse{
		User:          toUserResponse(profile.User),
		Posts:         posts,
		GenresTouched: genres,
	})
}

type aboutMeUpdateRequest struct {
	Name string `json:"name"`
	Bio  string `json:"bio"`
}

func (a *api) handleAboutMeUpdate(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req aboutMeUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	if err := a.profileSvc.UpdateAboutMe(r.Context(), u.ID, req.Name, req.Bio); err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"message": "profile updated"})
}
