package httpapi

import (
	"net/http"
	"strings"
	"time"

	"tilakamserver/internal/domain"
)

// Field names follow the React frontend's existing expectations.
type userResponse struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	IsAdmin       bool      `json:"isAdmin"`
	IsVisited     bool      `json:"isVisited"`
	Phone         string    `json:"phone,omitempty"`
	Country       string    `json:"country,omitempty"`
	Bio           string    `json:"bio,omitempty"`
	GenresTouched []string  `json:"genresTouched"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toUserResponse(u domain.User) userResponse {
	genres := u.GenresTouched
	if genres == nil {
		genres = []string{}
	}
	return userResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		IsAdmin:       u.IsAdmin,
		IsVisited:     u.IsVisited,
		Phone:         u.Phone,
		Country:       u.Country,
		Bio:           u.Bio,
		GenresTouched: genres,
		CreatedAt:     u.CreatedAt,
	}
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func writeAuth(w http.ResponseWriter, status int, u domain.User, token string) {
	WriteJSON(w, status, authResponse{Token: token, User: toUserResponse(u)})
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *api) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	fields := map[string]string{}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if req.Name == "" {
		fields["name"] = "is required"
	}
	if !validEmail(req.Email) {
		fields["email"] = "must be a valid email address"
	}
	if !validPassword(req.Password) {
		fields["password"] = "must be 8-128 characters"
	}
	if len(fields) > 0 {
		WriteDomainError(w, domain.NewValidationError(fields))
		return
	}

	u, token, err := a.authSvc.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	writeAuth(w, http.StatusCreated, u, token)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *api) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"email": "required", "password": "required"}))
		return
	}

	now := time.Now()
	ip := clientIP(r)
	if !a.loginLimiter.Allow("ip:"+ip, now) || !a.loginLimiter.Allow("email:"+req.Email, now) {
		WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts")
		return
	}

	u, token, err := a.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	writeAuth(w, http.StatusOK, u, token)
}

type firebaseSignupRequest struct {
	IDToken string `json:"idToken"`
	Name    string `json:"name"`
}

func (a *api) handleFirebaseSignup(w http.ResponseWriter, r *http.Request) {
	var req firebaseSignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	if strings.TrimSpace(req.IDToken) == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"idToken": "required"}))
		return
	}

	u, token, err := a.authSvc.RegisterWithFirebase(r.Context(), req.IDToken, req.Name)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	writeAuth(w, http.StatusCreated, u, token)
}

type firebaseLoginRequest struct {
	IDToken string `json:"idToken"`
}

func (a *api) handleFirebaseLogin(w http.ResponseWriter, r *http.Request) {
	var req firebaseLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	if strings.TrimSpace(req.IDToken) == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"idToken": "required"}))
		return
	}

	u, token, err := a.authSvc.LoginWithFirebase(r.Context(), req.IDToken)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	writeAuth(w, http.StatusOK, u, token)
}
