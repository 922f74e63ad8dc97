package httpapi

import (
	"net/http"
	"strings"
	"time"

	"tilakamserver/internal/domain"
)

type commentResponse struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
}

type postResponse struct {
	ID          string            `json:"id"`
	AuthorID    string            `json:"authorId"`
	AuthorName  string            `json:"authorName"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Content     string            `json:"content"`
	Language    domain.Language   `json:"language"`
	Type        domain.PostType   `json:"type"`
	Genres      []string          `json:"genres"`
	LikeCount   int               `json:"likeCount"`
	IsLiked     bool              `json:"isLiked"`
	Comments    []commentResponse `json:"comments"`
	CreatedAt   time.Time         `json:"createdAt"`
}

type postSummaryResponse struct {
	ID          string          `json:"id"`
	AuthorName  string          `json:"authorName"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Language    domain.Language `json:"language"`
	Type        domain.PostType `json:"type"`
	Genres      []string        `json:"genres"`
	LikeCount   int             `json:"likeCount"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func toCommentResponse(c domain.Comment) commentResponse {
	return commentResponse{
		ID:         c.ID,
		AuthorID:   c.AuthorID,
		AuthorName: c.AuthorName,
		Body:       c.Body,
		CreatedAt:  c.CreatedAt,
	}
}

func toPostResponse(p domain.Post) postResponse {
	genres := p.Genres
	if genres == nil {
		genres = []string{}
	}
	comments := make([]commentResponse, 0, len(p.Comments))
	for _, c := range p.Comments {
		comments = append(comments, toCommentResponse(c))
	}
	return postResponse{
		ID:          p.ID,
		AuthorID:    p.AuthorID,
		AuthorName:  p.AuthorName,
		Title:       p.Title,
		Description: p.Description,
		Content:     p.Content,
		Language:    p.Language,
		Type:        p.Type,
		Genres:      genres,
		LikeCount:   p.LikeCount,
		IsLiked:     p.IsLiked,
		Comments:    comments,
		CreatedAt:   p.CreatedAt,
	}
}

func toPostSummaryResponse(p domain.PostSummary) postSummaryResponse {
	genres := p.Genres
	if genres == nil {
		genres = []string{}
	}
	return postSummaryResponse{
		ID:          p.ID,
		AuthorName:  p.AuthorName,
		Title:       p.Title,
		Description: p.Description,
		Language:    p.Language,
		Type:        p.Type,
		Genres:      genres,
		LikeCount:   p.LikeCount,
		CreatedAt:   p.CreatedAt,
	}
}

func postFilter(r *http.Request) (domain.Language, domain.PostType, error) {
	fields := map[string]string{}
	lang, ok := parseLanguage(r.URL.Query().Get("language"))
	if !ok {
		fields["language"] = "must be te or en"
	}
	typ, ok := parsePostType(r.URL.Query().Get("type"))
	if !ok {
		fields["type"] = "must be poem, story or essay"
	}
	if len(fields) > 0 {
		return "", "", domain.NewValidationError(fields)
	}
	return lang, typ, nil
}

type createPostRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	Language    string   `json:"language"`
	Type        string   `json:"type"`
	Genres      []string `json:"genres"`
}

func (a *api) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req createPostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	fields := map[string]string{}
	if strings.TrimSpace(req.Title) == "" {
		fields["title"] = "is required"
	}
	if strings.TrimSpace(req.Content) == "" {
		fields["content"] = "is required"
	}
	lang, okLang := parseLanguage(req.Language)
	if !okLang {
		fields["language"] = "must be te or en"
	}
	typ, okType := parsePostType(req.Type)
	if !okType {
		fields["type"] = "must be poem, story or essay"
	}
	if len(req.Genres) == 0 {
		fields["genres"] = "at least one genre is required"
	}
	if len(fields) > 0 {
		WriteDomainError(w, domain.NewValidationError(fields))
		return
	}

	p, err := a.postSvc.Create(r.Context(), u, domain.Post{
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		Language:    lang,
		Type:        typ,
		Genres:      req.Genres,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, toPostResponse(p))
}

func (a *api) handleListPosts(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	lang, typ, err := postFilter(r)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	posts, err := a.postSvc.List(r.Context(), lang, typ, u.ID)
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

func (a *api) handleBrowsePosts(w http.ResponseWriter, r *http.Request) {
	lang, typ, err := postFilter(r)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	posts, err := a.postSvc.Browse(r.Context(), lang, typ)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	out := make([]postSummaryResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostSummaryResponse(p))
	}
	WriteJSON(w, http.StatusOK, out)
}

func (a *api) handleGetPost(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	p, err := a.postSvc.Get(r.Context(), r.PathValue("id"), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toPostResponse(p))
}

func (a *api) handleLikePost(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	liked, count, err := a.postSvc.ToggleLike(r.Context(), r.PathValue("id"), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"isLiked": liked, "likeCount": count})
}

type createCommentRequest struct {
	Body string `json:"body"`
}

func (a *api) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req createCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"body": "is required"}))
		return
	}

	c, err := a.postSvc.Comment(r.Context(), r.PathValue("id"), u.ID, req.Body)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toCommentResponse(c))
}

func (a *api) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	if err := a.postSvc.Delete(r.Context(), r.PathValue("id"), u.ID); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
