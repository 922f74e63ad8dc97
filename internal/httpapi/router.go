package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"tilakamserver/internal/service"
)

type RouterOpts struct {
	Logger *slog.Logger
	IsProd bool

	DBPing func(context.Context) error

	Auth         *service.AuthService
	Reset        *service.PasswordResetService
	Posts        *service.PostService
	Profile      *service.ProfileService
	Gallery      *service.GalleryService
	Competitions *service.CompetitionService
	Admin        *service.AdminService
}

func NewRouter(opts RouterOpts) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	api := &api{
		logger:         logger,
		isProd:         opts.IsProd,
		dbPing:         opts.DBPing,
		authSvc:        opts.Auth,
		resetSvc:       opts.Reset,
		postSvc:        opts.Posts,
		profileSvc:     opts.Profile,
		gallerySvc:     opts.Gallery,
		competitionSvc: opts.Competitions,
		adminSvc:       opts.Admin,
		loginLimiter:   newRateLimiter(5*time.Minute, 10),
		forgotLimiter:  newRateLimiter(15*time.Minute, 5),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", api.handleHealthz)
	mux.HandleFunc("GET /uptimerobot", api.handleHealthz)

	if api.authSvc == nil {
		mux.HandleFunc("POST /signup", handleNotImplemented)
		mux.HandleFunc("POST /login", handleNotImplemented)
		mux.HandleFunc("POST /firebase-signup", handleNotImplemented)
		mux.HandleFunc("POST /firebase-login", handleNotImplemented)
	} else {
		mux.HandleFunc("POST /signup", api.handleSignup)
		mux.HandleFunc("POST /login", api.handleLogin)
		mux.HandleFunc("POST /firebase-signup", api.handleFirebaseSignup)
		mux.HandleFunc("POST /firebase-login", api.handleFirebaseLogin)
		mux.HandleFunc("POST /forgot-password", api.handleForgotPassword)
		mux.HandleFunc("POST /reset-password/{token}", api.handleResetPassword)

		if api.postSvc != nil {
			mux.HandleFunc("GET /posts/browse", api.handleBrowsePosts)
			mux.HandleFunc("GET /posts", api.requireAuth(api.handleListPosts))
			mux.HandleFunc("GET /posts/{id}", api.requireAuth(api.handleGetPost))
			mux.HandleFunc("POST /create-post", api.requireAuth(api.handleCreatePost))
			mux.HandleFunc("POST /posts/{id}/like", api.requireAuth(api.handleLikePost))
			mux.HandleFunc("POST /posts/{id}/comments", api.requireAuth(api.handleCreateComment))
			mux.HandleFunc("DELETE /posts/{id}", api.requireAuth(api.handleDeletePost))
		}

		if api.profileSvc != nil {
			mux.HandleFunc("POST /personal-info", api.requireAuth(api.handlePersonalInfo))
			mux.HandleFunc("GET /aboutme", api.requireAuth(api.handleAboutMe))
			mux.HandleFunc("POST /aboutme/update", api.requireAuth(api.handleAboutMeUpdate))
		}

		if api.gallerySvc != nil {
			mux.HandleFunc("GET /youtube-uploads", api.handleVideoList)
			mux.HandleFunc("POST /youtube-uploads", api.requireAuth(api.handleVideoUpload))
		}

		if api.competitionSvc != nil {
			mux.HandleFunc("GET /competitions-fetch", api.handleCompetitionFetch)
			mux.HandleFunc("POST /competitions-upload", api.requireAuth(api.handleCompetitionUpload))
		}

		if api.adminSvc != nil {
			mux.HandleFunc("GET /admin/stats", api.requireAdmin(api.handleAdminStats))
			mux.HandleFunc("GET /admin/users", api.requireAdmin(api.handleAdminListUsers))
			mux.HandleFunc("DELETE /admin/users/{id}", api.requireAdmin(api.handleAdminDeleteUser))
			mux.HandleFunc("GET /admin/posts", api.requireAdmin(api.handleAdminListPosts))
			mux.HandleFunc("DELETE /admin/posts/{id}", api.requireAdmin(api.handleAdminDeletePost))
			mux.HandleFunc("GET /admin/competition", api.requireAdmin(api.handleAdminListCompetition))
			mux.HandleFunc("DELETE /admin/competition/{id}", api.requireAdmin(api.handleAdminDeleteCompetition))
		}
	}

	var h http.Handler = mux
	h = RequestLogger(logger)(h)
	h = RequestID()(h)
	h = Recoverer(logger, opts.IsProd)(h)
	return h
}

func handleNotImplemented(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotImplemented, "not_implemented", "not implemented")
}

type api struct {
	logger *slog.Logger
	isProd bool

	dbPing func(context.Context) error

	authSvc        *service.AuthService
	resetSvc       *service.PasswordResetService
	postSvc        *service.PostService
	profileSvc     *service.ProfileService
	gallerySvc     *service.GalleryService
	competitionSvc *service.CompetitionService
	adminSvc       *service.AdminService

	loginLimiter  *rateLimiter
	forgotLimiter *rateLimiter
}

func (a *api) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if a.dbPing != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()
		if err := a.dbPing(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db down"))
			return
		}
	}

	_, _ = w.Write([]byte("ok"))
}
