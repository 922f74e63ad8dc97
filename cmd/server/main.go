package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"tilakamserver/internal/auth"
	"tilakamserver/internal/config"
	"tilakamserver/internal/email"
	"tilakamserver/internal/httpapi"
	"tilakamserver/internal/service"
	"tilakamserver/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger := newLogger(cfg)

	var (
		authSvc        *service.AuthService
		resetSvc       *service.PasswordResetService
		postSvc        *service.PostService
		profileSvc     *service.ProfileService
		gallerySvc     *service.GalleryService
		competitionSvc *service.CompetitionService
		adminSvc       *service.AdminService
		dbPing         func(context.Context) error
	)

	if cfg.DBDSN != "" {
		pgPool, err := postgres.Open(context.Background(), cfg.DBDSN)
		if err != nil {
			logger.Error("db open failed", "err", err)
			os.Exit(1)
		}
		defer pgPool.Close()

		users := postgres.NewUsersStore(pgPool)
		posts := postgres.NewPostsStore(pgPool)
		videos := postgres.NewVideosStore(pgPool)
		competitions := postgres.NewCompetitionsStore(pgPool)
		adminUsers := postgres.NewAdminUsersStore(pgPool)

		if err := bootstrapAdminUser(context.Background(), logger, users, cfg.AdminBootstrapEmail, cfg.AdminBootstrapName, cfg.AdminBootstrapPassword); err != nil {
			logger.Error("bootstrap admin failed", "err", err)
			os.Exit(1)
		}

		tokens := auth.NewTokenCodec([]byte(cfg.TokenSecret), cfg.TokenTTL)

		authSvc = &service.AuthService{
			Users:             users,
			Tokens:            tokens,
			FirebaseProjectID: cfg.FirebaseProjectID,
		}
		resetSvc = &service.PasswordResetService{
			Users: users,
			Mail: email.NewMailer(email.SMTPSettings{
				Host:     cfg.SMTPHost,
				Port:     cfg.SMTPPort,
				Username: cfg.SMTPUsername,
				Password: cfg.SMTPPassword,
				From:     cfg.SMTPFrom,
			}),
			ResetURL: resetLink(cfg.PublicURL),
		}
		postSvc = &service.PostService{Posts: posts}
		profileSvc = &service.ProfileService{Users: users, Posts: posts}
		gallerySvc = &service.GalleryService{Videos: videos}
		competitionSvc = &service.CompetitionService{Entries: competitions}
		adminSvc = &service.AdminService{
			Users:        adminUsers,
			Posts:        posts,
			Competitions: competitions,
		}
		dbPing = pgPool.Ping
	}

	router := httpapi.NewRouter(httpapi.RouterOpts{
		Logger:       logger,
		IsProd:       cfg.IsProd(),
		DBPing:       dbPing,
		Auth:         authSvc,
		Reset:        resetSvc,
		Posts:        postSvc,
		Profile:      profileSvc,
		Gallery:      gallerySvc,
		Competitions: competitionSvc,
		Admin:        adminSvc,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "env", cfg.Env, "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}
}

// resetLink builds the frontend URL a reset mail points at.
func resetLink(publicURL *url.URL) func(string) string {
	return func(rawToken string) string {
		if publicURL == nil {
			return "/reset-password/" + url.PathEscape(rawToken)
		}
		u := *publicURL
		u.Path = "/reset-password/" + rawToken
		return u.String()
	}
}

func bootstrapAdminUser(ctx context.Context, logger *slog.Logger, users *postgres.UsersStore, email, name, password string) error {
	if password == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	if len(password) < 12 {
		return errors.New("APP_ADMIN_BOOTSTRAP_PASSWORD: must be at least 12 characters")
	}
	if email == "" || name == "" {
		return errors.New("admin bootstrap: email and name are required")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("admin bootstrap: hash password: %w", err)
	}

	u, err := users.EnsureAdminUser(ctx, email, name, hash)
	if err != nil {
		return fmt.Errorf("admin bootstrap: %w", err)
	}

	logger.Info("admin bootstrap: admin user ready", "email", u.Email)
	return nil
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
