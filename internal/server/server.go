// Package server wires the dependency graph and owns the route table. main.go
// stays minimal: read config, build a Server, Start it.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/haneul/bulletin/internal/auth"
	"github.com/haneul/bulletin/internal/handler"
	"github.com/haneul/bulletin/internal/middleware"
	sqliteRepo "github.com/haneul/bulletin/internal/repository/sqlite"
	"github.com/haneul/bulletin/internal/service"
	"github.com/haneul/bulletin/internal/toast"
)

// Config holds everything the server needs from the environment.
type Config struct {
	Port   int
	DBPath string

	JWTSecret string
	// SecureCookies marks session cookies Secure; enable everywhere HTTPS
	// terminates in front of the server.
	SecureCookies bool

	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string
}

// Server is the composed application: router, database, and config.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database and assembles the whole dependency chain:
// db → repositories → services → handlers → routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes builds the middleware stack and the route table.
//
//	GET    /api/posts               board page          (public)
//	GET    /api/posts/latest        home page strip     (public)
//	GET    /api/posts/{id}          post detail         (public)
//	POST   /api/posts               write               (optional auth)
//	PUT    /api/posts/{id}          edit                (optional auth)
//	DELETE /api/posts/{id}          delete              (optional auth)
//	GET    /api/search              keyword search      (public)
//	GET    /api/toasts              visible toasts      (public)
//	DELETE /api/toasts/{id}         dismiss a toast     (public)
//	GET    /api/me                  session summary     (auth)
//	GET    /api/profile             own profile         (auth)
//	PUT    /api/profile             save profile        (auth)
//	POST   /api/wbti                save quiz result    (auth)
//	POST   /api/notifications/read  clear unread badge  (auth)
//	POST   /auth/register           email sign-up
//	POST   /auth/login              email sign-in
//	GET    /auth/google             start OAuth
//	GET    /auth/google/callback    finish OAuth
//	POST   /auth/refresh            rotate session
//	POST   /auth/logout             clear session
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()
	google := auth.NewGoogleProvider(
		s.config.GoogleClientID,
		s.config.GoogleClientSecret,
		s.config.GoogleCallbackURL,
	)
	cookies := auth.CookieWriter{Secure: s.config.SecureCookies}
	toasts := toast.NewStore()

	postService := service.NewPostService(s.db, passwords, s.logger)
	profileService := service.NewProfileService(s.db, s.logger)
	notificationService := service.NewNotificationService(s.db, s.logger)
	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)

	postHandler := handler.NewPostHandler(postService, toasts, s.logger)
	profileHandler := handler.NewProfileHandler(profileService, notificationService, toasts, s.logger)
	authHandler := handler.NewAuthHandler(authService, notificationService, google, cookies, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/posts", postHandler.HandleList)
		r.Get("/posts/latest", postHandler.HandleLatest)
		r.Get("/posts/{id}", postHandler.HandleGet)
		r.Get("/search", postHandler.HandleSearch)
		r.Get("/toasts", profileHandler.HandleToasts)
		r.Delete("/toasts/{id}", profileHandler.HandleDismissToast)

		// Mutations work both signed in and out; the service decides what
		// each session may touch.
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(tokens))
			r.Post("/posts", postHandler.HandleCreate)
			r.Put("/posts/{id}", postHandler.HandleUpdate)
			r.Delete("/posts/{id}", postHandler.HandleDelete)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/me", authHandler.HandleMe)
			r.Get("/profile", profileHandler.HandleGet)
			r.Put("/profile", profileHandler.HandleUpdate)
			r.Post("/wbti", profileHandler.HandleSetWBTI)
			r.Post("/notifications/read", profileHandler.HandleMarkNotificationsRead)
		})
	})

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Get("/google", authHandler.HandleGoogleLogin)
		r.Get("/google/callback", authHandler.HandleGoogleCallback)
		r.Post("/refresh", authHandler.HandleRefresh)
		r.Post("/logout", authHandler.HandleLogout)
	})

	return nil
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully:
// stop accepting connections, drain in-flight requests, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
