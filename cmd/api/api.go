package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foodspot/docs" //this is required to generate swagger docs
	"foodspot/internal/auth"
	"foodspot/internal/discovery"
	"foodspot/internal/domain/storage"
	"foodspot/internal/events"
	"foodspot/internal/leaderboard"
	"foodspot/internal/mailer"
	"foodspot/internal/metrics"
	"foodspot/internal/ratelimiter"
	"foodspot/internal/realtime"
	"foodspot/internal/sharecode"
	"foodspot/internal/toggle"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type application struct {
	config        config
	store         *storage.Container
	logger        *zap.SugaredLogger
	media         mediaStore
	mailer        mailer.Client
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
	geocoder      discovery.PlaceResolver
	discovery     *discovery.Service
	toggles       *toggle.Machine
	ranker        *leaderboard.Ranker
	shareCodes    *sharecode.Codec
	bus           *events.Bus
	hub           *realtime.Hub
	metrics       *metrics.Metrics
	registry      *prometheus.Registry
}

type config struct {
	addr        string
	db          dbConfig
	env         string
	apiURL      string
	frontendURL string
	mail        mailConfig
	auth        authConfig
	geocode     geocodeConfig
	redis       redisConfig
	rateLimiter ratelimiter.Config
	leaderboard leaderboardConfig
	shareSalt   string
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}

type tokenConfig struct {
	secret string
	aud    string
	iss    string
}

type basicConfig struct {
	user string
	pass string
}

type mailConfig struct {
	fromEmail  string
	adminEmail string
	smtp       smtpConfig
}

type smtpConfig struct {
	host     string
	port     int
	username string
	password string
}

type dbConfig struct {
	addr        string
	maxConns    int32
	maxIdleTime string
}

type geocodeConfig struct {
	baseURL   string
	region    string
	userAgent string
	cache     string // "memory" or "redis"
	timeout   time.Duration
}

type redisConfig struct {
	addr     string
	password string
	db       int
}

type leaderboardConfig struct {
	denylist []string
	limit    int
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Route("/v1", func(r chi.Router) {
		// the websocket outlives any request timeout
		r.With(app.AuthTokenMiddleware).Get("/ws", app.wsHandler)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			app.mountAPI(r)
		})
	})
	return r
}

func (app *application) mountAPI(r chi.Router) {
	r.Get("/health", app.healthCheckHandler)
	docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.apiURL)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

	r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)
	if app.registry != nil {
		r.With(app.BasicAuthMiddleware()).Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))
	}

	// Public routes
	r.With(app.RateLimiterMiddleware).Get("/discover", app.discoverHandler)
	r.With(app.RateLimiterMiddleware).Get("/geocode", app.geocodeHandler)
	r.Get("/leaderboard", app.leaderboardHandler)
	r.Get("/s/{code}", app.shareLinkHandler)
	r.Get("/users/username-available", app.usernameAvailableHandler)

	r.Route("/spots", func(r chi.Router) {
		r.With(app.RateLimiterMiddleware).Get("/search", app.searchSpotsHandler)
		r.With(app.AuthTokenMiddleware).Post("/", app.createSpotHandler)

		r.Route("/{spotID}", func(r chi.Router) {
			r.Get("/", app.getSpotHandler)
			r.Get("/reviews", app.getSpotReviewsHandler)
			r.Get("/directions", app.directionsHandler)

			r.With(app.AuthTokenMiddleware).Post("/reviews", app.createSpotReviewHandler)
			r.With(app.AuthTokenMiddleware).Post("/edits", app.suggestEditHandler)
		})
	})

	r.Route("/community", func(r chi.Router) {
		r.Use(app.AuthTokenMiddleware)
		r.Get("/posts", app.feedHandler)
		r.Post("/posts", app.createPostHandler)
		r.Get("/posts/saved", app.savedPostsHandler)

		r.Route("/posts/{postID}", func(r chi.Router) {
			r.Get("/", app.getPostHandler)
			r.Delete("/", app.deletePostHandler)
			r.Put("/like", app.likePostHandler)
			r.Delete("/like", app.unlikePostHandler)
			r.Put("/save", app.savePostHandler)
			r.Delete("/save", app.unsavePostHandler)
			r.Get("/comments", app.listCommentsHandler)
			r.Post("/comments", app.createCommentHandler)
			r.Delete("/comments/{commentID}", app.deleteCommentHandler)
		})
	})

	r.Route("/me", func(r chi.Router) {
		r.Use(app.AuthTokenMiddleware)
		r.Get("/", app.getPreferencesHandler)
		r.Patch("/", app.updatePreferencesHandler)
		r.Put("/username", app.setUsernameHandler)
		r.Put("/avatar", app.uploadAvatarHandler)

		r.Get("/favorites", app.listFavoritesHandler)
		r.Put("/favorites/{spotID}", app.addFavoriteHandler)
		r.Delete("/favorites/{spotID}", app.removeFavoriteHandler)
		r.Get("/visited", app.listVisitedHandler)
		r.Put("/visited/{spotID}", app.addVisitedHandler)
		r.Delete("/visited/{spotID}", app.removeVisitedHandler)

		r.Get("/notifications", app.listNotificationsHandler)
		r.Get("/notifications/unread-count", app.unreadCountHandler)
		r.Post("/notifications/read-all", app.markAllNotificationsReadHandler)
		r.Post("/notifications/{notificationID}/read", app.markNotificationReadHandler)

		r.Post("/push-tokens", app.savePushTokenHandler)
		r.Delete("/push-tokens", app.removePushTokenHandler)
	})

	r.With(app.AuthTokenMiddleware).Post("/contact", app.contactAdminHandler)

	r.Route("/admin", func(r chi.Router) {
		r.Use(app.AuthTokenMiddleware)
		r.Use(app.RequireModerator)

		r.Get("/spots", app.adminListSpotsHandler)
		r.Put("/spots/{spotID}/verify", app.verifySpotHandler)
		r.Delete("/spots/{spotID}", app.deleteSpotHandler)
		r.Post("/spots/{spotID}/images", app.uploadSpotImagesHandler)
		r.Delete("/spots/{spotID}/images", app.deleteSpotImageHandler)

		r.Get("/edits", app.listEditsHandler)
		r.Post("/edits/{editID}/approve", app.approveEditHandler)
		r.Post("/edits/{editID}/reject", app.rejectEditHandler)

		r.Delete("/reviews/{reviewID}", app.deleteReviewHandler)
		r.Delete("/posts/{postID}", app.deletePostHandler)
		r.Delete("/comments/{commentID}", app.deleteCommentHandler)

		r.Get("/notifications", app.adminListNotificationsHandler)
		r.Post("/notifications", app.createNotificationHandler)
		r.Delete("/notifications/{notificationID}", app.deactivateNotificationHandler)

		r.Post("/geocode/backfill", app.geocodeBackfillHandler)
		r.Post("/push-tokens/bulk-remove", app.bulkRemoveTokensHandler)
		r.Post("/push-tokens/prune", app.pruneStaleTokensHandler)

		r.Route("/roles", func(r chi.Router) {
			r.Use(app.RequireAdmin)
			r.Get("/", app.listRoleAssignmentsHandler)
			r.Put("/{userID}/{role}", app.assignRoleHandler)
			r.Delete("/{userID}/{role}", app.removeRoleHandler)
		})
	})
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
