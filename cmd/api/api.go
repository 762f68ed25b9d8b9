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

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"travelmate/docs" //this is required to generate swagger docs
	"travelmate/internal/auth"
	"travelmate/internal/chat"
	"travelmate/internal/domain/storage"
	"travelmate/internal/mailer"
	"travelmate/internal/membership"
	"travelmate/internal/notifications"
	"travelmate/internal/ratelimiter"
	"travelmate/internal/rating"
)

type application struct {
	config        config
	store         *storage.Container
	logger        *zap.SugaredLogger
	cld           *cloudinary.Cloudinary
	mailer        mailer.Client
	push          notifications.PushSender
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
	membership    *membership.Manager
	ratings       *rating.Aggregator
	hub           *chat.Hub
}

type config struct {
	addr        string
	env         string
	apiURL      string
	storeDriver string
	db          dbConfig
	mongo       mongoConfig
	mail        mailConfig
	auth        authConfig
	cloudinary  string
	expo        expoConfig
	redis       redisConfig
	rateLimiter ratelimiter.Config
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}

type tokenConfig struct {
	secret string
	exp    time.Duration
	iss    string
	aud    string
}

type basicConfig struct {
	user string
	pass string
}

type mailConfig struct {
	enabled bool
	smtp    mailer.Config
}

type expoConfig struct {
	accessToken    string
	tokenRetention time.Duration
}

type redisConfig struct {
	addr     string
	password string
	db       int
}

type dbConfig struct {
	addr         string
	maxOpenConns int
	maxIdleTime  string
}

type mongoConfig struct {
	uri         string
	database    string
	maxPoolSize int
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	if app.config.rateLimiter.Enabled {
		r.Use(app.RateLimiterMiddleware)
	}

	r.Route("/v1", func(r chi.Router) {
		// websocket connections outlive the request timeout below
		r.Get("/ws/{groupID}/{token}", app.chatSocketHandler)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
			docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.addr)
			r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

			r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

			r.Route("/auth", func(r chi.Router) {
				r.Post("/signup", app.signupHandler)
				r.Post("/login", app.loginHandler)
				r.With(app.AuthTokenMiddleware).Get("/me", app.meHandler)
			})

			r.Route("/groups", func(r chi.Router) {
				r.Get("/", app.searchGroupsHandler)
				r.With(app.AuthTokenMiddleware).Post("/", app.createGroupHandler)

				r.Route("/{groupID}", func(r chi.Router) {
					r.Get("/", app.getGroupHandler)
					r.Get("/members", app.listMembersHandler)

					r.Group(func(r chi.Router) {
						r.Use(app.AuthTokenMiddleware)
						r.Post("/join-request", app.requestJoinHandler)
						r.Get("/join-requests", app.listJoinRequestsHandler)
						r.Post("/join-requests/{requestID}/approve", app.approveJoinRequestHandler)
						r.Post("/join-requests/{requestID}/reject", app.rejectJoinRequestHandler)
						r.Post("/cover", app.uploadCoverHandler)
						r.Get("/messages", app.listMessagesHandler)
					})
				})
			})

			r.With(app.AuthTokenMiddleware).Get("/my-groups", app.myGroupsHandler)
			r.With(app.AuthTokenMiddleware).Post("/ratings", app.createRatingHandler)

			r.Route("/users", func(r chi.Router) {
				r.Get("/{userID}/ratings", app.listUserRatingsHandler)

				r.Group(func(r chi.Router) {
					r.Use(app.AuthTokenMiddleware)
					r.Post("/push-tokens", app.savePushTokenHandler)
					r.Delete("/push-tokens", app.removePushTokenHandler)
				})
			})
		})
	})

	return r
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

		// hijacked websocket connections are not tracked by srv
		err := app.hub.Shutdown(ctx)
		shutdown <- errors.Join(err, srv.Shutdown(ctx))
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
