package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/flashdeckhq/flashdeck/internal/api/handlers"
	"github.com/flashdeckhq/flashdeck/internal/api/middleware"
	"github.com/flashdeckhq/flashdeck/internal/apierrors"
	"github.com/flashdeckhq/flashdeck/internal/auth"
	"github.com/flashdeckhq/flashdeck/internal/cache"
	"github.com/flashdeckhq/flashdeck/internal/config"
	"github.com/flashdeckhq/flashdeck/internal/deck"
	"github.com/flashdeckhq/flashdeck/internal/flashcard"
	"github.com/flashdeckhq/flashdeck/internal/queue"
	"github.com/flashdeckhq/flashdeck/internal/response"
	"github.com/flashdeckhq/flashdeck/internal/study"
)

type Router struct {
	mux    *chi.Mux
	db     *pgxpool.Pool
	redis  *redis.Client
	cfg    *config.Config
	tokens *auth.TokenService
	authMW *auth.Middleware
	errs   *apierrors.Mapper
	queue  *queue.Client
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config) *Router {
	store := auth.NewPostgresStore(db)
	tokens := auth.NewTokenService(store, auth.TokenConfig{
		TokenLength:      cfg.Auth.TokenLength,
		MaxTokensPerUser: cfg.Auth.MaxTokensPerUser,
	})
	resolver := auth.DefaultResolverChain(cfg.Auth.APIKeyHeader)

	return &Router{
		mux:    chi.NewRouter(),
		db:     db,
		redis:  rdb,
		cfg:    cfg,
		tokens: tokens,
		authMW: auth.NewMiddleware(tokens, store, resolver),
		errs:   apierrors.NewMapper(cfg.IsProduction(), nil),
		queue:  queue.NewClient(cfg.Redis),
	}
}

// Close releases the router's queue connection. Call on shutdown.
func (rt *Router) Close() error {
	return rt.queue.Close()
}

// EnqueueTokenCleanup asks the worker to sweep expired tokens now, ahead
// of the hourly schedule. Called once at boot.
func (rt *Router) EnqueueTokenCleanup() error {
	return rt.queue.EnqueueTokenCleanup()
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	rl := middleware.NewRateLimiter(100, 200)
	r.Use(rl.Limit)

	// Route lookup failures share the envelope format with everything else.
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.New(response.StatusNotFound).
			Meta("error_code", "ROUTE_NOT_FOUND").
			Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.BadRequest(w, "method not allowed")
	})

	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	deckCache := cache.New(rt.redis, rt.cfg.Cache.TTL)
	deckSvc := deck.NewService(rt.db, deckCache)
	cardSvc := flashcard.NewService(rt.db, deckSvc)
	studySvc := study.NewService(rt.db, deckSvc)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.authMW.Authenticate)

		tokenH := handlers.NewTokenHandler(rt.tokens, rt.errs)
		r.Route("/tokens", func(r chi.Router) {
			r.Get("/", tokenH.List)
			r.Post("/", tokenH.Create)
			r.Delete("/{id}", tokenH.Delete)
		})

		deckH := handlers.NewDeckHandler(deckSvc, rt.errs)
		cardH := handlers.NewFlashcardHandler(cardSvc, rt.queue, rt.errs)
		studyH := handlers.NewStudyHandler(studySvc, rt.errs)
		r.Route("/decks", func(r chi.Router) {
			r.Get("/", deckH.List)
			r.With(auth.RequireAbility("write")).Post("/", deckH.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", deckH.Get)
				r.With(auth.RequireAbility("write")).Put("/", deckH.Update)
				r.With(auth.RequireAbility("delete")).Delete("/", deckH.Delete)

				r.Route("/cards", func(r chi.Router) {
					r.Get("/", cardH.List)
					r.With(auth.RequireAbility("write")).Post("/", cardH.Create)
					r.With(auth.RequireAbility("write")).Put("/{cardID}", cardH.Update)
					r.With(auth.RequireAbility("write")).Patch("/{cardID}/position", cardH.Reposition)
					r.With(auth.RequireAbility("delete")).Delete("/{cardID}", cardH.Delete)
				})

				r.Get("/study", studyH.Queue)
				r.With(auth.RequireAbility("write")).Post("/reviews", studyH.Record)
				r.Get("/stats", studyH.Stats)
			})
		})
	})

	return r
}
