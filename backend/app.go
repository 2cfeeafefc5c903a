package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"gitea.kood.tech/petrkubec/campus-compass/backend/compass"
	"gitea.kood.tech/petrkubec/campus-compass/backend/store"
	"go.uber.org/zap"
)

// app carries everything the handlers share. The catalog is read once and
// never modified afterwards.
type app struct {
	cfg      *Config
	catalog  compass.Catalog
	store    store.CatalogStore
	sessions *sessionStore
	hub      *Hub
	metrics  *metrics
	log      *zap.Logger
}

func newApp(ctx context.Context, cfg *Config, cs store.CatalogStore, log *zap.Logger) (*app, error) {
	catalog, err := cs.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	sessions := newSessionStore(sessionConfig{
		Secret:      []byte(cfg.JWTSecret),
		TokenTTL:    cfg.TokenTTL,
		IdleTTL:     cfg.SessionTTL,
		MaxSessions: cfg.MaxSessions,
		ChatRate:    cfg.ChatRate,
		ChatBurst:   cfg.ChatBurst,
	}, log)
	hub := newHub(log)
	// sockets of an ended session are closed with it
	sessions.OnEnd(hub.closeSession)

	log.Info("catalog ready",
		zap.Int("roommates", len(catalog.Roommates)),
		zap.Int("housing", len(catalog.Housing)),
	)

	return &app{
		cfg:      cfg,
		catalog:  catalog,
		store:    cs,
		sessions: sessions,
		hub:      hub,
		metrics:  newMetrics(func() float64 { return float64(sessions.Len()) }),
		log:      log,
	}, nil
}

func (a *app) routes() http.Handler {
	mux := http.NewServeMux()
	paths := map[string]bool{}

	handle := func(method, path string, h http.Handler) {
		mux.Handle(method+" "+path, a.instrument(path, h))
		paths[path] = true
	}
	loaders := DataLoaderMiddleware(a.store)

	// Health check endpoint for Docker
	handle(http.MethodGet, "/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}))

	// Sessions & profile
	handle(http.MethodPost, "/session", createSessionHandler(a))
	handle(http.MethodDelete, "/session", endSessionHandler(a))
	handle(http.MethodGet, "/profile", getProfileHandler(a))
	handle(http.MethodPut, "/profile", putProfileHandler(a))

	// Recommendations & catalog
	handle(http.MethodPost, "/recommendations", recommendationsHandler(a))
	handle(http.MethodGet, "/roommates", loaders(roommatesHandler(a)))
	handle(http.MethodGet, "/roommates/{name}", loaders(roommateHandler(a)))
	handle(http.MethodGet, "/housing", loaders(housingHandler(a)))
	handle(http.MethodGet, "/housing/{name}", loaders(listingHandler(a)))

	// Chat over plain HTTP and WebSocket
	handle(http.MethodPost, "/chat", chatHandler(a))
	handle(http.MethodGet, "/chat/history", chatHistoryHandler(a))
	handle(http.MethodGet, "/ws/chat", wsChatHandler(a))

	handle(http.MethodGet, "/metrics", a.metrics.handler())

	// Known paths hit with the wrong method
	for path := range paths {
		mux.Handle(path, a.instrument(path, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusMethodNotAllowed, codeInvalidMethod)
		})))
	}
	mux.Handle("/", a.instrument("unmatched", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound)
	})))

	return withCORS(a.cfg.AllowedOrigins, mux)
}

// server wraps the routes with the timeouts used in production.
func (a *app) server() *http.Server {
	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           a.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Shutdown does not touch hijacked connections
	srv.RegisterOnShutdown(a.hub.closeAll)
	return srv
}
