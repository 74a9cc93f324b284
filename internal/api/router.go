package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/pongserver/internal/api/handler"
	"github.com/mcoot/pongserver/internal/api/middleware"
	"github.com/mcoot/pongserver/internal/gateway"
	basemw "github.com/mcoot/pongserver/internal/middleware"
	"github.com/mcoot/pongserver/internal/services/auth"
	"github.com/mcoot/pongserver/internal/services/history"
	"github.com/mcoot/pongserver/internal/services/registry"
	"github.com/mcoot/pongserver/internal/storage"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	Logger   *slog.Logger
	Tokens   middleware.TokenValidator
	AdminKey *auth.AdminKey
	Registry *registry.Registry
	History  *history.Recorder
	Storage  storage.Storage
	// Gateway mounts the websocket endpoints when set
	Gateway *gateway.Gateway
}

// NewRouter creates the HTTP router: websocket endpoints at the root and
// the operator API under /api/v1
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	roomHandler := handler.NewRoomHandler(cfg.Registry, cfg.Logger)
	playerHandler := handler.NewPlayerHandler(cfg.Storage, cfg.History)

	authMiddleware := middleware.Auth(cfg.Tokens)
	adminMiddleware := middleware.AdminKey(cfg.AdminKey)
	loggingMiddleware := basemw.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Read-only views
	api.HandleFunc("/rooms", roomHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{room_id}", roomHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/presence", playerHandler.Presence).Methods(http.MethodGet)
	api.HandleFunc("/players/{player_id}/history", playerHandler.History).Methods(http.MethodGet)

	// Player routes
	create := api.PathPrefix("/rooms").Subrouter()
	create.Use(authMiddleware)
	create.HandleFunc("", roomHandler.Create).Methods(http.MethodPost)

	// Operator routes
	admin := api.PathPrefix("/rooms").Subrouter()
	admin.Use(adminMiddleware)
	admin.HandleFunc("/{room_id}", roomHandler.Close).Methods(http.MethodDelete)

	if cfg.Gateway != nil {
		cfg.Gateway.RegisterRoutes(r)
	}

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
