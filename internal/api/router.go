package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/paintstock/internal/analytics"
	"github.com/erazemk/paintstock/internal/auth"
	"github.com/erazemk/paintstock/internal/inventory"
	"github.com/erazemk/paintstock/internal/metrics"
)

// Config wires the router to its dependencies.
type Config struct {
	Service   *inventory.Service
	Resolver  *auth.Resolver
	JWTSecret string
	Logger    *slog.Logger

	// RateLimit is requests per second per client; zero disables limiting.
	RateLimit float64
	RateBurst int

	Analytics analytics.Options
	Now       func() time.Time
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Analytics == (analytics.Options{}) {
		cfg.Analytics = analytics.DefaultOptions
	}

	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: cfg.Service.DB(), JWTSecret: cfg.JWTSecret, Resolver: cfg.Resolver}
	itemsHandler := &ItemsHandler{Service: cfg.Service}
	settingsHandler := &SettingsHandler{Service: cfg.Service}
	auditHandler := &AuditHandler{Service: cfg.Service, Options: cfg.Analytics, Now: cfg.Now}
	exportHandler := &ExportHandler{Service: cfg.Service}

	mux.HandleFunc("GET /api/health", Health)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)

	// Reads are open to everyone; the service enforces admin-only writes.
	mux.HandleFunc("GET /api/items", itemsHandler.List)
	mux.HandleFunc("POST /api/items", itemsHandler.Create)
	mux.HandleFunc("GET /api/items/{id}", itemsHandler.Get)
	mux.HandleFunc("PUT /api/items/{id}", itemsHandler.Update)
	mux.HandleFunc("DELETE /api/items/{id}", itemsHandler.Delete)
	mux.HandleFunc("POST /api/items/{id}/change-id", itemsHandler.ChangeID)
	mux.HandleFunc("GET /api/items/{id}/history", itemsHandler.History)
	mux.HandleFunc("GET /api/items/{id}/last-action", itemsHandler.LastAction)

	mux.HandleFunc("GET /api/settings/next-id", settingsHandler.GetNextID)
	mux.HandleFunc("POST /api/settings/next-id", settingsHandler.SetNextID)
	mux.HandleFunc("GET /api/settings/min-quantity", settingsHandler.GetMinQuantity)
	mux.HandleFunc("POST /api/settings/min-quantity", settingsHandler.SetMinQuantity)

	mux.HandleFunc("GET /api/audit", auditHandler.List)
	mux.HandleFunc("GET /api/analytics/summary", auditHandler.Summary)

	mux.HandleFunc("GET /api/export/csv", exportHandler.CSV)
	mux.HandleFunc("GET /api/export/excel", exportHandler.Excel)

	var h http.Handler = mux
	h = IdentifyMiddleware(cfg.JWTSecret, cfg.Service.DB(), cfg.Resolver)(h)
	h = NewRateLimiter(cfg.RateLimit, cfg.RateBurst).Handler(h)
	h = LoggingMiddleware(logger)(h)
	h = metrics.InstrumentHandler(h)
	return h
}
