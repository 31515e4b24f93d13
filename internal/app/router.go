package app

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/singleflight"

	deskhttp "github.com/odyssey-erp/supplierdesk/internal/desk/http"
	"github.com/odyssey-erp/supplierdesk/internal/observability"
	"github.com/odyssey-erp/supplierdesk/internal/platform/httpx"
	"github.com/odyssey-erp/supplierdesk/internal/shared"
	"github.com/odyssey-erp/supplierdesk/web"
)

const readinessTimeout = 3 * time.Second

// HealthChecker reports whether the suppliers service answers.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	DeskHandler    *deskhttp.Handler
	Backend        HealthChecker
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with desk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readyHandler(params.Backend, params.Logger))
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		// Static files skip sessions, CSRF and rate limiting.
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	r.Group(func(r chi.Router) {
		for _, mw := range MiddlewareStack(MiddlewareConfig{
			Logger:         params.Logger,
			Config:         params.Config,
			SessionManager: params.SessionManager,
			CSRFManager:    params.CSRFManager,
			Metrics:        params.Metrics,
		}) {
			r.Use(mw)
		}
		r.Use(chimw.Logger)
		params.DeskHandler.MountRoutes(r)
	})

	return r
}

// readyHandler pings the suppliers service. Concurrent probes share one ping.
func readyHandler(checker HealthChecker, logger *slog.Logger) http.HandlerFunc {
	var group singleflight.Group
	return func(w http.ResponseWriter, r *http.Request) {
		if checker == nil {
			httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		ping := group.DoChan("backend", func() (any, error) {
			return nil, checker.Health(ctx)
		})
		var err error
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case res := <-ping:
			err = res.Err
		}
		if err != nil {
			logger.Warn("backend not ready", slog.Any("error", err))
			httpx.Problem(w, http.StatusServiceUnavailable, "Backend Unavailable", err.Error())
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok", "backend": "ok"})
	}
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
