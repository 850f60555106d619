package routes

import (
	"net/http"

	"github.com/dukerupert/buscacep/internal/router"
)

// RegisterLookupRoutes registers the HTML lookup screen.
func RegisterLookupRoutes(r *router.Router, deps LookupDeps) {
	r.Get("/{$}", deps.Handler.Page)
	r.Post("/{$}", deps.Handler.Submit)
}

// RegisterOpsRoutes registers health and metrics.
func RegisterOpsRoutes(r *router.Router, deps OpsDeps) {
	r.Get("/health", deps.Health.ServeHTTP)
	if deps.Metrics != nil {
		r.Get("/metrics", deps.Metrics.ServeHTTP)
	}
}

// noContent answers requests fully handled by middleware, e.g. CORS preflight.
func noContent(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
