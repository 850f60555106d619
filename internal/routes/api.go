package routes

import (
	"github.com/dukerupert/buscacep/internal/router"
)

// RegisterAPIRoutes registers the JSON lookup endpoint.
// CORS is applied only here so the HTML screen stays same-origin.
func RegisterAPIRoutes(r *router.Router, deps APIDeps) {
	api := r.Group(router.CORS(deps.AllowedOrigins))

	api.Get("/api/cep/{code}", deps.Handler.API)
	api.Options("/api/cep/{code}", noContent)
}
