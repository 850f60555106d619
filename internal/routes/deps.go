package routes

import (
	"net/http"

	"github.com/dukerupert/buscacep/internal/handler"
)

// LookupDeps contains dependencies for the lookup screen
type LookupDeps struct {
	Handler *handler.LookupHandler
}

// APIDeps contains dependencies for the JSON API
type APIDeps struct {
	Handler        *handler.LookupHandler
	AllowedOrigins []string
}

// OpsDeps contains dependencies for operational endpoints
type OpsDeps struct {
	Health  http.Handler
	Metrics http.Handler // nil disables /metrics
}
