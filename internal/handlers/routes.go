package handlers

import "net/http"

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	conns := ConnectionHandler{
		Connections: deps.Connections,
		Sessions:    deps.Sessions,
		Limiter:     deps.Limiter,
	}

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/v1/connections", conns.List)
	mux.HandleFunc("/api/v1/connections/request", conns.Request)
	mux.HandleFunc("/api/v1/connections/accept", conns.Accept)
	mux.HandleFunc("/api/v1/connections/reject", conns.Reject)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Connections ConnectionService
	Sessions    AccessVerifier
	Limiter     RateLimiter
}
