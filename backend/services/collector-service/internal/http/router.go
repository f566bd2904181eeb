package httpserver

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Routes defines HTTP endpoints. Nil handlers are not registered.
type Routes struct {
	Root        http.HandlerFunc
	Occupancy   http.HandlerFunc
	Status      http.HandlerFunc
	Calibration http.HandlerFunc
	Config      http.HandlerFunc
	Stream      http.HandlerFunc
	Health      http.HandlerFunc
	Metrics     http.Handler
}

// NewRouter sets up HTTP routing. Middlewares run for matched routes only.
func NewRouter(routes Routes, middlewares ...mux.MiddlewareFunc) *mux.Router {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(notFound)

	handle(router, "/", http.MethodGet, routes.Root)
	handle(router, "/api/occupancy", http.MethodPost, routes.Occupancy)
	handle(router, "/api/status", http.MethodGet, routes.Status)
	handle(router, "/api/calibration", http.MethodPost, routes.Calibration)
	handle(router, "/api/config", http.MethodGet, routes.Config)
	handle(router, "/api/stream", http.MethodGet, routes.Stream)
	handle(router, "/health", http.MethodGet, routes.Health)
	if routes.Metrics != nil {
		router.Handle("/metrics", method(http.MethodGet, routes.Metrics.ServeHTTP))
	}

	for _, mw := range middlewares {
		router.Use(mw)
	}
	return router
}

func handle(router *mux.Router, path, expected string, handler http.HandlerFunc) {
	if handler == nil {
		return
	}
	router.Handle(path, method(expected, handler))
}

// method rejects other verbs with 405. GET routes also answer HEAD; net/http drops the body.
func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	allow := expected
	if expected == http.MethodGet {
		allow = http.MethodGet + ", " + http.MethodHead
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected && !(expected == http.MethodGet && r.Method == http.MethodHead) {
			w.Header().Set("Allow", allow)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte(`{"error":"not found"}` + "\n"))
}
