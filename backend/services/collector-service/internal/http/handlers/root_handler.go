package handlers

import "net/http"

const rootMessage = "Study Space Scanner API is running"

// NewRootHandler returns GET / handler.
func NewRootHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(rootMessage))
	}
}
