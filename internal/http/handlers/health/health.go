// Package health serves the liveness probe used by load balancers and the
// CLI's connectivity check.
package health

import (
	"net/http"

	"github.com/aanand-mishra/student-records/internal/utils/response"
)

// Path is where Register mounts the probe.
const Path = "/health"

// Status is the probe body.
type Status struct {
	Status string `json:"status"`
}

// Register mounts GET /health on mux.
func Register(mux *http.ServeMux) {
	mux.HandleFunc("GET "+Path, New())
}

// New returns a handler that always answers 200 {"status":"ok"}. It does
// not touch storage.
func New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, Status{Status: "ok"})
	}
}
