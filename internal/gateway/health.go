package gateway

import (
	"net/http"

	"github.com/af-corp/textguard/internal/httputil"
)

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string         `json:"status"`
	Version  string         `json:"version"`
	Rules    map[string]int `json:"rules"`
	Sessions any            `json:"sessions,omitempty"`
}

// Health returns a handler reporting liveness and the loaded rule tables.
func (h *Handler) Health(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := HealthStatus{
			Status:  "healthy",
			Version: version,
			Rules:   h.engines.Load().Rules().Stats(),
		}
		if s, err := h.sessions.Stats(r.Context()); err == nil {
			st.Sessions = s
		}
		httputil.WriteJSON(w, "", http.StatusOK, st)
	}
}
