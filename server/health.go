package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"
)

type readinessCheck struct {
	name  string
	check func(context.Context) error
}

// AddReadinessCheck registers a dependency probe for /readyz.
func (h *Handler) AddReadinessCheck(name string, check func(context.Context) error) {
	h.checksMu.Lock()
	defer h.checksMu.Unlock()
	h.checks = append(h.checks, readinessCheck{name: name, check: check})
	sort.Slice(h.checks, func(i, j int) bool { return h.checks[i].name < h.checks[j].name })
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	h.checksMu.RLock()
	defer h.checksMu.RUnlock()

	checks := map[string]string{}
	status := http.StatusOK
	for _, c := range h.checks {
		if err := c.check(ctx); err != nil {
			checks[c.name] = "unhealthy: " + err.Error()
			status = http.StatusServiceUnavailable
		} else {
			checks[c.name] = "ok"
		}
	}

	writeJSON(w, status, map[string]interface{}{"status": statusStr(status), "checks": checks})
}

func statusStr(code int) string {
	if code == http.StatusOK {
		return "ok"
	}
	return "unhealthy"
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
