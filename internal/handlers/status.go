package handlers

import (
	"net/http"
	"time"

	"podcast-kb/internal/admission"
	"podcast-kb/internal/models"
)

type statusReporter interface {
	Status() admission.Status
}

type sessionCounter interface {
	Count() int
}

type HealthHandler struct {
	controller statusReporter
	sessions   sessionCounter
	started    time.Time
}

func NewHealthHandler(controller statusReporter, sessions sessionCounter) *HealthHandler {
	return &HealthHandler{controller: controller, sessions: sessions, started: time.Now()}
}

// Health always answers 200 while the process runs; "degraded" means the
// circuit breaker is not closed.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	st := h.controller.Status()

	status := "ok"
	if st.Circuit != admission.StateClosed.String() {
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          status,
		"memory":          st.HeapHuman,
		"heap_bytes":      st.HeapBytes,
		"in_flight":       st.InFlight,
		"max_concurrent":  st.MaxConcurrent,
		"circuit_breaker": st.Circuit,
		"failures":        st.Failures,
		"sessions":        h.sessions.Count(),
		"uptime":          time.Since(h.started).Round(time.Second).String(),
	})
}

type statsProvider interface {
	Stats() models.Stats
	Methods() []string
}

type StatsHandler struct {
	ops statsProvider
}

func NewStatsHandler(ops statsProvider) *StatsHandler {
	return &StatsHandler{ops: ops}
}

func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"corpus":  h.ops.Stats(),
		"methods": h.ops.Methods(),
	})
}

type breakerResetter interface {
	ResetBreaker()
	Status() admission.Status
}

type AdminHandler struct {
	controller breakerResetter
}

func NewAdminHandler(controller breakerResetter) *AdminHandler {
	return &AdminHandler{controller: controller}
}

func (h *AdminHandler) ResetCircuitBreaker(w http.ResponseWriter, r *http.Request) {
	before := h.controller.Status().Circuit
	h.controller.ResetBreaker()

	writeJSON(w, http.StatusOK, map[string]string{
		"message":         "Circuit breaker reset",
		"previous_state":  before,
		"circuit_breaker": h.controller.Status().Circuit,
	})
}
