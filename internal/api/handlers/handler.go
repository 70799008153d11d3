// handler.go — APIHandler собирает доменные handlers и регистрирует
// их маршруты в chi-роутере.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/resume-collector/internal/api/errors"
)

// APIHandler — единая точка регистрации всех endpoints.
type APIHandler struct {
	candidates  *CandidatesHandler
	maintenance *MaintenanceHandler
	health      *HealthHandler
}

// NewAPIHandler создаёт единый handler для всех endpoints.
func NewAPIHandler(
	candidates *CandidatesHandler,
	maintenance *MaintenanceHandler,
	health *HealthHandler,
) *APIHandler {
	return &APIHandler{
		candidates:  candidates,
		maintenance: maintenance,
		health:      health,
	}
}

// Register регистрирует маршруты в роутере.
func (h *APIHandler) Register(r chi.Router) {
	r.Route("/candidates", func(r chi.Router) {
		r.Post("/", h.candidates.CreateCandidate)
		r.Get("/", h.candidates.ListCandidates)
		r.Get("/stats", h.candidates.GetStats)
		r.Get("/{id}", h.candidates.GetCandidate)
		r.Delete("/{id}", h.candidates.DeleteCandidate)
		r.Get("/{id}/resume", h.candidates.DownloadResume)
	})

	r.Post("/maintenance/reconcile", h.maintenance.Reconcile)

	r.Get("/health", h.health.Health)
	r.Get("/health/live", h.health.HealthLive)
	r.Get("/health/ready", h.health.HealthReady)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errors.NotFound(w, "Маршрут "+r.URL.Path+" не найден")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, http.StatusMethodNotAllowed, errors.CodeMethodNotAllowed,
			"Метод "+r.Method+" не поддерживается для "+r.URL.Path)
	})
}

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
