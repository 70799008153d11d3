// maintenance.go — обработчик POST /maintenance/reconcile.
// Делегирует reconciliation в ReconcileService.
package handlers

import (
	"net/http"

	"github.com/bigkaa/resume-collector/internal/api/errors"
	"github.com/bigkaa/resume-collector/internal/domain/model"
)

// ReconcileRunner — интерфейс для запуска reconciliation.
// Позволяет тестировать handler без полного ReconcileService.
type ReconcileRunner interface {
	// RunOnce выполняет один цикл reconciliation.
	// Возвращает результат и флаг "уже выполняется".
	RunOnce() (*model.ReconcileReport, bool)
}

// MaintenanceHandler — обработчик endpoints обслуживания.
type MaintenanceHandler struct {
	reconciler ReconcileRunner
}

// NewMaintenanceHandler создаёт обработчик maintenance endpoints.
func NewMaintenanceHandler(reconciler ReconcileRunner) *MaintenanceHandler {
	return &MaintenanceHandler{reconciler: reconciler}
}

// Reconcile обрабатывает POST /maintenance/reconcile.
// Запускает синхронный цикл reconciliation и возвращает результат.
// Если reconciliation уже выполняется — 409 RECONCILE_IN_PROGRESS.
func (h *MaintenanceHandler) Reconcile(w http.ResponseWriter, _ *http.Request) {
	result, inProgress := h.reconciler.RunOnce()
	if inProgress {
		errors.ReconcileInProgress(w, "Reconciliation уже выполняется")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
