package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	alertapp "medasset-sentinel/internal/alerts/application"
	alerts "medasset-sentinel/internal/alerts/domain"
	equipmentapp "medasset-sentinel/internal/equipment/application"
	equipment "medasset-sentinel/internal/equipment/domain"
	maintenanceapp "medasset-sentinel/internal/maintenance/application"
	maintenance "medasset-sentinel/internal/maintenance/domain"
)

// Summary aggregates fleet-wide statistics for the dashboard view.
type Summary struct {
	Equipment   equipment.Statistics   `json:"equipment"`
	Alerts      alerts.Statistics      `json:"alerts"`
	Maintenance maintenance.Statistics `json:"maintenance"`
}

// Handler serves the combined dashboard summary.
type Handler struct {
	equipment   *equipmentapp.Service
	alerts      *alertapp.Service
	maintenance *maintenanceapp.Service
	logger      logrus.FieldLogger
}

// NewHandler constructs a dashboard handler.
func NewHandler(equipmentSvc *equipmentapp.Service, alertSvc *alertapp.Service, maintenanceSvc *maintenanceapp.Service, logger logrus.FieldLogger) (*Handler, error) {
	if equipmentSvc == nil || alertSvc == nil || maintenanceSvc == nil {
		return nil, errors.New("dashboard handler: nil service")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{equipment: equipmentSvc, alerts: alertSvc, maintenance: maintenanceSvc, logger: logger}, nil
}

// Register mounts the dashboard route on the router.
func (h *Handler) Register(router *mux.Router) {
	router.HandleFunc("/api/v1/dashboard", h.handleSummary).Methods(http.MethodGet)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	equipmentStats, err := h.equipment.Statistics(ctx)
	if err != nil {
		h.fail(w, err)
		return
	}
	alertStats, err := h.alerts.Statistics(ctx)
	if err != nil {
		h.fail(w, err)
		return
	}
	maintenanceStats, err := h.maintenance.Statistics(ctx)
	if err != nil {
		h.fail(w, err)
		return
	}

	summary := Summary{
		Equipment:   equipmentStats,
		Alerts:      alertStats,
		Maintenance: maintenanceStats,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(summary)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	h.logger.WithError(err).Error("dashboard summary failed")
	http.Error(w, "internal error", http.StatusInternalServerError)
}
