package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	alertapp "medasset-sentinel/internal/alerts/application"
	alerts "medasset-sentinel/internal/alerts/domain"
	"medasset-sentinel/internal/alerts/interfaces/export"
	"medasset-sentinel/internal/audit"
	"medasset-sentinel/internal/auth"
	equipment "medasset-sentinel/internal/equipment/domain"
)

// Handler provides alert HTTP endpoints.
type Handler struct {
	service *alertapp.Service
	auditor audit.Logger
	logger  logrus.FieldLogger
}

// NewHandler constructs a handler.
func NewHandler(service *alertapp.Service, auditor audit.Logger, logger logrus.FieldLogger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("alerts handler: nil service")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{service: service, auditor: auditor, logger: logger}, nil
}

// Register mounts alert routes on the router.
func (h *Handler) Register(router *mux.Router) {
	router.HandleFunc("/api/v1/alerts", h.handleListUnresolved).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/alerts", h.handleCreate).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/alerts/export", h.handleExport).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/alerts/recent", h.handleListRecent).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/alerts/stats", h.handleStats).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/alerts/{id}/resolve", h.handleResolve).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/equipment/{id}/alerts", h.handleListByEquipment).Methods(http.MethodGet)
}

func (h *Handler) handleListUnresolved(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	list, err := h.service.UnresolvedAlerts(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("alert list failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleListRecent(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	includeResolved := r.URL.Query().Get("include_resolved") == "true"
	list, err := h.service.RecentAlerts(r.Context(), limit, includeResolved)
	if err != nil {
		h.logger.WithError(err).Error("recent alert list failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		EquipmentID string `json:"equipment_id"`
		AlertType   string `json:"alert_type"`
		Severity    string `json:"severity"`
		Message     string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	typ, err := alerts.ParseType(payload.AlertType)
	if err != nil {
		http.Error(w, "unknown alert type", http.StatusBadRequest)
		return
	}
	severity, err := alerts.ParseSeverity(payload.Severity)
	if err != nil {
		http.Error(w, "unknown severity", http.StatusBadRequest)
		return
	}
	if payload.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	alert, err := h.service.CreateAlert(r.Context(), payload.EquipmentID, typ, severity, payload.Message)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if alert == nil {
		// An open alert of this type already exists for the equipment.
		writeJSON(w, http.StatusOK, map[string]string{"status": "suppressed"})
		return
	}
	h.audit(r, "alert.create", alert.ID)
	writeJSON(w, http.StatusCreated, alert)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.UnresolvedAlerts(r.Context(), 0)
	if err != nil {
		h.logger.WithError(err).Error("alert export failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	now := time.Now().UTC()
	switch r.URL.Query().Get("format") {
	case "", "xlsx":
		data, err := export.BuildOpenAlertsXLSX(list, now)
		if err != nil {
			h.logger.WithError(err).Error("xlsx export failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=alerts-%s.xlsx", now.Format("20060102")))
		_, _ = w.Write(data)
	case "pdf":
		data, err := export.BuildOpenAlertsPDF(list, now)
		if err != nil {
			h.logger.WithError(err).Error("pdf export failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=alerts-%s.pdf", now.Format("20060102")))
		_, _ = w.Write(data)
	default:
		http.Error(w, "unknown format", http.StatusBadRequest)
	}
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	alert, err := h.service.ResolveAlert(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.audit(r, "alert.resolve", id)
	writeJSON(w, http.StatusOK, alert)
}

func (h *Handler) handleListByEquipment(w http.ResponseWriter, r *http.Request) {
	var resolved *bool
	if raw := r.URL.Query().Get("resolved"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			http.Error(w, "resolved must be a boolean", http.StatusBadRequest)
			return
		}
		resolved = &value
	}
	list, err := h.service.AlertsByEquipment(r.Context(), mux.Vars(r)["id"], resolved)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Statistics(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("alert stats failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, alerts.ErrNotFound):
		http.Error(w, "alert not found", http.StatusNotFound)
	case errors.Is(err, equipment.ErrNotFound):
		http.Error(w, "equipment not found", http.StatusNotFound)
	case errors.Is(err, alerts.ErrAlreadyResolved):
		http.Error(w, "alert already resolved", http.StatusConflict)
	case errors.Is(err, alerts.ErrInvalidType):
		http.Error(w, "invalid alert type", http.StatusBadRequest)
	default:
		h.logger.WithError(err).Error("alert request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *Handler) audit(r *http.Request, action, resourceID string) {
	if h.auditor == nil {
		return
	}
	entry := audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Action:       action,
		ResourceType: "alert",
		ResourceID:   resourceID,
		IP:           r.RemoteAddr,
		UserAgent:    r.UserAgent(),
	}
	if err := h.auditor.Log(r.Context(), entry); err != nil {
		h.logger.WithError(err).Warn("audit write failed")
	}
}

func parseLimit(r *http.Request, fallback int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, errors.New("limit must be a non-negative integer")
	}
	return limit, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
