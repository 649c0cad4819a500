package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"medasset-sentinel/internal/audit"
	"medasset-sentinel/internal/auth"
	equipment "medasset-sentinel/internal/equipment/domain"
	maintenanceapp "medasset-sentinel/internal/maintenance/application"
	maintenance "medasset-sentinel/internal/maintenance/domain"
)

// Handler provides maintenance HTTP endpoints.
type Handler struct {
	service *maintenanceapp.Service
	scanner *maintenanceapp.Scanner
	auditor audit.Logger
	logger  logrus.FieldLogger
}

// NewHandler constructs a handler.
func NewHandler(service *maintenanceapp.Service, scanner *maintenanceapp.Scanner, auditor audit.Logger, logger logrus.FieldLogger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("maintenance handler: nil service")
	}
	if scanner == nil {
		return nil, errors.New("maintenance handler: nil scanner")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{service: service, scanner: scanner, auditor: auditor, logger: logger}, nil
}

// Register mounts maintenance routes on the router.
func (h *Handler) Register(router *mux.Router) {
	router.HandleFunc("/api/v1/equipment/{id}/maintenance", h.handleLog).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/equipment/{id}/maintenance", h.handleHistory).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/maintenance/recent", h.handleRecent).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/maintenance/{id}", h.handleGet).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/compliance/check", h.handleComplianceCheck).Methods(http.MethodPost)
}

func (h *Handler) handleLog(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PerformedBy string `json:"performed_by"`
		Notes       string `json:"notes"`
		PerformedAt string `json:"performed_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var performedAt time.Time
	if payload.PerformedAt != "" {
		parsed, err := time.Parse(time.RFC3339, payload.PerformedAt)
		if err != nil {
			http.Error(w, "performed_at must be RFC3339", http.StatusBadRequest)
			return
		}
		performedAt = parsed.UTC()
	}

	id := mux.Vars(r)["id"]
	entry, resolved, err := h.service.LogMaintenance(r.Context(), id, payload.PerformedBy, payload.Notes, performedAt)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.audit(r, "maintenance.log", entry.ID)

	writeJSON(w, http.StatusCreated, struct {
		Entry          *maintenance.Entry `json:"entry"`
		ResolvedAlerts int                `json:"resolved_alerts"`
	}{Entry: entry, ResolvedAlerts: resolved})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	list, err := h.service.History(r.Context(), mux.Vars(r)["id"], limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	list, err := h.service.Recent(r.Context(), limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) handleComplianceCheck(w http.ResponseWriter, r *http.Request) {
	summary, err := h.scanner.CheckCompliance(r.Context(), time.Time{})
	if err != nil {
		h.logger.WithError(err).Error("compliance check failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.audit(r, "compliance.check", "")
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var validation *maintenance.ValidationError
	switch {
	case errors.As(err, &validation):
		http.Error(w, validation.Error(), http.StatusBadRequest)
	case errors.Is(err, equipment.ErrNotFound):
		http.Error(w, "equipment not found", http.StatusNotFound)
	case errors.Is(err, maintenance.ErrNotFound):
		http.Error(w, "maintenance entry not found", http.StatusNotFound)
	default:
		h.logger.WithError(err).Error("maintenance request failed")
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
		ResourceType: "maintenance",
		ResourceID:   resourceID,
		IP:           r.RemoteAddr,
		UserAgent:    r.UserAgent(),
	}
	if err := h.auditor.Log(r.Context(), entry); err != nil {
		h.logger.WithError(err).Warn("audit write failed")
	}
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
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
