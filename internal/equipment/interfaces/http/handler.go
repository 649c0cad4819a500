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

	"medasset-sentinel/internal/audit"
	"medasset-sentinel/internal/auth"
	equipmentapp "medasset-sentinel/internal/equipment/application"
	equipment "medasset-sentinel/internal/equipment/domain"
	"medasset-sentinel/internal/equipment/interfaces/export"
)

// Handler provides equipment HTTP endpoints.
type Handler struct {
	service *equipmentapp.Service
	auditor audit.Logger
	logger  logrus.FieldLogger
}

// NewHandler constructs a handler.
func NewHandler(service *equipmentapp.Service, auditor audit.Logger, logger logrus.FieldLogger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("equipment handler: nil service")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{service: service, auditor: auditor, logger: logger}, nil
}

// Register mounts equipment routes on the router.
func (h *Handler) Register(router *mux.Router) {
	router.HandleFunc("/api/v1/equipment", h.handleList).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/equipment", h.handleCreate).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/equipment/export", h.handleExport).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/equipment/{id}", h.handleGet).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/equipment/{id}", h.handleUpdate).Methods(http.MethodPut)
	router.HandleFunc("/api/v1/equipment/{id}", h.handleDelete).Methods(http.MethodDelete)
	router.HandleFunc("/api/v1/equipment/{id}/status", h.handleUpdateStatus).Methods(http.MethodPut)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	var (
		list []equipment.Equipment
		err  error
	)

	query := r.URL.Query()
	switch {
	case query.Get("serial") != "":
		item, lookupErr := h.service.GetBySerial(r.Context(), query.Get("serial"))
		if lookupErr != nil {
			h.respondError(w, lookupErr)
			return
		}
		writeJSON(w, http.StatusOK, item)
		return
	case query.Get("status") != "":
		status, parseErr := equipment.ParseStatus(query.Get("status"))
		if parseErr != nil {
			http.Error(w, "unknown status", http.StatusBadRequest)
			return
		}
		list, err = h.service.ListByStatus(r.Context(), status)
	case query.Get("filter") == "overdue":
		list, err = h.service.ListOverdue(r.Context())
	case query.Get("filter") == "upcoming":
		days := 0
		if raw := query.Get("days"); raw != "" {
			days, err = strconv.Atoi(raw)
			if err != nil || days < 0 {
				http.Error(w, "days must be a non-negative integer", http.StatusBadRequest)
				return
			}
		}
		list, err = h.service.ListUpcoming(r.Context(), days)
	case query.Get("filter") == "failing":
		list, err = h.service.ListFailing(r.Context())
	case query.Get("filter") != "":
		http.Error(w, "unknown filter", http.StatusBadRequest)
		return
	default:
		list, err = h.service.List(r.Context())
	}
	if err != nil {
		h.logger.WithError(err).Error("equipment list failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var input equipmentapp.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	item, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.audit(r, "equipment.create", item.ID)
	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var input equipmentapp.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	id := mux.Vars(r)["id"]
	item, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.audit(r, "equipment.update", id)
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	status, err := equipment.ParseStatus(payload.Status)
	if err != nil {
		http.Error(w, "unknown status", http.StatusBadRequest)
		return
	}

	id := mux.Vars(r)["id"]
	item, err := h.service.UpdateStatus(r.Context(), id, status)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.audit(r, "equipment.status", id)
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	h.audit(r, "equipment.delete", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("equipment export failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	now := time.Now().UTC()
	switch r.URL.Query().Get("format") {
	case "", "xlsx":
		data, err := export.BuildInventoryXLSX(list, now)
		if err != nil {
			h.logger.WithError(err).Error("xlsx export failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=equipment-%s.xlsx", now.Format("20060102")))
		_, _ = w.Write(data)
	case "pdf":
		data, err := export.BuildInventoryPDF(list, now)
		if err != nil {
			h.logger.WithError(err).Error("pdf export failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=equipment-%s.pdf", now.Format("20060102")))
		_, _ = w.Write(data)
	default:
		http.Error(w, "unknown format", http.StatusBadRequest)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var validation *equipment.ValidationError
	switch {
	case errors.As(err, &validation):
		http.Error(w, validation.Error(), http.StatusBadRequest)
	case errors.Is(err, equipment.ErrNotFound):
		http.Error(w, "equipment not found", http.StatusNotFound)
	case errors.Is(err, equipment.ErrDuplicateSerial):
		http.Error(w, "serial number already registered", http.StatusConflict)
	default:
		h.logger.WithError(err).Error("equipment request failed")
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
		ResourceType: "equipment",
		ResourceID:   resourceID,
		IP:           r.RemoteAddr,
		UserAgent:    r.UserAgent(),
	}
	if err := h.auditor.Log(r.Context(), entry); err != nil {
		h.logger.WithError(err).Warn("audit write failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
