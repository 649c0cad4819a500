package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	equipment "medasset-sentinel/internal/equipment/domain"
	sensorapp "medasset-sentinel/internal/sensors/application"
)

// Handler provides sensor ingestion endpoints.
type Handler struct {
	service *sensorapp.Service
	logger  logrus.FieldLogger
}

// NewHandler constructs a handler.
func NewHandler(service *sensorapp.Service, logger logrus.FieldLogger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("sensors handler: nil service")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{service: service, logger: logger}, nil
}

// Register mounts sensor routes on the router.
func (h *Handler) Register(router *mux.Router) {
	router.HandleFunc("/api/v1/equipment/{id}/events", h.handleRecord).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/equipment/{id}/events", h.handleHistory).Methods(http.MethodGet)
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Status     string `json:"status"`
		RecordedAt string `json:"recorded_at"`
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
	var recordedAt time.Time
	if payload.RecordedAt != "" {
		parsed, err := time.Parse(time.RFC3339, payload.RecordedAt)
		if err != nil {
			http.Error(w, "recorded_at must be RFC3339", http.StatusBadRequest)
			return
		}
		recordedAt = parsed.UTC()
	}

	event, err := h.service.RecordReading(r.Context(), mux.Vars(r)["id"], status, recordedAt)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	list, err := h.service.History(r.Context(), mux.Vars(r)["id"], limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, equipment.ErrNotFound) {
		http.Error(w, "equipment not found", http.StatusNotFound)
		return
	}
	h.logger.WithError(err).Error("sensor request failed")
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
