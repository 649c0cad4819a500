package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	equipmentapp "medasset-sentinel/internal/equipment/application"
	equipment "medasset-sentinel/internal/equipment/domain"
	"medasset-sentinel/internal/equipment/infrastructure/memory"
)

func newTestRouter(t *testing.T) (*mux.Router, *memory.EquipmentRepository) {
	t.Helper()
	repo := memory.NewEquipmentRepository()
	service, err := equipmentapp.NewService(repo)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	handler, err := NewHandler(service, nil, nil)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	router := mux.NewRouter()
	handler.Register(router)
	return router, repo
}

func createPayload() []byte {
	payload, _ := json.Marshal(map[string]any{
		"name":                 "CT Scanner",
		"serial_number":        "CT-100",
		"equipment_type":       "imaging",
		"location":             "Radiology",
		"manufacturer":         "GE",
		"maintenance_interval": 120,
	})
	return payload
}

func TestHandleCreate(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/equipment", bytes.NewReader(createPayload()))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created equipment.Equipment
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" || created.CurrentStatus != equipment.StatusOK {
		t.Fatalf("unexpected body: %+v", created)
	}
}

func TestHandleCreate_DuplicateSerialConflict(t *testing.T) {
	router, _ := newTestRouter(t)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/api/v1/equipment", bytes.NewReader(createPayload())))
	if first.Code != http.StatusCreated {
		t.Fatalf("first create: %d", first.Code)
	}

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/api/v1/equipment", bytes.NewReader(createPayload())))
	if second.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", second.Code)
	}
}

func TestHandleCreate_ValidationError(t *testing.T) {
	router, _ := newTestRouter(t)

	payload, _ := json.Marshal(map[string]any{"name": "Unnamed"})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/equipment", bytes.NewReader(payload)))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestHandleGet_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/equipment/missing", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestHandleUpdateStatus(t *testing.T) {
	router, _ := newTestRouter(t)

	created := httptest.NewRecorder()
	router.ServeHTTP(created, httptest.NewRequest(http.MethodPost, "/api/v1/equipment", bytes.NewReader(createPayload())))
	var item equipment.Equipment
	if err := json.Unmarshal(created.Body.Bytes(), &item); err != nil {
		t.Fatalf("decode: %v", err)
	}

	payload, _ := json.Marshal(map[string]string{"status": "FAIL"})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPut, "/api/v1/equipment/"+item.ID+"/status", bytes.NewReader(payload)))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var updated equipment.Equipment
	if err := json.Unmarshal(resp.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.CurrentStatus != equipment.StatusFail {
		t.Fatalf("status = %s, want FAIL", updated.CurrentStatus)
	}
}

func TestHandleUpdateStatus_UnknownStatus(t *testing.T) {
	router, _ := newTestRouter(t)

	payload, _ := json.Marshal(map[string]string{"status": "BROKEN"})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPut, "/api/v1/equipment/any/status", bytes.NewReader(payload)))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestHandleDelete(t *testing.T) {
	router, repo := newTestRouter(t)

	created := httptest.NewRecorder()
	router.ServeHTTP(created, httptest.NewRequest(http.MethodPost, "/api/v1/equipment", bytes.NewReader(createPayload())))
	var item equipment.Equipment
	if err := json.Unmarshal(created.Body.Bytes(), &item); err != nil {
		t.Fatalf("decode: %v", err)
	}

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/api/v1/equipment/"+item.ID, nil))
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}

	gone, err := repo.GetByID(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if gone != nil {
		t.Fatal("expected equipment to be deleted")
	}
}

func TestHandleList_FilterValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/equipment?filter=bogus", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestHandleExport_XLSX(t *testing.T) {
	router, _ := newTestRouter(t)

	created := httptest.NewRecorder()
	router.ServeHTTP(created, httptest.NewRequest(http.MethodPost, "/api/v1/equipment", bytes.NewReader(createPayload())))
	if created.Code != http.StatusCreated {
		t.Fatalf("create: %d", created.Code)
	}

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/equipment/export?format=xlsx", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp.Body.Len() == 0 {
		t.Fatal("expected workbook bytes")
	}
}
