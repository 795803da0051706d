package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
	"github.com/kozaktomas/face-attendance/internal/geofence"
)

func newAttendanceHandler(t *testing.T, backend *mock.Backend) (*AttendanceHandler, *testDeps) {
	t.Helper()
	d := newTestDeps(t, backend)
	return NewAttendanceHandler(d.service, d.ledger, zap.NewNop()), d
}

func TestAttendanceHandler_Register(t *testing.T) {
	h, d := newAttendanceHandler(t, mock.NewBackend())
	d.extractor.set([]float32{0.5, 0.5, 0.5})

	recorder := httptest.NewRecorder()
	h.Register(recorder, multipartRequest(t, "/api/v1/register", grayPNG(t, 200, 128), map[string]string{
		"user_id":  "emp-2",
		"name":     "Bob",
		"password": "hunter2",
	}))

	assertStatusCode(t, recorder, http.StatusOK)

	var result struct {
		Success bool           `json:"success"`
		Message string         `json:"message"`
		Data    registeredUser `json:"data"`
	}
	parseJSONResponse(t, recorder, &result)
	if result.Message != "User Bob registered successfully" {
		t.Errorf("unexpected message %q", result.Message)
	}
	if result.Data.UserID != "emp-2" {
		t.Errorf("expected user_id emp-2, got %s", result.Data.UserID)
	}
	if _, ok := d.backend.Identities()["emp-2"]; !ok {
		t.Error("identity was not persisted")
	}
}

func TestAttendanceHandler_Register_Errors(t *testing.T) {
	tests := []struct {
		name      string
		file      []byte
		fields    map[string]string
		templates [][]float32
		status    int
		message   string
	}{
		{
			name:    "no file",
			fields:  map[string]string{"user_id": "emp-2", "name": "Bob", "password": "hunter2"},
			status:  http.StatusBadRequest,
			message: "no file provided",
		},
		{
			name:      "short password",
			file:      []byte{1},
			fields:    map[string]string{"user_id": "emp-2", "name": "Bob", "password": "abc"},
			templates: [][]float32{{0.5, 0.5, 0.5}},
			status:    http.StatusBadRequest,
			message:   "password must be at least 4 characters",
		},
		{
			name:    "no face",
			fields:  map[string]string{"user_id": "emp-2", "name": "Bob", "password": "hunter2"},
			status:  http.StatusUnprocessableEntity,
			message: "no face detected",
		},
		{
			name:      "duplicate id",
			fields:    map[string]string{"user_id": "emp-1", "name": "Alice Again", "password": "hunter2"},
			templates: [][]float32{{0.9, 0.9, 0.9}},
			status:    http.StatusConflict,
			message:   "user ID already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, d := newAttendanceHandler(t, backendWithAlice(t))
			d.extractor.set(tt.templates...)

			file := tt.file
			if file == nil && tt.message != "no file provided" {
				file = grayPNG(t, 200, 128)
			}

			recorder := httptest.NewRecorder()
			h.Register(recorder, multipartRequest(t, "/api/v1/register", file, tt.fields))

			assertStatusCode(t, recorder, tt.status)
			assertJSONError(t, recorder, tt.message)
		})
	}
}

func TestAttendanceHandler_Submit_Recorded(t *testing.T) {
	h, d := newAttendanceHandler(t, backendWithAlice(t))
	d.extractor.set([]float32{0.05, 0, 0})

	recorder := httptest.NewRecorder()
	h.Submit(recorder, multipartRequest(t, "/api/v1/attendance", grayPNG(t, 200, 128), nil))

	assertStatusCode(t, recorder, http.StatusOK)

	var result struct {
		Success        bool `json:"success"`
		RecognizedUser struct {
			UserID     string  `json:"user_id"`
			Similarity float64 `json:"similarity"`
			Confidence string  `json:"confidence"`
		} `json:"recognized_user"`
		Location locationResult `json:"location"`
	}
	parseJSONResponse(t, recorder, &result)
	if !result.Success || result.RecognizedUser.UserID != "emp-1" {
		t.Errorf("unexpected response: %s", recorder.Body.String())
	}
	if result.RecognizedUser.Confidence != "HIGH" {
		t.Errorf("expected HIGH confidence, got %s", result.RecognizedUser.Confidence)
	}
	if !result.Location.Verified || result.Location.Message != geofence.MessageDisabled {
		t.Errorf("unexpected location: %+v", result.Location)
	}
	if len(d.backend.Active()) != 1 {
		t.Errorf("expected 1 persisted event, got %d", len(d.backend.Active()))
	}
}

func TestAttendanceHandler_Submit_Unrecognized(t *testing.T) {
	h, d := newAttendanceHandler(t, backendWithAlice(t))
	d.extractor.set([]float32{0.9, 0, 0})

	recorder := httptest.NewRecorder()
	h.Submit(recorder, multipartRequest(t, "/api/v1/attendance", grayPNG(t, 200, 128), nil))

	assertStatusCode(t, recorder, http.StatusOK)

	var result map[string]any
	parseJSONResponse(t, recorder, &result)
	if result["success"] != true || result["recognized_user"] != nil {
		t.Errorf("unexpected response: %v", result)
	}
	if result["message"] != "face not recognized (highest similarity: 10.00%)" {
		t.Errorf("unexpected message %v", result["message"])
	}
	if len(d.backend.Active()) != 0 {
		t.Error("expected no event to be written")
	}
}

func TestAttendanceHandler_Submit_NoFace(t *testing.T) {
	h, _ := newAttendanceHandler(t, backendWithAlice(t))

	recorder := httptest.NewRecorder()
	h.Submit(recorder, multipartRequest(t, "/api/v1/attendance", grayPNG(t, 200, 128), nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var result map[string]any
	parseJSONResponse(t, recorder, &result)
	if result["recognized_user"] != nil || result["message"] != "no face detected" {
		t.Errorf("unexpected response: %v", result)
	}
}

func TestAttendanceHandler_Submit_LocationRejected(t *testing.T) {
	backend := backendWithAlice(t)
	h, d := newAttendanceHandler(t, backend)
	d.extractor.set([]float32{0.05, 0, 0})
	if _, err := d.geofence.Update(t.Context(), geofence.Policy{
		Enabled:      true,
		Latitude:     -6.2088,
		Longitude:    106.8456,
		RadiusMeters: 100,
		LocationName: "Kantor Pusat",
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	recorder := httptest.NewRecorder()
	h.Submit(recorder, multipartRequest(t, "/api/v1/attendance", grayPNG(t, 200, 128), map[string]string{
		"latitude":  "-6.3000",
		"longitude": "106.8456",
	}))

	assertStatusCode(t, recorder, http.StatusForbidden)

	var result map[string]any
	parseJSONResponse(t, recorder, &result)
	if result["success"] != false {
		t.Errorf("expected success false, got %v", result["success"])
	}
	user, ok := result["recognized_user"].(map[string]any)
	if !ok || user["user_id"] != "emp-1" {
		t.Errorf("expected recognized_user emp-1, got %v", result["recognized_user"])
	}
	if len(backend.Active()) != 0 {
		t.Error("expected no event to be written")
	}
}

func TestAttendanceHandler_Submit_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    []byte
		extErr  error
		status  int
		message string
	}{
		{"no file", nil, nil, http.StatusBadRequest, "no file provided"},
		{"garbage image", []byte("not an image"), nil, http.StatusBadRequest, "invalid image file"},
		{"too dark", grayPNG(t, 200, 10), nil, http.StatusUnprocessableEntity, "poor image quality: image too dark"},
		{"extractor down", grayPNG(t, 200, 128), errors.New("connection refused"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, d := newAttendanceHandler(t, backendWithAlice(t))
			d.extractor.err = tt.extErr

			recorder := httptest.NewRecorder()
			h.Submit(recorder, multipartRequest(t, "/api/v1/attendance", tt.file, nil))

			assertStatusCode(t, recorder, tt.status)
			assertJSONError(t, recorder, tt.message)
		})
	}
}

func TestAttendanceHandler_Submit_StorageFailure(t *testing.T) {
	backend := backendWithAlice(t)
	backend.SaveActiveError = errors.New("disk full")
	h, d := newAttendanceHandler(t, backend)
	d.extractor.set([]float32{0.05, 0, 0})

	recorder := httptest.NewRecorder()
	h.Submit(recorder, multipartRequest(t, "/api/v1/attendance", grayPNG(t, 200, 128), nil))

	assertStatusCode(t, recorder, http.StatusInternalServerError)
	var result map[string]any
	parseJSONResponse(t, recorder, &result)
	if result["success"] != false {
		t.Errorf("expected success false, got %v", result)
	}
}

func TestAttendanceHandler_Records(t *testing.T) {
	backend := mock.NewBackend()
	var events []database.AttendanceEvent
	for i := range 120 {
		events = append(events, event("emp-1", testNow.Add(-time.Duration(119-i)*time.Minute), true))
	}
	backend.SetActive(events)
	h, _ := newAttendanceHandler(t, backend)

	recorder := httptest.NewRecorder()
	h.Records(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/attendance-records", nil))

	assertStatusCode(t, recorder, http.StatusOK)

	var result struct {
		TotalRecords int `json:"total_records"`
		Records      []struct {
			Timestamp time.Time `json:"timestamp"`
		} `json:"records"`
	}
	parseJSONResponse(t, recorder, &result)
	if result.TotalRecords != 120 {
		t.Errorf("expected total 120, got %d", result.TotalRecords)
	}
	if len(result.Records) != 100 {
		t.Fatalf("expected 100 records, got %d", len(result.Records))
	}
	if !result.Records[0].Timestamp.Equal(testNow) {
		t.Errorf("expected newest first, got %v", result.Records[0].Timestamp)
	}
}
