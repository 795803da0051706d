package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/database/mock"
	"github.com/kozaktomas/face-attendance/internal/geofence"
)

func newLocationHandler(t *testing.T) (*LocationHandler, *testDeps) {
	t.Helper()
	d := newTestDeps(t, mock.NewBackend())
	return NewLocationHandler(d.geofence, zap.NewNop()), d
}

func TestLocationHandler_Get(t *testing.T) {
	h, _ := newLocationHandler(t)

	recorder := httptest.NewRecorder()
	h.Get(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/admin/location-settings", nil))

	assertStatusCode(t, recorder, http.StatusOK)

	var result struct {
		Settings geofence.Policy `json:"settings"`
	}
	parseJSONResponse(t, recorder, &result)
	if result.Settings.LocationName != "Kantor Pusat" || result.Settings.RadiusMeters != 100 || result.Settings.Enabled {
		t.Errorf("unexpected settings %+v", result.Settings)
	}
}

func TestLocationHandler_Update(t *testing.T) {
	h, d := newLocationHandler(t)

	recorder := httptest.NewRecorder()
	h.Update(recorder, jsonRequest(t, http.MethodPost, "/api/v1/admin/location-settings", map[string]any{
		"enabled":       true,
		"latitude":      50.0755,
		"longitude":     14.4378,
		"radius":        250,
		"location_name": "Prague Office",
	}))

	assertStatusCode(t, recorder, http.StatusOK)

	var result map[string]any
	parseJSONResponse(t, recorder, &result)
	if result["message"] != "Location settings updated successfully" {
		t.Errorf("unexpected message %v", result["message"])
	}

	policy := d.geofence.Get()
	if !policy.Enabled || policy.RadiusMeters != 250 || policy.LocationName != "Prague Office" {
		t.Errorf("policy not updated: %+v", policy)
	}
	if d.backend.PolicySaves != 1 {
		t.Errorf("expected 1 policy save, got %d", d.backend.PolicySaves)
	}
}

func TestLocationHandler_Update_Invalid(t *testing.T) {
	valid := func() map[string]any {
		return map[string]any{
			"enabled":       true,
			"latitude":      50.0,
			"longitude":     14.0,
			"radius":        100,
			"location_name": "Office",
		}
	}

	tests := []struct {
		name    string
		mutate  func(map[string]any)
		message string
	}{
		{"missing enabled", func(m map[string]any) { delete(m, "enabled") }, "Field enabled is required"},
		{"missing radius", func(m map[string]any) { delete(m, "radius") }, "Field radius is required"},
		{"missing name", func(m map[string]any) { delete(m, "location_name") }, "Field location_name is required"},
		{"latitude out of range", func(m map[string]any) { m["latitude"] = 91.0 }, "latitude must be between -90 and 90"},
		{"longitude out of range", func(m map[string]any) { m["longitude"] = -181.0 }, "longitude must be between -180 and 180"},
		{"negative radius", func(m map[string]any) { m["radius"] = -1 }, "radius must not be negative"},
		{"blank name", func(m map[string]any) { m["location_name"] = "  " }, "location_name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, d := newLocationHandler(t)
			body := valid()
			tt.mutate(body)

			recorder := httptest.NewRecorder()
			h.Update(recorder, jsonRequest(t, http.MethodPost, "/api/v1/admin/location-settings", body))

			assertStatusCode(t, recorder, http.StatusBadRequest)
			assertJSONError(t, recorder, tt.message)
			if d.geofence.Get().LocationName != "Kantor Pusat" {
				t.Error("policy changed on invalid update")
			}
		})
	}
}

func TestLocationHandler_Test(t *testing.T) {
	h, _ := newLocationHandler(t)

	recorder := httptest.NewRecorder()
	h.Test(recorder, jsonRequest(t, http.MethodPost, "/api/v1/admin/test-location", map[string]float64{
		"latitude":  -6.2088,
		"longitude": 106.8456,
	}))

	assertStatusCode(t, recorder, http.StatusOK)

	var result struct {
		Valid     bool    `json:"valid"`
		Distance  float64 `json:"distance"`
		MaxRadius float64 `json:"max_radius"`
		Message   string  `json:"message"`
	}
	parseJSONResponse(t, recorder, &result)
	if !result.Valid || result.Distance != 0 || result.MaxRadius != 100 {
		t.Errorf("unexpected result %+v", result)
	}
	if result.Message != "Distance: 0m from Kantor Pusat (Valid)" {
		t.Errorf("unexpected message %q", result.Message)
	}
}

func TestLocationHandler_Test_MissingCoordinates(t *testing.T) {
	h, _ := newLocationHandler(t)

	recorder := httptest.NewRecorder()
	h.Test(recorder, jsonRequest(t, http.MethodPost, "/api/v1/admin/test-location", map[string]float64{
		"latitude": -6.2,
	}))

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "latitude and longitude are required")
}

func TestLocationHandler_Test_OutOfRange(t *testing.T) {
	h, _ := newLocationHandler(t)

	recorder := httptest.NewRecorder()
	h.Test(recorder, jsonRequest(t, http.MethodPost, "/api/v1/admin/test-location", map[string]float64{
		"latitude":  353.7912,
		"longitude": 106.8456,
	}))

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "latitude and longitude are out of range")
}
