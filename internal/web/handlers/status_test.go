package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeHealth struct {
	err error
}

func (f fakeHealth) Health(context.Context) error { return f.err }

func TestStatus(t *testing.T) {
	d := newTestDeps(t, backendWithHistory(t))

	recorder := httptest.NewRecorder()
	Status(d.roster, d.ledger, d.geofence, fakeHealth{})(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	assertContentType(t, recorder, "application/json")

	var result StatusResponse
	parseJSONResponse(t, recorder, &result)

	expected := StatusResponse{
		Success:             true,
		Status:              "operational",
		UsersRegistered:     1,
		CurrentMonthRecords: 3,
		HistoricalMonths:    1,
		CacheSize:           1,
		LocationEnabled:     false,
		CurrentMonth:        "March 2024",
		EmbeddingServer:     EmbeddingHealthy,
	}
	if result != expected {
		t.Errorf("got %+v, want %+v", result, expected)
	}
}

func TestStatus_EmbeddingServer(t *testing.T) {
	d := newTestDeps(t, backendWithHistory(t))

	tests := []struct {
		name      string
		embedding HealthChecker
		expected  string
	}{
		{"unreachable", fakeHealth{err: errors.New("connection refused")}, EmbeddingUnreachable},
		{"not configured", nil, EmbeddingUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			Status(d.roster, d.ledger, d.geofence, tt.embedding)(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

			assertStatusCode(t, recorder, http.StatusOK)
			var result StatusResponse
			parseJSONResponse(t, recorder, &result)
			if result.EmbeddingServer != tt.expected {
				t.Errorf("expected embedding_server %q, got %q", tt.expected, result.EmbeddingServer)
			}
		})
	}
}
