package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/auth"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
	"github.com/kozaktomas/face-attendance/internal/extractor"
	"github.com/kozaktomas/face-attendance/internal/geofence"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/kozaktomas/face-attendance/internal/metrics"
	"github.com/kozaktomas/face-attendance/internal/roster"
)

var testNow = time.Date(2024, 3, 15, 8, 30, 0, 0, time.UTC)

// fakeExtractor returns fixed templates for every image
type fakeExtractor struct {
	mu        sync.Mutex
	templates [][]float32
	err       error
}

func (f *fakeExtractor) Extract(_ context.Context, _ []byte) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.templates, f.err
}

func (f *fakeExtractor) set(templates ...[]float32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.templates = templates
}

// testDeps wires real components over a mock backend
type testDeps struct {
	backend   *mock.Backend
	extractor *fakeExtractor
	roster    *roster.Roster
	ledger    *ledger.Ledger
	geofence  *geofence.Store
	tokens    *auth.TokenService
	admin     *auth.Admin
	metrics   *metrics.Metrics
	service   *attendance.Service
}

func newTestDeps(t *testing.T, backend *mock.Backend) *testDeps {
	t.Helper()
	ctx := context.Background()
	hasher := auth.NewHasher(bcrypt.MinCost)

	r, err := roster.New(ctx, backend, hasher, extractor.Distance)
	if err != nil {
		t.Fatalf("roster.New() error = %v", err)
	}
	l, err := ledger.New(ctx, backend, backend,
		ledger.WithClock(func() time.Time { return testNow }),
		ledger.WithLocation(time.UTC),
	)
	if err != nil {
		t.Fatalf("ledger.New() error = %v", err)
	}
	g, err := geofence.NewStore(ctx, backend, geofence.Policy{
		Latitude:     -6.2088,
		Longitude:    106.8456,
		RadiusMeters: 100,
		LocationName: "Kantor Pusat",
	})
	if err != nil {
		t.Fatalf("geofence.NewStore() error = %v", err)
	}

	d := &testDeps{
		backend:   backend,
		extractor: &fakeExtractor{},
		roster:    r,
		ledger:    l,
		geofence:  g,
		tokens:    auth.NewTokenService("test-secret", time.Hour),
		admin:     auth.NewAdmin(config.AuthConfig{AdminUsername: "admin", AdminPassword: "admin-pass"}, hasher),
		metrics:   metrics.NewWithRegistry(prometheus.NewRegistry()),
	}
	d.service = attendance.NewService(attendance.Deps{
		Roster:    r,
		Ledger:    l,
		Geofence:  g,
		Extractor: d.extractor,
		Tokens:    d.tokens,
		Metrics:   d.metrics,
		Logger:    zap.NewNop(),
	}, config.MatchingConfig{MatchThreshold: 0.6, DuplicateThreshold: 0.7}, time.Second)
	return d
}

// backendWithAlice returns a backend holding one identity with a password
func backendWithAlice(t *testing.T) *mock.Backend {
	t.Helper()
	hash, err := auth.NewHasher(bcrypt.MinCost).Hash("secret")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	backend := mock.NewBackend()
	backend.AddIdentity(database.StoredIdentity{
		ID:           "emp-1",
		Name:         "Alice",
		Template:     []float32{0, 0, 0},
		Credential:   hash,
		RegisteredAt: testNow.Add(-24 * time.Hour),
	})
	return backend
}

func event(id string, ts time.Time, verified bool) database.AttendanceEvent {
	return database.AttendanceEvent{
		IdentityID:       id,
		Name:             "Alice",
		Similarity:       0.9,
		Confidence:       "HIGH",
		Timestamp:        ts,
		Date:             ts.Format(time.DateOnly),
		Time:             ts.Format(time.TimeOnly),
		Status:           database.StatusPresent,
		LocationVerified: verified,
		LocationMessage:  geofence.MessageDisabled,
	}
}

// grayPNG encodes a square image of one gray level
func grayPNG(t *testing.T, size int, gray uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, size, size))
	for i := range img.Pix {
		img.Pix[i] = gray
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

// multipartRequest builds a multipart POST with optional file and form fields
func multipartRequest(t *testing.T, path string, file []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for key, value := range fields {
		if err := mw.WriteField(key, value); err != nil {
			t.Fatalf("WriteField() error = %v", err)
		}
	}
	if file != nil {
		fw, err := mw.CreateFormFile("file", "face.png")
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		fw.Write(file)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// jsonRequest builds a request with a JSON body
func jsonRequest(t *testing.T, method, path string, payload any) *http.Request {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a failed envelope with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["success"] != false {
		t.Errorf("expected success false, got %v", result["success"])
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%v'", expectedMessage, result["error"])
	}
}
