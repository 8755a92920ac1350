package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumescore/internal/config"
	"resumescore/internal/engine"
	apperrors "resumescore/internal/errors"
	"resumescore/internal/extract"
	"resumescore/internal/repository"
	"resumescore/internal/types"
)

type fakeEngine struct {
	entered chan struct{}
	release chan struct{}
	calls   int
	mu      sync.Mutex
}

func (f *fakeEngine) Analyze(ctx context.Context, text string) (types.ResumeAnalysis, error) {
	if strings.TrimSpace(text) == "" {
		return types.ResumeAnalysis{}, apperrors.NewEmptyInputError()
	}
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
	return types.ResumeAnalysis{
		Score:        72.5,
		Industry:     types.IndustrySoftwareEngineering,
		SectionOrder: []types.SectionKind{types.SectionSkills},
		Suggestions:  []string{},
		Strengths:    []string{"Strong skills section"},
		Weaknesses:   []string{},
	}, nil
}

func (f *fakeEngine) Stats() engine.Stats {
	return engine.Stats{Computations: 1}
}

type fakeExtractor struct{}

func (fakeExtractor) Extract(_ context.Context, doc extract.Document) (string, error) {
	if strings.HasSuffix(doc.Name, ".exe") {
		return "", apperrors.NewDocumentFormatError("unsupported document type", nil)
	}
	return string(doc.Data), nil
}

type fakeStore struct {
	mu       sync.Mutex
	users    map[string]types.User
	versions map[string]types.ResumeVersion
	pingErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[string]types.User{}, versions: map[string]types.ResumeVersion{}}
}

func (f *fakeStore) CreateUser(_ context.Context, email string) (*types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return nil, apperrors.NewStorageError(apperrors.ErrCodeConflict, "user already exists", nil)
		}
	}
	u := types.User{ID: uuid.NewString(), Email: email, CreatedAt: time.Now()}
	f.users[u.ID] = u
	return &u, nil
}

func (f *fakeStore) GetUser(_ context.Context, id string) (*types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.NewStorageError(apperrors.ErrCodeNotFound, "user not found", nil)
	}
	return &u, nil
}

func (f *fakeStore) CreateVersion(_ context.Context, in repository.NewVersion) (*types.ResumeVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	analysis := in.Analysis
	v := types.ResumeVersion{
		ID:          uuid.NewString(),
		UserID:      in.UserID,
		VersionName: in.VersionName,
		Content:     in.Content,
		Score:       in.Analysis.Score,
		Industry:    in.Analysis.Industry,
		Analysis:    &analysis,
		File:        in.File,
		CreatedAt:   time.Now(),
	}
	f.versions[v.ID] = v
	return &v, nil
}

func (f *fakeStore) GetVersion(_ context.Context, id string) (*types.ResumeVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.versions[id]
	if !ok {
		return nil, apperrors.NewStorageError(apperrors.ErrCodeNotFound, "version not found", nil)
	}
	return &v, nil
}

func (f *fakeStore) ListVersions(_ context.Context, userID string) ([]types.ResumeVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []types.ResumeVersion{}
	for _, v := range f.versions {
		if v.UserID == userID {
			v.Content, v.Analysis = "", nil
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteVersion(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.versions[id]; !ok {
		return apperrors.NewStorageError(apperrors.ErrCodeNotFound, "version not found", nil)
	}
	delete(f.versions, id)
	return nil
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

type fakeDocuments struct {
	puts []string
}

func (f *fakeDocuments) PutDocument(_ context.Context, userID, name, _ string, _ []byte) (string, error) {
	path := "users/" + userID + "/" + name
	f.puts = append(f.puts, path)
	return path, nil
}

func (f *fakeDocuments) GetDocument(context.Context, string) ([]byte, error) {
	return nil, nil
}

type pingFunc func(context.Context) error

func (p pingFunc) Ping(ctx context.Context) error { return p(ctx) }

func newTestServer(t *testing.T, cfg ServerConfig, deps Dependencies) *Server {
	t.Helper()
	if deps.Engine == nil {
		deps.Engine = &fakeEngine{}
	}
	if deps.Extractor == nil {
		deps.Extractor = fakeExtractor{}
	}
	s := NewServer(&config.Config{}, cfg, deps, nil, apperrors.Discard())
	if s.RateLimiter != nil {
		t.Cleanup(s.RateLimiter.Close)
	}
	return s
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func uploadRequest(t *testing.T, target, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestAnalyzeText(t *testing.T) {
	s := newTestServer(t, ServerConfig{}, Dependencies{})

	rec := serve(s, jsonRequest(http.MethodPost, "/analyze/text", `{"text":"SKILLS\ngo, python"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var result types.ResumeAnalysis
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, 72.5, result.Score)
	assert.Equal(t, types.IndustrySoftwareEngineering, result.Industry)
}

func TestAnalyzeTextRejections(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
		wantCode    string
	}{
		{"whitespace text", "application/json", `{"text":"   \n "}`, http.StatusBadRequest, apperrors.ErrCodeEmptyInput},
		{"missing text", "application/json", `{}`, http.StatusBadRequest, apperrors.ErrCodeInvalidRequest},
		{"malformed json", "application/json", `{"text":`, http.StatusBadRequest, apperrors.ErrCodeInvalidRequest},
		{"wrong content type", "text/plain", `{"text":"x"}`, http.StatusBadRequest, apperrors.ErrCodeInvalidRequest},
		{"body over limit", "application/json", `{"text":"` + strings.Repeat("a", 200) + `"}`, http.StatusRequestEntityTooLarge, apperrors.ErrCodeFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, ServerConfig{MaxRequestSize: 128}, Dependencies{})
			req := httptest.NewRequest(http.MethodPost, "/analyze/text", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)

			rec := serve(s, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

func TestAnalyzeUpload(t *testing.T) {
	s := newTestServer(t, ServerConfig{}, Dependencies{})

	rec := serve(s, uploadRequest(t, "/analyze", "cv.txt", "EXPERIENCE\nLed a team", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(s, uploadRequest(t, "/analyze", "cv.exe", "MZ", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, apperrors.ErrCodeDocumentFormat, decodeError(t, rec).Code)

	rec = serve(s, uploadRequest(t, "/analyze", "", "", map[string]string{"other": "x"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t, ServerConfig{APIKeys: []string{"secret-key-123"}}, Dependencies{})
	body := `{"text":"SKILLS\ngo"}`

	tests := []struct {
		name   string
		header func(*http.Request)
		want   int
	}{
		{"missing", func(*http.Request) {}, http.StatusUnauthorized},
		{"invalid", func(r *http.Request) { r.Header.Set("X-API-Key", "nope") }, http.StatusUnauthorized},
		{"header", func(r *http.Request) { r.Header.Set("X-API-Key", "secret-key-123") }, http.StatusOK},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer secret-key-123") }, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := jsonRequest(http.MethodPost, "/analyze/text", body)
			tt.header(req)
			assert.Equal(t, tt.want, serve(s, req).Code)
		})
	}

	// health stays open
	assert.Equal(t, http.StatusOK, serve(s, httptest.NewRequest(http.MethodGet, "/health", nil)).Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	s := newTestServer(t, ServerConfig{
		RateLimit: &config.RateLimitConfig{Enabled: true, RequestsPerMin: 1, BurstCapacity: 1, ByIP: true},
	}, Dependencies{})

	body := `{"text":"SKILLS\ngo"}`
	assert.Equal(t, http.StatusOK, serve(s, jsonRequest(http.MethodPost, "/analyze/text", body)).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(s, jsonRequest(http.MethodPost, "/analyze/text", body)).Code)

	other := jsonRequest(http.MethodPost, "/analyze/text", body)
	other.Header.Set("X-Forwarded-For", "203.0.113.9")
	assert.Equal(t, http.StatusOK, serve(s, other).Code)

	s.UpdateRateLimit(config.RateLimitConfig{Enabled: true, RequestsPerMin: 6000, BurstCapacity: 5})
	assert.Equal(t, 5, s.RateLimiter.GetStats()["burst_capacity"])
}

func TestAnalysisSlotsShedLoad(t *testing.T) {
	eng := &fakeEngine{entered: make(chan struct{}), release: make(chan struct{})}
	s := newTestServer(t, ServerConfig{MaxConcurrent: 1, RequestTimeout: 20 * time.Millisecond}, Dependencies{Engine: eng})
	handler := s.Handler()

	done := make(chan int)
	go func() {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, jsonRequest(http.MethodPost, "/analyze/text", `{"text":"first"}`))
		done <- rec.Code
	}()
	<-eng.entered

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, jsonRequest(http.MethodPost, "/analyze/text", `{"text":"second"}`))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	close(eng.release)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestVersionLifecycle(t *testing.T) {
	store := newFakeStore()
	docs := &fakeDocuments{}
	s := newTestServer(t, ServerConfig{}, Dependencies{Store: store, Documents: docs})

	rec := serve(s, jsonRequest(http.MethodPost, "/users", `{"email":"dev@example.com"}`))
	require.Equal(t, http.StatusCreated, rec.Code)
	var user types.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&user))

	rec = serve(s, jsonRequest(http.MethodPost, "/users", `{"email":"dev@example.com"}`))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(s, jsonRequest(http.MethodPost, "/users", `{"email":"not-an-email"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	versionsURL := fmt.Sprintf("/users/%s/versions", user.ID)
	rec = serve(s, uploadRequest(t, versionsURL, "cv.txt", "SKILLS\ngo", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "version_name is required")

	rec = serve(s, uploadRequest(t, versionsURL, "cv.txt", "SKILLS\ngo", map[string]string{"version_name": "v1"}))
	require.Equal(t, http.StatusCreated, rec.Code)
	var version types.ResumeVersion
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&version))
	assert.Equal(t, "v1", version.VersionName)
	assert.Equal(t, 72.5, version.Score)
	assert.Equal(t, "cv.txt", version.File.OriginalName)
	assert.Equal(t, []string{"users/" + user.ID + "/cv.txt"}, docs.puts)

	rec = serve(s, httptest.NewRequest(http.MethodGet, versionsURL, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var listing struct {
		Count    int                   `json:"count"`
		Versions []types.ResumeVersion `json:"versions"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&listing))
	assert.Equal(t, 1, listing.Count)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/versions/"+version.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(s, httptest.NewRequest(http.MethodDelete, "/versions/"+version.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/versions/"+version.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(s, uploadRequest(t, "/users/"+uuid.NewString()+"/versions", "cv.txt", "x", map[string]string{"version_name": "v1"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVersionRoutesNeedStore(t *testing.T) {
	s := newTestServer(t, ServerConfig{}, Dependencies{})
	rec := serve(s, jsonRequest(http.MethodPost, "/users", `{"email":"dev@example.com"}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		deps       Dependencies
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name:       "optional services disabled",
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"database": "disabled", "redis": "disabled"},
		},
		{
			name: "redis down",
			deps: Dependencies{
				Store: newFakeStore(),
				Cache: pingFunc(func(context.Context) error { return fmt.Errorf("connection refused") }),
			},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"database": "ok", "redis": "unavailable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, ServerConfig{Version: "1.2.3"}, tt.deps)
			rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.wantStatus, rec.Code)

			var body struct {
				Version      string            `json:"version"`
				Dependencies map[string]string `json:"dependencies"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, "1.2.3", body.Version)
			assert.Equal(t, tt.wantChecks, body.Dependencies)
		})
	}
}

func TestStatsHandler(t *testing.T) {
	s := newTestServer(t, ServerConfig{
		RateLimit: &config.RateLimitConfig{Enabled: true, RequestsPerMin: 60, BurstCapacity: 3, ByIP: true},
	}, Dependencies{})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Contains(t, body, "engine")
	limits, ok := body["rate_limiting"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(3), limits["burst_capacity"])
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"empty input", apperrors.NewEmptyInputError(), http.StatusBadRequest},
		{"document format", fmt.Errorf("wrap: %w", apperrors.NewDocumentFormatError("bad", nil)), http.StatusUnprocessableEntity},
		{"too large", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge},
		{"validation", apperrors.NewValidationError(apperrors.ErrCodeInvalidRequest, "bad", nil), http.StatusBadRequest},
		{"not found", apperrors.NewStorageError(apperrors.ErrCodeNotFound, "gone", nil), http.StatusNotFound},
		{"conflict", apperrors.NewStorageError(apperrors.ErrCodeConflict, "dup", nil), http.StatusConflict},
		{"busy", apperrors.NewInternalError(errCodeBusy, "busy", nil), http.StatusServiceUnavailable},
		{"extractor open", apperrors.NewNetworkError(apperrors.ErrCodeExtractorOpen, "open", nil), http.StatusInternalServerError},
		{"plain", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorStatus(tt.err))
		})
	}
}

func TestGetRateLimitKey(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		byAPIKey bool
		byIP     bool
		want     string
	}{
		{"api key preferred", map[string]string{"X-API-Key": "k1"}, true, true, "api:k1"},
		{"bearer token", map[string]string{"Authorization": "Bearer k2"}, true, false, "api:k2"},
		{"falls back to ip", nil, true, true, "ip:192.0.2.1"},
		{"forwarded for", map[string]string{"X-Forwarded-For": "bogus, 198.51.100.7"}, false, true, "ip:198.51.100.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.8"}, false, true, "ip:198.51.100.8"},
		{"no limiter", nil, false, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getRateLimitKey(req, tt.byAPIKey, tt.byIP))
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "abcdefgh****", maskAPIKey("abcdefghijkl"))
}
