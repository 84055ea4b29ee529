package router_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openwitness/witness-backend/internal/app"
	"github.com/openwitness/witness-backend/internal/config"
	"github.com/openwitness/witness-backend/internal/infrastructure/persistence"
	"github.com/openwitness/witness-backend/internal/logger"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testimonyJSON struct {
	ID                 string   `json:"id"`
	WitnessID          string   `json:"witness_id"`
	Corroborations     []string `json:"corroborations"`
	VerificationStatus string   `json:"verification_status"`
	FlagCount          int      `json:"flag_count"`
	Hidden             bool     `json:"hidden"`
	Views              int      `json:"views"`
}

func newServer(t *testing.T, rateLimit int64) http.Handler {
	t.Helper()
	return newServerIn(t, "test", rateLimit)
}

func newServerIn(t *testing.T, env string, rateLimit int64) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.Silence()

	cfg := &config.Config{
		Env:                     env,
		StorageDriver:           config.StorageMemory,
		MediaStoragePath:        t.TempDir(),
		MaxUploadSizeMB:         1,
		AllowedOrigins:          []string{"http://localhost:3000"},
		RateLimitLimit:          rateLimit,
		RateLimitPeriod:         time.Minute,
		ReputationSweepSchedule: "@hourly",
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	a, err := app.New(ctx, cfg, persistence.NewMemoryStore(), nil)
	require.NoError(t, err)
	go a.Hub.Run()
	return a.Router
}

func call(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func testimonyBody(witnessID string, lat, lng float64) map[string]any {
	return map[string]any{
		"title":       "Shelling near the market",
		"description": "Heavy shelling near the central market this morning, several buildings damaged",
		"category":    "security",
		"location":    "Kharkiv",
		"lat":         lat,
		"lng":         lng,
		"country":     "Ukraine",
		"witness_id":  witnessID,
		"timestamp":   "2024-05-10T09:30:00Z",
	}
}

func create(t *testing.T, h http.Handler, witnessID string, lat, lng float64) testimonyJSON {
	t.Helper()
	w, env := call(t, h, http.MethodPost, "/api/testimonies", testimonyBody(witnessID, lat, lng))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		Testimony testimonyJSON `json:"testimony"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Testimony
}

func TestCreateTestimony(t *testing.T) {
	h := newServer(t, 100)

	first := create(t, h, "w1", 50.0, 36.23)
	assert.Equal(t, "w1", first.WitnessID)
	assert.Equal(t, "new", first.VerificationStatus)

	second := create(t, h, "w2", 50.001, 36.231)
	assert.Equal(t, []string{"w1"}, second.Corroborations)

	anonymous := create(t, h, "", 10, 10)
	assert.Contains(t, anonymous.WitnessID, "witness-")
}

func TestCreateTestimony_Validation(t *testing.T) {
	h := newServer(t, 100)

	short := testimonyBody("w1", 50, 36)
	short["title"] = "abc"
	w, env := call(t, h, http.MethodPost, "/api/testimonies", short)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	noCoords := testimonyBody("w1", 50, 36)
	delete(noCoords, "lat")
	w, _ = call(t, h, http.MethodPost, "/api/testimonies", noCoords)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	badLat := testimonyBody("w1", 95, 36)
	w, env = call(t, h, http.MethodPost, "/api/testimonies", badLat)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", env.Error.Code)

	w, _ = call(t, h, http.MethodPost, "/api/testimonies", map[string]any{"title": "only"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCorroborateFlow(t *testing.T) {
	h := newServer(t, 100)
	first := create(t, h, "w1", 50.0, 36.23)
	create(t, h, "w2", 50.001, 36.231)

	w, env := call(t, h, http.MethodGet, "/api/testimonies/"+first.ID+"/corroborations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var candidates []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &candidates))
	require.Len(t, candidates, 1)
	assert.Equal(t, "w2", candidates[0]["witness_id"])

	w, env = call(t, h, http.MethodPost, "/api/testimonies/"+first.ID+"/corroborate", map[string]string{"witness_id": "w3"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var ref struct {
		Status    string        `json:"status"`
		Testimony testimonyJSON `json:"testimony"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &ref))
	assert.Equal(t, "verified", ref.Status)
	assert.ElementsMatch(t, []string{"w2", "w3"}, ref.Testimony.Corroborations)

	w, env = call(t, h, http.MethodPost, "/api/testimonies/"+first.ID+"/corroborate", map[string]string{"witness_id": "w3"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATE_ACTION", env.Error.Code)

	w, _ = call(t, h, http.MethodPost, "/api/testimonies/"+first.ID+"/corroborate", map[string]string{"witness_id": "w1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = call(t, h, http.MethodPost, "/api/testimonies/missing/corroborate", map[string]string{"witness_id": "w3"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = call(t, h, http.MethodGet, "/api/witnesses/w3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"badges":["new"]`)
}

func TestFlagHidesAfterThreshold(t *testing.T) {
	h := newServer(t, 100)
	item := create(t, h, "w1", 50.0, 36.23)

	for i := 0; i < 3; i++ {
		w, _ := call(t, h, http.MethodPost, "/api/testimonies/"+item.ID+"/flags", map[string]string{"reason": "spam", "reporter_id": "r"})
		require.Equal(t, http.StatusOK, w.Code)
	}

	_, env := call(t, h, http.MethodGet, "/api/testimonies", nil)
	var visible []testimonyJSON
	require.NoError(t, json.Unmarshal(env.Data, &visible))
	assert.Empty(t, visible)

	_, env = call(t, h, http.MethodGet, "/api/testimonies?include_hidden=true", nil)
	var all []testimonyJSON
	require.NoError(t, json.Unmarshal(env.Data, &all))
	require.Len(t, all, 1)
	assert.True(t, all[0].Hidden)
	assert.Equal(t, 3, all[0].FlagCount)
	assert.Equal(t, "new", all[0].VerificationStatus)

	w, _ := call(t, h, http.MethodPost, "/api/testimonies/"+item.ID+"/flags", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueries(t *testing.T) {
	h := newServer(t, 100)
	a := create(t, h, "w1", 50.0, 36.23)
	create(t, h, "w2", 50.45, 30.52)

	w, env := call(t, h, http.MethodGet, "/api/testimonies/nearby?lat=50.0&lng=36.23&radius=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var nearby []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &nearby))
	require.Len(t, nearby, 1)
	assert.Equal(t, a.ID, nearby[0]["id"])

	w, _ = call(t, h, http.MethodGet, "/api/testimonies/nearby?lat=abc&lng=1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = call(t, h, http.MethodGet, "/api/testimonies/timeline", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"date":"2024-05-10"`)

	w, _ = call(t, h, http.MethodGet, "/api/testimonies/geojson", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/geo+json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `"FeatureCollection"`)

	w, env = call(t, h, http.MethodPost, "/api/testimonies/"+a.ID+"/view", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"views":1`)

	w, env = call(t, h, http.MethodPost, "/api/testimonies/trust-scores", map[string]any{"ids": []string{a.ID, "missing"}})
	require.Equal(t, http.StatusOK, w.Code)
	var scores []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &scores))
	assert.Len(t, scores, 1)

	w, _ = call(t, h, http.MethodGet, "/api/testimonies/"+a.ID+"/trust-score", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = call(t, h, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":2,"verified":0,"witnesses":2,"countries":1}`, string(env.Data))

	w, env = call(t, h, http.MethodGet, "/api/testimonies/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)

	w, _ = call(t, h, http.MethodGet, "/api/testimonies?category=weather", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExport(t *testing.T) {
	h := newServer(t, 100)
	a := create(t, h, "w1", 50.0, 36.23)
	b := create(t, h, "w2", 50.45, 30.52)

	w, _ := call(t, h, http.MethodGet, "/api/testimonies/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), `.json"`)
	var dump struct {
		ExportedAt  time.Time       `json:"exported_at"`
		Testimonies []testimonyJSON `json:"testimonies"`
		Witnesses   []struct {
			ID string `json:"id"`
		} `json:"witnesses"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dump))
	assert.False(t, dump.ExportedAt.IsZero())
	require.Len(t, dump.Testimonies, 2)
	require.Len(t, dump.Witnesses, 2)
	assert.Equal(t, "w1", dump.Witnesses[0].ID)

	w, _ = call(t, h, http.MethodGet, "/api/testimonies/export?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `.csv"`)
	rows, err := csv.NewReader(bytes.NewReader(w.Body.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "id", rows[0][0])
	assert.Equal(t, "witness_id", rows[0][9])
	ids := []string{rows[1][0], rows[2][0]}
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)

	w, _ = call(t, h, http.MethodGet, "/api/testimonies/export?format=csv&q=nothing-matches", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rows, err = csv.NewReader(bytes.NewReader(w.Body.Bytes())).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	w, env := call(t, h, http.MethodGet, "/api/testimonies/export?format=xml", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestSeedRoute(t *testing.T) {
	w, _ := call(t, newServer(t, 100), http.MethodPost, "/api/seed", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	h := newServerIn(t, "development", 100)
	w, env := call(t, h, http.MethodPost, "/api/seed", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"created":5,"skipped":0,"corroborations":5}`, string(env.Data))

	w, env = call(t, h, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"total":5`)
}

func TestMediaUpload(t *testing.T) {
	h := newServer(t, 100)

	upload := func(name string, content []byte) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, _ = part.Write(content)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/media", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	png := append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}, bytes.Repeat([]byte{1}, 64)...)
	w := upload("photo.png", png)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"content_type":"image/png"`)

	w = upload("notes.txt", []byte("plain text is not media"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWriteRoutesAreRateLimited(t *testing.T) {
	h := newServer(t, 1)
	item := create(t, h, "w1", 50.0, 36.23)

	w, _ := call(t, h, http.MethodPost, "/api/testimonies/"+item.ID+"/flags", map[string]string{"reason": "spam"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w, _ = call(t, h, http.MethodGet, "/api/testimonies/"+item.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealth(t *testing.T) {
	h := newServer(t, 100)
	w, _ := call(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
}
