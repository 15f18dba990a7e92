package test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/meenakshiar/looplist/internal"
	"github.com/meenakshiar/looplist/internal/api"
	"github.com/meenakshiar/looplist/internal/auth"
	"github.com/meenakshiar/looplist/internal/config"
	"github.com/meenakshiar/looplist/internal/storage"
)

type testApp struct {
	logger      internal.Logger
	loopRepo    storage.LoopRepository
	checkInRepo storage.CheckInRepository
}

func (a *testApp) Logger() internal.Logger                { return a.logger }
func (a *testApp) LoopRepo() storage.LoopRepository       { return a.loopRepo }
func (a *testApp) CheckInRepo() storage.CheckInRepository { return a.checkInRepo }

func setupRouter(t *testing.T) *gin.Engine {
	return setupRouterWithSweepKey(t, "")
}

func setupRouterWithSweepKey(t *testing.T, sweepKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	logger := internal.NewZapLogger(zap.NewNop().Sugar())
	s, err := storage.NewFileStorage(filepath.Join(dir, "loops.json"), filepath.Join(dir, "checkins.json"), logger)
	assert.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	a := &testApp{logger: logger, loopRepo: s, checkInRepo: s}
	cfg := &config.Config{Env: "development"}
	provider := auth.NewLocalAuthProvider("MOCK-TOKEN", logger)

	r := gin.New()
	r.Use(api.RequestIDMiddleware())
	protected := r.Group("/api", auth.AuthMiddleware(provider, cfg))
	protected.POST("/loops", api.PostLoop(a))
	protected.GET("/loops", api.GetLoops(a))
	protected.GET("/loops/:id", api.GetLoop(a))
	protected.DELETE("/loops/:id", api.DeleteLoop(a))
	protected.POST("/loops/:id/checkin", api.PostCheckIn(a))
	protected.GET("/loops/:id/checkin", api.GetCheckIns(a))
	protected.DELETE("/loops/:id/checkin/:date", api.DeleteCheckIn(a))
	protected.GET("/loops/:id/stats", api.GetLoopStats(a))
	r.POST("/internal/sweep", api.SweepAuthMiddleware(sweepKey), api.PostSweep(a))
	return r
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req, _ = http.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer MOCK-TOKEN")
	r.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestUnauthorized(t *testing.T) {
	r := setupRouter(t)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/loops", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, 401, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/loops", nil)
	req.Header.Set("Authorization", "Bearer WRONG-TOKEN")
	r.ServeHTTP(w, req)
	assert.Equal(t, 401, w.Code)
}

func TestPostLoop_ValidAndInvalid(t *testing.T) {
	r := setupRouter(t)

	// Valid
	w := doRequest(r, "POST", "/api/loops", `{"title":"Read","frequency":"daily","start_date":"2024-01-01T00:00:00Z"}`)
	assert.Equal(t, 201, w.Code)
	data := decodeData(t, w)
	assert.NotEmpty(t, data["id"])
	assert.Equal(t, "private", data["visibility"])

	// Duplicate title
	w = doRequest(r, "POST", "/api/loops", `{"title":"Read","frequency":"daily","start_date":"2024-01-01T00:00:00Z"}`)
	assert.Equal(t, 409, w.Code)

	// Missing frequency
	w = doRequest(r, "POST", "/api/loops", `{"title":"Stretch","start_date":"2024-01-01T00:00:00Z"}`)
	assert.Equal(t, 400, w.Code)

	// Unknown frequency
	w = doRequest(r, "POST", "/api/loops", `{"title":"Stretch","frequency":"hourly","start_date":"2024-01-01T00:00:00Z"}`)
	assert.Equal(t, 400, w.Code)

	// Custom frequency without days
	w = doRequest(r, "POST", "/api/loops", `{"title":"Stretch","frequency":"custom","start_date":"2024-01-01T00:00:00Z"}`)
	assert.Equal(t, 400, w.Code)
}

func TestCheckInAndStats(t *testing.T) {
	r := setupRouter(t)

	start := time.Now().UTC().AddDate(0, 0, -3).Format(time.RFC3339)
	w := doRequest(r, "POST", "/api/loops", `{"title":"Run","frequency":"daily","start_date":"`+start+`"}`)
	assert.Equal(t, 201, w.Code)
	loopID := decodeData(t, w)["id"].(string)

	// Check in for today (empty body defaults to the current day)
	w = doRequest(r, "POST", "/api/loops/"+loopID+"/checkin", "")
	assert.Equal(t, 200, w.Code)
	data := decodeData(t, w)
	streaks := data["streaks"].(map[string]any)
	assert.Equal(t, float64(1), streaks["current_streak"])

	// Idempotent repeat
	w = doRequest(r, "POST", "/api/loops/"+loopID+"/checkin", "")
	assert.Equal(t, 200, w.Code)

	w = doRequest(r, "GET", "/api/loops/"+loopID+"/checkin", "")
	assert.Equal(t, 200, w.Code)

	// Stats: 4 expected days (start..today), 1 done
	w = doRequest(r, "GET", "/api/loops/"+loopID+"/stats", "")
	assert.Equal(t, 200, w.Code)
	stats := decodeData(t, w)
	assert.Equal(t, float64(1), stats["current_streak"])
	assert.Equal(t, float64(1), stats["total_check_ins"])
	assert.Equal(t, float64(4), stats["expected_check_ins"])
	assert.Equal(t, float64(25), stats["completion_rate"])
}

func TestCheckIn_BadDateAndMissingLoop(t *testing.T) {
	r := setupRouter(t)

	start := time.Now().UTC().Format(time.RFC3339)
	w := doRequest(r, "POST", "/api/loops", `{"title":"Run","frequency":"daily","start_date":"`+start+`"}`)
	assert.Equal(t, 201, w.Code)
	loopID := decodeData(t, w)["id"].(string)

	w = doRequest(r, "POST", "/api/loops/"+loopID+"/checkin", `{"date":"not-a-date"}`)
	assert.Equal(t, 400, w.Code)

	w = doRequest(r, "POST", "/api/loops/nope/checkin", "")
	assert.Equal(t, 404, w.Code)
}

func TestDeleteCheckIn(t *testing.T) {
	r := setupRouter(t)

	start := time.Now().UTC().Format(time.RFC3339)
	w := doRequest(r, "POST", "/api/loops", `{"title":"Run","frequency":"daily","start_date":"`+start+`"}`)
	assert.Equal(t, 201, w.Code)
	loopID := decodeData(t, w)["id"].(string)

	today := time.Now().UTC().Format("2006-01-02")

	// Nothing to delete yet
	w = doRequest(r, "DELETE", "/api/loops/"+loopID+"/checkin/"+today, "")
	assert.Equal(t, 404, w.Code)

	// Unparseable date
	w = doRequest(r, "DELETE", "/api/loops/"+loopID+"/checkin/banana", "")
	assert.Equal(t, 400, w.Code)

	w = doRequest(r, "POST", "/api/loops/"+loopID+"/checkin", "")
	assert.Equal(t, 200, w.Code)

	w = doRequest(r, "DELETE", "/api/loops/"+loopID+"/checkin/"+today, "")
	assert.Equal(t, 200, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, float64(0), data["current_streak"])
}

func TestDeleteLoop(t *testing.T) {
	r := setupRouter(t)

	start := time.Now().UTC().Format(time.RFC3339)
	w := doRequest(r, "POST", "/api/loops", `{"title":"Run","frequency":"daily","start_date":"`+start+`"}`)
	assert.Equal(t, 201, w.Code)
	loopID := decodeData(t, w)["id"].(string)

	w = doRequest(r, "DELETE", "/api/loops/"+loopID, "")
	assert.Equal(t, 200, w.Code)

	w = doRequest(r, "GET", "/api/loops/"+loopID, "")
	assert.Equal(t, 404, w.Code)
}

func TestSweepEndpoint(t *testing.T) {
	r := setupRouter(t)

	// No key configured: the endpoint is open for development.
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/internal/sweep", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, 200, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, float64(0), data["processed"])
}

func TestSweepEndpoint_RequiresConfiguredKey(t *testing.T) {
	r := setupRouterWithSweepKey(t, "cron-secret")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/internal/sweep", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, 401, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/internal/sweep", nil)
	req.Header.Set("X-API-Key", "wrong")
	r.ServeHTTP(w, req)
	assert.Equal(t, 401, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/internal/sweep", nil)
	req.Header.Set("X-API-Key", "cron-secret")
	r.ServeHTTP(w, req)
	assert.Equal(t, 200, w.Code)
}
