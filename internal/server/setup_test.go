package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fintrack/internal/config"
	"fintrack/internal/logger"
	"fintrack/internal/metrics"
	"fintrack/internal/middleware"
	"fintrack/internal/testutil"
	"fintrack/internal/validator"
)

const (
	testSecret      = "integration-secret"
	testPipelineKey = "pipeline-key"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB      *gorm.DB
	Router  *gin.Engine
	Metrics *metrics.Metrics
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

func testConfig() *config.Config {
	return &config.Config{
		Env:               "test",
		JWTSecret:         testSecret,
		PipelineAPIKey:    testPipelineKey,
		BudgetWarningPct:  80,
		BudgetCriticalPct: 100,
	}
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()
	return setupAppWith(t, testConfig())
}

func setupAppWith(t *testing.T, cfg *config.Config) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	m := metrics.New()
	svc := NewServices(db, cfg, m, nil)

	return &testApp{DB: db, Router: NewRouter(cfg, db, svc, m), Metrics: m}
}

// tokenFor issues an access token the way the hosted backend would.
func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := middleware.GenerateAccessToken(testSecret, userID, "user@example.com", time.Hour)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	return app.requestWithHeaders(method, path, body, map[string]string{"Authorization": "Bearer " + token})
}

func (app *testApp) requestWithHeaders(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// mustStatus fails the test unless the response carries the expected status.
func mustStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// object returns the named nested object of a response.
func object(t *testing.T, result map[string]interface{}, key string) map[string]interface{} {
	t.Helper()
	obj, ok := result[key].(map[string]interface{})
	if !ok {
		t.Fatalf("expected %q object in %v", key, result)
	}
	return obj
}

// amount reads a decimal serialized as a JSON string.
func amount(t *testing.T, v interface{}) decimal.Decimal {
	t.Helper()
	s, ok := v.(string)
	if !ok {
		t.Fatalf("expected decimal string, got %T %v", v, v)
	}
	return decimal.RequireFromString(s)
}

func today() string {
	return time.Now().UTC().Format("2006-01-02")
}

// notificationTitles lists the titles of the user's notifications, newest first.
func (app *testApp) notificationTitles(t *testing.T, token string) []string {
	t.Helper()
	rec := app.request("GET", "/api/v1/notifications?page_size=100", "", token)
	mustStatus(t, rec, http.StatusOK)
	var titles []string
	for _, n := range parseJSON(t, rec)["data"].([]interface{}) {
		titles = append(titles, n.(map[string]interface{})["title"].(string))
	}
	return titles
}
