package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const remindersPath = "/api/v1/pipeline/reminders"

// setupPipelineRouter mounts the reminder run behind the key check and counts
// how often the run itself is reached.
func setupPipelineRouter(apiKey string, runs *int) *gin.Engine {
	r := gin.New()
	pipeline := r.Group("/api/v1/pipeline", PipelineAuthMiddleware(apiKey))
	pipeline.POST("/reminders", func(c *gin.Context) {
		*runs++
		c.JSON(http.StatusOK, gin.H{"rules_due": 0})
	})
	return r
}

func postReminders(r *gin.Engine, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, remindersPath, http.NoBody)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	return result
}

func TestPipelineAuthMiddleware(t *testing.T) {
	const key = "reminder-cron-key"

	tests := []struct {
		name          string
		configuredKey string
		header        map[string]string
		wantErr       *apperrors.AppError
	}{
		{
			name:          "valid_key_runs_reminders",
			configuredKey: key,
			header:        map[string]string{"X-API-Key": key},
		},
		{
			name:          "wrong_key",
			configuredKey: key,
			header:        map[string]string{"X-API-Key": "reminder-cron"},
			wantErr:       apperrors.ErrInvalidAPIKey,
		},
		{
			name:          "missing_key",
			configuredKey: key,
			wantErr:       apperrors.ErrInvalidAPIKey,
		},
		{
			name:          "padded_key",
			configuredKey: key,
			header:        map[string]string{"X-API-Key": key + " "},
			wantErr:       apperrors.ErrInvalidAPIKey,
		},
		{
			name:          "bearer_token_is_not_a_key",
			configuredKey: key,
			header:        map[string]string{"Authorization": "Bearer " + key},
			wantErr:       apperrors.ErrInvalidAPIKey,
		},
		{
			name:          "pipeline_not_configured",
			configuredKey: "",
			header:        map[string]string{"X-API-Key": key},
			wantErr:       apperrors.ErrPipelineNotConfigured,
		},
		{
			name:          "pipeline_not_configured_without_key",
			configuredKey: "",
			wantErr:       apperrors.ErrPipelineNotConfigured,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var runs int
			rec := postReminders(setupPipelineRouter(tt.configuredKey, &runs), tt.header)
			body := parseBody(t, rec)

			if tt.wantErr == nil {
				if rec.Code != http.StatusOK || runs != 1 {
					t.Fatalf("expected the run to execute once with 200, got %d after %d runs", rec.Code, runs)
				}
				if _, ok := body["rules_due"]; !ok {
					t.Errorf("expected the run summary, got %v", body)
				}
				return
			}

			if rec.Code != tt.wantErr.StatusCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantErr.StatusCode)
			}
			if runs != 0 {
				t.Errorf("expected the run to be skipped, ran %d times", runs)
			}
			errObj, ok := body["error"].(map[string]interface{})
			if !ok {
				t.Fatal("expected error object in response")
			}
			if code, _ := errObj["code"].(string); code != tt.wantErr.Code {
				t.Errorf("error code = %q, want %q", code, tt.wantErr.Code)
			}
			if msg, _ := errObj["message"].(string); msg != tt.wantErr.Message {
				t.Errorf("error message = %q, want %q", msg, tt.wantErr.Message)
			}
		})
	}
}
