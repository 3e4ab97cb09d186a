package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	testSecret = "test-secret"
	testUserID = "0190a8c4-5b7e-7c3a-9f41-6f2d1b0e8a11"
)

func setupAuthRouter() *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware(testSecret))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString(UserIDKey), "email": c.GetString(EmailKey)})
	})
	return r
}

func signed(t *testing.T, secret string, claims *Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestAuthMiddleware(t *testing.T) {
	valid, err := GenerateAccessToken(testSecret, testUserID, "sam@example.com", time.Hour)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	expired, _ := GenerateAccessToken(testSecret, testUserID, "sam@example.com", -time.Minute)
	wrongSecret, _ := GenerateAccessToken("other-secret", testUserID, "", time.Hour)
	noExpiry := signed(t, testSecret, &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: testUserID}})
	anonymous := signed(t, testSecret, &Claims{
		Role:             "anon",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid", "Bearer " + valid, http.StatusOK},
		{"lowercase_scheme", "bearer " + valid, http.StatusOK},
		{"missing_header", "", http.StatusUnauthorized},
		{"wrong_scheme", "Basic " + valid, http.StatusUnauthorized},
		{"no_token", "Bearer ", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong_secret", "Bearer " + wrongSecret, http.StatusUnauthorized},
		{"no_expiry", "Bearer " + noExpiry, http.StatusUnauthorized},
		{"no_subject", "Bearer " + anonymous, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			setupAuthRouter().ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			body := parseBody(t, rec)
			if tt.wantStatus == http.StatusOK {
				if body["user_id"] != testUserID || body["email"] != "sam@example.com" {
					t.Errorf("unexpected identity %v", body)
				}
				return
			}
			errObj, ok := body["error"].(map[string]interface{})
			if !ok || errObj["code"] != "UNAUTHORIZED" {
				t.Errorf("expected UNAUTHORIZED error, got %v", body)
			}
		})
	}
}
