package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

func setupNotificationRouter(handler *NotificationHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.GET("/notifications", handler.GetNotifications)
	auth.PATCH("/notifications/read-all", handler.MarkAllRead)
	auth.PATCH("/notifications/:id/read", handler.MarkRead)
	auth.DELETE("/notifications/:id", handler.DeleteNotification)
	return r
}

func TestNotificationHandler_GetNotifications(t *testing.T) {
	t.Run("passes the unread flag", func(t *testing.T) {
		var gotUnread bool
		svc := &mockNotificationService{
			getUserNotificationsFn: func(_ string, unreadOnly bool, _ pagination.PageRequest) (*pagination.PageResponse[models.Notification], error) {
				gotUnread = unreadOnly
				resp := pagination.NewPageResponse([]models.Notification{{Title: "Budget warning"}}, 1, 20, 1)
				return &resp, nil
			},
		}
		r := setupNotificationRouter(NewNotificationHandler(svc))

		rec := doRequest(r, "GET", "/notifications?unread=true", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !gotUnread {
			t.Error("expected unread-only listing")
		}
		data := parseJSON(t, rec)["data"].([]interface{})
		if len(data) != 1 {
			t.Fatalf("expected 1 notification, got %d", len(data))
		}
		if _, leaked := data[0].(map[string]interface{})["dedupe_key"]; leaked {
			t.Error("dedupe key should not be serialized")
		}
	})

	t.Run("returns 400 on invalid unread flag", func(t *testing.T) {
		r := setupNotificationRouter(NewNotificationHandler(&mockNotificationService{}))

		rec := doRequest(r, "GET", "/notifications?unread=maybe", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestNotificationHandler_MarkRead(t *testing.T) {
	t.Run("marks one notification", func(t *testing.T) {
		r := setupNotificationRouter(NewNotificationHandler(&mockNotificationService{}))

		rec := doRequest(r, "PATCH", "/notifications/"+testID+"/read", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		n := parseJSON(t, rec)["notification"].(map[string]interface{})
		if n["read"] != true {
			t.Errorf("expected read notification, got %v", n["read"])
		}
	})

	t.Run("returns 404 for another user's notification", func(t *testing.T) {
		svc := &mockNotificationService{
			markReadFn: func(string, string) (*models.Notification, error) { return nil, apperrors.ErrNotificationNotFound },
		}
		r := setupNotificationRouter(NewNotificationHandler(svc))

		rec := doRequest(r, "PATCH", "/notifications/"+testID+"/read", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("marks all notifications", func(t *testing.T) {
		svc := &mockNotificationService{
			markAllReadFn: func(string) (int64, error) { return 3, nil },
		}
		r := setupNotificationRouter(NewNotificationHandler(svc))

		rec := doRequest(r, "PATCH", "/notifications/read-all", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got := parseJSON(t, rec)["updated"]; got != float64(3) {
			t.Errorf("expected 3 updated, got %v", got)
		}
	})
}

func TestNotificationHandler_DeleteNotification(t *testing.T) {
	r := setupNotificationRouter(NewNotificationHandler(&mockNotificationService{}))

	rec := doRequest(r, "DELETE", "/notifications/"+testID, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
