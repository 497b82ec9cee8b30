package notification_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Satyam0004/leave/internal/notification"
	notificationerrors "github.com/Satyam0004/leave/internal/notification/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

func decodeEnvelope(t *testing.T, body []byte) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	err := json.Unmarshal(body, &env)
	assert.NoError(t, err)
	return env
}

type fakeNotificationService struct {
	listFn     func(ctx context.Context, recipientID string) ([]notification.Notification, error)
	markReadFn func(ctx context.Context, notificationID, recipientID string) (*notification.Notification, error)
	clearAllFn func(ctx context.Context, recipientID string) error
}

func (f *fakeNotificationService) List(ctx context.Context, recipientID string) ([]notification.Notification, error) {
	return f.listFn(ctx, recipientID)
}
func (f *fakeNotificationService) MarkRead(ctx context.Context, notificationID, recipientID string) (*notification.Notification, error) {
	return f.markReadFn(ctx, notificationID, recipientID)
}
func (f *fakeNotificationService) ClearAll(ctx context.Context, recipientID string) error {
	return f.clearAllFn(ctx, recipientID)
}

func TestNotificationHandler_List(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		recipientID := uuid.New().String()
		svc := &fakeNotificationService{
			listFn: func(ctx context.Context, rid string) ([]notification.Notification, error) {
				assert.Equal(t, recipientID, rid)
				return []notification.Notification{{ID: uuid.New(), Message: "hello"}}, nil
			},
		}

		h := notification.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/notifications", nil)
		c.Set("user_id", recipientID)

		h.List(c)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
	})
}

func TestNotificationHandler_MarkRead(t *testing.T) {
	t.Run("negative foreign notification maps to 403", func(t *testing.T) {
		svc := &fakeNotificationService{
			markReadFn: func(ctx context.Context, notificationID, recipientID string) (*notification.Notification, error) {
				return nil, notificationerrors.ErrNotRecipient
			},
		}

		h := notification.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPut, "/notifications/x/read", nil)
		c.Params = gin.Params{{Key: "id", Value: uuid.New().String()}}
		c.Set("user_id", uuid.New().String())

		h.MarkRead(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.Equal(t, "FORBIDDEN", env.Error.Code)
	})
}

func TestNotificationHandler_ClearAll(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		cleared := false
		svc := &fakeNotificationService{
			clearAllFn: func(ctx context.Context, recipientID string) error {
				cleared = true
				return nil
			},
		}

		h := notification.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodDelete, "/notifications/clear-all", nil)
		c.Set("user_id", uuid.New().String())

		h.ClearAll(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, cleared)
	})
}
