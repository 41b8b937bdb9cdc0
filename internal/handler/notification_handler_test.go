package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/efvillarin/sis-api/internal/middleware"
	"github.com/efvillarin/sis-api/internal/models"
	"github.com/efvillarin/sis-api/internal/service"
)

type fakeNotificationSrv struct {
	batchID       string
	broadcastErr  error
	lastSender    string
	lastInput     service.BroadcastInput
	unread        int
	markedRead    []string
	markedAllRead bool
	lastFilter    models.NotificationFilter
}

func (f *fakeNotificationSrv) Broadcast(_ context.Context, senderID string, input service.BroadcastInput) (string, error) {
	f.lastSender = senderID
	f.lastInput = input
	return f.batchID, f.broadcastErr
}

func (f *fakeNotificationSrv) List(_ context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	f.lastFilter = filter
	return nil, nil
}

func (f *fakeNotificationSrv) MarkRead(_ context.Context, id, _ string) error {
	f.markedRead = append(f.markedRead, id)
	return nil
}

func (f *fakeNotificationSrv) MarkAllRead(context.Context, string) error {
	f.markedAllRead = true
	return nil
}

func (f *fakeNotificationSrv) UnreadCount(context.Context, string) (int, error) {
	return f.unread, nil
}

func TestNotificationBroadcastAccepted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeNotificationSrv{batchID: "batch-1"}
	handler := NewNotificationHandler(srv)

	body := `{"title":"Card claiming","body":"Cards available Friday","audience":"ALL"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/notifications/broadcast", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	handler.Broadcast(c)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "admin-1", srv.lastSender)
	assert.Equal(t, models.NotificationAudienceAll, srv.lastInput.Audience)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, "batch-1", envelope.Data["batch_id"])
}

func TestNotificationBroadcastRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewNotificationHandler(&fakeNotificationSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/notifications/broadcast", strings.NewReader(`{}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Broadcast(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNotificationListScopesToCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeNotificationSrv{}
	handler := NewNotificationHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/notifications?unread=true", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-3", Role: models.RoleStudent})

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-3", srv.lastFilter.UserID)
	if assert.NotNil(t, srv.lastFilter.Unread) {
		assert.True(t, *srv.lastFilter.Unread)
	}
}

func TestNotificationUnreadCount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewNotificationHandler(&fakeNotificationSrv{unread: 4})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/notifications/unread-count", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-3", Role: models.RoleStudent})

	handler.UnreadCount(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, float64(4), envelope.Data["unread"])
}
