package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stencilmail/stencil-api/internal/dto"
	"github.com/stencilmail/stencil-api/internal/middleware"
	appErrors "github.com/stencilmail/stencil-api/pkg/errors"
	"github.com/stencilmail/stencil-api/pkg/response"
)

type cleanupServiceMock struct {
	cleanupCount int64
	clearCount   int64
	clearCalled  bool
	err          error
}

func (m *cleanupServiceMock) Cleanup(context.Context, string) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.cleanupCount, nil
}

func (m *cleanupServiceMock) ClearAll(context.Context, string) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.clearCalled = true
	return m.clearCount, nil
}

type confirmationMock struct {
	token     string
	verifyErr error
}

func (m *confirmationMock) Issue(string) (string, error) { return m.token, nil }
func (m *confirmationMock) Verify(token, _ string) error {
	if m.verifyErr != nil {
		return m.verifyErr
	}
	if token != m.token {
		return appErrors.ErrConfirmation
	}
	return nil
}
func (m *confirmationMock) TTL() time.Duration { return 5 * time.Minute }

func newCleanupContext(t *testing.T, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(http.MethodPost, "/audit-logs/cleanup", reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextTenantKey, "tenant-a")
	c.Set(middleware.ContextAPIKey, "raw-key")
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func TestCleanupReturnsDeletedCount(t *testing.T) {
	retention := &cleanupServiceMock{cleanupCount: 7}
	handler := NewCleanupHandler(retention, &confirmationMock{token: "tok"})

	c, w := newCleanupContext(t, dto.CleanupRequest{})
	handler.Cleanup(c)

	require.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	data := envelope.Data.(map[string]interface{})
	assert.Equal(t, float64(7), data["deleted"])
	assert.False(t, retention.clearCalled)
}

func TestCleanupClearAllReturnsAllMarker(t *testing.T) {
	retention := &cleanupServiceMock{clearCount: 99}
	handler := NewCleanupHandler(retention, &confirmationMock{token: "tok"})

	c, w := newCleanupContext(t, dto.CleanupRequest{ClearAll: true, ConfirmationToken: "tok"})
	handler.Cleanup(c)

	require.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	data := envelope.Data.(map[string]interface{})
	assert.Equal(t, "all", data["deleted"])
	assert.True(t, retention.clearCalled)
}

func TestCleanupClearAllRejectsBadToken(t *testing.T) {
	retention := &cleanupServiceMock{}
	handler := NewCleanupHandler(retention, &confirmationMock{token: "tok"})

	c, w := newCleanupContext(t, dto.CleanupRequest{ClearAll: true, ConfirmationToken: "wrong"})
	handler.Cleanup(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, retention.clearCalled)
}

func TestCleanupServiceFailure(t *testing.T) {
	handler := NewCleanupHandler(&cleanupServiceMock{err: errors.New("db down")}, &confirmationMock{token: "tok"})

	c, w := newCleanupContext(t, dto.CleanupRequest{})
	handler.Cleanup(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestConfirmIssuesToken(t *testing.T) {
	handler := NewCleanupHandler(&cleanupServiceMock{}, &confirmationMock{token: "tok-123"})

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodPost, "/audit-logs/cleanup/confirm", nil)
	require.NoError(t, err)
	c.Request = req
	c.Set(middleware.ContextTenantKey, "tenant-a")

	handler.Confirm(c)
	require.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	data := envelope.Data.(map[string]interface{})
	assert.Equal(t, "tok-123", data["confirmation_token"])
	assert.Equal(t, float64(300), data["expires_in"])
}
