package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Erickgiber/debts-my-clients/internal/application/report"
	"github.com/Erickgiber/debts-my-clients/internal/domain/ledger"
	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
	"github.com/Erickgiber/debts-my-clients/internal/domain/shared"
	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/logger"
	"github.com/Erickgiber/debts-my-clients/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestGetRequestID(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/")
	assert.Empty(t, getRequestID(c))

	c.Request.Header.Set("X-Request-ID", "header-id")
	assert.Equal(t, "header-id", getRequestID(c))

	c.Set(logger.GinRequestIDKey, "ctx-id")
	assert.Equal(t, "ctx-id", getRequestID(c), "context takes precedence")
}

func TestBaseHandler_Responses(t *testing.T) {
	h := &BaseHandler{}

	c, w := newTestContext(http.MethodGet, "/")
	h.Created(c, map[string]string{"id": "1"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decodeResponse(t, w).Success)

	c, w = newTestContext(http.MethodGet, "/")
	h.SuccessWithMeta(c, []int{1}, 11, 2, 5)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 3, resp.Meta.TotalPages)

	c, w = newTestContext(http.MethodGet, "/")
	c.Set(logger.GinRequestIDKey, "req-9")
	h.BadRequest(c, "nope")
	resp = decodeResponse(t, w)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
	assert.Equal(t, "req-9", resp.Error.RequestID)
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"wrapped not found", fmt.Errorf("load sale: %w", shared.ErrNotFound), http.StatusNotFound, dto.ErrCodeNotFound},
		{"duplicate", shared.ErrAlreadyExists, http.StatusConflict, dto.ErrCodeAlreadyExists},
		{"overpayment", ledger.ErrOverpayment, http.StatusUnprocessableEntity, dto.ErrCodeOverpayment},
		{"invalid state", shared.ErrInvalidState, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
		{"no waiting worker", offline.ErrNoWaitingWorker, http.StatusConflict, dto.ErrCodeNoWaitingWorker},
		{"bucket not found", offline.ErrBucketNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"offline navigation", fmt.Errorf("%w: dial tcp", offline.ErrNavigationUnavailable), http.StatusServiceUnavailable, dto.ErrCodeOffline},
		{"precache failure", &offline.CacheWriteError{Bucket: "ventas-v2", Failed: map[string]error{"/": errors.New("503")}}, http.StatusBadGateway, dto.ErrCodeUpstream},
		{"pdf unavailable", report.ErrPDFUnavailable, http.StatusServiceUnavailable, dto.ErrCodeUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}
	h := &BaseHandler{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext(http.MethodGet, "/")
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}

	t.Run("nil writes nothing", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/")
		h.HandleError(c, nil)
		assert.Zero(t, w.Body.Len())
	})

	t.Run("internal error hides details", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/")
		h.HandleError(c, errors.New("pq: password authentication failed"))
		assert.NotContains(t, w.Body.String(), "password")
	})
}

func TestBaseHandler_ParseID(t *testing.T) {
	h := &BaseHandler{}

	c, w := newTestContext(http.MethodGet, "/")
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}
	_, ok := h.parseID(c, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidInput, decodeResponse(t, w).Error.Code)

	c, _ = newTestContext(http.MethodGet, "/")
	c.Params = gin.Params{{Key: "id", Value: "4f0c9f4e-5b7a-4d44-9d1b-0c1f3f7f6a11"}}
	id, ok := h.parseID(c, "id")
	assert.True(t, ok)
	assert.Equal(t, "4f0c9f4e-5b7a-4d44-9d1b-0c1f3f7f6a11", id.String())
}
