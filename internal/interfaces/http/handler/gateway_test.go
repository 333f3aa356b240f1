package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
	"github.com/Erickgiber/debts-my-clients/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGatewayEngine(t *testing.T, upstream string, transport http.RoundTripper) *gin.Engine {
	t.Helper()
	u, err := url.Parse(upstream)
	require.NoError(t, err)
	r := gin.New()
	r.NoRoute(NewGatewayHandler(u, transport, nil, "/api/", "/sw/").Serve)
	return r
}

func navigate(r http.Handler, path string) *httptest.ResponseRecorder {
	w := newRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	r.ServeHTTP(w, req)
	return w.ResponseRecorder
}

func TestGatewayHandler_ServesCachedShellOffline(t *testing.T) {
	registry, srv := newTestRegistry(t, offline.PolicyEager)
	_, err := registry.Register(context.Background(), "1")
	require.NoError(t, err)
	r := newGatewayEngine(t, srv.URL, registry)

	w := navigate(r, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<html>shell</html>", w.Body.String())

	srv.Close()
	registry.Wait()

	w = navigate(r, "/clientes")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<html>shell</html>", w.Body.String())
}

func TestGatewayHandler_OfflineWithoutCache(t *testing.T) {
	registry, srv := newTestRegistry(t, offline.PolicyEager)
	srv.Close()
	_, err := registry.Register(context.Background(), "1")
	require.NoError(t, err)
	r := newGatewayEngine(t, srv.URL, registry)

	w := navigate(r, "/")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, dto.ErrCodeOffline, decodeResponse(t, w).Error.Code)
}

func TestGatewayHandler_UpstreamDownWithoutWorker(t *testing.T) {
	registry, srv := newTestRegistry(t, offline.PolicyEager)
	srv.Close()
	r := newGatewayEngine(t, srv.URL, registry)

	w := doRequest(r, http.MethodGet, "/app.js", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, dto.ErrCodeUpstream, decodeResponse(t, w).Error.Code)
}

func TestGatewayHandler_Reserved(t *testing.T) {
	registry, srv := newTestRegistry(t, offline.PolicyEager)
	r := newGatewayEngine(t, srv.URL, registry)

	w := doRequest(r, http.MethodGet, "/api/v1/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, decodeResponse(t, w).Error.Code)

	w = doRequest(r, http.MethodGet, "/manifest.webmanifest", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"ventas"}`, w.Body.String())
}

func TestGatewayHandler_PassesNonGETThrough(t *testing.T) {
	var posts atomic.Int32
	bodies := make(chan string, 1)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		posts.Add(1)
		data, _ := io.ReadAll(r.Body)
		bodies <- string(data)
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(upstream.Close)

	registry, _ := newTestRegistry(t, offline.PolicyEager)
	_, err := registry.Register(context.Background(), "1")
	require.NoError(t, err)
	r := newGatewayEngine(t, upstream.URL, registry)

	w := doRequest(r, http.MethodPost, "/form", `{"debtor":"Ana"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, int32(1), posts.Load())
	assert.JSONEq(t, `{"debtor":"Ana"}`, <-bodies)
}
