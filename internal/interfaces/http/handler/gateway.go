package handler

import (
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
	"github.com/Erickgiber/debts-my-clients/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"go.uber.org/zap"
)

// GatewayHandler serves the application shell by proxying to the upstream
// origin through the offline runtime. Requests the active worker can answer
// from cache keep working while the upstream is down.
type GatewayHandler struct {
	BaseHandler
	proxy    *httputil.ReverseProxy
	reserved []string
	logger   *zap.Logger
}

// NewGatewayHandler proxies to upstream over transport. Paths under the
// reserved prefixes are never proxied and answer 404.
func NewGatewayHandler(upstream *url.URL, transport http.RoundTripper, logger *zap.Logger, reserved ...string) *GatewayHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &GatewayHandler{
		reserved: reserved,
		logger:   logger.Named("gateway"),
	}
	h.proxy = &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(upstream)
			pr.SetXForwarded()
		},
		Transport:    transport,
		ErrorHandler: h.proxyError,
	}
	return h
}

// Serve is the NoRoute handler. Every method is proxied; the interceptor
// hands anything but GET straight to the network.
func (h *GatewayHandler) Serve(c *gin.Context) {
	path := c.Request.URL.Path
	for _, prefix := range h.reserved {
		if strings.HasPrefix(path, prefix) {
			h.NotFound(c, "Route not found")
			return
		}
	}
	h.proxy.ServeHTTP(c.Writer, c.Request)
}

func (h *GatewayHandler) proxyError(w http.ResponseWriter, r *http.Request, err error) {
	code := dto.ErrCodeUpstream
	message := "Upstream request failed"
	switch {
	case errors.Is(err, offline.ErrNavigationUnavailable):
		code = dto.ErrCodeOffline
		message = "Network unavailable and no cached document"
	case r.Context().Err() != nil:
		// client went away
		return
	}
	h.logger.Warn("gateway request failed",
		zap.String("path", r.URL.Path),
		zap.String("code", code),
		zap.Error(err))

	body := render.JSON{Data: dto.NewErrorResponseWithRequestID(code, message, w.Header().Get("X-Request-ID"))}
	body.WriteContentType(w)
	w.WriteHeader(dto.GetHTTPStatus(code))
	if err := body.Render(w); err != nil {
		h.logger.Debug("write gateway error", zap.Error(err))
	}
}
