package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Erickgiber/debts-my-clients/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func swaggerEngine(cfg SwaggerConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/swagger/*any", SwaggerProtection(cfg), func(c *gin.Context) {
		c.String(http.StatusOK, "docs")
	})
	return r
}

func TestSwaggerProtection(t *testing.T) {
	tests := []struct {
		name       string
		cfg        SwaggerConfig
		remoteAddr string
		want       int
		code       string
	}{
		{"disabled", SwaggerConfig{}, "127.0.0.1:5000", http.StatusNotFound, dto.ErrCodeNotFound},
		{"open", SwaggerConfig{Enabled: true}, "203.0.113.9:5000", http.StatusOK, ""},
		{"exact ip", SwaggerConfig{Enabled: true, AllowedIPs: []string{"127.0.0.1"}}, "127.0.0.1:5000", http.StatusOK, ""},
		{"inside cidr", SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.0/8"}}, "10.1.2.3:5000", http.StatusOK, ""},
		{"outside list", SwaggerConfig{Enabled: true, AllowedIPs: []string{"127.0.0.1", "10.0.0.0/8"}}, "192.0.2.7:5000", http.StatusForbidden, dto.ErrCodeForbidden},
		{"only malformed entries", SwaggerConfig{Enabled: true, AllowedIPs: []string{"nope"}}, "127.0.0.1:5000", http.StatusForbidden, dto.ErrCodeForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
			req.RemoteAddr = tt.remoteAddr
			w := httptest.NewRecorder()
			swaggerEngine(tt.cfg).ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.code != "" {
				assert.Contains(t, w.Body.String(), tt.code)
			} else {
				assert.Equal(t, "docs", w.Body.String())
			}
		})
	}
}
