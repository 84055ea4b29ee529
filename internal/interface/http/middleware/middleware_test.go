package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/openwitness/witness-backend/internal/logger"
	"github.com/openwitness/witness-backend/internal/pkg/apperror"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger.Silence()
	r := gin.New()
	r.Use(mw...)
	return r
}

func do(r http.Handler, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware(t *testing.T) {
	r := newEngine(RateLimitMiddleware(2, time.Minute))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodPost, "/x", nil).Code)
	second := do(r, http.MethodPost, "/x", nil)
	assert.Equal(t, http.StatusNoContent, second.Code)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))

	third := do(r, http.MethodPost, "/x", nil)
	assert.Equal(t, http.StatusTooManyRequests, third.Code)
	assert.Contains(t, third.Body.String(), string(apperror.ErrCodeRateLimited))
}

func TestCORSMiddleware(t *testing.T) {
	r := newEngine(CORSMiddleware([]string{"https://map.example"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	ok := do(r, http.MethodGet, "/x", map[string]string{"Origin": "https://map.example"})
	assert.Equal(t, "https://map.example", ok.Header().Get("Access-Control-Allow-Origin"))

	denied := do(r, http.MethodGet, "/x", map[string]string{"Origin": "https://evil.example"})
	assert.Empty(t, denied.Header().Get("Access-Control-Allow-Origin"))

	preflight := do(r, http.MethodOptions, "/x", map[string]string{"Origin": "https://map.example"})
	assert.Equal(t, http.StatusNoContent, preflight.Code)
}

func TestErrorHandler(t *testing.T) {
	r := newEngine(ErrorHandler(), RequestLogger())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	r.GET("/not-found", func(c *gin.Context) { _ = c.Error(apperror.ErrWitnessNotFound) })
	r.GET("/internal", func(c *gin.Context) { _ = c.Error(errors.New("disk full")) })

	p := do(r, http.MethodGet, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, p.Code)
	assert.Contains(t, p.Body.String(), `"success":false`)

	nf := do(r, http.MethodGet, "/not-found", nil)
	assert.Equal(t, http.StatusNotFound, nf.Code)
	assert.Contains(t, nf.Body.String(), "свидетель не найден")

	in := do(r, http.MethodGet, "/internal", nil)
	assert.Equal(t, http.StatusInternalServerError, in.Code)
	assert.NotContains(t, in.Body.String(), "disk full")
}
