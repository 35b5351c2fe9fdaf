package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(handlers...)
	r.Any("/echo", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	r.ServeHTTP(w, req)
	return w
}

func TestDeduplicator_RejectsSameBodyWithinWindow(t *testing.T) {
	d := NewDeduplicator(time.Minute)
	r := newEngine(d.Handler())

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodPost, "/echo", `{"recipe_id":"a"}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodPost, "/echo", `{"recipe_id":"a"}`).Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodPost, "/echo", `{"recipe_id":"b"}`).Code)
	// GET 不做去重
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/echo", "").Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/echo", "").Code)
}

func TestDeduplicator_WindowExpires(t *testing.T) {
	d := NewDeduplicator(time.Second)
	now := time.Now()
	d.now = func() time.Time { return now }

	assert.False(t, d.seen("k"))
	assert.True(t, d.seen("k"))

	now = now.Add(2 * time.Second)
	assert.False(t, d.seen("k"))
}

func TestRateLimit(t *testing.T) {
	r := newEngine(RateLimit(2, time.Hour))

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/echo", "").Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/echo", "").Code)

	w := do(r, http.MethodGet, "/echo", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3600", w.Header().Get("Retry-After"))
}

func TestRateLimit_DisabledWhenZero(t *testing.T) {
	r := newEngine(RateLimit(0, time.Minute))
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/echo", "").Code)
	}
}

func TestBodySizeLimit(t *testing.T) {
	r := newEngine(BodySizeLimit(8))

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodPost, "/echo", "small").Code)

	w := do(r, http.MethodPost, "/echo", "this body is too large")
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "REQUEST_TOO_LARGE")
}

func TestRecovery(t *testing.T) {
	r := newEngine(Recovery(), Logger())

	w := do(r, http.MethodGet, "/panic", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}
