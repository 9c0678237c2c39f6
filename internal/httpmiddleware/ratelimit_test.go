package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestTokenBucketAllow(t *testing.T) {
	clock := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	l := NewTokenBucket(2, 2)
	l.now = func() time.Time { return clock }

	assert.True(t, l.allow("a"))
	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"))
	assert.True(t, l.allow("b"), "keys are independent")

	clock = clock.Add(30 * time.Second)
	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"))

	clock = clock.Add(10 * time.Minute)
	assert.True(t, l.allow("a"))
	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"), "refill is capped at capacity")
}

func TestTokenBucketEvictsIdleKeys(t *testing.T) {
	clock := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	l := NewTokenBucket(2, 2)
	l.now = func() time.Time { return clock }

	assert.True(t, l.allow("a"))
	assert.True(t, l.allow("b"))
	assert.Len(t, l.state, 2)

	clock = clock.Add(30 * time.Second)
	assert.True(t, l.allow("b"))
	assert.Len(t, l.state, 2, "recent buckets are kept")

	clock = clock.Add(90 * time.Second)
	assert.True(t, l.allow("c"))
	assert.Len(t, l.state, 1, "only the new key remains")
	assert.Contains(t, l.state, "c")
}

func TestTokenBucketMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	mw := NewTokenBucket(1, 1).Middleware()
	r.POST("/login/:kind", mw, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.POST("/register", mw, func(c *gin.Context) { c.Status(http.StatusNoContent) })

	do := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, do("/login/student").Code)
	limited := do("/login/teacher")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code, "same route pattern shares a bucket")
	assert.Equal(t, "60", limited.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusNoContent, do("/register").Code)
}
