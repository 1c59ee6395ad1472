package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/edutaxonomy-backend/internal/observability"
	"github.com/yungbote/edutaxonomy-backend/internal/populate"
)

type countingLimiter struct {
	max  int
	seen map[string]int
}

func (l *countingLimiter) Check(id string) error {
	l.seen[id]++
	if l.seen[id] > l.max {
		return fmt.Errorf("client %s: %w", id, populate.ErrRateLimited)
	}
	return nil
}

func TestRateLimitRejectsOverLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	lim := &countingLimiter{max: 2, seen: map[string]int{}}
	var recorded error
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Next()
		if last := c.Errors.Last(); last != nil {
			recorded = last.Err
		}
	})
	r.POST("/api/catalog/:kind/populate", RateLimit(lim, observability.New(), nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/catalog/boards/populate", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		last = httptest.NewRecorder()
		r.ServeHTTP(last, req)
		codes = append(codes, last.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status codes %v", codes)
	}
	var body map[string]string
	if err := json.Unmarshal(last.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["message"] != "Too many population requests, please try again later." {
		t.Fatalf("unexpected message %q", body["message"])
	}
	if !errors.Is(recorded, populate.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited on the context, got %v", recorded)
	}
	if lim.seen["10.0.0.1"] != 3 {
		t.Fatalf("expected limiter keyed by client ip, got %v", lim.seen)
	}
}

func TestRateLimitWithoutLimiterPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/populate", RateLimit(nil, nil, nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/populate", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
