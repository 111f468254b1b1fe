package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/chetan-01-source/Crowdera-ecommerce/pkg/response"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func newLimitedRouter(limiter gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ping", limiter, func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong"})
	})
	return router
}

func get(t *testing.T, router *gin.Engine) (*httptest.ResponseRecorder, *response.Response) {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	body := &response.Response{}
	if err := json.Unmarshal(w.Body.Bytes(), body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	return w, body
}

func TestRateLimit_BlocksAtLimit(t *testing.T) {
	_, client := newTestRedis(t)
	router := newLimitedRouter(APIRateLimit(client, 3, time.Minute))

	for i := 1; i <= 3; i++ {
		if w, _ := get(t, router); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, w.Code)
		}
	}

	w, body := get(t, router)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
	if body.Error == nil || body.Error.Code != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("error = %+v, want RATE_LIMIT_EXCEEDED", body.Error)
	}
}

func TestLoginRateLimit_ScopedCode(t *testing.T) {
	_, client := newTestRedis(t)
	router := newLimitedRouter(LoginRateLimit(client, 1, time.Minute))

	if w, _ := get(t, router); w.Code != http.StatusOK {
		t.Fatalf("first request: status = %d, want 200", w.Code)
	}

	w, body := get(t, router)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
	if body.Error == nil || body.Error.Code != "LOGIN_RATE_LIMIT_EXCEEDED" {
		t.Errorf("error = %+v, want LOGIN_RATE_LIMIT_EXCEEDED", body.Error)
	}
}

func TestRateLimit_WindowResets(t *testing.T) {
	mr, client := newTestRedis(t)
	window := time.Minute
	router := newLimitedRouter(APIRateLimit(client, 2, window))

	t.Run("blocked client recovers after the window", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			get(t, router)
		}
		if w, _ := get(t, router); w.Code != http.StatusTooManyRequests {
			t.Fatalf("status = %d, want 429 at limit", w.Code)
		}

		mr.FastForward(window)

		if w, _ := get(t, router); w.Code != http.StatusOK {
			t.Errorf("status after window = %d, want 200", w.Code)
		}
	})

	t.Run("steady traffic under the limit is never blocked", func(t *testing.T) {
		mr.FastForward(window)

		// 1 request per half window against a 2-per-window cap; the
		// counter must not outlive its window just because hits keep
		// arriving
		for i := 1; i <= 8; i++ {
			if w, _ := get(t, router); w.Code != http.StatusOK {
				t.Fatalf("request %d: status = %d, want 200", i, w.Code)
			}
			mr.FastForward(window / 2)
		}
	})
}

func TestRateLimit_FailsOpen(t *testing.T) {
	mr, client := newTestRedis(t)
	router := newLimitedRouter(APIRateLimit(client, 1, time.Minute))

	mr.Close()

	for i := 1; i <= 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d with redis down: status = %d, want 200", i, w.Code)
		}
	}
}
