package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func limiterRouter(limit int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/products", NewIngestRateLimiter(limit).Handle(), func(c *gin.Context) {
		c.JSON(201, gin.H{"success": true})
	})
	return r
}

func post(r *gin.Engine, ip string) int {
	req := httptest.NewRequest("POST", "/products", nil)
	req.RemoteAddr = ip + ":12345"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiter_BlocksAboveLimit(t *testing.T) {
	r := limiterRouter(2)

	if code := post(r, "10.0.0.1"); code != 201 {
		t.Fatalf("first request = %d, want 201", code)
	}
	if code := post(r, "10.0.0.1"); code != 201 {
		t.Fatalf("second request = %d, want 201", code)
	}
	if code := post(r, "10.0.0.1"); code != 429 {
		t.Errorf("third request = %d, want 429", code)
	}
	// Another client has its own window.
	if code := post(r, "10.0.0.2"); code != 201 {
		t.Errorf("other client = %d, want 201", code)
	}
}

func TestRateLimiter_ZeroDisables(t *testing.T) {
	r := limiterRouter(0)

	for i := 0; i < 50; i++ {
		if code := post(r, "10.0.0.1"); code != 201 {
			t.Fatalf("request %d = %d, want 201", i, code)
		}
	}
}
