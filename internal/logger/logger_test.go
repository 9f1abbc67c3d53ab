package logger

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func TestMiddleware_RequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	log := New(Options{Level: "debug"}, &buf)

	r := gin.New()
	r.Use(Middleware(log))
	r.GET("/ping", func(c *gin.Context) {
		zerolog.Ctx(c.Request.Context()).Info().Msg("inside handler")
		c.String(http.StatusOK, "pong")
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Header().Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("request id not echoed: %q", w.Header().Get(RequestIDHeader))
	}
	out := buf.String()
	if strings.Count(out, `"req_id":"abc-123"`) != 2 {
		t.Fatalf("expected handler and access log with req_id, got:\n%s", out)
	}
	if !strings.Contains(out, `"status":200`) || !strings.Contains(out, `"path":"/ping"`) {
		t.Fatalf("access log missing fields:\n%s", out)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("request id should be generated")
	}
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "bogus"}, &buf)
	log.Debug().Msg("hidden")
	log.Info().Msg("shown")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}
