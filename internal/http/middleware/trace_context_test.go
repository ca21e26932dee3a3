package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/learnproof-backend/internal/platform/ctxutil"
)

func TestAttachTraceContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/x", func(c *gin.Context) {
		td := ctxutil.GetTraceData(c.Request.Context())
		c.String(http.StatusOK, td.RequestID)
	})

	cases := map[string]struct {
		header string
		keep   bool
	}{
		"generated":    {"", false},
		"kept":         {"req-123", true},
		"too long":     {strings.Repeat("a", maxClientIDLen+1), false},
		"control char": {"bad\x01id", false},
	}
	for name, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		if tc.header != "" {
			req.Header.Set(headerRequestID, tc.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		got := w.Header().Get(headerRequestID)
		if got == "" || got != w.Body.String() {
			t.Fatalf("%s: header=%q body=%q", name, got, w.Body.String())
		}
		if (got == tc.header) != tc.keep {
			t.Fatalf("%s: keep=%v got=%q", name, tc.keep, got)
		}
		if w.Header().Get(headerTraceID) == "" {
			t.Fatalf("%s: missing trace id", name)
		}
	}
}
