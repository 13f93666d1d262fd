package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/heavyhaul/backend/internal/config"
)

func TestRouterRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.Config{CORSAllowed: "*", AdminKey: "secret", MaxUploadSizeMB: 1}
	r := Router(cfg, nil, nil, nil, zerolog.Nop())

	cases := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"health without db", "/healthz", "", http.StatusOK},
		{"catalog", "/api/trucks", "", http.StatusOK},
		{"runs need admin key", "/api/runs/latest", "", http.StatusUnauthorized},
		{"runs without db", "/api/runs/latest", "secret", http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("X-Admin-Key", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
			if w.Header().Get("X-Request-Id") == "" {
				t.Fatalf("missing request id header")
			}
		})
	}
}
