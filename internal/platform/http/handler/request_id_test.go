package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"generated when absent", "", false},
		{"propagated", "loom-7-req-42", true},
		{"regenerated when too long", strings.Repeat("x", 65), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var seen string
			r := gin.New()
			r.Use(RequestID())
			r.GET("/", func(c *gin.Context) {
				seen = c.GetString(ContextRequestID)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(HeaderRequestID, tt.incoming)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			got := w.Header().Get(HeaderRequestID)
			if got != seen {
				t.Errorf("context id %q differs from header %q", seen, got)
			}
			if tt.keep {
				if got != tt.incoming {
					t.Errorf("expected %q, got %q", tt.incoming, got)
				}
			} else if _, err := uuid.Parse(got); err != nil {
				t.Errorf("expected generated uuid, got %q", got)
			}
		})
	}
}
