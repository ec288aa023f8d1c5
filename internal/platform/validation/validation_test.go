package validation

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type query struct {
	From string `form:"from" binding:"omitempty,ymd"`
}

func TestYMD(t *testing.T) {
	if err := Register(); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := Register(); err != nil {
		t.Fatalf("second Register: %v", err)
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		var q query
		if err := c.ShouldBindQuery(&q); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	tests := []struct {
		url  string
		want int
	}{
		{"/", http.StatusOK},
		{"/?from=2026-10-19", http.StatusOK},
		{"/?from=2026-13-01", http.StatusBadRequest},
		{"/?from=19/10/2026", http.StatusBadRequest},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))
		if w.Code != tt.want {
			t.Errorf("GET %s = %d, want %d", tt.url, w.Code, tt.want)
		}
	}
}
