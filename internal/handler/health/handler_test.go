package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealth(t *testing.T) {
	up := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("refused") })

	t.Run("live ignores dependencies", func(t *testing.T) {
		w := serve(NewHandler(map[string]Pinger{"database": down}), "/health/live")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("ready when all dependencies answer", func(t *testing.T) {
		w := serve(NewHandler(map[string]Pinger{"database": up, "redis": up}), "/health/ready")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("not ready when one is down", func(t *testing.T) {
		w := serve(NewHandler(map[string]Pinger{"database": up, "redis": down}), "/health/ready")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "redis connection failed")
	})
}
