package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/agenda-api/internal/middleware"
	"github.com/jwalitptl/agenda-api/pkg/auth"
	"github.com/jwalitptl/agenda-api/pkg/logger"
)

type stubHandler struct {
	path string
}

func (s stubHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET(s.path, func(c *gin.Context) { c.Status(http.StatusOK) })
}

type stubHealth struct{}

func (stubHealth) RegisterRoutes(r gin.IRouter) {
	r.GET("/health/live", func(c *gin.Context) { c.Status(http.StatusOK) })
}

func setup(t *testing.T) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	jwtSvc := auth.NewJWTService("test-secret", "agenda-test")
	r := NewRouter(middleware.NewAuthMiddleware(jwtSvc), Handlers{
		Health:       stubHealth{},
		Availability: stubHandler{path: "/professionals/:id/slots"},
		Appointment:  stubHandler{path: "/me/appointments"},
		Agenda:       stubHandler{path: "/rules"},
	}, logger.Nop(), RouterConfig{
		Mode:           gin.TestMode,
		RequestTimeout: time.Second,
		RateEnabled:    true,
		RateLimit:      100,
		RateBurst:      100,
		CORSConfig:     middleware.DefaultCORSConfig([]string{"*"}),
	})
	r.Setup()
	return r.Engine(), jwtSvc
}

func request(t *testing.T, e *gin.Engine, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func TestRouter(t *testing.T) {
	e, jwtSvc := setup(t)

	clientToken, err := jwtSvc.IssueToken(uuid.New(), nil, time.Hour)
	require.NoError(t, err)
	pid := uuid.New()
	proToken, err := jwtSvc.IssueToken(uuid.New(), &pid, time.Hour)
	require.NoError(t, err)

	t.Run("health is public", func(t *testing.T) {
		w := request(t, e, "/health/live", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get(middleware.HeaderXRequestID))
	})

	t.Run("api requires a token", func(t *testing.T) {
		w := request(t, e, "/api/v1/me/appointments", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("client reaches booking routes", func(t *testing.T) {
		w := request(t, e, "/api/v1/me/appointments", clientToken)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("agenda needs a professional", func(t *testing.T) {
		w := request(t, e, "/api/v1/agenda/rules", clientToken)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = request(t, e, "/api/v1/agenda/rules", proToken)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
