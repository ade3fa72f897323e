package appointment

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/agenda-api/internal/middleware"
	"github.com/jwalitptl/agenda-api/internal/model"
	"github.com/jwalitptl/agenda-api/internal/service/booking"
	apperrors "github.com/jwalitptl/agenda-api/pkg/errors"
	"github.com/jwalitptl/agenda-api/pkg/httputil"
	"github.com/jwalitptl/agenda-api/pkg/logger"
	"github.com/jwalitptl/agenda-api/pkg/validator"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) CreateAppointment(ctx context.Context, in booking.CreateAppointmentInput) (*model.Appointment, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *MockService) RescheduleAppointment(ctx context.Context, id uuid.UUID, actor model.Actor, date model.Date, start model.Clock) (*model.Appointment, error) {
	args := m.Called(ctx, id, actor, date, start)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *MockService) transition(name string, ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Appointment, error) {
	args := m.MethodCalled(name, ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *MockService) CancelAppointment(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Appointment, error) {
	return m.transition("CancelAppointment", ctx, id, actor)
}

func (m *MockService) ConfirmAppointment(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Appointment, error) {
	return m.transition("ConfirmAppointment", ctx, id, actor)
}

func (m *MockService) RejectAppointment(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Appointment, error) {
	return m.transition("RejectAppointment", ctx, id, actor)
}

func (m *MockService) CompleteAppointment(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Appointment, error) {
	return m.transition("CompleteAppointment", ctx, id, actor)
}

func (m *MockService) MarkNoShow(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Appointment, error) {
	return m.transition("MarkNoShow", ctx, id, actor)
}

func (m *MockService) ArchiveAppointment(ctx context.Context, id, clientID uuid.UUID) error {
	return m.Called(ctx, id, clientID).Error(0)
}

func (m *MockService) GetAppointment(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Appointment, error) {
	return m.transition("GetAppointment", ctx, id, actor)
}

func (m *MockService) ListClientAppointments(ctx context.Context, clientID uuid.UUID, includeArchived bool) ([]*model.Appointment, error) {
	args := m.Called(ctx, clientID, includeArchived)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Appointment), args.Error(1)
}

func setupRouter(t *testing.T, svc *MockService, actor *model.Actor) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	v, err := validator.New(model.ValidationTags())
	require.NoError(t, err)

	r := gin.New()
	r.Use(middleware.ErrorHandler(logger.Nop()))
	if actor != nil {
		r.Use(func(c *gin.Context) { c.Set(middleware.ContextActor, *actor) })
	}
	NewHandler(svc, v).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func do(r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, httputil.Response) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp httputil.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestCreateAppointment(t *testing.T) {
	client := model.Actor{UserID: uuid.New()}
	pid := uuid.New()

	t.Run("success", func(t *testing.T) {
		svc := new(MockService)
		r := setupRouter(t, svc, &client)

		chat := uuid.New()
		expected := booking.CreateAppointmentInput{
			ProfessionalID:  pid,
			ClientID:        client.UserID,
			Date:            model.MustDate("2024-06-10"),
			StartTime:       model.MustClock("09:30"),
			DurationMinutes: 45,
			ServiceIDs:      []uuid.UUID{},
			ChatRequestID:   &chat,
		}
		apt := &model.Appointment{ProfessionalID: pid, ClientID: client.UserID, Status: model.AppointmentStatusPending}
		svc.On("CreateAppointment", mock.Anything, expected).Return(apt, nil)

		w, resp := do(r, http.MethodPost, "/api/v1/appointments", gin.H{
			"professional_id":  pid.String(),
			"date":             "2024-06-10",
			"start_time":       "09:30",
			"duration_minutes": 45,
			"chat_request_id":  chat.String(),
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "success", resp.Status)
		svc.AssertExpectations(t)
	})

	t.Run("requires duration or services", func(t *testing.T) {
		svc := new(MockService)
		r := setupRouter(t, svc, &client)

		w, resp := do(r, http.MethodPost, "/api/v1/appointments", gin.H{
			"professional_id": pid.String(),
			"date":            "2024-06-10",
			"start_time":      "09:30",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, int(apperrors.ErrValidation), resp.Code)
		svc.AssertNotCalled(t, "CreateAppointment", mock.Anything, mock.Anything)
	})

	t.Run("malformed start time", func(t *testing.T) {
		svc := new(MockService)
		r := setupRouter(t, svc, &client)

		w, _ := do(r, http.MethodPost, "/api/v1/appointments", gin.H{
			"professional_id":  pid.String(),
			"date":             "2024-06-10",
			"start_time":       "9h30",
			"duration_minutes": 30,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("slot unavailable is a retryable conflict", func(t *testing.T) {
		svc := new(MockService)
		r := setupRouter(t, svc, &client)
		svc.On("CreateAppointment", mock.Anything, mock.Anything).
			Return(nil, apperrors.SlotUnavailable("", nil))

		w, resp := do(r, http.MethodPost, "/api/v1/appointments", gin.H{
			"professional_id":  pid.String(),
			"date":             "2024-06-10",
			"start_time":       "09:30",
			"duration_minutes": 30,
		})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, int(apperrors.ErrSlotUnavailable), resp.Code)
		assert.True(t, resp.Retryable)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		svc := new(MockService)
		r := setupRouter(t, svc, nil)

		w, _ := do(r, http.MethodPost, "/api/v1/appointments", gin.H{})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestTransitions(t *testing.T) {
	pid := uuid.New()
	professional := model.Actor{UserID: uuid.New(), ProfessionalID: &pid}
	id := uuid.New()

	routes := map[string]string{
		"cancel":   "CancelAppointment",
		"confirm":  "ConfirmAppointment",
		"reject":   "RejectAppointment",
		"complete": "CompleteAppointment",
		"no-show":  "MarkNoShow",
	}
	for route, method := range routes {
		t.Run(route, func(t *testing.T) {
			svc := new(MockService)
			r := setupRouter(t, svc, &professional)
			svc.On(method, mock.Anything, id, professional).Return(&model.Appointment{}, nil)

			w, _ := do(r, http.MethodPost, "/api/v1/appointments/"+id.String()+"/"+route, nil)

			assert.Equal(t, http.StatusOK, w.Code)
			svc.AssertExpectations(t)
		})
	}

	t.Run("invalid transition", func(t *testing.T) {
		svc := new(MockService)
		r := setupRouter(t, svc, &professional)
		svc.On("ConfirmAppointment", mock.Anything, id, professional).
			Return(nil, apperrors.InvalidTransition("canceled", "confirmed"))

		w, resp := do(r, http.MethodPost, "/api/v1/appointments/"+id.String()+"/confirm", nil)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, int(apperrors.ErrInvalidTransition), resp.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		svc := new(MockService)
		r := setupRouter(t, svc, &professional)

		w, _ := do(r, http.MethodPost, "/api/v1/appointments/nope/cancel", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRescheduleAppointment(t *testing.T) {
	client := model.Actor{UserID: uuid.New()}
	id := uuid.New()

	svc := new(MockService)
	r := setupRouter(t, svc, &client)
	svc.On("RescheduleAppointment", mock.Anything, id, client, model.MustDate("2024-06-12"), model.MustClock("14:00")).
		Return(&model.Appointment{}, nil)

	w, _ := do(r, http.MethodPost, "/api/v1/appointments/"+id.String()+"/reschedule", gin.H{
		"date":       "2024-06-12",
		"start_time": "14:00",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestArchiveAndList(t *testing.T) {
	client := model.Actor{UserID: uuid.New()}
	id := uuid.New()

	t.Run("archive", func(t *testing.T) {
		svc := new(MockService)
		r := setupRouter(t, svc, &client)
		svc.On("ArchiveAppointment", mock.Anything, id, client.UserID).Return(nil)

		w, _ := do(r, http.MethodPost, "/api/v1/appointments/"+id.String()+"/archive", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("list with archived", func(t *testing.T) {
		svc := new(MockService)
		r := setupRouter(t, svc, &client)
		svc.On("ListClientAppointments", mock.Anything, client.UserID, true).
			Return([]*model.Appointment{{}, {}}, nil)

		w, resp := do(r, http.MethodGet, "/api/v1/me/appointments?include_archived=true", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, resp.Data, 2)
	})

	t.Run("list rejects bad flag", func(t *testing.T) {
		svc := new(MockService)
		r := setupRouter(t, svc, &client)

		w, _ := do(r, http.MethodGet, "/api/v1/me/appointments?include_archived=maybe", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
