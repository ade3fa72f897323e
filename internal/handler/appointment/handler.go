package appointment

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/agenda-api/internal/handler"
	"github.com/jwalitptl/agenda-api/internal/model"
	"github.com/jwalitptl/agenda-api/internal/service/booking"
	apperrors "github.com/jwalitptl/agenda-api/pkg/errors"
	"github.com/jwalitptl/agenda-api/pkg/httputil"
	"github.com/jwalitptl/agenda-api/pkg/validator"
)

type Service interface {
	CreateAppointment(ctx context.Context, in booking.CreateAppointmentInput) (*model.Appointment, error)
	RescheduleAppointment(ctx context.Context, id uuid.UUID, actor model.Actor, date model.Date, start model.Clock) (*model.Appointment, error)
	CancelAppointment(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Appointment, error)
	ConfirmAppointment(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Appointment, error)
	RejectAppointment(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Appointment, error)
	CompleteAppointment(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Appointment, error)
	MarkNoShow(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Appointment, error)
	ArchiveAppointment(ctx context.Context, id, clientID uuid.UUID) error
	GetAppointment(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Appointment, error)
	ListClientAppointments(ctx context.Context, clientID uuid.UUID, includeArchived bool) ([]*model.Appointment, error)
}

type transitionFunc func(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Appointment, error)

type Handler struct {
	service   Service
	validator *validator.Validator
}

func NewHandler(service Service, v *validator.Validator) *Handler {
	return &Handler{service: service, validator: v}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.CreateAppointment)
		appointments.GET("/:id", h.GetAppointment)
		appointments.POST("/:id/reschedule", h.RescheduleAppointment)
		appointments.POST("/:id/cancel", h.transition(h.service.CancelAppointment))
		appointments.POST("/:id/confirm", h.transition(h.service.ConfirmAppointment))
		appointments.POST("/:id/reject", h.transition(h.service.RejectAppointment))
		appointments.POST("/:id/complete", h.transition(h.service.CompleteAppointment))
		appointments.POST("/:id/no-show", h.transition(h.service.MarkNoShow))
		appointments.POST("/:id/archive", h.ArchiveAppointment)
	}
	r.GET("/me/appointments", h.ListMyAppointments)
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	var req model.CreateAppointmentRequest
	if !handler.BindJSON(c, h.validator, &req) {
		return
	}
	if req.DurationMinutes == 0 && len(req.ServiceIDs) == 0 {
		_ = c.Error(apperrors.Validation("duration_minutes or service_ids is required", nil))
		return
	}

	in := booking.CreateAppointmentInput{
		ProfessionalID:  uuid.MustParse(req.ProfessionalID),
		ClientID:        actor.UserID,
		Date:            model.MustDate(req.Date),
		StartTime:       model.MustClock(req.StartTime),
		DurationMinutes: req.DurationMinutes,
		ServiceIDs:      handler.ParseUUIDs(req.ServiceIDs),
	}
	if req.ChatRequestID != nil {
		chat := uuid.MustParse(*req.ChatRequestID)
		in.ChatRequestID = &chat
	}

	apt, err := h.service.CreateAppointment(c.Request.Context(), in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, apt)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	apt, err := h.service.GetAppointment(c.Request.Context(), id, actor)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, apt)
}

func (h *Handler) RescheduleAppointment(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.RescheduleAppointmentRequest
	if !handler.BindJSON(c, h.validator, &req) {
		return
	}

	apt, err := h.service.RescheduleAppointment(c.Request.Context(), id, actor,
		model.MustDate(req.Date), model.MustClock(req.StartTime))
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, apt)
}

func (h *Handler) transition(fn transitionFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := handler.Actor(c)
		if !ok {
			return
		}
		id, ok := handler.ParamUUID(c, "id")
		if !ok {
			return
		}
		apt, err := fn(c.Request.Context(), id, actor)
		if err != nil {
			_ = c.Error(err)
			return
		}
		httputil.RespondWithSuccess(c, http.StatusOK, apt)
	}
}

func (h *Handler) ArchiveAppointment(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.service.ArchiveAppointment(c.Request.Context(), id, actor.UserID); err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"archived": true})
}

func (h *Handler) ListMyAppointments(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	includeArchived := false
	if raw := c.Query("include_archived"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			_ = c.Error(apperrors.Validation("include_archived must be a boolean", nil))
			return
		}
		includeArchived = b
	}

	apts, err := h.service.ListClientAppointments(c.Request.Context(), actor.UserID, includeArchived)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, apts)
}
