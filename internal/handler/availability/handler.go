package availability

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/agenda-api/internal/handler"
	"github.com/jwalitptl/agenda-api/internal/model"
	apperrors "github.com/jwalitptl/agenda-api/pkg/errors"
	"github.com/jwalitptl/agenda-api/pkg/httputil"
)

type Service interface {
	ResolveDay(ctx context.Context, professionalID uuid.UUID, date model.Date, durationMinutes int, exclude *uuid.UUID) ([]model.Slot, error)
	AvailableDates(ctx context.Context, professionalID uuid.UUID, from model.Date, days, durationMinutes int) ([]model.Date, error)
	ListOfferings(ctx context.Context, professionalID uuid.UUID) ([]*model.ServiceOffering, error)
	ServiceDuration(ctx context.Context, professionalID uuid.UUID, durationMinutes int, serviceIDs []uuid.UUID) (int, *string, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	professionals := r.Group("/professionals/:id")
	{
		professionals.GET("/slots", h.GetSlots)
		professionals.GET("/available-dates", h.GetAvailableDates)
		professionals.GET("/services", h.ListServices)
	}
}

// GetSlots resolves one date. Duration comes from duration= or from the
// summed service_ids=.
func (h *Handler) GetSlots(c *gin.Context) {
	pid, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	date, ok := handler.QueryDate(c, "date")
	if !ok {
		return
	}
	if date.IsZero() {
		_ = c.Error(apperrors.Validation("date is required", nil))
		return
	}
	duration, ok := h.duration(c, pid)
	if !ok {
		return
	}

	var exclude *uuid.UUID
	if raw := c.Query("exclude"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			_ = c.Error(apperrors.Validation("exclude must be a valid UUID", nil))
			return
		}
		exclude = &id
	}

	slots, err := h.service.ResolveDay(c.Request.Context(), pid, date, duration, exclude)
	if err != nil {
		_ = c.Error(err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, model.DaySlots{
		ProfessionalID: pid.String(),
		Date:           date,
		Duration:       duration,
		Slots:          slots,
	})
}

func (h *Handler) GetAvailableDates(c *gin.Context) {
	pid, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	from, ok := handler.QueryDate(c, "from")
	if !ok {
		return
	}
	days := 0
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			_ = c.Error(apperrors.Validation("days must be an integer", nil))
			return
		}
		days = n
	}
	duration, ok := h.duration(c, pid)
	if !ok {
		return
	}

	dates, err := h.service.AvailableDates(c.Request.Context(), pid, from, days, duration)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"dates": dates, "duration_minutes": duration})
}

func (h *Handler) ListServices(c *gin.Context) {
	pid, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	offerings, err := h.service.ListOfferings(c.Request.Context(), pid)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, offerings)
}

func (h *Handler) duration(c *gin.Context, pid uuid.UUID) (int, bool) {
	minutes := 0
	if raw := c.Query("duration"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			_ = c.Error(apperrors.Validation("duration must be an integer number of minutes", nil))
			return 0, false
		}
		minutes = n
	}
	serviceIDs, ok := handler.QueryUUIDs(c, "service_ids")
	if !ok {
		return 0, false
	}
	if len(serviceIDs) == 0 {
		if minutes <= 0 {
			_ = c.Error(apperrors.Validation("duration or service_ids is required", nil))
			return 0, false
		}
		return minutes, true
	}

	total, _, err := h.service.ServiceDuration(c.Request.Context(), pid, minutes, serviceIDs)
	if err != nil {
		_ = c.Error(err)
		return 0, false
	}
	return total, true
}
