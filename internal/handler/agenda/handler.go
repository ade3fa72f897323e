package agenda

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/agenda-api/internal/handler"
	"github.com/jwalitptl/agenda-api/internal/model"
	apperrors "github.com/jwalitptl/agenda-api/pkg/errors"
	"github.com/jwalitptl/agenda-api/pkg/httputil"
	"github.com/jwalitptl/agenda-api/pkg/validator"
)

type AgendaService interface {
	CreateRule(ctx context.Context, rule *model.AvailabilityRule) error
	UpdateRule(ctx context.Context, rule *model.AvailabilityRule) error
	DeleteRule(ctx context.Context, professionalID, id uuid.UUID) error
	ListRules(ctx context.Context, professionalID uuid.UUID) ([]*model.AvailabilityRule, error)
	CreateBlock(ctx context.Context, block *model.AvailabilityBlock) error
	DeleteBlock(ctx context.Context, professionalID, id uuid.UUID) error
	ListBlocks(ctx context.Context, professionalID uuid.UUID, from, to model.Date) ([]*model.AvailabilityBlock, error)
	CreateOffering(ctx context.Context, offering *model.ServiceOffering) error
	ListOfferings(ctx context.Context, professionalID uuid.UUID) ([]*model.ServiceOffering, error)
}

type CalendarService interface {
	Month(ctx context.Context, professionalID uuid.UUID, year, month int) (*model.CalendarMonth, error)
	Day(ctx context.Context, professionalID uuid.UUID, date model.Date) (*model.CalendarDay, error)
	Cancel(ctx context.Context, actor model.Actor, appointmentID uuid.UUID) (*model.Appointment, error)
}

// Handler serves the professional's own agenda. Every route expects
// RequireProfessional upstream.
type Handler struct {
	agenda    AgendaService
	calendar  CalendarService
	validator *validator.Validator
}

func NewHandler(agenda AgendaService, calendar CalendarService, v *validator.Validator) *Handler {
	return &Handler{agenda: agenda, calendar: calendar, validator: v}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	rules := r.Group("/rules")
	{
		rules.GET("", h.ListRules)
		rules.POST("", h.CreateRule)
		rules.PUT("/:id", h.UpdateRule)
		rules.DELETE("/:id", h.DeleteRule)
	}

	blocks := r.Group("/blocks")
	{
		blocks.GET("", h.ListBlocks)
		blocks.POST("", h.CreateBlock)
		blocks.DELETE("/:id", h.DeleteBlock)
	}

	services := r.Group("/services")
	{
		services.GET("", h.ListServices)
		services.POST("", h.CreateService)
	}

	calendar := r.Group("/calendar")
	{
		calendar.GET("", h.GetMonth)
		calendar.GET("/:date", h.GetDay)
		calendar.POST("/appointments/:id/cancel", h.CancelAppointment)
	}
}

func (h *Handler) ListRules(c *gin.Context) {
	pid, ok := handler.ProfessionalID(c)
	if !ok {
		return
	}
	rules, err := h.agenda.ListRules(c.Request.Context(), pid)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, rules)
}

func (h *Handler) CreateRule(c *gin.Context) {
	pid, ok := handler.ProfessionalID(c)
	if !ok {
		return
	}
	var req model.CreateRuleRequest
	if !handler.BindJSON(c, h.validator, &req) {
		return
	}

	rule := ruleFromRequest(pid, &req)
	if err := h.agenda.CreateRule(c.Request.Context(), rule); err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, rule)
}

func (h *Handler) UpdateRule(c *gin.Context) {
	pid, ok := handler.ProfessionalID(c)
	if !ok {
		return
	}
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateRuleRequest
	if !handler.BindJSON(c, h.validator, &req) {
		return
	}

	rule := ruleFromRequest(pid, &req)
	rule.ID = id
	if err := h.agenda.UpdateRule(c.Request.Context(), rule); err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, rule)
}

func (h *Handler) DeleteRule(c *gin.Context) {
	pid, ok := handler.ProfessionalID(c)
	if !ok {
		return
	}
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.agenda.DeleteRule(c.Request.Context(), pid, id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListBlocks(c *gin.Context) {
	pid, ok := handler.ProfessionalID(c)
	if !ok {
		return
	}
	from, ok := handler.QueryDate(c, "from")
	if !ok {
		return
	}
	to, ok := handler.QueryDate(c, "to")
	if !ok {
		return
	}
	blocks, err := h.agenda.ListBlocks(c.Request.Context(), pid, from, to)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, blocks)
}

func (h *Handler) CreateBlock(c *gin.Context) {
	pid, ok := handler.ProfessionalID(c)
	if !ok {
		return
	}
	var req model.CreateBlockRequest
	if !handler.BindJSON(c, h.validator, &req) {
		return
	}

	block := &model.AvailabilityBlock{
		ProfessionalID: pid,
		BlockDate:      model.MustDate(req.BlockDate),
		StartTime:      model.MustClock(req.StartTime),
		EndTime:        model.MustClock(req.EndTime),
		Reason:         req.Reason,
	}
	if err := h.agenda.CreateBlock(c.Request.Context(), block); err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, block)
}

func (h *Handler) DeleteBlock(c *gin.Context) {
	pid, ok := handler.ProfessionalID(c)
	if !ok {
		return
	}
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.agenda.DeleteBlock(c.Request.Context(), pid, id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListServices(c *gin.Context) {
	pid, ok := handler.ProfessionalID(c)
	if !ok {
		return
	}
	offerings, err := h.agenda.ListOfferings(c.Request.Context(), pid)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, offerings)
}

func (h *Handler) CreateService(c *gin.Context) {
	pid, ok := handler.ProfessionalID(c)
	if !ok {
		return
	}
	var req model.CreateOfferingRequest
	if !handler.BindJSON(c, h.validator, &req) {
		return
	}

	offering := &model.ServiceOffering{
		ProfessionalID:  pid,
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
	}
	if err := h.agenda.CreateOffering(c.Request.Context(), offering); err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, offering)
}

// GetMonth takes month=YYYY-MM.
func (h *Handler) GetMonth(c *gin.Context) {
	pid, ok := handler.ProfessionalID(c)
	if !ok {
		return
	}
	month, err := time.Parse("2006-01", c.Query("month"))
	if err != nil {
		_ = c.Error(apperrors.Validation("month must be formatted YYYY-MM", nil))
		return
	}

	view, err := h.calendar.Month(c.Request.Context(), pid, month.Year(), int(month.Month()))
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, view)
}

func (h *Handler) GetDay(c *gin.Context) {
	pid, ok := handler.ProfessionalID(c)
	if !ok {
		return
	}
	date, err := model.ParseDate(c.Param("date"))
	if err != nil {
		_ = c.Error(apperrors.Validation("date must be formatted YYYY-MM-DD", nil))
		return
	}

	day, err := h.calendar.Day(c.Request.Context(), pid, date)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, day)
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	apt, err := h.calendar.Cancel(c.Request.Context(), actor, id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, apt)
}

func ruleFromRequest(pid uuid.UUID, req *model.CreateRuleRequest) *model.AvailabilityRule {
	return &model.AvailabilityRule{
		ProfessionalID:      pid,
		Weekday:             req.Weekday,
		StartTime:           model.MustClock(req.StartTime),
		EndTime:             model.MustClock(req.EndTime),
		SlotIntervalMinutes: req.SlotIntervalMinutes,
		Capacity:            req.Capacity,
	}
}
