package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/agenda-api/internal/middleware"
	"github.com/jwalitptl/agenda-api/internal/model"
	apperrors "github.com/jwalitptl/agenda-api/pkg/errors"
	"github.com/jwalitptl/agenda-api/pkg/validator"
)

// Shared helpers for the per-resource handler packages. Each helper reports
// failures through c.Error and returns false; the error middleware renders
// them.

func BindJSON(c *gin.Context, v *validator.Validator, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		_ = c.Error(apperrors.Validation("invalid request body", err))
		return false
	}
	if err := v.Validate(obj); err != nil {
		_ = c.Error(err)
		return false
	}
	return true
}

func ParamUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		_ = c.Error(apperrors.Validation("invalid "+name, nil))
		return uuid.Nil, false
	}
	return id, true
}

// QueryDate parses an optional YYYY-MM-DD query parameter.
func QueryDate(c *gin.Context, name string) (model.Date, bool) {
	raw := c.Query(name)
	if raw == "" {
		return model.Date{}, true
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		_ = c.Error(apperrors.Validation(name+" must be a date formatted YYYY-MM-DD", nil))
		return model.Date{}, false
	}
	return d, true
}

// QueryUUIDs parses a comma-separated list of ids.
func QueryUUIDs(c *gin.Context, name string) ([]uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	parts := strings.Split(raw, ",")
	ids := make([]uuid.UUID, 0, len(parts))
	for _, p := range parts {
		id, err := uuid.Parse(strings.TrimSpace(p))
		if err != nil {
			_ = c.Error(apperrors.Validation(name+" must be a comma-separated list of UUIDs", nil))
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

// ParseUUIDs converts validated string ids.
func ParseUUIDs(raw []string) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		ids = append(ids, uuid.MustParse(s))
	}
	return ids
}

// Actor returns the authenticated caller. Routes using it sit behind
// middleware.Authenticate.
func Actor(c *gin.Context) (model.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		_ = c.Error(apperrors.Unauthorized(nil))
		return model.Actor{}, false
	}
	return actor, true
}

// ProfessionalID returns the caller's professional id, set on routes behind
// RequireProfessional.
func ProfessionalID(c *gin.Context) (uuid.UUID, bool) {
	actor, ok := Actor(c)
	if !ok {
		return uuid.Nil, false
	}
	if actor.ProfessionalID == nil {
		_ = c.Error(apperrors.Forbidden("professional account required"))
		return uuid.Nil, false
	}
	return *actor.ProfessionalID, true
}
