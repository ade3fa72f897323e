package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/jwalitptl/agenda-api/pkg/errors"
)

// Validator wraps go-playground/validator and reports failures as
// validation AppErrors keyed by JSON field name.
type Validator struct {
	v *validator.Validate
}

// New builds a validator with the given custom tags registered.
func New(custom map[string]validator.Func) (*Validator, error) {
	v := validator.New()
	if err := Configure(v, custom); err != nil {
		return nil, err
	}
	return &Validator{v: v}, nil
}

// Configure registers custom tags and JSON field naming on an existing
// engine, such as the one gin binding uses.
func Configure(v *validator.Validate, custom map[string]validator.Func) error {
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return nil
}

// Engine exposes the underlying validator.
func (v *Validator) Engine() *validator.Validate {
	return v.v
}

func (v *Validator) Validate(obj interface{}) error {
	err := v.v.Struct(obj)
	if err == nil {
		return nil
	}
	return Translate(err)
}

// Translate turns validator errors into a single validation AppError.
func Translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Validation("invalid request", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fieldMessage(e))
	}
	return apperrors.Validation(strings.Join(msgs, "; "), err)
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", e.Field(), e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", e.Field(), e.Param())
	case "uuid":
		return fmt.Sprintf("%s must be a valid UUID", e.Field())
	case "clock":
		return fmt.Sprintf("%s must be a time formatted HH:MM", e.Field())
	case "date":
		return fmt.Sprintf("%s must be a date formatted YYYY-MM-DD", e.Field())
	default:
		return fmt.Sprintf("%s failed %s validation", e.Field(), e.Tag())
	}
}
