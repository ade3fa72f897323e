package model

import (
	"github.com/go-playground/validator/v10"
)

// ValidationTags are the custom validator tags request structs use.
func ValidationTags() map[string]validator.Func {
	return map[string]validator.Func{
		"clock": func(fl validator.FieldLevel) bool {
			_, err := ParseClock(fl.Field().String())
			return err == nil
		},
		"date": func(fl validator.FieldLevel) bool {
			_, err := ParseDate(fl.Field().String())
			return err == nil
		},
	}
}
