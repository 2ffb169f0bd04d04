package utils

import (
	"reflect"
	"strings"

	"tonotes/model"

	"github.com/go-playground/validator/v10"
)

var Validate *validator.Validate

func init() {
	InitValidator()
}

func InitValidator() {
	Validate = validator.New(validator.WithRequiredStructEnabled())
	// Report json field names so errors match what clients sent
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	RegisterCustomValidators(Validate)
}

func RegisterCustomValidators(v *validator.Validate) {
	v.RegisterValidation("notestatus", ValidateNoteStatusRule)
}

func ValidateNoteStatusRule(fl validator.FieldLevel) bool {
	return model.NoteStatus(fl.Field().String()).Valid()
}
