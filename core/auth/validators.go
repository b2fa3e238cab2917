package auth

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/smartflows/shule/core"
)

var (
	// custom validation tags & texts
	roleTag  = "role"
	roleText = "must be one of: student, teacher, admin"
)

// InitValidators registers this package's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)
}

func roleValidation(fl validator.FieldLevel) bool {
	return Role(fl.Field().String()).Valid()
}
