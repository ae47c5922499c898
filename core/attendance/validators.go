package attendance

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core"
)

var (
	statusTag  = "status"
	statusText = "{0} must be one of present, absent"
)

func init() {
	InitValidators(core.Validate, core.Translator)
}

// InitValidators registers the attendance validation tags on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(statusTag, statusValidation)
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)
}

func statusValidation(fl validator.FieldLevel) bool {
	return Status(fl.Field().String()).Valid()
}
