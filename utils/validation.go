package utils

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	validRoles         = map[string]bool{"customer": true, "authenticator": true, "admin": true, "finance": true}
	validDocStatuses   = map[string]bool{"draft": true, "pending": true, "processing": true, "completed": true, "cancelled": true}
	validExportFormats = map[string]bool{"csv": true, "json": true, "pdf": true}
)

// RegisterValidators adds the API's custom binding tags to gin's validator engine.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := v.RegisterValidation("role", oneOf(validRoles)); err != nil {
		return err
	}
	if err := v.RegisterValidation("docstatus", oneOf(validDocStatuses)); err != nil {
		return err
	}
	return v.RegisterValidation("exportformat", oneOf(validExportFormats))
}

func oneOf(allowed map[string]bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return allowed[fl.Field().String()]
	}
}
