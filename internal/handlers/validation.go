package handlers

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"civicreport/internal/models"
)

// Registers the issuecategory binding validation so request bodies are
// rejected before they reach the service layer.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("issuecategory", func(fl validator.FieldLevel) bool {
			return models.IsValidCategory(fl.Field().String())
		})
	}
}
