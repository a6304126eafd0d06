package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"volunteer_backend/internal/algorithms"
	"volunteer_backend/internal/logger"
	"volunteer_backend/internal/models"
)

// registerCustomRules - закрытые перечисления проверяются на границе
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			logger.Fatal("failed to register custom validation tag", "tag", tag, "error", err)
		}
	}

	mustRegister("is-user-role", validateUserRole)
	mustRegister("is-category", validateCategory)
	mustRegister("is-sort-field", validateSortField)
	mustRegister("is-sort-order", validateSortOrder)
}

// Пустые значения пропускаются: для них есть 'required'

func validateUserRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || models.UserRole(value).IsValid()
}

func validateCategory(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || models.OpportunityCategory(value).IsValid()
}

func validateSortField(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || algorithms.SortField(value).IsValid()
}

func validateSortOrder(fl validator.FieldLevel) bool {
	switch strings.ToUpper(fl.Field().String()) {
	case "", string(algorithms.SortAsc), string(algorithms.SortDesc):
		return true
	}
	return false
}
