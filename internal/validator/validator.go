// Package validator registers the custom validation tags used by request
// bindings and the transaction importer.
package validator

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"fintrack/internal/recurrence"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		Configure(v)
	}
}

// New returns a standalone validator with the custom tags registered.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	Configure(v)
	return v
}

// Configure adds the custom tags to v. Decimal fields validate as numbers, so
// tags such as gt=0 apply to money amounts.
func Configure(v *validator.Validate) {
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	v.RegisterTagNameFunc(jsonName)
	_ = v.RegisterValidation("iso4217", validateISO4217)
	_ = v.RegisterValidation("transaction_type", validateTransactionType)
	_ = v.RegisterValidation("frequency", validateFrequency)
	_ = v.RegisterValidation("goal_priority", validateGoalPriority)
	_ = v.RegisterValidation("notification_type", validateNotificationType)
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

// jsonName reports fields by their JSON name so messages match the request body.
func jsonName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

func validateISO4217(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	if len(code) != 3 || strings.ToUpper(code) != code {
		return false
	}
	_, err := currency.ParseISO(code)
	return err == nil
}

func validateTransactionType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense":
		return true
	}
	return false
}

func validateFrequency(fl validator.FieldLevel) bool {
	_, err := recurrence.ParseFrequency(fl.Field().String())
	return err == nil
}

func validateGoalPriority(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "High", "Medium", "Low":
		return true
	}
	return false
}

func validateNotificationType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "info", "success", "warning", "error":
		return true
	}
	return false
}
