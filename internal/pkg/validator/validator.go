package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

var phonePattern = regexp.MustCompile(`^\+\d{1,3}\d{7,14}$`)

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// Role validation
	validate.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		role := fl.Field().String()
		return role == "user" || role == "admin"
	})

	// International phone format: +<country code><number>
	validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})

	// Bonus transaction kind
	validate.RegisterValidation("bonus_kind", func(fl validator.FieldLevel) bool {
		kind := fl.Field().String()
		return kind == "credit" || kind == "debit"
	})

	// Order status
	validate.RegisterValidation("order_status", func(fl validator.FieldLevel) bool {
		status := fl.Field().String()
		for _, s := range []string{"pending", "paid", "processing", "shipped", "delivered", "cancelled"} {
			if status == s {
				return true
			}
		}
		return false
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "email":
			errors[field] = "Invalid email format"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "gt":
			errors[field] = "Value must be greater than " + err.Param()
		case "url":
			errors[field] = "Invalid URL format"
		case "role":
			errors[field] = "Invalid role. Must be: user or admin"
		case "phone":
			errors[field] = "Invalid phone. Expected format: +79991234567"
		case "bonus_kind":
			errors[field] = "Invalid kind. Must be: credit or debit"
		case "order_status":
			errors[field] = "Invalid status. Must be: pending, paid, processing, shipped, delivered or cancelled"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
