package libcal

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	availabilityPattern      = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}(,\d{4}-\d{2}-\d{2})?|next)$`)
	availabilityDatesPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(,\d{4}-\d{2}-\d{2})?$`)
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Registration only fails for an empty tag or nil func.
		_ = validate.RegisterValidation("availability", func(fl validator.FieldLevel) bool {
			return availabilityPattern.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("availability_dates", func(fl validator.FieldLevel) bool {
			return availabilityDatesPattern.MatchString(fl.Field().String())
		})
	})

	return validate
}

// validateStruct checks the validate tags of params and reports the first
// violation as an action error.
func validateStruct(params interface{}) error {
	err := validatorInstance().Struct(params)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return NewActionError(describeFieldError(fieldErrs[0]), err)
	}

	return NewActionError("invalid parameters", err)
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "datetime":
		return "invalid date specified for " + field
	case "availability", "availability_dates":
		return "invalid availability specified"
	case "email":
		return "invalid email specified"
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
