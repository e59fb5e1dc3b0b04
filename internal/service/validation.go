package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/timetidy/timetidy-service/internal/models"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// report json names so the errors map matches the request body
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	validate.RegisterValidation("timeofday", func(fl validator.FieldLevel) bool {
		_, ok := models.MinuteOfDay(fl.Field().String())
		return ok
	})
}

// validateStruct runs struct validation and collects every failure per field
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return internal("Internal server error", err)
	}

	fields := make(map[string][]string)
	for _, fe := range verrs {
		name := fe.Field()
		fields[name] = append(fields[name], describe(fe))
	}
	return invalid("Validation failed", fields)
}

func describe(fe validator.FieldError) string {
	label := humanize(fe.Field())
	switch fe.Tag() {
	case "required", "required_with":
		return label + " is required"
	case "email":
		return label + " must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s item(s)", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", label, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", label, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or more", label, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be %s or less", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "eqfield":
		return label + " does not match"
	case "datetime":
		return label + " must be a date in YYYY-MM-DD format"
	case "timeofday":
		return label + " must be a time in HH:mm format"
	case "latitude":
		return label + " must be a valid latitude"
	case "longitude":
		return label + " must be a valid longitude"
	case "timezone":
		return label + " must be a valid IANA time zone"
	default:
		return label + " is invalid"
	}
}

// humanize turns "locationId" into "Location ID"
func humanize(field string) string {
	var b strings.Builder
	for i, r := range field {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		if i == 0 {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
	}
	s := b.String()
	if strings.HasSuffix(s, " Id") {
		s = strings.TrimSuffix(s, " Id") + " ID"
	}
	return s
}

// checkPasswordPolicy requires 8+ characters with upper, lower and digit
func checkPasswordPolicy(password string) []string {
	var problems []string
	if len(password) < 8 {
		problems = append(problems, "Password must be at least 8 characters long")
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper {
		problems = append(problems, "Password must contain at least one uppercase letter")
	}
	if !lower {
		problems = append(problems, "Password must contain at least one lowercase letter")
	}
	if !digit {
		problems = append(problems, "Password must contain at least one number")
	}
	return problems
}

func parseDate(field, value string) (time.Time, error) {
	d, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return time.Time{}, invalidField(field, humanize(field)+" must be a date in YYYY-MM-DD format")
	}
	return d, nil
}
