package validate

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// CustomValidator plugs go-playground/validator into echo.Context.Validate.
type CustomValidator struct {
	validator *validator.Validate
	now       func() time.Time
}

func NewCustomValidator() *CustomValidator {
	cv := &CustomValidator{
		validator: validator.New(),
		now:       time.Now,
	}
	// report fields under their form names so handlers can annotate inputs directly
	cv.validator.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = cv.validator.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return IsPhone(fl.Field().String())
	})
	_ = cv.validator.RegisterValidation("notpast", func(fl validator.FieldLevel) bool {
		return NotPast(fl.Field().String(), cv.now())
	})
	return cv
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

var phoneRe = regexp.MustCompile(`^\+7\(\d{3}\)\d{3}-\d{2}-\d{2}$`)

// IsPhone reports whether s has the +7(XXX)XXX-XX-XX shape.
func IsPhone(s string) bool {
	return phoneRe.MatchString(s)
}

// NotPast reports whether the date-only value is today or later.
// Unparseable values pass: the datetime tag reports them.
func NotPast(value string, now time.Time) bool {
	d, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return true
	}
	y, m, day := now.Date()
	return !d.Before(time.Date(y, m, day, 0, 0, 0, 0, time.UTC))
}

// FieldErrors flattens a validation error into form field -> message.
// Errors that are not validator.ValidationErrors land under the empty key.
func FieldErrors(err error) map[string]string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return map[string]string{"": err.Error()}
	}
	out := make(map[string]string, len(ve))
	for _, fe := range ve {
		if _, ok := out[fe.Field()]; ok {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "phone":
		return "must match +7(XXX)XXX-XX-XX"
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "notpast":
		return "must be today or later"
	default:
		return "is invalid"
	}
}
