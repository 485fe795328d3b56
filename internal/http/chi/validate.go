package chi

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// emailPattern is deliberately loose: something@something.tld without whitespace
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("leademail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return v
}

// contactFields are the required fields of the contact form
type contactFields struct {
	Name    string `validate:"required"`
	Email   string `validate:"required,leademail"`
	Phone   string `validate:"required"`
	Message string `validate:"required"`
}

// exportAction is the body of POST /api/contact/export
type exportAction struct {
	Action       string `json:"action" validate:"required,oneof=retry mark_delivered get_details"`
	SubmissionID string `json:"submissionId" validate:"required"`
}

// missingRequired reports whether err contains a failed "required" rule
func missingRequired(err error) bool {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return false
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return true
		}
	}
	return false
}

func validEmail(s string) bool {
	return validate.Var(s, "leademail") == nil
}

// text returns a form value as trimmed text; nil and absent values are empty
func text(data map[string]any, key string) string {
	switch v := data[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return fmt.Sprint(v)
	}
}
