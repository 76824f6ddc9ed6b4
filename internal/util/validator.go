package util

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// ApiError is one entry of the "errors" list in a failed response. Field is
// the request field the client should fix, using its wire name.
type ApiError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func msgForTag(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "strNotEmpty":
		return fmt.Sprintf("%s must not be blank", field)
	case "cmin":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "cmax":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	}

	return fe.Error()
}

// GenerateErrorMessages turns err into the response error list. Binding
// errors produce one entry per failing field, named by its json or form tag.
// Any other error is reported under field, or "Unknown" when field is empty.
//
// Example output for a recipient without an email:
//
//	[{"field": "email", "message": "email is required"}]
func GenerateErrorMessages(err error, field string) []ApiError {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := make([]ApiError, len(ve))
		for i, fe := range ve {
			out[i] = ApiError{Field: fe.Field(), Message: msgForTag(fe)}
		}
		return out
	}

	if field == "" {
		field = "Unknown"
	}
	return []ApiError{{Field: field, Message: err.Error()}}
}

// GenerateErrorMessagesAsString returns the first message GenerateErrorMessages
// would produce, for logging.
func GenerateErrorMessagesAsString(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return msgForTag(ve[0])
	}
	return err.Error()
}

// trimmedLength counts runes after trimming spaces. It reports false for
// anything that is not a string.
func trimmedLength(fl validator.FieldLevel) (int, bool) {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return 0, false
	}
	return utf8.RuneCountInString(strings.TrimSpace(field.String())), true
}

// Usage: `binding:"strNotEmpty"`
func StrNotEmpty(fl validator.FieldLevel) bool {
	n, ok := trimmedLength(fl)
	return ok && n > 0
}

// Names are counted in characters, not bytes, so "Élodie" is 6 long.
// Usage: `binding:"cmin=3"`
func CustomMin(fl validator.FieldLevel) bool {
	n, ok := trimmedLength(fl)
	if !ok {
		return false
	}
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return n >= limit
}

// Usage: `binding:"cmax=100"`
func CustomMax(fl validator.FieldLevel) bool {
	n, ok := trimmedLength(fl)
	if !ok {
		return false
	}
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return n <= limit
}

// wireName reports a struct field by the name clients send: its json tag,
// then its form tag, then its uri tag.
func wireName(fld reflect.StructField) string {
	for _, key := range []string{"json", "form", "uri"} {
		name, _, _ := strings.Cut(fld.Tag.Get(key), ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return ""
}

// RegisterValidators adds the custom binding tags used by the request and
// model structs, and makes errors name fields the way clients send them.
func RegisterValidators(v *validator.Validate) error {
	v.RegisterTagNameFunc(wireName)

	if err := v.RegisterValidation("strNotEmpty", StrNotEmpty); err != nil {
		return err
	}
	if err := v.RegisterValidation("cmin", CustomMin); err != nil {
		return err
	}
	return v.RegisterValidation("cmax", CustomMax)
}
