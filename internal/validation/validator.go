// Package validation validates request structs with go-playground/validator.
//
// A single validator instance is shared by every package; it caches struct
// metadata, so building one per request would throw that work away. Field
// names in messages come from the json tag so they match what the client
// sent.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// RequestValidationError lists every problem found in a request.
type RequestValidationError struct {
	Problems []string
}

func (e *RequestValidationError) Error() string {
	if len(e.Problems) == 0 {
		return "validation failed"
	}
	return strings.Join(e.Problems, "; ")
}

// ValidateStruct checks s against its validate tags and returns a
// *RequestValidationError describing every invalid field, or nil.
func ValidateStruct(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &RequestValidationError{Problems: []string{err.Error()}}
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describe(fe))
	}
	return &RequestValidationError{Problems: problems}
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		switch fe.Kind() {
		case reflect.Slice:
			return fmt.Sprintf("%s must have at most %s items", field, fe.Param())
		case reflect.String:
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
