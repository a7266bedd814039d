// Package validation runs local pre-flight checks on drafts before they are
// sent to the API.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wolfman30/dentago-admin/internal/apiclient"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	return v
}

// jsonName reports fields by their wire name so errors match request bodies.
func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// Struct validates s with its `validate` tags. Extra failures found by the
// caller (cross-field rules on custom types) are merged into the result.
// Any failure is returned as *apiclient.ValidationError.
func Struct(s any, extra ...apiclient.FieldError) error {
	fields := append([]apiclient.FieldError(nil), extra...)
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validation: %w", err)
		}
		tagged := make([]apiclient.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			tagged = append(tagged, apiclient.FieldError{Field: fieldPath(fe), Rule: rule(fe)})
		}
		fields = append(tagged, fields...)
	}
	if len(fields) == 0 {
		return nil
	}
	return &apiclient.ValidationError{Fields: fields}
}

// fieldPath drops the top-level struct name: "Draft.clinic.name" -> "clinic.name".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func rule(fe validator.FieldError) string {
	if p := fe.Param(); p != "" {
		return fe.Tag() + "=" + p
	}
	return fe.Tag()
}
