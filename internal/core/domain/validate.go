package domain

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the struct's validate tags and reports the first failing
// field, by its JSON name, as a *ValidationError. Fields are checked in
// declaration order.
func Validate(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return err
	}
	fe := ve[0]
	if fe.Tag() == "required" {
		return &ValidationError{Field: fe.Field()}
	}
	return &ValidationError{Field: fe.Field(), Reason: "failed " + fe.Tag()}
}

// TrimAttributes strips surrounding whitespace so blank values count as missing.
func TrimAttributes(a ProductAttributes) ProductAttributes {
	a.ProductID = strings.TrimSpace(a.ProductID)
	a.Name = strings.TrimSpace(a.Name)
	a.BatchNumber = strings.TrimSpace(a.BatchNumber)
	a.ManufacturingDate = strings.TrimSpace(a.ManufacturingDate)
	a.Description = strings.TrimSpace(a.Description)
	a.Price = strings.TrimSpace(a.Price)
	return a
}
