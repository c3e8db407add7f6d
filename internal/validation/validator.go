// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

// Package validation provides struct validation using go-playground/validator v10.
// It provides a thread-safe singleton validator instance whose field names are
// taken from koanf tags, so failures name the configuration key an operator
// has to fix ("board.api_token") rather than the Go field.
//
// Example usage:
//
//	type BoardConfig struct {
//	    APIToken string `koanf:"api_token" validate:"required"`
//	    PageSize int    `koanf:"page_size" validate:"gt=0,lte=500"`
//	}
//
//	if err := validation.ValidateStruct(&cfg); err != nil {
//	    return fmt.Errorf("invalid configuration: %w", err)
//	}
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

// FieldError is one failed rule on one configuration key.
type FieldError struct {
	Key   string // dotted koanf key, e.g. "board.api_token"
	Rule  string // failed validate tag, e.g. "required"
	Param string // tag parameter, e.g. "500" for lte=500
	msg   string
}

func (e FieldError) Error() string { return e.msg }

// Errors is every field failure of one ValidateStruct call.
type Errors []FieldError

func (errs Errors) Error() string {
	if len(errs) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.msg
	}
	return strings.Join(msgs, "; ")
}

// GetValidator returns the shared validator, building it on first use.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(koanfTagName)
	})
	return validate
}

// koanfTagName reports struct fields by their koanf key, falling back to the
// Go field name for untagged fields.
func koanfTagName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("koanf"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	}
	return name
}

// ValidateStruct validates s and returns Errors on failure.
func ValidateStruct(s any) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validation failed: %w", err)
	}

	out := make(Errors, len(fieldErrs))
	for i, fe := range fieldErrs {
		key := keyPath(fe.Namespace())
		out[i] = FieldError{Key: key, Rule: fe.Tag(), Param: fe.Param(), msg: describe(fe, key)}
	}
	return out
}

// keyPath drops the root type name from a validator namespace:
// "Config.board.api_token" -> "board.api_token".
func keyPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

// describe renders a failure as an operator-facing sentence.
func describe(fe validator.FieldError, key string) string {
	p := fe.Param()
	switch fe.Tag() {
	case "required":
		return key + " is required"
	case "url":
		return key + " must be a valid URL"
	case "numeric":
		return key + " must be numeric"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", key, p)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", key, p)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", key, p)
	case "lt":
		return fmt.Sprintf("%s must be less than %s", key, p)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", key, p)
	case "min", "max":
		bound := "at least"
		if fe.Tag() == "max" {
			bound = "at most"
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be %s %s characters", key, bound, p)
		}
		return fmt.Sprintf("%s must be %s %s", key, bound, p)
	default:
		return fmt.Sprintf("%s failed %s validation", key, fe.Tag())
	}
}
