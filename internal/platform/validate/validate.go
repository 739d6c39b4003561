// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package validate accumulates per-field rule failures for registration,
// comparison titles, uploads and region selections, and reports them as one
// 400 with a details list.
package validate

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/taibuivan/motionmaster/internal/platform/apperr"
)

var (
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

	// ErrInvalidJSON covers malformed bodies and unknown fields.
	ErrInvalidJSON = apperr.ValidationError("Invalid JSON payload")
)

// Validator is built per call; every rule appends to it and returns it so
// rules chain. The zero value is ready to use.
type Validator struct {
	errs []apperr.FieldError
}

// Required rejects blank values.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.add(field, "This field is required")
	}
	return v
}

// MaxLen counts runes, not bytes.
func (v *Validator) MaxLen(field, value string, max int) *Validator {
	if utf8.RuneCountInString(value) > max {
		v.add(field, fmt.Sprintf("Maximum %d characters", max))
	}
	return v
}

func (v *Validator) MinLen(field, value string, min int) *Validator {
	if utf8.RuneCountInString(value) < min {
		v.add(field, fmt.Sprintf("Minimum %d characters", min))
	}
	return v
}

// Range is inclusive at both ends.
func (v *Validator) Range(field string, value, min, max int) *Validator {
	if value < min || value > max {
		v.add(field, fmt.Sprintf("Must be between %d and %d", min, max))
	}
	return v
}

// Email accepts anything net/mail can parse as a single address.
func (v *Validator) Email(field, value string) *Validator {
	if _, err := mail.ParseAddress(value); err != nil {
		v.add(field, "Must be a valid email address")
	}
	return v
}

// Username allows [A-Za-z0-9._-] only.
func (v *Validator) Username(field, value string) *Validator {
	if !usernameRegex.MatchString(value) {
		v.add(field, "Only letters, digits, dots, underscores and hyphens are allowed")
	}
	return v
}

// MediaPrefix checks the top-level MIME type of an upload, e.g. "video/".
func (v *Validator) MediaPrefix(field, contentType, prefix string) *Validator {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), prefix) {
		v.add(field, fmt.Sprintf("Must be a %s* file", prefix))
	}
	return v
}

// OneOf is case-sensitive.
func (v *Validator) OneOf(field, value string, allowed ...string) *Validator {
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.add(field, fmt.Sprintf("Must be one of: %s", strings.Join(allowed, ", ")))
	return v
}

// Custom records message when failed is true.
//
//	v.Custom("rect", !rect.Within(native), "Must lie inside the frame")
func (v *Validator) Custom(field string, failed bool, message string) *Validator {
	if failed {
		v.add(field, message)
	}
	return v
}

// Err is nil when every rule passed.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperr.ValidationError("Validation failed", v.errs...)
}

func (v *Validator) add(field, message string) {
	v.errs = append(v.errs, apperr.FieldError{Field: field, Message: message})
}

// RequiredError builds a one-field validation error outside a chain.
func RequiredError(field, message string) *apperr.AppError {
	return apperr.ValidationError("Validation failed", apperr.FieldError{
		Field:   field,
		Message: message,
	})
}
