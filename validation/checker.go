package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/kbukum/standin/errors"
)

// FieldError is one failing field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Checker collects field errors:
//
//	err := validation.New().
//		Required("text", text).
//		Range("k", k, 1, 50).
//		Err()
type Checker struct {
	errors []FieldError
}

func New() *Checker {
	return &Checker{}
}

// AddError records a failure for field.
func (c *Checker) AddError(field, message string) {
	c.errors = append(c.errors, FieldError{Field: field, Message: message})
}

func (c *Checker) Errors() []FieldError { return c.errors }

// Err returns nil when every check passed, else one INVALID_INPUT error.
func (c *Checker) Err() error {
	if len(c.errors) == 0 {
		return nil
	}
	messages := make([]string, len(c.errors))
	for i, e := range c.errors {
		messages[i] = e.Field + ": " + e.Message
	}
	return apperrors.Validation(strings.Join(messages, "; ")).
		WithDetail("fields", c.errors)
}

// Required fails for empty or whitespace-only values.
func (c *Checker) Required(field, value string) *Checker {
	if strings.TrimSpace(value) == "" {
		c.AddError(field, "is required")
	}
	return c
}

func (c *Checker) MaxLength(field, value string, n int) *Checker {
	if len(value) > n {
		c.AddError(field, fmt.Sprintf("must be at most %d characters", n))
	}
	return c
}

func (c *Checker) Range(field string, value, lo, hi int) *Checker {
	if value < lo || value > hi {
		c.AddError(field, fmt.Sprintf("must be between %d and %d", lo, hi))
	}
	return c
}

// OneOf accepts an empty value; pair it with Required when the field is
// mandatory.
func (c *Checker) OneOf(field, value string, allowed []string) *Checker {
	if value != "" && !slices.Contains(allowed, value) {
		c.AddError(field, "must be one of: "+strings.Join(allowed, ", "))
	}
	return c
}

func (c *Checker) UUID(field, value string) *Checker {
	if _, err := uuid.Parse(value); err != nil {
		c.AddError(field, "must be a valid UUID")
	}
	return c
}

// Custom records message when ok is false.
func (c *Checker) Custom(ok bool, field, message string) *Checker {
	if !ok {
		c.AddError(field, message)
	}
	return c
}
