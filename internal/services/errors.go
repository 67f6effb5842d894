package services

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/nmang004/atlas-sub000/internal/utils"
)

var (
	ErrPromptNotFound     = errors.New("prompt not found")
	ErrVariantNotFound    = errors.New("variant not found")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrCategoryExists     = errors.New("category with this name already exists")
	ErrRateLimited        = errors.New("vote rate limit exceeded")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("forbidden: admins only")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError is returned before any storage mutation when input is
// malformed or out of range.
type ValidationError struct {
	Details []utils.ValidationErrorDetail
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", e.Details[0].Message)
}

func newValidationError(field, message, expected string, received interface{}) *ValidationError {
	return &ValidationError{Details: []utils.ValidationErrorDetail{{
		Field:    field,
		Message:  message,
		Expected: expected,
		Received: received,
	}}}
}

func validationErrorFrom(err error) error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		return &ValidationError{Details: utils.DescribeValidationErrors(errs)}
	}
	return err
}
