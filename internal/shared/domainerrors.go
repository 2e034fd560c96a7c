package shared

import (
	"fmt"

	"github.com/nutri-erp/nutri-erp/internal/platform/httpx"
)

// Validationf wraps a formatted message with httpx.ErrValidation.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", httpx.ErrValidation, fmt.Sprintf(format, args...))
}

// Duplicatef wraps a formatted message with httpx.ErrDuplicate.
func Duplicatef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", httpx.ErrDuplicate, fmt.Sprintf(format, args...))
}

// NotFoundf wraps a formatted message with httpx.ErrNotFound.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", httpx.ErrNotFound, fmt.Sprintf(format, args...))
}

// Lockedf wraps a formatted message with httpx.ErrLocked.
func Lockedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", httpx.ErrLocked, fmt.Sprintf(format, args...))
}
