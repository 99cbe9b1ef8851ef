// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// Error taxonomy shared by every service. Wrap with the helpers below and
// test with errors.Is.
var (
	ErrNotFound      = errors.New("not found")
	ErrQuotaExceeded = errors.New("quota exceeded")
	ErrInvalidInput  = errors.New("invalid input")
	ErrStorage       = errors.New("storage error")
)

// NotFound reports a missing user or conversation.
func NotFound(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotFound)
}

// QuotaExceeded reports a free-tier limit hit.
func QuotaExceeded(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrQuotaExceeded)
}

// Invalid reports bad caller input. Returned before any store access.
func Invalid(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrInvalidInput)
}

// Storage wraps an underlying store failure. The original error stays in the
// chain so deadline/cancel checks keep working. gorm.ErrRecordNotFound is
// translated to ErrNotFound instead.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

// Map converts domain/infra errors into gRPC-friendly status errors.
// Keeps service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, ErrQuotaExceeded):
		return status.Error(codes.ResourceExhausted, err.Error())

	case errors.Is(err, ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")

	case errors.Is(err, ErrStorage):
		return status.Error(codes.Unavailable, "storage unavailable")

	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// InvalidArgument creates a gRPC InvalidArgument error.
func InvalidArgument(msg string) error {
	return status.Error(codes.InvalidArgument, msg)
}

// PermissionDenied creates a gRPC PermissionDenied error.
func PermissionDenied(msg string) error {
	return status.Error(codes.PermissionDenied, msg)
}
