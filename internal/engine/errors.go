package engine

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// AccountDisabledMessage is the client facing message for banned users.
const AccountDisabledMessage = "Your account has been banned or deactivated"

var (
	// ErrNotFound is the base error for missing records.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the caller may not perform an action.
	ErrForbidden = errors.New("forbidden")

	ErrEventNotFound        = fmt.Errorf("event %w", ErrNotFound)
	ErrReportNotFound       = fmt.Errorf("report %w", ErrNotFound)
	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification %w", ErrNotFound)

	// ErrCapacityExceeded is returned when an attending RSVP would exceed the event capacity.
	ErrCapacityExceeded = errors.New("event is at full capacity")
	// ErrEventHidden is returned when a non admin reads an event that is not active.
	ErrEventHidden = errors.New("this event is hidden")

	ErrRegistrationDisabled  = fmt.Errorf("%w: user registration is disabled", ErrForbidden)
	ErrEventCreationDisabled = fmt.Errorf("%w: event creation is disabled", ErrForbidden)
	// ErrAccountDisabled is returned for banned users.
	ErrAccountDisabled = fmt.Errorf("%w: your account has been banned or deactivated", ErrForbidden)

	// ErrSelfDemotion and ErrSelfDeactivation keep an admin from locking themselves out.
	ErrSelfDemotion     = &ValidationError{Message: "You cannot remove your own admin role"}
	ErrSelfDeactivation = &ValidationError{Message: "You cannot deactivate your own account"}

	// ErrInvalidCredentials is returned for a failed password login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidVerificationToken is returned for unknown email verification tokens.
	ErrInvalidVerificationToken = errors.New("invalid verification token")
)

// ValidationError describes rejected input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// notFound maps gorm's missing record error to the given engine error.
func notFound(err, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}
