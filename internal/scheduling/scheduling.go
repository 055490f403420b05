// Package scheduling holds the appointment booking core: the doctor
// availability store, the conflict checker, the appointment ledger and the
// request/approval workflow. Handlers call into it; it never touches HTTP.
package scheduling

import (
	"errors"

	"gorm.io/gorm"

	"telemedicine-portal-server/internal/models"
)

// Options toggles the validation behaviors the booking flows disagree on.
type Options struct {
	// ValidateOnReschedule re-runs the conflict check when a doctor moves an
	// appointment. Off by default: a reschedule is the doctor overriding
	// their own calendar.
	ValidateOnReschedule bool
	// ValidateOnApprove re-runs the conflict check when a doctor approves a
	// pending request, refusing approval for slots that have since been
	// taken. On by default.
	ValidateOnApprove bool
}

// DefaultOptions returns the recommended production settings.
func DefaultOptions() Options {
	return Options{ValidateOnReschedule: false, ValidateOnApprove: true}
}

// Service exposes the scheduling operations over a single database handle.
type Service struct {
	db   *gorm.DB
	opts Options
}

// NewService creates a scheduling service.
func NewService(db *gorm.DB, opts Options) *Service {
	return &Service{db: db, opts: opts}
}

// ValidationError is the expected, recoverable rejection of a proposed slot.
// It is an outcome to show the user, not a fault.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// IsValidationError reports whether err is (or wraps) a slot rejection and
// returns it if so.
func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Ownership and state-machine failures. These are authorization errors:
// rejected before any state mutation.
var (
	ErrNotAppointmentDoctor = errors.New("only the assigned doctor may perform this action")
	ErrNotRequestDoctor     = errors.New("only the requested doctor may act on this request")
	ErrRequestClosed        = errors.New("request has already been handled")
)

// statuses that occupy a slot for conflict purposes
var bookedStatuses = []models.AppointmentStatus{
	models.StatusScheduled,
	models.StatusCompleted,
}
