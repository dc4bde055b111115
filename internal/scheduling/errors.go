// Package scheduling contains the appointment booking core: slot
// allocation with a no-double-booking guarantee and the status
// transition state machine. All failures are typed so the HTTP boundary
// can map them to the right response without string matching.
package scheduling

import (
	"fmt"

	"medcare-server/internal/models"
)

// ValidationError reports a missing or malformed input field. The caller
// must correct the request; it is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError reports that the requested slot already holds an active
// appointment.
type ConflictError struct {
	DoctorID uint
	Date     string
	Time     string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot already booked: doctor %d at %s %s", e.DoctorID, e.Date, e.Time)
}

// NotFoundError reports that the referenced appointment does not exist.
type NotFoundError struct {
	AppointmentID uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("appointment %d not found", e.AppointmentID)
}

// InvalidTransitionError reports a status change not allowed by the
// transition table, including any move out of a terminal status.
type InvalidTransitionError struct {
	From models.AppointmentStatus
	To   models.AppointmentStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot change a %s appointment to %s", e.From, e.To)
}
