package appointment

import (
	"context"

	"github.com/medisched/medisched/internal/platform/apperr"
)

var (
	ErrNotFound          = apperr.New(apperr.NotFound, "appointment not found")
	ErrSlotUnavailable   = apperr.New(apperr.SlotUnavailable, "time slot not available")
	ErrInvalidSlotFormat = apperr.New(apperr.InvalidInput, "invalid date/time format")
	ErrInvalidTransition = apperr.New(apperr.InvalidInput, "appointment status does not allow this change")
)

// Repository stores appointments. Implementations must reject a second
// active appointment for the same slot with ErrSlotUnavailable, atomically
// with the insert.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	// HasActive reports whether the slot holds a non-cancelled appointment.
	HasActive(ctx context.Context, slot Slot) (bool, error)
	// BookedTimes returns the times of active appointments for a doctor/day.
	BookedTimes(ctx context.Context, doctorID int64, date string) ([]string, error)
	// ListByPatient and ListByDoctor order by date desc, time desc.
	ListByPatient(ctx context.Context, patientID int64, limit, offset int) ([]*Appointment, error)
	ListByDoctor(ctx context.Context, doctorID int64, limit, offset int) ([]*Appointment, error)
	// Transition moves the appointment to status `to` only if its current
	// status is one of from. It returns ErrNotFound for an unknown id and
	// ErrInvalidTransition when the current status is not in from.
	Transition(ctx context.Context, id int64, from []Status, to Status, notes *string) (*Appointment, error)
}
