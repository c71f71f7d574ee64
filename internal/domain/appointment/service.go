package appointment

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/medisched/medisched/internal/platform/apperr"
	"github.com/medisched/medisched/internal/platform/auth"
)

// UserDirectory resolves usernames through the identity service.
type UserDirectory interface {
	LookupUsername(ctx context.Context, username string) (*auth.UserInfo, error)
}

// Authorization table. Owner is the appointment's patient.
var (
	readRule     = auth.SelfOrRole(auth.RoleDoctor, auth.RoleAdmin)
	cancelRule   = auth.SelfOrRole(auth.RoleDoctor, auth.RoleAdmin)
	completeRule = auth.RoleOnly(auth.RoleDoctor, auth.RoleAdmin)
)

// Service is the booking engine.
type Service struct {
	repo  Repository
	users UserDirectory
}

func NewService(repo Repository, users UserDirectory) *Service {
	return &Service{repo: repo, users: users}
}

// CreateBooking books a slot for patientID. The repository's slot constraint
// decides concurrent attempts; the pre-check only gives the common case a
// cheap answer.
func (s *Service) CreateBooking(ctx context.Context, patientID int64, req *CreateRequest) (*Appointment, error) {
	if req.DoctorID <= 0 {
		return nil, apperr.New(apperr.InvalidInput, "doctor_id is required")
	}
	date, err := ParseDate(req.Date)
	if err != nil {
		return nil, ErrInvalidSlotFormat
	}
	tm, err := ParseTime(req.Time)
	if err != nil {
		return nil, ErrInvalidSlotFormat
	}

	slot := Slot{DoctorID: req.DoctorID, Date: date, Time: tm}
	taken, err := s.repo.HasActive(ctx, slot)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSlotUnavailable
	}

	a := &Appointment{
		PatientID: patientID,
		DoctorID:  slot.DoctorID,
		Date:      slot.Date,
		Time:      slot.Time,
		Status:    StatusScheduled,
		Reason:    req.Reason,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, ErrSlotUnavailable) {
			zerolog.Ctx(ctx).Info().Str("slot", slot.String()).Msg("concurrent booking lost the slot")
		}
		return nil, err
	}
	return a, nil
}

// Get returns an appointment the principal may read.
func (s *Service) Get(ctx context.Context, p *auth.Principal, id int64) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := readRule.Authorize(p, a.PatientID); err != nil {
		return nil, err
	}
	return a, nil
}

// Cancel moves an appointment to cancelled. Cancelling twice succeeds;
// a completed appointment cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, p *auth.Principal, id int64) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := cancelRule.Authorize(p, a.PatientID); err != nil {
		return err
	}
	_, err = s.repo.Transition(ctx, id, []Status{StatusScheduled, StatusCancelled}, StatusCancelled, nil)
	return err
}

// Complete moves a scheduled appointment to completed and sets its notes.
func (s *Service) Complete(ctx context.Context, p *auth.Principal, id int64, notes string) error {
	if err := completeRule.Authorize(p, 0); err != nil {
		return err
	}
	_, err := s.repo.Transition(ctx, id, []Status{StatusScheduled}, StatusCompleted, &notes)
	return err
}

// AvailableSlots returns the grid times of the day that hold no active
// appointment, in ascending order.
func (s *Service) AvailableSlots(ctx context.Context, doctorID int64, date string) ([]string, error) {
	day, err := ParseDate(date)
	if err != nil {
		return nil, apperr.New(apperr.InvalidInput, "invalid date format")
	}
	booked, err := s.repo.BookedTimes(ctx, doctorID, day)
	if err != nil {
		return nil, err
	}

	taken := make(map[string]bool, len(booked))
	for _, t := range booked {
		taken[t] = true
	}
	available := make([]string, 0, len(DailyGrid))
	for _, t := range DailyGrid {
		if !taken[t] {
			available = append(available, t)
		}
	}
	return available, nil
}

// ListMine returns the doctor's bookings for doctors and the patient's own
// bookings for everyone else.
func (s *Service) ListMine(ctx context.Context, p *auth.Principal, limit, offset int) ([]*Appointment, error) {
	if p.Role == auth.RoleDoctor {
		return s.repo.ListByDoctor(ctx, p.SubjectID, limit, offset)
	}
	return s.repo.ListByPatient(ctx, p.SubjectID, limit, offset)
}

// ListForUsername returns the appointments of the patient with the given
// username. Patients may only ask about themselves, and are refused before
// the lookup so the response does not reveal whether the username exists.
func (s *Service) ListForUsername(ctx context.Context, p *auth.Principal, username string, limit, offset int) ([]*Appointment, error) {
	if !p.HasRole(auth.RoleDoctor, auth.RoleAdmin) && username != p.DisplayName {
		return nil, auth.ErrForbidden
	}

	info, err := s.users.LookupUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := readRule.Authorize(p, info.UserID); err != nil {
		return nil, err
	}
	return s.repo.ListByPatient(ctx, info.UserID, limit, offset)
}
