package appointment

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Appointment dates and times are kept in their canonical text form
// (YYYY-MM-DD, HH:MM). They are wall-clock values in the clinic's local day
// and carry no time zone.
type Appointment struct {
	ID        int64     `json:"id"`
	PatientID int64     `json:"patient_id"`
	DoctorID  int64     `json:"doctor_id"`
	Date      string    `json:"appointment_date"`
	Time      string    `json:"appointment_time"`
	Status    Status    `json:"status"`
	Reason    *string   `json:"reason"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

// Active reports whether the appointment occupies its slot.
func (a *Appointment) Active() bool {
	return a.Status != StatusCancelled
}

type CreateRequest struct {
	DoctorID int64   `json:"doctor_id"`
	Date     string  `json:"appointment_date"`
	Time     string  `json:"appointment_time"`
	Reason   *string `json:"reason"`
}

// Slot is a (doctor, date, time) coordinate.
type Slot struct {
	DoctorID int64
	Date     string
	Time     string
}

func (s Slot) String() string {
	return fmt.Sprintf("doctor %d on %s at %s", s.DoctorID, s.Date, s.Time)
}

// ParseDate normalizes a YYYY-MM-DD date.
func ParseDate(s string) (string, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", err
	}
	return d.Format(DateLayout), nil
}

// ParseTime normalizes HH:MM or HH:MM:SS to HH:MM. Seconds must be zero.
func ParseTime(s string) (string, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		var errSec error
		t, errSec = time.Parse("15:04:05", s)
		if errSec != nil {
			return "", err
		}
		if t.Second() != 0 {
			return "", fmt.Errorf("time %q has seconds", s)
		}
	}
	return t.Format(TimeLayout), nil
}

// DailyGrid is the fixed set of bookable times: every whole hour from 09:00
// to 16:00 inclusive.
var DailyGrid = []string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00"}
