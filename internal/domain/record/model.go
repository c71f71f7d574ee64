package record

import (
	"strings"
	"time"

	"github.com/medisched/medisched/internal/platform/apperr"
)

const DateLayout = "2006-01-02"

// Record is a clinical note written by a doctor about a patient. PatientID
// and DoctorID are identity subjects.
type Record struct {
	ID            int64     `json:"id"`
	PatientID     int64     `json:"patient_id"`
	DoctorID      int64     `json:"doctor_id"`
	AppointmentID *int64    `json:"appointment_id"`
	Diagnosis     string    `json:"diagnosis"`
	Prescription  *string   `json:"prescription"`
	LabResults    *string   `json:"lab_results"`
	Notes         *string   `json:"notes"`
	RecordDate    string    `json:"record_date"`
	CreatedAt     time.Time `json:"created_at"`
}

type CreateRequest struct {
	PatientID     int64  `json:"patient_id"`
	AppointmentID *int64 `json:"appointment_id"`
	Content
}

// Content is the editable body of a record.
type Content struct {
	Diagnosis    string  `json:"diagnosis"`
	Prescription *string `json:"prescription"`
	LabResults   *string `json:"lab_results"`
	Notes        *string `json:"notes"`
	RecordDate   string  `json:"record_date"`
}

// Validate requires a diagnosis and normalizes record_date, defaulting it
// to today.
func (c *Content) Validate(now time.Time) error {
	c.Diagnosis = strings.TrimSpace(c.Diagnosis)
	if c.Diagnosis == "" {
		return apperr.New(apperr.InvalidInput, "diagnosis is required")
	}
	if c.RecordDate == "" {
		c.RecordDate = now.Format(DateLayout)
		return nil
	}
	d, err := time.Parse(DateLayout, c.RecordDate)
	if err != nil {
		return apperr.New(apperr.InvalidInput, "record_date must be YYYY-MM-DD")
	}
	c.RecordDate = d.Format(DateLayout)
	return nil
}

func (c *Content) apply(r *Record) {
	r.Diagnosis = c.Diagnosis
	r.Prescription = c.Prescription
	r.LabResults = c.LabResults
	r.Notes = c.Notes
	r.RecordDate = c.RecordDate
}
