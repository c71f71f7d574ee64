package doctor

import (
	"strings"
	"time"

	"github.com/medisched/medisched/internal/platform/apperr"
)

const (
	DefaultConsultationFee = 100.0
	DefaultAvailableDays   = "Mon,Tue,Wed,Thu,Fri"
)

var weekdays = map[string]bool{"Mon": true, "Tue": true, "Wed": true, "Thu": true, "Fri": true, "Sat": true, "Sun": true}

type Doctor struct {
	ID              int64     `json:"id" gorm:"primaryKey"`
	UserID          *int64    `json:"user_id"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Specialization  string    `json:"specialization"`
	LicenseNumber   string    `json:"license_number"`
	Phone           *string   `json:"phone"`
	Email           *string   `json:"email"`
	ConsultationFee float64   `json:"consultation_fee"`
	AvailableDays   string    `json:"available_days"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Doctor) TableName() string { return "doctors" }

type CreateRequest struct {
	UserID          *int64   `json:"user_id"`
	FirstName       string   `json:"first_name"`
	LastName        string   `json:"last_name"`
	Specialization  string   `json:"specialization"`
	LicenseNumber   string   `json:"license_number"`
	Phone           *string  `json:"phone"`
	Email           *string  `json:"email"`
	ConsultationFee *float64 `json:"consultation_fee"`
	AvailableDays   *string  `json:"available_days"`
}

// Update is a partial change of a doctor's directory entry. Nil fields are
// left untouched.
type Update struct {
	FirstName       *string  `json:"first_name"`
	LastName        *string  `json:"last_name"`
	Specialization  *string  `json:"specialization"`
	Phone           *string  `json:"phone"`
	Email           *string  `json:"email"`
	ConsultationFee *float64 `json:"consultation_fee"`
	AvailableDays   *string  `json:"available_days"`
}

func invalid(msg string) error { return apperr.New(apperr.InvalidInput, msg) }

func normalizeDays(days string) (string, error) {
	parts := strings.Split(days, ",")
	for i, d := range parts {
		d = strings.TrimSpace(d)
		if !weekdays[d] {
			return "", invalid("available_days must list days as Mon,Tue,...")
		}
		parts[i] = d
	}
	return strings.Join(parts, ","), nil
}

func (r *CreateRequest) Doctor() (*Doctor, error) {
	d := &Doctor{
		UserID:          r.UserID,
		FirstName:       strings.TrimSpace(r.FirstName),
		LastName:        strings.TrimSpace(r.LastName),
		Specialization:  strings.TrimSpace(r.Specialization),
		LicenseNumber:   strings.TrimSpace(r.LicenseNumber),
		Phone:           r.Phone,
		Email:           r.Email,
		ConsultationFee: DefaultConsultationFee,
		AvailableDays:   DefaultAvailableDays,
	}
	if d.FirstName == "" || d.LastName == "" || d.Specialization == "" || d.LicenseNumber == "" {
		return nil, invalid("first_name, last_name, specialization and license_number are required")
	}
	if r.ConsultationFee != nil {
		if *r.ConsultationFee < 0 {
			return nil, invalid("consultation_fee must not be negative")
		}
		d.ConsultationFee = *r.ConsultationFee
	}
	if r.AvailableDays != nil {
		days, err := normalizeDays(*r.AvailableDays)
		if err != nil {
			return nil, err
		}
		d.AvailableDays = days
	}
	return d, nil
}

// Columns validates u and returns the column assignments it makes.
func (u *Update) Columns() (map[string]any, error) {
	cols := map[string]any{}
	text := func(col string, v *string) error {
		if v == nil {
			return nil
		}
		s := strings.TrimSpace(*v)
		if s == "" {
			return invalid(col + " must not be empty")
		}
		cols[col] = s
		return nil
	}
	for col, v := range map[string]*string{
		"first_name":     u.FirstName,
		"last_name":      u.LastName,
		"specialization": u.Specialization,
	} {
		if err := text(col, v); err != nil {
			return nil, err
		}
	}
	if u.Phone != nil {
		cols["phone"] = *u.Phone
	}
	if u.Email != nil {
		cols["email"] = *u.Email
	}
	if u.ConsultationFee != nil {
		if *u.ConsultationFee < 0 {
			return nil, invalid("consultation_fee must not be negative")
		}
		cols["consultation_fee"] = *u.ConsultationFee
	}
	if u.AvailableDays != nil {
		days, err := normalizeDays(*u.AvailableDays)
		if err != nil {
			return nil, err
		}
		cols["available_days"] = days
	}
	if len(cols) == 0 {
		return nil, invalid("no fields to update")
	}
	return cols, nil
}
