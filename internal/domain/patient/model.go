package patient

import (
	"strings"
	"time"

	"github.com/medisched/medisched/internal/platform/apperr"
)

const DateLayout = "2006-01-02"

// Patient is the demographic profile of a patient user. UserID is the
// identity subject that owns the profile.
type Patient struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	DateOfBirth string    `json:"date_of_birth"`
	Gender      *string   `json:"gender"`
	Phone       *string   `json:"phone"`
	Address     *string   `json:"address"`
	BloodType   *string   `json:"blood_type"`
	Allergies   *string   `json:"allergies"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProfileInput is the full set of caller-editable fields. Create and update
// both take it; update overwrites every field.
type ProfileInput struct {
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	DateOfBirth string  `json:"date_of_birth"`
	Gender      *string `json:"gender"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
	BloodType   *string `json:"blood_type"`
	Allergies   *string `json:"allergies"`
}

// Validate trims names and normalizes date_of_birth.
func (in *ProfileInput) Validate() error {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if in.FirstName == "" || in.LastName == "" {
		return apperr.New(apperr.InvalidInput, "first_name and last_name are required")
	}
	dob, err := time.Parse(DateLayout, in.DateOfBirth)
	if err != nil {
		return apperr.New(apperr.InvalidInput, "date_of_birth must be YYYY-MM-DD")
	}
	if dob.After(time.Now()) {
		return apperr.New(apperr.InvalidInput, "date_of_birth is in the future")
	}
	in.DateOfBirth = dob.Format(DateLayout)
	return nil
}

func (in *ProfileInput) apply(p *Patient) {
	p.FirstName = in.FirstName
	p.LastName = in.LastName
	p.DateOfBirth = in.DateOfBirth
	p.Gender = in.Gender
	p.Phone = in.Phone
	p.Address = in.Address
	p.BloodType = in.BloodType
	p.Allergies = in.Allergies
}
