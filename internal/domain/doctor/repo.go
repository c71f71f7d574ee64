package doctor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/medisched/medisched/internal/platform/apperr"
	"github.com/medisched/medisched/internal/platform/db"
)

var (
	ErrNotFound      = apperr.New(apperr.NotFound, "doctor not found")
	ErrLicenseExists = apperr.New(apperr.AlreadyExists, "license number already registered")
)

type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id int64) (*Doctor, error)
	// List filters by a case-insensitive substring of specialization when
	// specialization is non-empty.
	List(ctx context.Context, specialization string, limit, offset int) ([]*Doctor, error)
	Specializations(ctx context.Context) ([]string, error)
	Update(ctx context.Context, id int64, cols map[string]any) (*Doctor, error)
}

type doctorRepoGorm struct {
	db *gorm.DB
}

func NewRepo(gdb *gorm.DB) Repository {
	return &doctorRepoGorm{db: gdb}
}

func (r *doctorRepoGorm) Create(ctx context.Context, d *Doctor) error {
	err := r.db.WithContext(ctx).Create(d).Error
	if db.IsUniqueViolation(err, "doctors_license_number_key") {
		return ErrLicenseExists
	}
	if err != nil {
		return fmt.Errorf("insert doctor: %w", err)
	}
	return nil
}

func (r *doctorRepoGorm) GetByID(ctx context.Context, id int64) (*Doctor, error) {
	var d Doctor
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get doctor %d: %w", id, err)
	}
	return &d, nil
}

// escapeLike quotes the LIKE wildcards in s.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *doctorRepoGorm) List(ctx context.Context, specialization string, limit, offset int) ([]*Doctor, error) {
	tx := r.db.WithContext(ctx).Model(&Doctor{})
	if specialization != "" {
		tx = tx.Where("specialization ILIKE ?", "%"+escapeLike(specialization)+"%")
	}
	items := []*Doctor{}
	if err := tx.Order("id").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return items, nil
}

func (r *doctorRepoGorm) Specializations(ctx context.Context) ([]string, error) {
	specs := []string{}
	err := r.db.WithContext(ctx).Model(&Doctor{}).
		Distinct("specialization").
		Order("specialization").
		Pluck("specialization", &specs).Error
	if err != nil {
		return nil, fmt.Errorf("list specializations: %w", err)
	}
	return specs, nil
}

func (r *doctorRepoGorm) Update(ctx context.Context, id int64, cols map[string]any) (*Doctor, error) {
	res := r.db.WithContext(ctx).Model(&Doctor{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return nil, fmt.Errorf("update doctor %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}
