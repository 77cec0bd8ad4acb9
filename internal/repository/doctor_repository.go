package repository

import (
	"context"
	"errors"
	"math"

	"github.com/clinicdesk/clinicdesk/internal/domain/doctor"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DoctorRepository struct {
	db *gorm.DB
}

func NewDoctorRepository(db *gorm.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

var _ doctor.Repository = (*DoctorRepository)(nil)

func (r *DoctorRepository) Create(ctx context.Context, d *doctor.Doctor) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *DoctorRepository) GetByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	var d doctor.Doctor
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, doctor.ErrDoctorNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *DoctorRepository) Update(ctx context.Context, id uuid.UUID, cmd *doctor.UpdateDoctorCommand) (*doctor.Doctor, error) {
	updates := map[string]any{}
	if cmd.FirstName != nil {
		updates["first_name"] = *cmd.FirstName
	}
	if cmd.LastName != nil {
		updates["last_name"] = *cmd.LastName
	}
	if cmd.Specialty != nil {
		updates["specialty"] = *cmd.Specialty
	}
	if cmd.Qualification != nil {
		updates["qualification"] = *cmd.Qualification
	}
	if cmd.Bio != nil {
		updates["bio"] = *cmd.Bio
	}
	if cmd.Phone != nil {
		updates["phone"] = *cmd.Phone
	}
	if cmd.Email != nil {
		updates["email"] = *cmd.Email
	}
	if cmd.ConsultationFee != nil {
		updates["consultation_fee"] = *cmd.ConsultationFee
	}

	if len(updates) > 0 {
		res := r.db.WithContext(ctx).
			Model(&doctor.Doctor{}).
			Where("id = ? AND deleted_at IS NULL", id).
			Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, doctor.ErrDoctorNotFound
		}
	}

	return r.GetByID(ctx, id)
}

func (r *DoctorRepository) List(ctx context.Context, q *doctor.ListDoctorsQuery) (*doctor.PagedDoctors, error) {
	tx := r.db.WithContext(ctx).
		Model(&doctor.Doctor{}).
		Where("deleted_at IS NULL")

	if q.Search != "" {
		like := "%" + q.Search + "%"
		tx = tx.Where("first_name LIKE ? OR last_name LIKE ?", like, like)
	}
	if q.Specialty != "" {
		tx = tx.Where("specialty = ?", q.Specialty)
	}
	if q.Status != nil {
		tx = tx.Where("status = ?", *q.Status)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []*doctor.Doctor
	err := tx.Order("last_name asc, first_name asc").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &doctor.PagedDoctors{
		Doctors:    items,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(q.PageSize))),
	}, nil
}

func (r *DoctorRepository) UpdateRatingSummary(ctx context.Context, id uuid.UUID, averageRating float64, ratingCount int64) error {
	res := r.db.WithContext(ctx).
		Model(&doctor.Doctor{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"average_rating": averageRating,
			"rating_count":   ratingCount,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return doctor.ErrDoctorNotFound
	}
	return nil
}

func (r *DoctorRepository) IDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&doctor.Doctor{}).
		Pluck("id", &ids).Error
	return ids, err
}
