package doctor

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status represents the lifecycle state of a doctor profile.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type Doctor struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	FirstName     string `gorm:"column:first_name;type:varchar(100);not null"`
	LastName      string `gorm:"column:last_name;type:varchar(100);not null"`
	Specialty     string `gorm:"column:specialty;type:varchar(100);not null;index"`
	Qualification string `gorm:"column:qualification;type:varchar(255)"`
	Bio           string `gorm:"column:bio;type:text"`
	Phone         string `gorm:"column:phone;type:varchar(20)"`
	Email         string `gorm:"column:email;type:varchar(255)"`

	ConsultationFee int64 `gorm:"column:consultation_fee;not null;default:0"` // minor currency units

	// Denormalized rating cache, recomputed from completed rated
	// appointments. Written only by the rating service; everything else
	// treats these as read-only.
	AverageRating float64 `gorm:"column:average_rating;not null;default:0"`
	RatingCount   int64   `gorm:"column:rating_count;not null;default:0"`

	Status    Status    `gorm:"column:status;type:varchar(20);default:'active';index"`
	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (Doctor) TableName() string {
	return "doctors"
}

func (d *Doctor) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

func (d *Doctor) FullName() string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

func (d *Doctor) IsActive() bool {
	return d.Status == StatusActive && d.DeletedAt == nil
}

type CreateDoctorCommand struct {
	FirstName       string
	LastName        string
	Specialty       string
	Qualification   string
	Bio             string
	Phone           string
	Email           string
	ConsultationFee int64
	CreatedBy       uuid.UUID
}

type UpdateDoctorCommand struct {
	FirstName       *string
	LastName        *string
	Specialty       *string
	Qualification   *string
	Bio             *string
	Phone           *string
	Email           *string
	ConsultationFee *int64
	UpdatedBy       uuid.UUID
}

type ListDoctorsQuery struct {
	Search    string // name search
	Specialty string
	Status    *Status
	Page      int
	PageSize  int
}

type PagedDoctors struct {
	Doctors    []*Doctor
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
