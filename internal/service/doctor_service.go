package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/clinicdesk/clinicdesk/internal/domain/doctor"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DoctorService struct {
	repo     doctor.Repository
	auditSvc *AuditService
	log      *zap.Logger
}

func NewDoctorService(repo doctor.Repository, auditSvc *AuditService, log *zap.Logger) *DoctorService {
	return &DoctorService{repo: repo, auditSvc: auditSvc, log: log}
}

func (s *DoctorService) CreateDoctor(ctx context.Context, cmd *doctor.CreateDoctorCommand, callerID uuid.UUID, callerRole string, ip string) (*doctor.Doctor, error) {
	var errs []string
	if strings.TrimSpace(cmd.FirstName) == "" {
		errs = append(errs, "first_name is required")
	}
	if strings.TrimSpace(cmd.LastName) == "" {
		errs = append(errs, "last_name is required")
	}
	if strings.TrimSpace(cmd.Specialty) == "" {
		errs = append(errs, "specialty is required")
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	d := &doctor.Doctor{
		FirstName:       strings.TrimSpace(cmd.FirstName),
		LastName:        strings.TrimSpace(cmd.LastName),
		Specialty:       strings.TrimSpace(cmd.Specialty),
		Qualification:   cmd.Qualification,
		Bio:             cmd.Bio,
		Phone:           strings.TrimSpace(cmd.Phone),
		Email:           strings.ToLower(strings.TrimSpace(cmd.Email)),
		ConsultationFee: cmd.ConsultationFee,
		Status:          doctor.StatusActive,
		CreatedBy:       cmd.CreatedBy,
	}

	if err := s.repo.Create(ctx, d); err != nil {
		s.log.Error("failed to create doctor", zap.Error(err))
		return nil, fmt.Errorf("creating doctor: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "create",
		ResourceType: "doctor",
		ResourceID:   d.ID.String(),
		IPAddress:    ip,
	})

	return d, nil
}

func (s *DoctorService) GetDoctor(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *DoctorService) UpdateDoctor(ctx context.Context, id uuid.UUID, cmd *doctor.UpdateDoctorCommand, callerID uuid.UUID, callerRole string, callerDoctorID *uuid.UUID, ip string) (*doctor.Doctor, error) {
	// Doctors may edit their own profile; everything else is admin-only.
	if callerRole == "doctor" {
		if callerDoctorID == nil || *callerDoctorID != id {
			return nil, ErrForbidden
		}
	}

	d, err := s.repo.Update(ctx, id, cmd)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "update",
		ResourceType: "doctor",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})

	return d, nil
}

// ListDoctors serves the public directory; the rating summary fields on each
// row come straight from the denormalized cache.
func (s *DoctorService) ListDoctors(ctx context.Context, q *doctor.ListDoctorsQuery) (*doctor.PagedDoctors, error) {
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return s.repo.List(ctx, q)
}
