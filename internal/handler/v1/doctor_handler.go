package v1

import (
	"github.com/clinicdesk/clinicdesk/internal/domain/doctor"
	"github.com/clinicdesk/clinicdesk/internal/service"
	"github.com/gin-gonic/gin"
)

type DoctorHandler struct {
	svc *service.DoctorService
}

func NewDoctorHandler(svc *service.DoctorService) *DoctorHandler {
	return &DoctorHandler{svc: svc}
}

type createDoctorRequest struct {
	FirstName       string `json:"first_name" binding:"required,max=100"`
	LastName        string `json:"last_name" binding:"required,max=100"`
	Specialty       string `json:"specialty" binding:"required"`
	Qualification   string `json:"qualification"`
	Bio             string `json:"bio"`
	Phone           string `json:"phone"`
	Email           string `json:"email" binding:"omitempty,email"`
	ConsultationFee int64  `json:"consultation_fee" binding:"omitempty,min=0"`
}

func (h *DoctorHandler) Create(c *gin.Context) {
	claims, ok := callerClaims(c)
	if !ok {
		return
	}

	var req createDoctorRequest
	if !bindJSON(c, &req) {
		return
	}

	d, err := h.svc.CreateDoctor(c.Request.Context(), &doctor.CreateDoctorCommand{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Specialty:       req.Specialty,
		Qualification:   req.Qualification,
		Bio:             req.Bio,
		Phone:           req.Phone,
		Email:           req.Email,
		ConsultationFee: req.ConsultationFee,
		CreatedBy:       claims.UserID,
	}, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, d)
}

func (h *DoctorHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	d, err := h.svc.GetDoctor(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, d)
}

type updateDoctorRequest struct {
	FirstName       *string `json:"first_name" binding:"omitempty,max=100"`
	LastName        *string `json:"last_name" binding:"omitempty,max=100"`
	Specialty       *string `json:"specialty"`
	Qualification   *string `json:"qualification"`
	Bio             *string `json:"bio"`
	Phone           *string `json:"phone"`
	Email           *string `json:"email" binding:"omitempty,email"`
	ConsultationFee *int64  `json:"consultation_fee" binding:"omitempty,min=0"`
}

func (h *DoctorHandler) Update(c *gin.Context) {
	claims, ok := callerClaims(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updateDoctorRequest
	if !bindJSON(c, &req) {
		return
	}

	d, err := h.svc.UpdateDoctor(c.Request.Context(), id, &doctor.UpdateDoctorCommand{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Specialty:       req.Specialty,
		Qualification:   req.Qualification,
		Bio:             req.Bio,
		Phone:           req.Phone,
		Email:           req.Email,
		ConsultationFee: req.ConsultationFee,
		UpdatedBy:       claims.UserID,
	}, claims.UserID, string(claims.Role), claims.DoctorID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, d)
}

// List is the public doctor directory. Each row carries the cached
// average_rating and rating_count alongside the profile.
func (h *DoctorHandler) List(c *gin.Context) {
	q := &doctor.ListDoctorsQuery{
		Search:    c.Query("search"),
		Specialty: c.Query("specialty"),
		Page:      parseQueryInt(c, "page", 1),
		PageSize:  parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("status"); raw != "" {
		st := doctor.Status(raw)
		q.Status = &st
	}

	paged, err := h.svc.ListDoctors(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{
		"doctors":     paged.Doctors,
		"total_count": paged.TotalCount,
		"page":        paged.Page,
		"page_size":   paged.PageSize,
		"total_pages": paged.TotalPages,
	})
}
