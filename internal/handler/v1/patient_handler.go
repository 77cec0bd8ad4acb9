package v1

import (
	"time"

	"github.com/clinicdesk/clinicdesk/internal/domain/patient"
	"github.com/clinicdesk/clinicdesk/internal/service"
	"github.com/gin-gonic/gin"
)

type PatientHandler struct {
	svc *service.PatientService
}

func NewPatientHandler(svc *service.PatientService) *PatientHandler {
	return &PatientHandler{svc: svc}
}

type createPatientRequest struct {
	FirstName   string   `json:"first_name" binding:"required,max=100"`
	LastName    string   `json:"last_name" binding:"required,max=100"`
	DateOfBirth string   `json:"date_of_birth" binding:"required"`
	Gender      string   `json:"gender" binding:"omitempty,oneof=male female other"`
	Phone       string   `json:"phone"`
	Email       string   `json:"email" binding:"omitempty,email"`
	Address     string   `json:"address"`
	City        string   `json:"city"`
	Country     string   `json:"country"`
	Allergies   []string `json:"allergies"`
	Notes       string   `json:"notes"`
}

func (r *createPatientRequest) toCommand() (*patient.CreatePatientCommand, error) {
	dob, err := time.Parse("2006-01-02", r.DateOfBirth)
	if err != nil {
		return nil, err
	}
	gender := patient.Gender(r.Gender)
	if r.Gender == "" {
		gender = patient.GenderUnknown
	}
	return &patient.CreatePatientCommand{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		DateOfBirth: dob,
		Gender:      gender,
		Phone:       r.Phone,
		Email:       r.Email,
		Address:     r.Address,
		City:        r.City,
		Country:     r.Country,
		Allergies:   r.Allergies,
		Notes:       r.Notes,
	}, nil
}

func (h *PatientHandler) Create(c *gin.Context) {
	claims, ok := callerClaims(c)
	if !ok {
		return
	}

	var req createPatientRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd, err := req.toCommand()
	if err != nil {
		respondServiceError(c, &service.ValidationError{Fields: []string{"date_of_birth must be YYYY-MM-DD"}})
		return
	}
	cmd.CreatedBy = claims.UserID

	p, err := h.svc.CreatePatient(c.Request.Context(), cmd, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, p)
}

func (h *PatientHandler) Get(c *gin.Context) {
	claims, ok := callerClaims(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.svc.GetPatient(c.Request.Context(), id, claims.UserID, string(claims.Role), claims.PatientID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, p)
}

type updatePatientRequest struct {
	FirstName *string   `json:"first_name" binding:"omitempty,max=100"`
	LastName  *string   `json:"last_name" binding:"omitempty,max=100"`
	Gender    *string   `json:"gender" binding:"omitempty,oneof=male female other"`
	Phone     *string   `json:"phone"`
	Email     *string   `json:"email" binding:"omitempty,email"`
	Address   *string   `json:"address"`
	City      *string   `json:"city"`
	Country   *string   `json:"country"`
	Allergies *[]string `json:"allergies"`
	Notes     *string   `json:"notes"`
}

func (h *PatientHandler) Update(c *gin.Context) {
	claims, ok := callerClaims(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updatePatientRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &patient.UpdatePatientCommand{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Email:     req.Email,
		Address:   req.Address,
		City:      req.City,
		Country:   req.Country,
		Allergies: req.Allergies,
		Notes:     req.Notes,
		UpdatedBy: claims.UserID,
	}
	if req.Gender != nil {
		g := patient.Gender(*req.Gender)
		cmd.Gender = &g
	}

	p, err := h.svc.UpdatePatient(c.Request.Context(), id, cmd, claims.UserID, string(claims.Role), claims.PatientID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, p)
}

func (h *PatientHandler) Deactivate(c *gin.Context) {
	claims, ok := callerClaims(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeactivatePatient(c.Request.Context(), id, claims.UserID, string(claims.Role), c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"deactivated": true})
}

func (h *PatientHandler) List(c *gin.Context) {
	q := &patient.ListPatientsQuery{
		Search:   c.Query("search"),
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("status"); raw != "" {
		st := patient.Status(raw)
		q.Status = &st
	}

	paged, err := h.svc.ListPatients(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{
		"patients":    paged.Patients,
		"total_count": paged.TotalCount,
		"page":        paged.Page,
		"page_size":   paged.PageSize,
		"total_pages": paged.TotalPages,
	})
}
