package v1

import (
	"net/http"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/domain"
	"github.com/clinicdesk/clinicdesk/internal/domain/appointment"
	"github.com/clinicdesk/clinicdesk/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AppointmentHandler struct {
	apptSvc   *service.AppointmentService
	ratingSvc *service.RatingService
}

func NewAppointmentHandler(apptSvc *service.AppointmentService, ratingSvc *service.RatingService) *AppointmentHandler {
	return &AppointmentHandler{apptSvc: apptSvc, ratingSvc: ratingSvc}
}

// appointmentResponse augments the row with the derived overdue flag. The
// flag uses the same predicate and clock as the missed sweep.
type appointmentResponse struct {
	*appointment.Appointment
	Overdue bool `json:"overdue"`
}

func (h *AppointmentHandler) toResponse(a *appointment.Appointment) appointmentResponse {
	return appointmentResponse{Appointment: a, Overdue: h.apptSvc.Overdue(a)}
}

func (h *AppointmentHandler) toResponses(items []*appointment.Appointment) []appointmentResponse {
	out := make([]appointmentResponse, 0, len(items))
	for _, a := range items {
		out = append(out, h.toResponse(a))
	}
	return out
}

type bookAppointmentRequest struct {
	DoctorID     string    `json:"doctor_id" binding:"required,uuid"`
	PatientID    string    `json:"patient_id" binding:"omitempty,uuid"`
	ScheduledAt  time.Time `json:"scheduled_at" binding:"required"`
	DurationMins int       `json:"duration_mins" binding:"omitempty,min=5,max=480"`
	Symptoms     string    `json:"symptoms"`
}

func (h *AppointmentHandler) Book(c *gin.Context) {
	claims, ok := callerClaims(c)
	if !ok {
		return
	}

	var req bookAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	doctorID, _ := uuid.Parse(req.DoctorID)

	// Patients always book for themselves: the patient id comes from the
	// session, never from the request body. Admins may book on behalf of a
	// patient named in the request.
	var patientID uuid.UUID
	switch claims.Role {
	case domain.RolePatient:
		if claims.PatientID == nil {
			respondServiceError(c, service.ErrForbidden)
			return
		}
		patientID = *claims.PatientID
	case domain.RoleAdmin:
		id, err := uuid.Parse(req.PatientID)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "patient_id is required"})
			return
		}
		patientID = id
	default:
		respondServiceError(c, service.ErrForbidden)
		return
	}

	dur := req.DurationMins
	if dur == 0 {
		dur = 30
	}

	a, err := h.apptSvc.BookAppointment(c.Request.Context(), &appointment.CreateAppointmentCommand{
		PatientID:    patientID,
		DoctorID:     doctorID,
		ScheduledAt:  req.ScheduledAt,
		DurationMins: dur,
		Symptoms:     req.Symptoms,
		CreatedBy:    claims.UserID,
	}, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, h.toResponse(a))
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	claims, ok := callerClaims(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	a, err := h.apptSvc.GetAppointment(c.Request.Context(), id, claims.UserID, string(claims.Role), claims.PatientID, claims.DoctorID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, h.toResponse(a))
}

// List returns the caller's appointments. For doctors the missed sweep runs
// first, so the listing never shows a stale scheduled status for a past-due
// appointment.
func (h *AppointmentHandler) List(c *gin.Context) {
	claims, ok := callerClaims(c)
	if !ok {
		return
	}

	q := &appointment.ListAppointmentsQuery{
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("status"); raw != "" {
		st := appointment.Status(raw)
		if !st.IsValid() {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid status filter"})
			return
		}
		q.Status = &st
	}

	paged, err := h.apptSvc.ListAppointments(c.Request.Context(), q, string(claims.Role), claims.PatientID, claims.DoctorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{
		"appointments": h.toResponses(paged.Appointments),
		"total_count":  paged.TotalCount,
		"page":         paged.Page,
		"page_size":    paged.PageSize,
		"total_pages":  paged.TotalPages,
	})
}

type completeAppointmentRequest struct {
	Diagnosis    string `json:"diagnosis" binding:"required"`
	Prescription string `json:"prescription"`
}

func (h *AppointmentHandler) Complete(c *gin.Context) {
	claims, ok := callerClaims(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req completeAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.apptSvc.CompleteAppointment(c.Request.Context(), id, &appointment.CompleteAppointmentCommand{
		Diagnosis:    req.Diagnosis,
		Prescription: req.Prescription,
	}, claims.UserID, string(claims.Role), claims.DoctorID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, h.toResponse(a))
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	claims, ok := callerClaims(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	a, err := h.apptSvc.CancelAppointment(c.Request.Context(), id, claims.UserID, string(claims.Role), claims.PatientID, claims.DoctorID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, h.toResponse(a))
}

type submitRatingRequest struct {
	Rating   int    `json:"rating" binding:"required,min=1,max=5"`
	Review   string `json:"review"`
	DoctorID string `json:"doctor_id" binding:"omitempty,uuid"`
}

// Rate records the patient's one-time rating for a completed appointment.
func (h *AppointmentHandler) Rate(c *gin.Context) {
	claims, ok := callerClaims(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req submitRatingRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &appointment.SubmitRatingCommand{
		Rating: req.Rating,
		Review: req.Review,
	}
	if req.DoctorID != "" {
		did, _ := uuid.Parse(req.DoctorID)
		cmd.DoctorID = &did
	}

	a, err := h.ratingSvc.SubmitRating(c.Request.Context(), id, cmd, claims.UserID, string(claims.Role), claims.PatientID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, h.toResponse(a))
}

// RepairRatings recomputes every doctor's cached rating summary. Admin-only.
func (h *AppointmentHandler) RepairRatings(c *gin.Context) {
	repaired, err := h.ratingSvc.RepairRatingSummaries(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"doctors_repaired": repaired})
}
