package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"telemedicine-portal-server/internal/middleware"
	"telemedicine-portal-server/internal/models"
	"telemedicine-portal-server/internal/scheduling"
	"telemedicine-portal-server/internal/utils"
)

// AppointmentHandler handles appointment related requests.
type AppointmentHandler struct {
	DB        *gorm.DB
	Scheduler *scheduling.Service
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(db *gorm.DB, scheduler *scheduling.Service) *AppointmentHandler {
	return &AppointmentHandler{DB: db, Scheduler: scheduler}
}

// respondSchedulingError translates scheduling-core failures to HTTP. Slot
// rejections and closed-request refusals are 409s carrying the reason;
// ownership failures are 403s.
func respondSchedulingError(c *gin.Context, err error) {
	if _, ok := scheduling.IsValidationError(err); ok {
		utils.Conflict(c, err.Error())
		return
	}
	switch {
	case errors.Is(err, scheduling.ErrNotAppointmentDoctor),
		errors.Is(err, scheduling.ErrNotRequestDoctor):
		utils.Forbidden(c, err.Error())
	case errors.Is(err, scheduling.ErrRequestClosed):
		utils.Conflict(c, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.NotFound(c, "Record not found")
	default:
		utils.InternalServerError(c, err.Error())
	}
}

// loadActor fetches the authenticated user's full row.
func loadActor(c *gin.Context, db *gorm.DB) (*models.User, bool) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return nil, false
	}
	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		utils.Unauthorized(c, "Authenticated user no longer exists")
		return nil, false
	}
	return &user, true
}

// verifyParties checks that the referenced users exist with the right roles.
func verifyParties(c *gin.Context, db *gorm.DB, doctorID, patientID string) (*models.User, *models.User, bool) {
	var doctor models.User
	if err := db.Where("id = ? AND role = ?", doctorID, models.RoleDoctor).First(&doctor).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Doctor not found or user is not a doctor")
		} else {
			utils.InternalServerError(c, "Database error verifying doctor: "+err.Error())
		}
		return nil, nil, false
	}
	var patient models.User
	if err := db.Where("id = ? AND role = ?", patientID, models.RolePatient).First(&patient).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Patient not found or user is not a patient")
		} else {
			utils.InternalServerError(c, "Database error verifying patient: "+err.Error())
		}
		return nil, nil, false
	}
	return &doctor, &patient, true
}

// CreateAppointmentRequest represents the request body for creating an appointment.
type CreateAppointmentRequest struct {
	DoctorID  string `json:"doctorId" binding:"required,uuid"`
	PatientID string `json:"patientId" binding:"required,uuid"`
	Date      string `json:"date" binding:"required"`
	Time      string `json:"time" binding:"required"`
	Notes     string `json:"notes"`
}

// CreateAppointment handles direct appointment creation by staff. The slot
// runs through the conflict checker; rejection comes back as a 409 with the
// reason so the staff member can pick another slot.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	actor, ok := loadActor(c, h.DB)
	if !ok {
		return
	}

	_, patient, ok := verifyParties(c, h.DB, req.DoctorID, req.PatientID)
	if !ok {
		return
	}

	// Admins book for their own hospital's patients; the doctor may be from
	// any hospital (that's the cross-hospital case).
	if actor.IsAdmin() && !models.SameHospital(actor.HospitalID, patient.HospitalID) {
		utils.Forbidden(c, "You can only create appointments for patients of your hospital.")
		return
	}

	date, err := utils.ParseDate(req.Date)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	clock, err := utils.ParseClock(req.Time)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	appointment, err := h.Scheduler.Create(scheduling.CreateParams{
		DoctorID:    req.DoctorID,
		PatientID:   req.PatientID,
		Date:        date,
		Time:        clock,
		Notes:       req.Notes,
		CreatedByID: actor.ID,
	})
	if err != nil {
		respondSchedulingError(c, err)
		return
	}

	utils.Created(c, "Appointment created successfully", appointment)
}

// GetAppointments handles fetching appointments for the logged-in user.
// Patients and doctors see their own; admins their hospital's; superadmins
// everything.
func (h *AppointmentHandler) GetAppointments(c *gin.Context) {
	actor, ok := loadActor(c, h.DB)
	if !ok {
		return
	}

	query := h.DB.Order("date asc, time asc")
	switch actor.Role {
	case models.RolePatient:
		query = query.Where("patient_id = ?", actor.ID)
	case models.RoleDoctor:
		query = query.Where("doctor_id = ?", actor.ID)
	case models.RoleAdmin:
		// A nil affiliation would render as hospital_id = NULL and match
		// nothing, hiding a provisioning mistake behind an empty list.
		if actor.HospitalID == nil {
			utils.Forbidden(c, "Admin account has no hospital affiliation.")
			return
		}
		query = query.Where("hospital_id = ?", actor.HospitalID)
	case models.RoleSuperAdmin:
		// unscoped
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var appointments []models.Appointment
	if err := query.Find(&appointments).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}

	utils.Success(c, "Appointments fetched successfully", appointments)
}

// canViewAppointment reports whether the actor is involved in or administers
// the appointment.
func canViewAppointment(actor *models.User, appointment *models.Appointment) bool {
	switch actor.Role {
	case models.RoleSuperAdmin:
		return true
	case models.RoleAdmin:
		return models.SameHospital(actor.HospitalID, appointment.HospitalID)
	case models.RoleDoctor:
		return actor.ID == appointment.DoctorID
	case models.RolePatient:
		return actor.ID == appointment.PatientID
	}
	return false
}

// GetAppointmentByID handles fetching a single appointment by its ID.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	appointmentID := c.Param("id")

	var appointment models.Appointment
	if err := h.DB.Preload("Patient").Preload("Doctor").First(&appointment, "id = ?", appointmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	actor, ok := loadActor(c, h.DB)
	if !ok {
		return
	}

	if !canViewAppointment(actor, &appointment) {
		utils.Forbidden(c, "You are not authorized to view this appointment")
		return
	}

	utils.Success(c, "Appointment fetched successfully", appointment)
}

// UpdateAppointment handles a staff edit of an appointment's parties or
// slot. The edited record is excluded from its own conflict checks.
func (h *AppointmentHandler) UpdateAppointment(c *gin.Context) {
	appointmentID := c.Param("id")

	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	actor, ok := loadActor(c, h.DB)
	if !ok {
		return
	}

	var appointment models.Appointment
	if err := h.DB.First(&appointment, "id = ?", appointmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if actor.IsAdmin() && !models.SameHospital(actor.HospitalID, appointment.HospitalID) {
		utils.Forbidden(c, "You can only edit appointments for your hospital.")
		return
	}

	if _, _, ok := verifyParties(c, h.DB, req.DoctorID, req.PatientID); !ok {
		return
	}

	date, err := utils.ParseDate(req.Date)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	clock, err := utils.ParseClock(req.Time)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	updated, err := h.Scheduler.Update(appointmentID, scheduling.CreateParams{
		DoctorID:  req.DoctorID,
		PatientID: req.PatientID,
		Date:      date,
		Time:      clock,
		Notes:     req.Notes,
	})
	if err != nil {
		respondSchedulingError(c, err)
		return
	}

	utils.Success(c, "Appointment updated successfully", updated)
}

// CancelAppointment handles cancelling an appointment. Patients and doctors
// cancel their own; admins their hospital's; superadmins any.
func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	appointmentID := c.Param("id")

	actor, ok := loadActor(c, h.DB)
	if !ok {
		return
	}

	var appointment models.Appointment
	if err := h.DB.First(&appointment, "id = ?", appointmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if !canViewAppointment(actor, &appointment) {
		utils.Forbidden(c, "You can only cancel your own appointments.")
		return
	}

	cancelled, err := h.Scheduler.Cancel(appointmentID)
	if err != nil {
		respondSchedulingError(c, err)
		return
	}

	utils.Success(c, "Appointment cancelled successfully", cancelled)
}

// RescheduleAppointmentRequest represents the request body for rescheduling.
type RescheduleAppointmentRequest struct {
	Date string `json:"date" binding:"required"`
	Time string `json:"time" binding:"required"`
}

// RescheduleAppointment handles the assigned doctor moving an appointment to
// a new slot. The first reschedule preserves the original slot on the record.
func (h *AppointmentHandler) RescheduleAppointment(c *gin.Context) {
	appointmentID := c.Param("id")

	doctorID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req RescheduleAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	date, err := utils.ParseDate(req.Date)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	clock, err := utils.ParseClock(req.Time)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	appointment, err := h.Scheduler.Reschedule(appointmentID, date, clock, doctorID)
	if err != nil {
		respondSchedulingError(c, err)
		return
	}

	utils.Success(c, "Appointment rescheduled successfully", appointment)
}

// CompleteAppointmentRequest represents the request body for marking an
// appointment done.
type CompleteAppointmentRequest struct {
	ConsultationNotes string `json:"consultationNotes" binding:"required"`
}

// CompleteAppointment handles the assigned doctor closing the appointment
// with their findings.
func (h *AppointmentHandler) CompleteAppointment(c *gin.Context) {
	appointmentID := c.Param("id")

	doctorID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req CompleteAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appointment, err := h.Scheduler.Complete(appointmentID, req.ConsultationNotes, doctorID)
	if err != nil {
		respondSchedulingError(c, err)
		return
	}

	utils.Success(c, "Appointment marked as done", appointment)
}
