package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"telemedicine-portal-server/internal/middleware"
	"telemedicine-portal-server/internal/models"
	"telemedicine-portal-server/internal/scheduling"
	"telemedicine-portal-server/internal/utils"
)

// RequestHandler handles the appointment request/approval workflow.
type RequestHandler struct {
	DB        *gorm.DB
	Scheduler *scheduling.Service
}

// NewRequestHandler creates a new RequestHandler.
func NewRequestHandler(db *gorm.DB, scheduler *scheduling.Service) *RequestHandler {
	return &RequestHandler{DB: db, Scheduler: scheduler}
}

// ProposeRequestBody represents the request body for proposing an
// appointment to a doctor.
type ProposeRequestBody struct {
	DoctorID  string `json:"doctorId" binding:"required,uuid"`
	PatientID string `json:"patientId" binding:"required,uuid"`
	Date      string `json:"date" binding:"required"`
	Time      string `json:"time" binding:"required"`
	Message   string `json:"message" binding:"required"`
}

// ProposeRequest handles staff proposing an appointment on a patient's
// behalf. No slot validation happens here; the doctor decides at review time.
func (h *RequestHandler) ProposeRequest(c *gin.Context) {
	var req ProposeRequestBody
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

	if actor.IsAdmin() && !models.SameHospital(actor.HospitalID, patient.HospitalID) {
		utils.Forbidden(c, "You can only send requests for patients of your hospital.")
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

	request, err := h.Scheduler.Propose(scheduling.ProposeParams{
		DoctorID:      req.DoctorID,
		PatientID:     req.PatientID,
		RequestedDate: date,
		RequestedTime: clock,
		Message:       req.Message,
		RequestedByID: actor.ID,
	})
	if err != nil {
		respondSchedulingError(c, err)
		return
	}

	utils.Created(c, "Appointment request sent successfully", request)
}

// GetRequests lists appointment requests for the logged-in user: doctors see
// requests addressed to them, staff see requests they filed.
func (h *RequestHandler) GetRequests(c *gin.Context) {
	actor, ok := loadActor(c, h.DB)
	if !ok {
		return
	}

	query := h.DB.Order("created_at desc")
	switch actor.Role {
	case models.RoleDoctor:
		query = query.Where("doctor_id = ?", actor.ID)
	case models.RoleAdmin:
		query = query.Where("requested_by_id = ?", actor.ID)
	case models.RoleSuperAdmin:
		// unscoped
	default:
		utils.Forbidden(c, "Only doctors and staff can view appointment requests")
		return
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var requests []models.AppointmentRequest
	if err := query.Find(&requests).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch appointment requests: "+err.Error())
		return
	}

	utils.Success(c, "Appointment requests fetched successfully", requests)
}

// ApproveRequest handles the doctor approving a pending request: the request
// closes as approved and the appointment is booked with a fresh call token.
// A slot that no longer passes validation refuses approval with a 409.
func (h *RequestHandler) ApproveRequest(c *gin.Context) {
	requestID := c.Param("id")

	doctorID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	request, appointment, err := h.Scheduler.Approve(requestID, doctorID)
	if err != nil {
		respondSchedulingError(c, err)
		return
	}

	utils.Success(c, "Appointment request approved", gin.H{
		"request":     request,
		"appointment": appointment,
	})
}

// ModifyRequestBody represents the doctor's counter-proposal.
type ModifyRequestBody struct {
	Date           string `json:"date" binding:"required"`
	Time           string `json:"time" binding:"required"`
	DoctorResponse string `json:"doctorResponse"`
}

// ModifyRequest handles the doctor counter-proposing a different slot. The
// request closes as modified; no appointment is created.
func (h *RequestHandler) ModifyRequest(c *gin.Context) {
	requestID := c.Param("id")

	doctorID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req ModifyRequestBody
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

	request, err := h.Scheduler.Modify(requestID, date, clock, req.DoctorResponse, doctorID)
	if err != nil {
		respondSchedulingError(c, err)
		return
	}

	utils.Success(c, "Appointment request modified", request)
}

// RejectRequestBody represents the doctor's rejection note.
type RejectRequestBody struct {
	DoctorResponse string `json:"doctorResponse"`
}

// RejectRequest handles the doctor declining a pending request.
func (h *RequestHandler) RejectRequest(c *gin.Context) {
	requestID := c.Param("id")

	doctorID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req RejectRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	request, err := h.Scheduler.Reject(requestID, req.DoctorResponse, doctorID)
	if err != nil {
		respondSchedulingError(c, err)
		return
	}

	utils.Success(c, "Appointment request rejected", request)
}
