package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"telemedicine-portal-server/internal/config"
	"telemedicine-portal-server/internal/middleware"
	"telemedicine-portal-server/internal/models"
	"telemedicine-portal-server/internal/utils"
)

// CallHandler handles video call entry and signaling state. The media
// transport itself is external; this side only redeems the appointment's
// 4-digit call token for a signed room token.
type CallHandler struct {
	DB  *gorm.DB
	Cfg *config.Config
}

// NewCallHandler creates a new CallHandler.
func NewCallHandler(db *gorm.DB, cfg *config.Config) *CallHandler {
	return &CallHandler{DB: db, Cfg: cfg}
}

// findAppointmentByToken resolves a 4-digit call token to its appointment
// and verifies the actor is one of the two participants. Minting reuses
// tokens held by cancelled/done appointments, so the lookup is restricted to
// the live statuses the minter checks against; a stale row must never shadow
// the appointment the token was reissued for.
func (h *CallHandler) findAppointmentByToken(c *gin.Context, token, userID string) (*models.Appointment, bool) {
	var appointment models.Appointment
	if err := h.DB.Where("call_token = ? AND status IN ?", token, models.LiveStatuses).First(&appointment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Invalid token.")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return nil, false
	}

	if userID != appointment.DoctorID && userID != appointment.PatientID {
		utils.Forbidden(c, "Invalid token or access denied.")
		return nil, false
	}
	return &appointment, true
}

// EnterCallRequest represents the request body for redeeming a call token.
type EnterCallRequest struct {
	Token string `json:"token" binding:"required,len=4,numeric"`
}

// EnterCallResponse carries the session the participant may join.
type EnterCallResponse struct {
	Session models.CallSession `json:"session"`
	Role    models.Role        `json:"role"`
}

// EnterCall redeems an appointment's call token. The session is created on
// first entry with a signed room token; either party entering marks their
// joined flag.
func (h *CallHandler) EnterCall(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req EnterCallRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appointment, ok := h.findAppointmentByToken(c, req.Token, userID)
	if !ok {
		return
	}

	var session models.CallSession
	err := h.DB.Where("appointment_id = ?", appointment.ID).First(&session).Error
	if err == gorm.ErrRecordNotFound {
		channel := "room_" + req.Token
		roomToken, tokenErr := utils.GenerateRoomToken(appointment.ID, channel, h.Cfg)
		if tokenErr != nil {
			utils.InternalServerError(c, "Failed to generate room token: "+tokenErr.Error())
			return
		}
		session = models.CallSession{
			AppointmentID: appointment.ID,
			ChannelName:   channel,
			RoomToken:     roomToken,
		}
		err = h.DB.Create(&session).Error
	}
	if err != nil {
		utils.InternalServerError(c, "Failed to open call session: "+err.Error())
		return
	}

	role := models.RolePatient
	if userID == appointment.DoctorID {
		role = models.RoleDoctor
		session.DoctorJoined = true
	} else {
		session.PatientJoined = true
	}
	if err := h.DB.Save(&session).Error; err != nil {
		utils.InternalServerError(c, "Failed to update call session: "+err.Error())
		return
	}

	utils.Success(c, "Call session ready", EnterCallResponse{Session: session, Role: role})
}

// GetSessionStatus reports whether both parties have joined the lobby for a
// given call token.
func (h *CallHandler) GetSessionStatus(c *gin.Context) {
	token := c.Param("token")

	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	appointment, ok := h.findAppointmentByToken(c, token, userID)
	if !ok {
		return
	}

	var session models.CallSession
	if err := h.DB.Where("appointment_id = ?", appointment.ID).First(&session).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Call session not started yet")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	utils.Success(c, "Call session status", gin.H{
		"doctorJoined":  session.DoctorJoined,
		"patientJoined": session.PatientJoined,
		"bothJoined":    session.DoctorJoined && session.PatientJoined,
	})
}

// InitiateCallRequest represents the request body for ringing the other
// participant.
type InitiateCallRequest struct {
	AppointmentID string `json:"appointmentId" binding:"required,uuid"`
}

// InitiateCall creates a call record from the actor to the other party of
// the appointment.
func (h *CallHandler) InitiateCall(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req InitiateCallRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var appointment models.Appointment
	if err := h.DB.First(&appointment, "id = ?", req.AppointmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if userID != appointment.DoctorID && userID != appointment.PatientID {
		utils.Forbidden(c, "You don't have access to this call.")
		return
	}

	receiverID := appointment.PatientID
	if userID == appointment.PatientID {
		receiverID = appointment.DoctorID
	}

	call := models.VideoCall{
		AppointmentID: appointment.ID,
		CallerID:      userID,
		ReceiverID:    receiverID,
		Status:        models.CallInitiated,
		StartedAt:     time.Now(),
	}
	if err := h.DB.Create(&call).Error; err != nil {
		utils.InternalServerError(c, "Failed to initiate call: "+err.Error())
		return
	}

	utils.Created(c, "Call initiated", call)
}

// EndCall marks a call ended.
func (h *CallHandler) EndCall(c *gin.Context) {
	callID := c.Param("id")

	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var call models.VideoCall
	if err := h.DB.First(&call, "id = ?", callID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Call not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if userID != call.CallerID && userID != call.ReceiverID {
		utils.Forbidden(c, "You don't have access to this call.")
		return
	}

	now := time.Now()
	call.Status = models.CallEnded
	call.EndedAt = &now
	call.Duration = int(now.Sub(call.StartedAt).Seconds())
	if err := h.DB.Save(&call).Error; err != nil {
		utils.InternalServerError(c, "Failed to end call: "+err.Error())
		return
	}

	utils.Success(c, "Call ended", call)
}
