package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"telemedicine-portal-server/internal/middleware"
	"telemedicine-portal-server/internal/models"
	"telemedicine-portal-server/internal/utils"
)

// MessageHandler handles per-appointment chat.
type MessageHandler struct {
	DB *gorm.DB
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(db *gorm.DB) *MessageHandler {
	return &MessageHandler{DB: db}
}

// loadAppointmentForParticipant fetches the appointment and checks the actor
// is one of its two parties. Chat is strictly between the booked doctor and
// patient.
func (h *MessageHandler) loadAppointmentForParticipant(c *gin.Context, appointmentID, userID string) (*models.Appointment, bool) {
	var appointment models.Appointment
	if err := h.DB.First(&appointment, "id = ?", appointmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return nil, false
	}

	if userID != appointment.DoctorID && userID != appointment.PatientID {
		utils.Forbidden(c, "You are not a participant of this appointment.")
		return nil, false
	}
	return &appointment, true
}

// roomFor returns the appointment's chat room, creating it on first use.
func (h *MessageHandler) roomFor(appointmentID string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := h.DB.Where("appointment_id = ?", appointmentID).First(&room).Error
	if err == gorm.ErrRecordNotFound {
		room = models.ChatRoom{AppointmentID: appointmentID}
		err = h.DB.Create(&room).Error
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// SendMessageRequest represents the request body for sending a message.
type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// SendMessage handles posting a message into an appointment's chat room.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	appointmentID := c.Param("appointmentId")

	senderID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "Sender ID not found in token")
		return
	}

	var req SendMessageRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if _, ok := h.loadAppointmentForParticipant(c, appointmentID, senderID); !ok {
		return
	}

	room, err := h.roomFor(appointmentID)
	if err != nil {
		utils.InternalServerError(c, "Failed to open chat room: "+err.Error())
		return
	}

	message := models.Message{
		ChatRoomID: room.ID,
		SenderID:   senderID,
		Content:    req.Content,
	}
	if err := h.DB.Create(&message).Error; err != nil {
		utils.InternalServerError(c, "Failed to send message: "+err.Error())
		return
	}

	utils.Created(c, "Message sent successfully", message)
}

// GetMessages handles fetching an appointment's chat history, oldest first.
// Pass ?since=<RFC3339> to poll for messages newer than the last seen one.
func (h *MessageHandler) GetMessages(c *gin.Context) {
	appointmentID := c.Param("appointmentId")

	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	if _, ok := h.loadAppointmentForParticipant(c, appointmentID, userID); !ok {
		return
	}

	room, err := h.roomFor(appointmentID)
	if err != nil {
		utils.InternalServerError(c, "Failed to open chat room: "+err.Error())
		return
	}

	query := h.DB.Where("chat_room_id = ?", room.ID).Order("created_at asc")
	if since := c.Query("since"); since != "" {
		sinceTime, err := time.Parse(time.RFC3339, since)
		if err != nil {
			utils.BadRequest(c, "Invalid since parameter, expected RFC3339 timestamp")
			return
		}
		query = query.Where("created_at > ?", sinceTime)
	}

	var messages []models.Message
	if err := query.Find(&messages).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch messages: "+err.Error())
		return
	}

	utils.Success(c, "Messages fetched successfully", messages)
}

// MarkMessageAsRead handles marking a message as read by its recipient.
func (h *MessageHandler) MarkMessageAsRead(c *gin.Context) {
	messageID := c.Param("messageId")

	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var message models.Message
	if err := h.DB.Preload("ChatRoom").First(&message, "id = ?", messageID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Message not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if _, ok := h.loadAppointmentForParticipant(c, message.ChatRoom.AppointmentID, userID); !ok {
		return
	}
	if message.SenderID == userID {
		utils.BadRequest(c, "Cannot mark your own message as read.")
		return
	}

	if message.ReadAt == nil {
		now := time.Now()
		message.ReadAt = &now
		if err := h.DB.Save(&message).Error; err != nil {
			utils.InternalServerError(c, "Failed to mark message as read: "+err.Error())
			return
		}
	}

	utils.Success(c, "Message marked as read", message)
}
