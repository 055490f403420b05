package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"telemedicine-portal-server/internal/middleware"
	"telemedicine-portal-server/internal/models"
	"telemedicine-portal-server/internal/utils"
)

// AvailabilityHandler handles a doctor's weekly availability windows.
type AvailabilityHandler struct {
	DB *gorm.DB
}

// NewAvailabilityHandler creates a new AvailabilityHandler.
func NewAvailabilityHandler(db *gorm.DB) *AvailabilityHandler {
	return &AvailabilityHandler{DB: db}
}

// AvailabilityWindowRequest represents the request body for creating or
// updating a window.
type AvailabilityWindowRequest struct {
	DayOfWeek   int    `json:"dayOfWeek" binding:"min=0,max=6"`
	StartTime   string `json:"startTime" binding:"required"`
	EndTime     string `json:"endTime" binding:"required"`
	IsAvailable *bool  `json:"isAvailable"`
}

// GetWindows lists the authenticated doctor's windows, optionally for one
// day (?day=0..6). Suspended windows are included so the doctor can re-enable
// them.
func (h *AvailabilityHandler) GetWindows(c *gin.Context) {
	doctorID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	query := h.DB.Where("doctor_id = ?", doctorID).Order("day_of_week asc, start_time asc")
	if day := c.Query("day"); day != "" {
		dayIndex, err := strconv.Atoi(day)
		if err != nil || dayIndex < 0 || dayIndex > 6 {
			utils.BadRequest(c, "Invalid day, expected 0 (Monday) to 6 (Sunday)")
			return
		}
		query = query.Where("day_of_week = ?", dayIndex)
	}

	var windows []models.AvailabilityWindow
	if err := query.Find(&windows).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch availability: "+err.Error())
		return
	}

	utils.Success(c, "Availability fetched successfully", windows)
}

// CreateWindow adds a weekly window for the authenticated doctor.
func (h *AvailabilityHandler) CreateWindow(c *gin.Context) {
	doctorID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req AvailabilityWindowRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	startTime, err := utils.ParseClock(req.StartTime)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	endTime, err := utils.ParseClock(req.EndTime)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	if startTime >= endTime {
		utils.BadRequest(c, "Start time must be before end time")
		return
	}

	isAvailable := true
	if req.IsAvailable != nil {
		isAvailable = *req.IsAvailable
	}

	window := models.AvailabilityWindow{
		DoctorID:    doctorID,
		DayOfWeek:   req.DayOfWeek,
		StartTime:   startTime,
		EndTime:     endTime,
		IsAvailable: isAvailable,
	}

	if err := h.DB.Create(&window).Error; err != nil {
		utils.InternalServerError(c, "Failed to create availability window: "+err.Error())
		return
	}

	utils.Created(c, "Availability window created successfully", window)
}

// UpdateWindow edits one of the doctor's own windows, including suspending
// it via isAvailable without deleting it.
func (h *AvailabilityHandler) UpdateWindow(c *gin.Context) {
	doctorID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	windowID := c.Param("id")

	var req AvailabilityWindowRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var window models.AvailabilityWindow
	if err := h.DB.First(&window, "id = ?", windowID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Availability window not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if window.DoctorID != doctorID {
		utils.Forbidden(c, "You can only edit your own availability.")
		return
	}

	startTime, err := utils.ParseClock(req.StartTime)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	endTime, err := utils.ParseClock(req.EndTime)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	if startTime >= endTime {
		utils.BadRequest(c, "Start time must be before end time")
		return
	}

	window.DayOfWeek = req.DayOfWeek
	window.StartTime = startTime
	window.EndTime = endTime
	if req.IsAvailable != nil {
		window.IsAvailable = *req.IsAvailable
	}

	if err := h.DB.Save(&window).Error; err != nil {
		utils.InternalServerError(c, "Failed to update availability window: "+err.Error())
		return
	}

	utils.Success(c, "Availability window updated successfully", window)
}

// DeleteWindow removes one of the doctor's own windows.
func (h *AvailabilityHandler) DeleteWindow(c *gin.Context) {
	doctorID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	windowID := c.Param("id")

	var window models.AvailabilityWindow
	if err := h.DB.First(&window, "id = ?", windowID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Availability window not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if window.DoctorID != doctorID {
		utils.Forbidden(c, "You can only delete your own availability.")
		return
	}

	if err := h.DB.Delete(&window).Error; err != nil {
		utils.InternalServerError(c, "Failed to delete availability window: "+err.Error())
		return
	}

	utils.Success(c, "Availability window deleted successfully", nil)
}

// GetDoctorWindows lists another doctor's open windows, for staff picking a
// bookable slot. Only windows currently marked available are returned.
func (h *AvailabilityHandler) GetDoctorWindows(c *gin.Context) {
	doctorID := c.Param("doctorId")

	var doctor models.User
	if err := h.DB.Where("id = ? AND role = ?", doctorID, models.RoleDoctor).First(&doctor).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Doctor not found or user is not a doctor")
		} else {
			utils.InternalServerError(c, "Database error verifying doctor: "+err.Error())
		}
		return
	}

	var windows []models.AvailabilityWindow
	err := h.DB.
		Where("doctor_id = ? AND is_available = ?", doctorID, true).
		Order("day_of_week asc, start_time asc").
		Find(&windows).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch availability: "+err.Error())
		return
	}

	utils.Success(c, "Availability fetched successfully", windows)
}
