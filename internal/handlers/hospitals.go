package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"telemedicine-portal-server/internal/models"
	"telemedicine-portal-server/internal/utils"
)

// HospitalHandler handles hospital directory requests.
type HospitalHandler struct {
	DB *gorm.DB
}

// NewHospitalHandler creates a new HospitalHandler.
func NewHospitalHandler(db *gorm.DB) *HospitalHandler {
	return &HospitalHandler{DB: db}
}

// HospitalRequest represents the request body for creating or updating a hospital.
type HospitalRequest struct {
	Name         string `json:"name" binding:"required"`
	Address      string `json:"address"`
	ContactEmail string `json:"contactEmail" binding:"omitempty,email"`
	PhoneNumber  string `json:"phoneNumber"`
	Website      string `json:"website"`
}

// CreateHospital handles creating a new hospital (superadmin).
func (h *HospitalHandler) CreateHospital(c *gin.Context) {
	var req HospitalRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	hospital := models.Hospital{
		Name:         req.Name,
		Address:      req.Address,
		ContactEmail: req.ContactEmail,
		PhoneNumber:  req.PhoneNumber,
		Website:      req.Website,
	}

	if err := h.DB.Create(&hospital).Error; err != nil {
		utils.InternalServerError(c, "Failed to create hospital: "+err.Error())
		return
	}

	utils.Created(c, "Hospital created successfully", hospital)
}

// GetHospitals handles listing all hospitals.
func (h *HospitalHandler) GetHospitals(c *gin.Context) {
	var hospitals []models.Hospital
	if err := h.DB.Order("name asc").Find(&hospitals).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch hospitals: "+err.Error())
		return
	}

	utils.Success(c, "Hospitals fetched successfully", hospitals)
}

// GetHospitalByID handles fetching a single hospital by ID.
func (h *HospitalHandler) GetHospitalByID(c *gin.Context) {
	hospitalID := c.Param("id")

	var hospital models.Hospital
	if err := h.DB.First(&hospital, "id = ?", hospitalID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Hospital not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	utils.Success(c, "Hospital fetched successfully", hospital)
}

// UpdateHospital handles updating a hospital by ID (superadmin).
func (h *HospitalHandler) UpdateHospital(c *gin.Context) {
	hospitalID := c.Param("id")

	var req HospitalRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var hospital models.Hospital
	if err := h.DB.First(&hospital, "id = ?", hospitalID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Hospital not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	hospital.Name = req.Name
	hospital.Address = req.Address
	hospital.ContactEmail = req.ContactEmail
	hospital.PhoneNumber = req.PhoneNumber
	hospital.Website = req.Website

	if err := h.DB.Save(&hospital).Error; err != nil {
		utils.InternalServerError(c, "Failed to update hospital: "+err.Error())
		return
	}

	utils.Success(c, "Hospital updated successfully", hospital)
}

// DeleteHospital handles deleting a hospital by ID (superadmin).
func (h *HospitalHandler) DeleteHospital(c *gin.Context) {
	hospitalID := c.Param("id")

	var hospital models.Hospital
	if err := h.DB.First(&hospital, "id = ?", hospitalID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Hospital not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	var affiliated int64
	if err := h.DB.Model(&models.User{}).Where("hospital_id = ?", hospitalID).Count(&affiliated).Error; err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}
	if affiliated > 0 {
		utils.BadRequest(c, "Hospital still has affiliated users and cannot be deleted")
		return
	}

	if err := h.DB.Delete(&hospital).Error; err != nil {
		utils.InternalServerError(c, "Failed to delete hospital: "+err.Error())
		return
	}

	utils.Success(c, "Hospital deleted successfully", nil)
}
