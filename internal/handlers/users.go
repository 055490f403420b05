package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"telemedicine-portal-server/internal/middleware"
	"telemedicine-portal-server/internal/models"
	"telemedicine-portal-server/internal/utils"
)

// UserHandler handles user-related requests (staff operations).
type UserHandler struct {
	DB *gorm.DB
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{DB: db}
}

// currentUser loads the authenticated user's row. Staff scoping decisions
// need the hospital affiliation, which the token claims don't carry.
func (h *UserHandler) currentUser(c *gin.Context) (*models.User, bool) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return nil, false
	}
	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		utils.Unauthorized(c, "Authenticated user no longer exists")
		return nil, false
	}
	return &user, true
}

// CreateUserRequest represents the request body for creating a user by staff.
type CreateUserRequest struct {
	FirstName  string `json:"firstName" binding:"required"`
	LastName   string `json:"lastName" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	Role       string `json:"role" binding:"required,oneof=admin doctor patient"`
	HospitalID string `json:"hospitalId" binding:"required,uuid"`
}

// CreateUser handles creating a new user. Superadmins may create staff for
// any hospital; admins only for their own, and never other admins.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	actor, ok := h.currentUser(c)
	if !ok {
		return
	}
	if actor.IsAdmin() {
		if req.Role == string(models.RoleAdmin) {
			utils.Forbidden(c, "Admins cannot create other admins.")
			return
		}
		if actor.HospitalID == nil || *actor.HospitalID != req.HospitalID {
			utils.Forbidden(c, "Admins can only create users for their own hospital.")
			return
		}
	}

	var existingUser models.User
	if err := h.DB.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		utils.BadRequest(c, "User with this email already exists")
		return
	} else if err != gorm.ErrRecordNotFound {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	var hospital models.Hospital
	if err := h.DB.First(&hospital, "id = ?", req.HospitalID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Hospital not found")
		} else {
			utils.InternalServerError(c, "Database error verifying hospital: "+err.Error())
		}
		return
	}

	user := models.User{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Role:       models.Role(req.Role),
		HospitalID: &hospital.ID,
	}
	if err := user.SetPassword(req.Password); err != nil {
		utils.InternalServerError(c, "Failed to hash password: "+err.Error())
		return
	}

	if err := h.DB.Create(&user).Error; err != nil {
		utils.InternalServerError(c, "Failed to create user: "+err.Error())
		return
	}

	// Doctors and patients get their profile row immediately.
	if err := models.EnsureProfile(h.DB, &user); err != nil {
		utils.InternalServerError(c, "Failed to create role profile: "+err.Error())
		return
	}

	utils.Created(c, "User created successfully", user.Sanitize())
}

// GetUsers handles fetching users. Admins see their hospital's users;
// superadmins see everyone.
func (h *UserHandler) GetUsers(c *gin.Context) {
	actor, ok := h.currentUser(c)
	if !ok {
		return
	}

	query := h.DB.Model(&models.User{})
	if actor.IsAdmin() {
		if actor.HospitalID == nil {
			utils.Forbidden(c, "Admin account has no hospital affiliation.")
			return
		}
		query = query.Where("hospital_id = ?", actor.HospitalID)
	}
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch users: "+err.Error())
		return
	}

	sanitizedUsers := make([]models.UserSanitized, len(users))
	for i, u := range users {
		sanitizedUsers[i] = u.Sanitize()
	}

	utils.Success(c, "Users fetched successfully", sanitizedUsers)
}

// GetUserByID handles fetching a single user by ID (staff).
func (h *UserHandler) GetUserByID(c *gin.Context) {
	userID := c.Param("id")

	actor, ok := h.currentUser(c)
	if !ok {
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "User not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if actor.IsAdmin() && !models.SameHospital(actor.HospitalID, user.HospitalID) {
		utils.Forbidden(c, "You can only view users from your own hospital.")
		return
	}

	utils.Success(c, "User fetched successfully", user.Sanitize())
}

// UpdateUserRequest represents the request body for updating a user by staff.
type UpdateUserRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
	// Password changes go through a dedicated flow, not this endpoint.
}

// UpdateUser handles updating a user by ID (staff).
func (h *UserHandler) UpdateUser(c *gin.Context) {
	userID := c.Param("id")

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil { // partial updates
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	actor, ok := h.currentUser(c)
	if !ok {
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		utils.NotFound(c, "User not found")
		return
	}

	if actor.IsAdmin() && !models.SameHospital(actor.HospitalID, user.HospitalID) {
		utils.Forbidden(c, "You can only edit users from your own hospital.")
		return
	}

	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.Email != "" && req.Email != user.Email {
		var existingUser models.User
		if err := h.DB.Where("email = ? AND id != ?", req.Email, user.ID).First(&existingUser).Error; err == nil {
			utils.BadRequest(c, "New email is already in use")
			return
		} else if err != gorm.ErrRecordNotFound {
			utils.InternalServerError(c, "Database error checking email: "+err.Error())
			return
		}
		user.Email = req.Email
	}

	if err := h.DB.Save(&user).Error; err != nil {
		utils.InternalServerError(c, "Failed to update user: "+err.Error())
		return
	}

	utils.Success(c, "User updated successfully", user.Sanitize())
}

// DeleteUser handles deleting a user by ID (staff).
func (h *UserHandler) DeleteUser(c *gin.Context) {
	userID := c.Param("id")

	actor, ok := h.currentUser(c)
	if !ok {
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "User not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if actor.IsAdmin() && !models.SameHospital(actor.HospitalID, user.HospitalID) {
		utils.Forbidden(c, "You can only delete users from your own hospital.")
		return
	}

	if err := h.DB.Delete(&models.User{}, "id = ?", userID).Error; err != nil {
		utils.InternalServerError(c, "Failed to delete user: "+err.Error())
		return
	}

	utils.Success(c, "User deleted successfully", nil)
}

// GetDoctors handles fetching doctors, optionally filtered by hospital.
// Staff use it to browse doctors of other hospitals when arranging
// cross-hospital appointments.
func (h *UserHandler) GetDoctors(c *gin.Context) {
	query := h.DB.Where("role = ?", models.RoleDoctor)
	if hospitalID := c.Query("hospitalId"); hospitalID != "" {
		query = query.Where("hospital_id = ?", hospitalID)
	}

	var doctors []models.User
	if err := query.Find(&doctors).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch doctors: "+err.Error())
		return
	}

	sanitizedDoctors := make([]models.UserSanitized, len(doctors))
	for i, doctor := range doctors {
		sanitizedDoctors[i] = doctor.Sanitize()
	}

	utils.Success(c, "Doctors fetched successfully", sanitizedDoctors)
}

// GetPatients handles fetching patients for doctors and staff. Admins are
// scoped to their hospital.
func (h *UserHandler) GetPatients(c *gin.Context) {
	actor, ok := h.currentUser(c)
	if !ok {
		return
	}

	switch actor.Role {
	case models.RoleDoctor, models.RoleAdmin, models.RoleSuperAdmin:
	default:
		utils.Forbidden(c, "Only doctors and staff can view patient lists")
		return
	}

	query := h.DB.Where("role = ?", models.RolePatient)
	if actor.IsAdmin() {
		if actor.HospitalID == nil {
			utils.Forbidden(c, "Admin account has no hospital affiliation.")
			return
		}
		query = query.Where("hospital_id = ?", actor.HospitalID)
	}

	var patients []models.User
	if err := query.Find(&patients).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch patients: "+err.Error())
		return
	}

	sanitizedPatients := make([]models.UserSanitized, len(patients))
	for i, patient := range patients {
		sanitizedPatients[i] = patient.Sanitize()
	}

	utils.Success(c, "Patients fetched successfully", sanitizedPatients)
}
