package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"medcare-server/internal/middleware"
	"medcare-server/internal/models"
	"medcare-server/internal/utils"
)

// DoctorHandler handles doctor profile requests.
type DoctorHandler struct {
	DB *gorm.DB
}

// NewDoctorHandler creates a new DoctorHandler.
func NewDoctorHandler(db *gorm.DB) *DoctorHandler {
	return &DoctorHandler{DB: db}
}

// GetDoctors lists all doctor profiles with their user records.
func (h *DoctorHandler) GetDoctors(c *gin.Context) {
	var doctors []models.Doctor
	if err := h.DB.Preload("User").Order("rating desc").Find(&doctors).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch doctors")
		return
	}
	utils.Success(c, "", doctors)
}

// GetDoctorByID fetches a single doctor profile.
func (h *DoctorHandler) GetDoctorByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var doctor models.Doctor
	if err := h.DB.Preload("User").First(&doctor, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Doctor not found")
		} else {
			utils.InternalServerError(c, "Database error")
		}
		return
	}
	utils.Success(c, "", doctor)
}

// GetDoctorSlots returns a doctor's declared availability for the
// booking UI. The list is advisory; booking does not enforce it.
func (h *DoctorHandler) GetDoctorSlots(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var doctor models.Doctor
	if err := h.DB.First(&doctor, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Doctor not found")
		} else {
			utils.InternalServerError(c, "Database error")
		}
		return
	}
	utils.Success(c, "", gin.H{"availability": doctor.Availability})
}

// UpdateDoctorProfileRequest carries the editable profile fields.
type UpdateDoctorProfileRequest struct {
	Specialization  string   `json:"specialization"`
	Qualification   string   `json:"qualification"`
	Experience      *int     `json:"experience"`
	ConsultationFee *float64 `json:"consultationFee"`
}

// UpdateProfile lets a doctor edit their own profile.
func (h *DoctorHandler) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req UpdateDoctorProfileRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var doctor models.Doctor
	if err := h.DB.Where("user_id = ?", userID).First(&doctor).Error; err != nil {
		utils.NotFound(c, "Doctor profile not found")
		return
	}

	if req.Specialization != "" {
		doctor.Specialization = req.Specialization
	}
	if req.Qualification != "" {
		doctor.Qualification = req.Qualification
	}
	if req.Experience != nil {
		doctor.Experience = *req.Experience
	}
	if req.ConsultationFee != nil {
		doctor.ConsultationFee = *req.ConsultationFee
	}

	if err := h.DB.Save(&doctor).Error; err != nil {
		utils.InternalServerError(c, "Failed to update profile")
		return
	}
	utils.Success(c, "Profile updated successfully", doctor)
}

// DeleteDoctor removes a doctor from the directory along with their
// identity record. The profile and the user row go together in one
// transaction; the database cascade clears any appointments referencing
// the profile.
func (h *DoctorHandler) DeleteDoctor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var doctor models.Doctor
	if err := h.DB.First(&doctor, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Doctor not found")
		} else {
			utils.InternalServerError(c, "Database error")
		}
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Doctor{}, doctor.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, doctor.UserID).Error
	})
	if err != nil {
		utils.InternalServerError(c, "Failed to delete doctor")
		return
	}

	utils.Success(c, "Doctor and associated user deleted successfully", nil)
}

// UpdateAvailabilityRequest replaces the doctor's weekly availability.
type UpdateAvailabilityRequest struct {
	Availability []models.AvailabilityDay `json:"availability" binding:"required"`
}

// UpdateAvailability replaces the declared availability structure.
func (h *DoctorHandler) UpdateAvailability(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req UpdateAvailabilityRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var doctor models.Doctor
	if err := h.DB.Where("user_id = ?", userID).First(&doctor).Error; err != nil {
		utils.NotFound(c, "Doctor profile not found")
		return
	}

	doctor.Availability = req.Availability
	if err := h.DB.Save(&doctor).Error; err != nil {
		utils.InternalServerError(c, "Failed to update availability")
		return
	}
	utils.Success(c, "Availability updated successfully", doctor)
}
