package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"medcare-server/internal/middleware"
	"medcare-server/internal/models"
	"medcare-server/internal/utils"
)

// PatientHandler handles patient profile requests.
type PatientHandler struct {
	DB *gorm.DB
}

// NewPatientHandler creates a new PatientHandler.
func NewPatientHandler(db *gorm.DB) *PatientHandler {
	return &PatientHandler{DB: db}
}

func (h *PatientHandler) loadPatient(c *gin.Context) (*models.Patient, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}

	var patient models.Patient
	if err := h.DB.Preload("User").First(&patient, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Patient not found")
		} else {
			utils.InternalServerError(c, "Database error")
		}
		return nil, false
	}
	return &patient, true
}

// mayAccess enforces ownership for the patient role. Doctors and admins
// reach these handlers through the route's role middleware.
func (h *PatientHandler) mayAccess(c *gin.Context, patient *models.Patient) bool {
	role, _ := middleware.GetUserRoleFromContext(c)
	if role != models.RolePatient {
		return true
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	if patient.UserID != userID {
		utils.Forbidden(c, "You can only access your own profile")
		return false
	}
	return true
}

// GetProfile returns a patient profile with its user record.
func (h *PatientHandler) GetProfile(c *gin.Context) {
	patient, ok := h.loadPatient(c)
	if !ok {
		return
	}
	if !h.mayAccess(c, patient) {
		return
	}
	utils.Success(c, "", patient)
}

// UpdatePatientProfileRequest carries the editable profile fields.
type UpdatePatientProfileRequest struct {
	Age              *int                          `json:"age"`
	Gender           string                        `json:"gender" binding:"omitempty,oneof=male female other"`
	BloodGroup       string                        `json:"bloodGroup"`
	Allergies        *[]string                     `json:"allergies"`
	MedicalHistory   *[]models.MedicalHistoryEntry `json:"medicalHistory"`
	EmergencyContact *models.EmergencyContact      `json:"emergencyContact"`
}

// UpdateProfile edits a patient profile. Patients edit their own,
// admins any.
func (h *PatientHandler) UpdateProfile(c *gin.Context) {
	var req UpdatePatientProfileRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	patient, ok := h.loadPatient(c)
	if !ok {
		return
	}
	if !h.mayAccess(c, patient) {
		return
	}

	if req.Age != nil {
		patient.Age = *req.Age
	}
	if req.Gender != "" {
		patient.Gender = models.Gender(req.Gender)
	}
	if req.BloodGroup != "" {
		patient.BloodGroup = req.BloodGroup
	}
	if req.Allergies != nil {
		patient.Allergies = *req.Allergies
	}
	if req.MedicalHistory != nil {
		patient.MedicalHistory = *req.MedicalHistory
	}
	if req.EmergencyContact != nil {
		patient.EmergencyContact = req.EmergencyContact
	}

	if err := h.DB.Save(patient).Error; err != nil {
		utils.InternalServerError(c, "Failed to update profile")
		return
	}
	utils.Success(c, "Profile updated successfully", patient)
}

// GetMedicalHistory returns a patient's medical history entries.
func (h *PatientHandler) GetMedicalHistory(c *gin.Context) {
	patient, ok := h.loadPatient(c)
	if !ok {
		return
	}
	if !h.mayAccess(c, patient) {
		return
	}
	utils.Success(c, "", gin.H{"medicalHistory": patient.MedicalHistory, "allergies": patient.Allergies})
}
