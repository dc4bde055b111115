package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"medcare-server/internal/middleware"
	"medcare-server/internal/models"
	"medcare-server/internal/notifier"
	"medcare-server/internal/scheduling"
	"medcare-server/internal/utils"
)

// AppointmentHandler handles appointment related requests.
type AppointmentHandler struct {
	DB        *gorm.DB
	Allocator *scheduling.Allocator
	Guard     *scheduling.Guard
	Hub       *notifier.Hub
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(db *gorm.DB, hub *notifier.Hub) *AppointmentHandler {
	return &AppointmentHandler{
		DB:        db,
		Allocator: scheduling.NewAllocator(db),
		Guard:     scheduling.NewGuard(db),
		Hub:       hub,
	}
}

// respondSchedulingError maps the scheduling error taxonomy onto HTTP
// responses.
func respondSchedulingError(c *gin.Context, err error) {
	var (
		validationErr *scheduling.ValidationError
		conflictErr   *scheduling.ConflictError
		notFoundErr   *scheduling.NotFoundError
		transitionErr *scheduling.InvalidTransitionError
	)
	switch {
	case errors.As(err, &validationErr):
		utils.BadRequest(c, validationErr.Error())
	case errors.As(err, &conflictErr):
		utils.Conflict(c, "This slot is already booked.")
	case errors.As(err, &notFoundErr):
		utils.NotFound(c, "Appointment not found")
	case errors.As(err, &transitionErr):
		utils.Conflict(c, transitionErr.Error())
	default:
		utils.InternalServerError(c, "Database error")
	}
}

// CreateAppointmentRequest represents the request body for booking a slot.
type CreateAppointmentRequest struct {
	PatientID uint   `json:"patientId"`
	DoctorID  uint   `json:"doctorId" binding:"required"`
	Date      string `json:"date" binding:"required"`
	Time      string `json:"time" binding:"required"`
	Reason    string `json:"reason" binding:"required"`
}

// CreateAppointment books a slot for a patient. Patients can only book
// for their own profile; admins may book on a patient's behalf.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	role, _ := middleware.GetUserRoleFromContext(c)

	if role == models.RolePatient {
		patient, err := h.patientProfile(userID)
		if err != nil {
			utils.NotFound(c, "Patient profile not found")
			return
		}
		if req.PatientID != 0 && req.PatientID != patient.ID {
			utils.Forbidden(c, "Patients can only book appointments for themselves.")
			return
		}
		req.PatientID = patient.ID
	} else if req.PatientID == 0 {
		utils.BadRequest(c, "patientId is required")
		return
	}

	appointment, err := h.Allocator.Create(c.Request.Context(), scheduling.CreateRequest{
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		Date:      req.Date,
		Time:      req.Time,
		Reason:    req.Reason,
	})
	if err != nil {
		respondSchedulingError(c, err)
		return
	}

	// Re-read with display joins for the caller's convenience.
	created, err := h.loadAppointment(appointment.ID)
	if err != nil {
		utils.InternalServerError(c, "Database error")
		return
	}

	h.Hub.Broadcast(notifier.EventNewAppointment, created)
	utils.Created(c, "Appointment booked successfully!", created)
}

// GetAppointments lists appointments for the logged-in user: admins see
// all, doctors and patients see their own.
func (h *AppointmentHandler) GetAppointments(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	role, _ := middleware.GetUserRoleFromContext(c)

	query := h.DB.
		Preload("Patient").Preload("Patient.User").
		Preload("Doctor").Preload("Doctor.User").
		Order("created_at desc")

	var appointments []models.Appointment
	switch role {
	case models.RoleAdmin:
		// No filter.
	case models.RoleDoctor:
		doctor, err := h.doctorProfile(userID)
		if err != nil {
			utils.Success(c, "", []models.Appointment{})
			return
		}
		query = query.Where("doctor_id = ?", doctor.ID)
	case models.RolePatient:
		patient, err := h.patientProfile(userID)
		if err != nil {
			utils.Success(c, "", []models.Appointment{})
			return
		}
		query = query.Where("patient_id = ?", patient.ID)
	default:
		utils.Forbidden(c, "User role not permitted to view appointments")
		return
	}

	if err := query.Find(&appointments).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments")
		return
	}

	utils.Success(c, "", appointments)
}

// GetAppointmentByID fetches a single appointment. Accessible by the
// involved patient, the involved doctor, or an admin.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	appointment, err := h.loadAppointment(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error")
		}
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	role, _ := middleware.GetUserRoleFromContext(c)
	if role != models.RoleAdmin && !h.involves(appointment, userID) {
		utils.Forbidden(c, "You are not authorized to view this appointment")
		return
	}

	utils.Success(c, "", appointment)
}

// UpdateAppointmentStatusRequest represents the request body for a
// status change.
type UpdateAppointmentStatusRequest struct {
	Status       models.AppointmentStatus `json:"status" binding:"required,oneof=pending approved rejected completed cancelled"`
	Notes        string                   `json:"notes"`
	Prescription string                   `json:"prescription"`
}

// UpdateAppointmentStatus moves an appointment through its lifecycle.
// Doctors approve/reject/complete their own appointments, patients
// cancel their own, admins may do either.
func (h *AppointmentHandler) UpdateAppointmentStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateAppointmentStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appointment, err := h.loadAppointment(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error")
		}
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	role, _ := middleware.GetUserRoleFromContext(c)

	switch role {
	case models.RoleAdmin:
		// Any legal transition.
	case models.RoleDoctor:
		if appointment.Doctor == nil || appointment.Doctor.UserID != userID {
			utils.Forbidden(c, "You are not authorized to update this appointment")
			return
		}
		if req.Status == models.StatusCancelled || req.Status == models.StatusPending {
			utils.Forbidden(c, "Doctors can only approve, reject or complete appointments.")
			return
		}
	case models.RolePatient:
		if appointment.Patient == nil || appointment.Patient.UserID != userID {
			utils.Forbidden(c, "You are not authorized to update this appointment")
			return
		}
		if req.Status != models.StatusCancelled {
			utils.Forbidden(c, "Patients can only cancel appointments.")
			return
		}
	default:
		utils.Forbidden(c, "You are not authorized to update this appointment")
		return
	}

	updated, err := h.Guard.UpdateStatus(c.Request.Context(), id, scheduling.UpdateRequest{
		Status:       req.Status,
		Notes:        req.Notes,
		Prescription: req.Prescription,
	})
	if err != nil {
		respondSchedulingError(c, err)
		return
	}

	message := "Appointment " + string(updated.Status) + " successfully"
	h.Hub.Broadcast(notifier.EventUpdate, gin.H{"status": updated.Status, "message": message})
	h.Hub.Broadcast(notifier.EventStatusChange, gin.H{"status": updated.Status, "appointmentId": updated.ID})

	// Return the row with display joins, like creation does.
	withJoins, err := h.loadAppointment(updated.ID)
	if err != nil {
		utils.InternalServerError(c, "Database error")
		return
	}
	utils.Success(c, message, withJoins)
}

func (h *AppointmentHandler) loadAppointment(id uint) (*models.Appointment, error) {
	var appointment models.Appointment
	err := h.DB.
		Preload("Patient").Preload("Patient.User").
		Preload("Doctor").Preload("Doctor.User").
		First(&appointment, id).Error
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

func (h *AppointmentHandler) involves(a *models.Appointment, userID uint) bool {
	if a.Patient != nil && a.Patient.UserID == userID {
		return true
	}
	if a.Doctor != nil && a.Doctor.UserID == userID {
		return true
	}
	return false
}

func (h *AppointmentHandler) patientProfile(userID uint) (*models.Patient, error) {
	var patient models.Patient
	if err := h.DB.Where("user_id = ?", userID).First(&patient).Error; err != nil {
		return nil, err
	}
	return &patient, nil
}

func (h *AppointmentHandler) doctorProfile(userID uint) (*models.Doctor, error) {
	var doctor models.Doctor
	if err := h.DB.Where("user_id = ?", userID).First(&doctor).Error; err != nil {
		return nil, err
	}
	return &doctor, nil
}
