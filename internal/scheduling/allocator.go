package scheduling

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"medcare-server/internal/models"
)

// dateLayout is the calendar-date format appointments are keyed on.
const dateLayout = "2006-01-02"

// CreateRequest carries the inputs for booking an appointment.
type CreateRequest struct {
	PatientID uint
	DoctorID  uint
	Date      string // YYYY-MM-DD
	Time      string // slot label, e.g. "09:00 AM"
	Reason    string
}

// Allocator creates appointments, enforcing at most one active
// appointment per (doctor, date, time) slot.
type Allocator struct {
	DB *gorm.DB
}

// NewAllocator creates a new Allocator backed by db.
func NewAllocator(db *gorm.DB) *Allocator {
	return &Allocator{DB: db}
}

func (r *CreateRequest) validate() error {
	if r.PatientID == 0 {
		return &ValidationError{Field: "patientId", Reason: "required"}
	}
	if r.DoctorID == 0 {
		return &ValidationError{Field: "doctorId", Reason: "required"}
	}
	if r.Date == "" {
		return &ValidationError{Field: "date", Reason: "required"}
	}
	if _, err := time.Parse(dateLayout, r.Date); err != nil {
		return &ValidationError{Field: "date", Reason: "must be a calendar date (YYYY-MM-DD)"}
	}
	if r.Time == "" {
		return &ValidationError{Field: "time", Reason: "required"}
	}
	if r.Reason == "" {
		return &ValidationError{Field: "reason", Reason: "required"}
	}
	return nil
}

// Create books the requested slot and returns the new appointment with
// status pending. It fails with *ConflictError if the slot already holds
// an appointment whose status is outside {cancelled, rejected}.
//
// The conflict check and insert run in one transaction; the unique
// slot-key index is the backstop that makes the invariant hold across
// concurrent callers and service instances, so a racing insert that
// slips past the check still fails cleanly as a conflict.
func (a *Allocator) Create(ctx context.Context, req CreateRequest) (*models.Appointment, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	key := models.SlotKeyFor(req.DoctorID, req.Date, req.Time)
	appointment := &models.Appointment{
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		Date:      req.Date,
		Time:      req.Time,
		Status:    models.StatusPending,
		Reason:    req.Reason,
		SlotKey:   &key,
	}

	err := a.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Appointment{}).
			Where("doctor_id = ? AND date = ? AND time = ?", req.DoctorID, req.Date, req.Time).
			Where("status NOT IN ?", models.InactiveStatuses).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return &ConflictError{DoctorID: req.DoctorID, Date: req.Date, Time: req.Time}
		}
		return tx.Create(appointment).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ConflictError{DoctorID: req.DoctorID, Date: req.Date, Time: req.Time}
		}
		return nil, err
	}

	return appointment, nil
}
