package models

import "fmt"

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusApproved  AppointmentStatus = "approved"
	StatusRejected  AppointmentStatus = "rejected"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// Valid reports whether s is one of the five known statuses.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s has no outgoing transitions. A terminal
// appointment no longer occupies its slot.
func (s AppointmentStatus) Terminal() bool {
	switch s {
	case StatusRejected, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// InactiveStatuses are the statuses that do not block a slot from being
// booked again.
var InactiveStatuses = []AppointmentStatus{StatusCancelled, StatusRejected}

// Appointment represents a scheduled hospital appointment. Date is a
// calendar date (YYYY-MM-DD, no time component); Time is a slot label drawn
// from the doctor's availability vocabulary, e.g. "09:00 AM".
type Appointment struct {
	BaseModel
	PatientID    uint              `gorm:"index;not null" json:"patientId"`
	DoctorID     uint              `gorm:"index;not null" json:"doctorId"`
	Date         string            `gorm:"size:10;not null" json:"date"`
	Time         string            `gorm:"size:20;not null" json:"time"`
	Status       AppointmentStatus `gorm:"size:20;default:'pending'" json:"status"`
	Reason       string            `gorm:"size:255;not null" json:"reason"`
	Notes        string            `gorm:"type:text" json:"notes"`
	Prescription string            `gorm:"type:text" json:"prescription"`

	// SlotKey is "<doctorID>|<date>|<time>" while the appointment is in a
	// non-terminal status and NULL once terminal. NULLs are exempt from
	// uniqueness, so the unique index is a partial index over active rows:
	// the database guarantees at most one active appointment per slot even
	// under concurrent creation.
	SlotKey *string `gorm:"uniqueIndex;size:64" json:"-"`

	// Relations
	Patient *Patient `gorm:"foreignKey:PatientID;constraint:OnDelete:CASCADE" json:"patient,omitempty"`
	Doctor  *Doctor  `gorm:"foreignKey:DoctorID;constraint:OnDelete:CASCADE" json:"doctor,omitempty"`
}

// SlotKeyFor builds the slot-key value for a (doctor, date, time) triple.
func SlotKeyFor(doctorID uint, date, timeLabel string) string {
	return fmt.Sprintf("%d|%s|%s", doctorID, date, timeLabel)
}
