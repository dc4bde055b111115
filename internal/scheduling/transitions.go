package scheduling

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"medcare-server/internal/models"
)

// transitions is the allowed-transitions table. Terminal statuses have no
// entry: once completed, rejected or cancelled, an appointment is frozen.
var transitions = map[models.AppointmentStatus][]models.AppointmentStatus{
	models.StatusPending:  {models.StatusApproved, models.StatusRejected, models.StatusCancelled},
	models.StatusApproved: {models.StatusCompleted, models.StatusCancelled},
}

// CanTransition reports whether moving from one status to another is
// allowed by the transition table.
func CanTransition(from, to models.AppointmentStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// UpdateRequest carries the inputs for a status change. Notes and
// Prescription overwrite the stored values when non-empty (last write
// wins, no append).
type UpdateRequest struct {
	Status       models.AppointmentStatus
	Notes        string
	Prescription string
}

// Guard applies status changes to appointments, enforcing the transition
// table. Who may request which transition is the boundary's concern; the
// guard only decides whether the move itself is legal.
type Guard struct {
	DB *gorm.DB
}

// NewGuard creates a new Guard backed by db.
func NewGuard(db *gorm.DB) *Guard {
	return &Guard{DB: db}
}

// UpdateStatus moves an appointment to a new status. Transitions to a
// terminal status release the slot key in the same row write, so the
// slot becomes bookable again atomically with the status change.
func (g *Guard) UpdateStatus(ctx context.Context, id uint, req UpdateRequest) (*models.Appointment, error) {
	if !req.Status.Valid() {
		return nil, &ValidationError{Field: "status", Reason: "unknown status value"}
	}

	var appointment models.Appointment
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&appointment, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{AppointmentID: id}
			}
			return err
		}

		from := appointment.Status
		if !CanTransition(from, req.Status) {
			return &InvalidTransitionError{From: from, To: req.Status}
		}

		appointment.Status = req.Status
		if req.Status.Terminal() {
			appointment.SlotKey = nil
		}
		if req.Notes != "" {
			appointment.Notes = req.Notes
		}
		if req.Prescription != "" {
			appointment.Prescription = req.Prescription
		}

		// The write is conditional on the status read above. A concurrent
		// transition that commits in between leaves zero rows matching,
		// so it cannot be silently overwritten.
		res := tx.Model(&models.Appointment{}).
			Where("id = ? AND status = ?", appointment.ID, from).
			Updates(map[string]interface{}{
				"status":       appointment.Status,
				"slot_key":     appointment.SlotKey,
				"notes":        appointment.Notes,
				"prescription": appointment.Prescription,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &InvalidTransitionError{From: from, To: req.Status}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &appointment, nil
}
