package scheduling

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medcare-server/internal/models"
)

func TestCreateValidation(t *testing.T) {
	db := newTestDB(t)
	patientID, doctorID := seedProfiles(t, db)
	allocator := NewAllocator(db)

	base := CreateRequest{
		PatientID: patientID,
		DoctorID:  doctorID,
		Date:      "2025-03-10",
		Time:      "09:00 AM",
		Reason:    "checkup",
	}

	cases := []struct {
		name   string
		mutate func(*CreateRequest)
		field  string
	}{
		{"missing patient", func(r *CreateRequest) { r.PatientID = 0 }, "patientId"},
		{"missing doctor", func(r *CreateRequest) { r.DoctorID = 0 }, "doctorId"},
		{"missing date", func(r *CreateRequest) { r.Date = "" }, "date"},
		{"malformed date", func(r *CreateRequest) { r.Date = "10/03/2025" }, "date"},
		{"missing time", func(r *CreateRequest) { r.Time = "" }, "time"},
		{"missing reason", func(r *CreateRequest) { r.Reason = "" }, "reason"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := base
			tc.mutate(&req)

			_, err := allocator.Create(context.Background(), req)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tc.field, validationErr.Field)
		})
	}

	var count int64
	require.NoError(t, db.Model(&models.Appointment{}).Count(&count).Error)
	assert.Zero(t, count, "validation failures must not write rows")
}

func TestCreateRoundTrip(t *testing.T) {
	db := newTestDB(t)
	patientID, doctorID := seedProfiles(t, db)
	allocator := NewAllocator(db)

	created, err := allocator.Create(context.Background(), CreateRequest{
		PatientID: patientID,
		DoctorID:  doctorID,
		Date:      "2025-03-10",
		Time:      "09:00 AM",
		Reason:    "checkup",
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	var loaded models.Appointment
	require.NoError(t, db.First(&loaded, created.ID).Error)

	assert.Equal(t, patientID, loaded.PatientID)
	assert.Equal(t, doctorID, loaded.DoctorID)
	assert.Equal(t, "2025-03-10", loaded.Date)
	assert.Equal(t, "09:00 AM", loaded.Time)
	assert.Equal(t, "checkup", loaded.Reason)
	assert.Equal(t, models.StatusPending, loaded.Status)
	require.NotNil(t, loaded.SlotKey)
	assert.Equal(t, models.SlotKeyFor(doctorID, "2025-03-10", "09:00 AM"), *loaded.SlotKey)
}

func TestCreateConflict(t *testing.T) {
	db := newTestDB(t)
	patientID, doctorID := seedProfiles(t, db)
	allocator := NewAllocator(db)

	req := CreateRequest{
		PatientID: patientID,
		DoctorID:  doctorID,
		Date:      "2025-03-10",
		Time:      "09:00 AM",
		Reason:    "checkup",
	}

	_, err := allocator.Create(context.Background(), req)
	require.NoError(t, err)

	_, err = allocator.Create(context.Background(), req)
	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)

	// A different slot label for the same doctor and date is fine.
	other := req
	other.Time = "10:00 AM"
	_, err = allocator.Create(context.Background(), other)
	require.NoError(t, err)
}

func TestTerminalStatusFreesSlot(t *testing.T) {
	for _, terminal := range []models.AppointmentStatus{models.StatusRejected, models.StatusCancelled} {
		t.Run(string(terminal), func(t *testing.T) {
			db := newTestDB(t)
			patientID, doctorID := seedProfiles(t, db)
			allocator := NewAllocator(db)
			guard := NewGuard(db)

			req := CreateRequest{
				PatientID: patientID,
				DoctorID:  doctorID,
				Date:      "2025-03-10",
				Time:      "09:00 AM",
				Reason:    "checkup",
			}

			first, err := allocator.Create(context.Background(), req)
			require.NoError(t, err)

			_, err = guard.UpdateStatus(context.Background(), first.ID, UpdateRequest{Status: terminal})
			require.NoError(t, err)

			// The slot is bookable again.
			second, err := allocator.Create(context.Background(), req)
			require.NoError(t, err)
			assert.NotEqual(t, first.ID, second.ID)
			assert.Equal(t, models.StatusPending, second.Status)
		})
	}
}

func TestConcurrentCreatesBookExactlyOnce(t *testing.T) {
	db := newTestDB(t)
	patientID, doctorID := seedProfiles(t, db)
	allocator := NewAllocator(db)

	const attempts = 10
	req := CreateRequest{
		PatientID: patientID,
		DoctorID:  doctorID,
		Date:      "2025-03-10",
		Time:      "09:00 AM",
		Reason:    "checkup",
	}

	results := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = allocator.Create(context.Background(), req)
		}(i)
	}
	wg.Wait()

	successes, conflicts := 0, 0
	for _, err := range results {
		var conflictErr *ConflictError
		switch {
		case err == nil:
			successes++
		case errors.As(err, &conflictErr):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)

	var active int64
	require.NoError(t, db.Model(&models.Appointment{}).
		Where("status NOT IN ?", models.InactiveStatuses).
		Count(&active).Error)
	assert.EqualValues(t, 1, active)
}

func TestBookingLifecycleScenario(t *testing.T) {
	db := newTestDB(t)
	patientID, doctorID := seedProfiles(t, db)
	allocator := NewAllocator(db)
	guard := NewGuard(db)
	ctx := context.Background()

	req := CreateRequest{
		PatientID: patientID,
		DoctorID:  doctorID,
		Date:      "2025-03-10",
		Time:      "09:00 AM",
		Reason:    "checkup",
	}

	// Book the slot.
	first, err := allocator.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, first.Status)

	// Same triple again fails.
	_, err = allocator.Create(ctx, req)
	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)

	// Approve the first.
	approved, err := guard.UpdateStatus(ctx, first.ID, UpdateRequest{Status: models.StatusApproved})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)

	// Back to pending is illegal.
	_, err = guard.UpdateStatus(ctx, first.ID, UpdateRequest{Status: models.StatusPending})
	var transitionErr *InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)

	// Cancel it.
	cancelled, err := guard.UpdateStatus(ctx, first.ID, UpdateRequest{Status: models.StatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)

	// The slot is free again.
	_, err = allocator.Create(ctx, req)
	require.NoError(t, err)
}
