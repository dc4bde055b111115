package scheduling

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"medcare-server/internal/models"
)

// newTestDB opens an in-memory database with the application schema.
// The pool is pinned to a single connection so every goroutine in a test
// shares the same in-memory instance.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, models.Migrate(db))
	return db
}

// seedProfiles creates one patient and one doctor with their user rows
// and returns the profile IDs appointments reference.
func seedProfiles(t *testing.T, db *gorm.DB) (patientID, doctorID uint) {
	t.Helper()

	patientUser := models.User{Name: "Asha Rao", Email: "asha@example.com", Phone: "555-0101", Role: models.RolePatient}
	require.NoError(t, patientUser.SetPassword("secret1"))
	require.NoError(t, db.Create(&patientUser).Error)

	doctorUser := models.User{Name: "Dr. Mensah", Email: "mensah@example.com", Phone: "555-0102", Role: models.RoleDoctor}
	require.NoError(t, doctorUser.SetPassword("secret2"))
	require.NoError(t, db.Create(&doctorUser).Error)

	patient := models.Patient{UserID: patientUser.ID, Age: 34, Gender: models.GenderFemale}
	require.NoError(t, db.Create(&patient).Error)

	doctor := models.Doctor{
		UserID:         doctorUser.ID,
		Specialization: "Cardiology",
		Qualification:  "MD",
		Experience:     12,
		Availability: []models.AvailabilityDay{
			{Day: "Monday", Slots: []string{"09:00 AM", "10:00 AM"}},
		},
	}
	require.NoError(t, db.Create(&doctor).Error)

	return patient.ID, doctor.ID
}
