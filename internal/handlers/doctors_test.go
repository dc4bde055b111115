package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medcare-server/internal/models"
)

func TestDeleteDoctor(t *testing.T) {
	env := newEnv(t)
	patientToken := env.registerPatient(t, "asha@example.com")
	_, doctorID := env.registerDoctor(t, "mensah@example.com")
	adminToken := env.seedAdmin(t)
	path := "/api/doctors/" + itoa(doctorID)

	// Only admins may delete.
	w, _ := env.do(t, http.MethodDelete, path, nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = env.do(t, http.MethodDelete, path, nil, patientToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, resp := env.do(t, http.MethodDelete, path, nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code, resp.Message)

	// The profile and its identity record are both gone.
	var count int64
	require.NoError(t, env.db.Model(&models.Doctor{}).Where("id = ?", doctorID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, env.db.Model(&models.User{}).Where("email = ?", "mensah@example.com").Count(&count).Error)
	assert.Zero(t, count)

	w, _ = env.do(t, http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Deleting again reports the absence.
	w, _ = env.do(t, http.MethodDelete, path, nil, adminToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
