// Package jobs hosts background maintenance work scheduled with cron.
package jobs

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"medcare-server/internal/models"
)

// StartOTPCleanup schedules an hourly purge of expired password-reset
// OTP rows and returns the running scheduler so the caller can stop it
// on shutdown.
func StartOTPCleanup(db *gorm.DB, log zerolog.Logger) *cron.Cron {
	c := cron.New()

	_, err := c.AddFunc("@hourly", func() {
		res := db.Where("expires_at < ?", time.Now()).Delete(&models.PasswordResetOTP{})
		if res.Error != nil {
			log.Error().Err(res.Error).Msg("expired OTP purge failed")
			return
		}
		if res.RowsAffected > 0 {
			log.Info().Int64("purged", res.RowsAffected).Msg("expired OTP rows removed")
		}
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to schedule OTP cleanup")
		return c
	}

	c.Start()
	return c
}
