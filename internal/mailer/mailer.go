// Package mailer sends transactional email. The only message the
// application sends today is the password-reset OTP.
package mailer

import (
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"medcare-server/internal/config"
)

const otpBodyTemplate = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #006D77;">Password Reset Request</h2>
  <p>Hello %s,</p>
  <p>We received a request to reset your password. Use the OTP below to complete the process:</p>
  <div style="background-color: #EDF6F9; padding: 20px; text-align: center; margin: 20px 0;">
    <h1 style="color: #006D77; letter-spacing: 5px; margin: 0;">%s</h1>
  </div>
  <p style="color: #666;">This OTP is valid for %d minutes.</p>
  <p style="color: #666;">If you didn't request this, please ignore this email.</p>
  <hr style="border: none; border-top: 1px solid #ddd; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">MedCare Hospital - Quality Healthcare Services</p>
</div>`

// Mailer delivers application email over SMTP.
type Mailer struct {
	cfg  config.SMTPConfig
	ttl  int // OTP validity in minutes, for the email copy
	log  zerolog.Logger
	send func(m *gomail.Message) error
}

// New creates a Mailer from SMTP configuration.
func New(cfg config.SMTPConfig, otpExpiryMinutes int, log zerolog.Logger) *Mailer {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &Mailer{
		cfg: cfg,
		ttl: otpExpiryMinutes,
		log: log,
		send: func(m *gomail.Message) error {
			return dialer.DialAndSend(m)
		},
	}
}

// SendPasswordResetOTP emails the one-time password to the given address.
func (m *Mailer) SendPasswordResetOTP(to, name, otp string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Password Reset OTP - MedCare Hospital")
	msg.SetBody("text/html", fmt.Sprintf(otpBodyTemplate, name, otp, m.ttl))

	if err := m.send(msg); err != nil {
		m.log.Error().Err(err).Str("to", to).Msg("failed to send password reset email")
		return fmt.Errorf("send password reset email: %w", err)
	}

	m.log.Info().Str("to", to).Msg("password reset OTP sent")
	return nil
}
