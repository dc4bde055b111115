package models

import "time"

// PasswordResetOTP holds the one-time password issued for a password
// reset. One row per user; a new request overwrites the previous OTP.
// Rows are deleted on consumption and purged by a background job once
// expired.
type PasswordResetOTP struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"userId"`
	OTP       string    `gorm:"size:6;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expiresAt"`
	Verified  bool      `gorm:"default:false" json:"verified"`
	CreatedAt time.Time `json:"createdAt"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
