package handlers

import (
	"crypto/rand"
	"errors"
	"math/big"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"medcare-server/internal/config"
	"medcare-server/internal/middleware"
	"medcare-server/internal/models"
	"medcare-server/internal/utils"
)

// MailSender is the narrow contract the auth handler needs from the
// mailer; tests substitute a fake.
type MailSender interface {
	SendPasswordResetOTP(to, name, otp string) error
}

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	DB   *gorm.DB
	Cfg  *config.Config
	Mail MailSender
	Log  zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config, mail MailSender, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{DB: db, Cfg: cfg, Mail: mail, Log: log}
}

// RegisterRequest represents the request body for user registration.
// Profile fields beyond the identity record apply per role: age/gender
// for patients, the specialization block for doctors.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone" binding:"required"`
	Role     string `json:"role" binding:"omitempty,oneof=patient doctor"`

	// Patient profile
	Age    int    `json:"age"`
	Gender string `json:"gender" binding:"omitempty,oneof=male female other"`

	// Doctor profile
	Specialization  string  `json:"specialization"`
	Qualification   string  `json:"qualification"`
	Experience      int     `json:"experience"`
	ConsultationFee float64 `json:"consultationFee"`
}

// AuthResponse is returned on successful registration or login.
type AuthResponse struct {
	Token string               `json:"token"`
	User  models.UserSanitized `json:"user"`
}

// Register creates a user plus its role-matching profile row in one
// transaction, then issues a token.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	role := models.Role(req.Role)
	if role == "" {
		role = models.RolePatient
	}

	user := models.User{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Role:  role,
	}
	if err := user.SetPassword(req.Password); err != nil {
		utils.InternalServerError(c, "Failed to hash password")
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		switch role {
		case models.RoleDoctor:
			return tx.Create(&models.Doctor{
				UserID:          user.ID,
				Specialization:  req.Specialization,
				Qualification:   req.Qualification,
				Experience:      req.Experience,
				ConsultationFee: req.ConsultationFee,
				Availability:    []models.AvailabilityDay{},
			}).Error
		default:
			return tx.Create(&models.Patient{
				UserID:         user.ID,
				Age:            req.Age,
				Gender:         models.Gender(req.Gender),
				Allergies:      []string{},
				MedicalHistory: []models.MedicalHistoryEntry{},
			}).Error
		}
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.BadRequest(c, "User already exists with this email")
			return
		}
		utils.InternalServerError(c, "Failed to create user")
		return
	}

	token, err := utils.GenerateToken(&user, h.Cfg)
	if err != nil {
		utils.InternalServerError(c, "Failed to generate token")
		return
	}

	utils.Created(c, "Registration successful", AuthResponse{Token: token, User: user.Sanitize()})
}

// LoginRequest represents the request body for user login. Role, when
// supplied, must match the account's role (the frontend logs doctors and
// patients in from separate forms).
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"omitempty,oneof=patient doctor admin"`
}

// Login handles user login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Unauthorized(c, "Invalid credentials")
		} else {
			utils.InternalServerError(c, "Database error")
		}
		return
	}

	if req.Role != "" && user.Role != models.Role(req.Role) {
		utils.Unauthorized(c, "Invalid credentials for this role")
		return
	}

	if !user.IsActive {
		utils.Unauthorized(c, "Account is deactivated")
		return
	}

	if !user.CheckPassword(req.Password) {
		utils.Unauthorized(c, "Invalid credentials")
		return
	}

	token, err := utils.GenerateToken(&user, h.Cfg)
	if err != nil {
		utils.InternalServerError(c, "Failed to generate token")
		return
	}

	utils.Success(c, "Login successful", AuthResponse{Token: token, User: user.Sanitize()})
}

// Verify returns the account behind the presented token.
func (h *AuthHandler) Verify(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		utils.Unauthorized(c, "User not found")
		return
	}

	utils.Success(c, "", gin.H{"user": user.Sanitize()})
}

// Logout acknowledges logout. Tokens are stateless; the client discards
// its copy.
func (h *AuthHandler) Logout(c *gin.Context) {
	utils.Success(c, "Logged out successfully", nil)
}

// generateOTP returns a crypto-random 6 digit one-time password.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return big.NewInt(0).Add(n, big.NewInt(100000)).String(), nil
}

// ForgotPasswordRequest carries the account email to reset.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPassword issues an OTP and emails it. A send failure rolls the
// OTP row back so a stale code can never be verified later.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "No account found with this email")
		} else {
			utils.InternalServerError(c, "Database error")
		}
		return
	}

	otp, err := generateOTP()
	if err != nil {
		utils.InternalServerError(c, "Failed to generate OTP")
		return
	}

	record := models.PasswordResetOTP{
		UserID:    user.ID,
		OTP:       otp,
		ExpiresAt: time.Now().Add(time.Duration(h.Cfg.OTPExpiryMinutes) * time.Minute),
	}
	err = h.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"otp", "expires_at", "verified", "created_at"}),
	}).Create(&record).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to store OTP")
		return
	}

	if err := h.Mail.SendPasswordResetOTP(user.Email, user.Name, otp); err != nil {
		// Roll the OTP back; the caller is told to retry.
		h.DB.Where("user_id = ?", user.ID).Delete(&models.PasswordResetOTP{})
		utils.InternalServerError(c, "Failed to send OTP. Please try again.")
		return
	}

	utils.Success(c, "OTP sent to your email", gin.H{"email": user.Email})
}

// VerifyOTPRequest carries the emailed code back for checking.
type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6"`
}

// VerifyOTP marks an unexpired OTP as verified.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user, record, ok := h.findOTP(c, req.Email, req.OTP)
	if !ok {
		return
	}

	if err := h.DB.Model(record).Update("verified", true).Error; err != nil {
		utils.InternalServerError(c, "Failed to verify OTP")
		return
	}

	h.Log.Info().Uint("user", user.ID).Msg("password reset OTP verified")
	utils.Success(c, "OTP verified successfully", nil)
}

// ResetPasswordRequest carries the verified OTP and the new password.
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required,len=6"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

// ResetPassword replaces the password once the OTP has been verified,
// then deletes the consumed OTP row.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user, record, ok := h.findOTP(c, req.Email, req.OTP)
	if !ok {
		return
	}
	if !record.Verified {
		utils.BadRequest(c, "Invalid or expired OTP")
		return
	}

	if err := user.SetPassword(req.NewPassword); err != nil {
		utils.InternalServerError(c, "Failed to hash password")
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Update("password", user.Password).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", user.ID).Delete(&models.PasswordResetOTP{}).Error
	})
	if err != nil {
		utils.InternalServerError(c, "Failed to reset password")
		return
	}

	h.Log.Info().Uint("user", user.ID).Msg("password reset completed")
	utils.Success(c, "Password reset successful", nil)
}

// findOTP loads the user and its unexpired OTP row, writing the error
// response itself when either is missing.
func (h *AuthHandler) findOTP(c *gin.Context, email, otp string) (*models.User, *models.PasswordResetOTP, bool) {
	var user models.User
	if err := h.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "User not found")
		} else {
			utils.InternalServerError(c, "Database error")
		}
		return nil, nil, false
	}

	var record models.PasswordResetOTP
	err := h.DB.Where("user_id = ? AND otp = ? AND expires_at > ?", user.ID, otp, time.Now()).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.BadRequest(c, "Invalid or expired OTP")
		} else {
			utils.InternalServerError(c, "Database error")
		}
		return nil, nil, false
	}

	return &user, &record, true
}
