package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"medcare-server/internal/config"
	"medcare-server/internal/handlers"
	"medcare-server/internal/middleware"
	"medcare-server/internal/models"
	"medcare-server/internal/notifier"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, hub *notifier.Hub, mail handlers.MailSender, log zerolog.Logger) {
	authHandler := handlers.NewAuthHandler(db, cfg, mail, log)
	appointmentHandler := handlers.NewAppointmentHandler(db, hub)
	doctorHandler := handlers.NewDoctorHandler(db)
	patientHandler := handlers.NewPatientHandler(db)

	// Public routes (no authentication required)
	public := router.Group("/api")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/forgot-password", authHandler.ForgotPassword)
			authRoutes.POST("/verify-otp", authHandler.VerifyOTP)
			authRoutes.POST("/reset-password", authHandler.ResetPassword)
		}

		// Doctor directory is browsable without an account.
		public.GET("/doctors", doctorHandler.GetDoctors)
		public.GET("/doctors/:id", doctorHandler.GetDoctorByID)
		public.GET("/doctors/:id/slots", doctorHandler.GetDoctorSlots)
	}

	// Authenticated routes
	private := router.Group("/api")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		authRoutes := private.Group("/auth")
		{
			authRoutes.GET("/verify", authHandler.Verify)
			authRoutes.POST("/logout", authHandler.Logout)
		}

		doctorRoutes := private.Group("/doctors")
		{
			doctorRoutes.PUT("/profile", middleware.RoleAuthMiddleware(models.RoleDoctor), doctorHandler.UpdateProfile)
			doctorRoutes.PUT("/availability", middleware.RoleAuthMiddleware(models.RoleDoctor), doctorHandler.UpdateAvailability)
			doctorRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin), doctorHandler.DeleteDoctor)
		}

		patientRoutes := private.Group("/patients")
		{
			patientRoutes.GET("/profile/:id", middleware.RoleAuthMiddleware(models.RolePatient, models.RoleAdmin), patientHandler.GetProfile)
			patientRoutes.PUT("/profile/:id", middleware.RoleAuthMiddleware(models.RolePatient, models.RoleAdmin), patientHandler.UpdateProfile)
			patientRoutes.GET("/history/:id", middleware.RoleAuthMiddleware(models.RolePatient, models.RoleDoctor, models.RoleAdmin), patientHandler.GetMedicalHistory)
		}

		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.POST("", middleware.RoleAuthMiddleware(models.RolePatient, models.RoleAdmin), appointmentHandler.CreateAppointment)

			// Listing and reads differentiate by role inside the handler.
			appointmentRoutes.GET("", appointmentHandler.GetAppointments)
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)

			// Status updates (doctor, admin, patient for cancellation);
			// authorization inside the handler.
			appointmentRoutes.PATCH("/:id/status", appointmentHandler.UpdateAppointmentStatus)
		}
	}

	// Real-time appointment events for connected clients.
	router.GET("/ws", hub.HandleConnect)

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
