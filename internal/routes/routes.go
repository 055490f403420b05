package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"telemedicine-portal-server/internal/config"
	"telemedicine-portal-server/internal/handlers"
	"telemedicine-portal-server/internal/middleware"
	"telemedicine-portal-server/internal/models"
	"telemedicine-portal-server/internal/scheduling"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config) {
	scheduler := scheduling.NewService(db, scheduling.Options{
		ValidateOnReschedule: cfg.ValidateOnReschedule,
		ValidateOnApprove:    cfg.ValidateOnApprove,
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, cfg)
	userHandler := handlers.NewUserHandler(db)
	hospitalHandler := handlers.NewHospitalHandler(db)
	availabilityHandler := handlers.NewAvailabilityHandler(db)
	appointmentHandler := handlers.NewAppointmentHandler(db, scheduler)
	requestHandler := handlers.NewRequestHandler(db, scheduler)
	messageHandler := handlers.NewMessageHandler(db)
	callHandler := handlers.NewCallHandler(db, cfg)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
		}

		// User management routes (staff)
		userRoutes := private.Group("/users")
		{
			// Doctor directory - accessible by all authenticated users
			userRoutes.GET("/doctors", userHandler.GetDoctors)

			// Patient directory - doctors and staff
			userRoutes.GET("/patients", userHandler.GetPatients)

			staffRoutes := userRoutes.Group("")
			staffRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleSuperAdmin))
			{
				staffRoutes.POST("", userHandler.CreateUser)
				staffRoutes.GET("", userHandler.GetUsers)
				staffRoutes.GET("/:id", userHandler.GetUserByID)
				staffRoutes.PUT("/:id", userHandler.UpdateUser)
				staffRoutes.DELETE("/:id", userHandler.DeleteUser)
			}
		}

		// Hospital directory
		hospitalRoutes := private.Group("/hospitals")
		{
			hospitalRoutes.GET("", hospitalHandler.GetHospitals)
			hospitalRoutes.GET("/:id", hospitalHandler.GetHospitalByID)

			superadminRoutes := hospitalRoutes.Group("")
			superadminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleSuperAdmin))
			{
				superadminRoutes.POST("", hospitalHandler.CreateHospital)
				superadminRoutes.PUT("/:id", hospitalHandler.UpdateHospital)
				superadminRoutes.DELETE("/:id", hospitalHandler.DeleteHospital)
			}
		}

		// Availability windows
		availabilityRoutes := private.Group("/availability")
		{
			// Staff browse a doctor's open windows when booking
			availabilityRoutes.GET("/doctor/:doctorId", availabilityHandler.GetDoctorWindows)

			doctorRoutes := availabilityRoutes.Group("")
			doctorRoutes.Use(middleware.RoleAuthMiddleware(models.RoleDoctor))
			{
				doctorRoutes.GET("", availabilityHandler.GetWindows)
				doctorRoutes.POST("", availabilityHandler.CreateWindow)
				doctorRoutes.PUT("/:id", availabilityHandler.UpdateWindow)
				doctorRoutes.DELETE("/:id", availabilityHandler.DeleteWindow)
			}
		}

		// Appointments
		appointmentRoutes := private.Group("/appointments")
		{
			// Direct creation and editing is a staff operation
			appointmentRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleSuperAdmin), appointmentHandler.CreateAppointment)
			appointmentRoutes.PUT("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleSuperAdmin), appointmentHandler.UpdateAppointment)

			// Listing and detail differentiate by role inside the handler
			appointmentRoutes.GET("", appointmentHandler.GetAppointments)
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)

			// Cancellation is open to everyone involved; ownership in handler
			appointmentRoutes.POST("/:id/cancel", appointmentHandler.CancelAppointment)

			// Reschedule and completion belong to the assigned doctor
			appointmentRoutes.POST("/:id/reschedule", middleware.RoleAuthMiddleware(models.RoleDoctor), appointmentHandler.RescheduleAppointment)
			appointmentRoutes.POST("/:id/complete", middleware.RoleAuthMiddleware(models.RoleDoctor), appointmentHandler.CompleteAppointment)
		}

		// Appointment request workflow
		requestRoutes := private.Group("/appointment-requests")
		{
			requestRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleSuperAdmin), requestHandler.ProposeRequest)
			requestRoutes.GET("", requestHandler.GetRequests)

			doctorDecisions := requestRoutes.Group("")
			doctorDecisions.Use(middleware.RoleAuthMiddleware(models.RoleDoctor))
			{
				doctorDecisions.POST("/:id/approve", requestHandler.ApproveRequest)
				doctorDecisions.POST("/:id/modify", requestHandler.ModifyRequest)
				doctorDecisions.POST("/:id/reject", requestHandler.RejectRequest)
			}
		}

		// Per-appointment chat
		chatRoutes := private.Group("/chat")
		{
			chatRoutes.POST("/:appointmentId/messages", messageHandler.SendMessage)
			chatRoutes.GET("/:appointmentId/messages", messageHandler.GetMessages)
			chatRoutes.PATCH("/messages/:messageId/read", messageHandler.MarkMessageAsRead)
		}

		// Video calls
		callRoutes := private.Group("/calls")
		{
			callRoutes.POST("/enter", callHandler.EnterCall)
			callRoutes.GET("/session/:token", callHandler.GetSessionStatus)
			callRoutes.POST("/initiate", callHandler.InitiateCall)
			callRoutes.POST("/:id/end", callHandler.EndCall)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
