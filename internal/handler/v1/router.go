package v1

import (
	"net/http"

	"github.com/clinicdesk/clinicdesk/internal/config"
	"github.com/clinicdesk/clinicdesk/internal/domain"
	"github.com/clinicdesk/clinicdesk/internal/middleware"
	"github.com/clinicdesk/clinicdesk/pkg/auth"
	"github.com/clinicdesk/clinicdesk/pkg/metrics"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RouterDeps struct {
	Config      *config.Config
	Logger      *zap.Logger
	Collector   *metrics.Collector
	JWTManager  *auth.JWTManager
	Auth        *AuthHandler
	Appointment *AppointmentHandler
	Doctor      *DoctorHandler
	Patient     *PatientHandler
	Content     *ContentHandler
}

// NewRouter wires all v1 routes with their middleware chains.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.Metrics(deps.Collector))
	r.Use(middleware.RateLimit(deps.Config.RateLimit))
	r.Use(cors.New(cors.Config{
		AllowOrigins:  deps.Config.CORS.AllowedOrigins,
		AllowMethods:  deps.Config.CORS.AllowedMethods,
		AllowHeaders:  deps.Config.CORS.AllowedHeaders,
		MaxAge:        deps.Config.CORS.MaxAge,
		AllowWildcard: true,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api/v1")

	authn := middleware.Authenticate(deps.JWTManager)
	adminOnly := middleware.RequireRoles(domain.RoleAdmin)
	doctorOrAdmin := middleware.RequireRoles(domain.RoleDoctor, domain.RoleAdmin)
	patientOrAdmin := middleware.RequireRoles(domain.RolePatient, domain.RoleAdmin)

	// Auth
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", deps.Auth.Login)
		authGroup.POST("/register", deps.Auth.Register)
		authGroup.POST("/refresh", deps.Auth.Refresh)
		authGroup.POST("/change-password", authn, deps.Auth.ChangePassword)
	}

	// Public directory and content feed
	api.GET("/doctors", deps.Doctor.List)
	api.GET("/doctors/:id", deps.Doctor.Get)
	api.GET("/articles", deps.Content.List)
	api.GET("/articles/:slug", deps.Content.GetBySlug)

	// Doctor administration
	doctors := api.Group("/doctors", authn)
	{
		doctors.POST("", adminOnly, deps.Doctor.Create)
		doctors.PATCH("/:id", doctorOrAdmin, deps.Doctor.Update)
	}

	// Patients
	patients := api.Group("/patients", authn)
	{
		patients.POST("", adminOnly, deps.Patient.Create)
		patients.GET("", adminOnly, deps.Patient.List)
		patients.GET("/:id", deps.Patient.Get)
		patients.PATCH("/:id", patientOrAdmin, deps.Patient.Update)
		patients.DELETE("/:id", adminOnly, deps.Patient.Deactivate)
	}

	// Appointments
	appts := api.Group("/appointments", authn)
	{
		appts.POST("", patientOrAdmin, deps.Appointment.Book)
		appts.GET("", deps.Appointment.List)
		appts.GET("/:id", deps.Appointment.Get)
		appts.POST("/:id/complete", doctorOrAdmin, deps.Appointment.Complete)
		appts.POST("/:id/cancel", deps.Appointment.Cancel)
		appts.POST("/:id/rating", middleware.RequireRoles(domain.RolePatient), deps.Appointment.Rate)
	}

	// Content administration
	articles := api.Group("/articles", authn, adminOnly)
	{
		articles.POST("", deps.Content.Create)
		articles.PATCH("/:id", deps.Content.Update)
		articles.DELETE("/:id", deps.Content.Delete)
	}

	// Maintenance
	admin := api.Group("/admin", authn, adminOnly)
	{
		admin.POST("/ratings/repair", deps.Appointment.RepairRatings)
	}

	return r
}
