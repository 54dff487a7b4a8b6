package main

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/psuflow/psuflow-api/internal/handler"
	"github.com/psuflow/psuflow-api/internal/middleware"
	"github.com/psuflow/psuflow-api/internal/models"
	"github.com/psuflow/psuflow-api/internal/service"
	"github.com/psuflow/psuflow-api/pkg/config"
	"github.com/psuflow/psuflow-api/pkg/logger"
	corsmiddleware "github.com/psuflow/psuflow-api/pkg/middleware/cors"
	reqidmiddleware "github.com/psuflow/psuflow-api/pkg/middleware/requestid"
)

type routeDeps struct {
	auth          *service.AuthService
	appointments  *service.AppointmentService
	queries       *service.QueryService
	blocks        *service.BlockService
	notifications *service.NotificationService
	attachments   *service.AttachmentService
	exports       *service.ExportService
	announcements *service.AnnouncementService
	metrics       *service.MetricsService
	db            *sqlx.DB
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))
	r.Use(middleware.OptionalJWT(deps.auth))

	metricsHandler := handler.NewMetricsHandler(deps.metrics, deps.db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(deps.auth)
	appointmentHandler := handler.NewAppointmentHandler(deps.appointments, deps.attachments)
	queryHandler := handler.NewQueryHandler(deps.queries)
	blockHandler := handler.NewBlockHandler(deps.blocks)
	notificationHandler := handler.NewNotificationHandler(deps.notifications)
	attachmentHandler := handler.NewAttachmentHandler(deps.attachments)
	exportHandler := handler.NewExportHandler(deps.exports)
	announcementHandler := handler.NewAnnouncementHandler(deps.announcements)

	// guard is a no-op unless AUTH_REQUIRED is set.
	guard := func(roles ...string) []gin.HandlerFunc {
		if !cfg.JWT.Required {
			return nil
		}
		chain := []gin.HandlerFunc{middleware.JWT(deps.auth)}
		if len(roles) > 0 {
			chain = append(chain, middleware.RBAC(roles...))
		}
		return chain
	}
	faculty := []string{string(models.RoleFaculty), string(models.RoleAdmin)}
	staff := []string{string(models.RoleStaff), string(models.RoleAdmin)}

	throttle := middleware.RateLimit(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst, logr)

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", throttle, authHandler.Login)
	api.POST("/auth/change-password", append(guard(), authHandler.ChangePassword)...)
	api.GET("/announcements/latest", announcementHandler.Latest)

	// Signed links carry their own authorization.
	api.GET("/attachments/:appointmentId/:field", attachmentHandler.Download)
	api.GET("/exports/:token", exportHandler.Download)

	appointments := api.Group("/appointments")
	{
		appointments.GET("/available/:facultyId/:date", appointmentHandler.Availability)
		appointments.POST("/book", append(guard(), throttle, appointmentHandler.Book)...)
		appointments.POST("/cancel/:id", append(guard(), appointmentHandler.Cancel)...)
		appointments.POST("/reschedule/:id", append(guard(), appointmentHandler.Reschedule)...)
		appointments.GET("/my/:studentId", append(guard(append(staff, middleware.RoleSelf)...), queryHandler.Mine)...)

		appointments.PUT("/:id/decision", append(guard(faculty...), appointmentHandler.Decide)...)
		appointments.POST("/:id/decide", append(guard(faculty...), appointmentHandler.LegacyDecide)...)
		appointments.GET("/pending/:facultyId", append(guard(faculty...), queryHandler.Pending)...)
		appointments.GET("/upcoming/:facultyId", append(guard(faculty...), queryHandler.Upcoming)...)
		appointments.GET("/categories/:facultyId", append(guard(faculty...), queryHandler.Categories)...)
		appointments.GET("/:id/note", append(guard(), appointmentHandler.GetNote)...)
		appointments.PUT("/:id/note", append(guard(faculty...), appointmentHandler.SetNote)...)
		appointments.POST("/comment/:id", append(guard(faculty...), appointmentHandler.AppendComment)...)
		appointments.GET("/:id", append(guard(), queryHandler.Get)...)
	}

	blocks := api.Group("/faculty", guard(faculty...)...)
	{
		blocks.POST("/blocks", blockHandler.Create)
		blocks.POST("/block", blockHandler.Create)
		blocks.GET("/blocks", blockHandler.List)
		blocks.DELETE("/blocks", blockHandler.Delete)
	}

	staffGroup := api.Group("/staff", guard(staff...)...)
	{
		staffGroup.GET("/appointments/upcoming", queryHandler.StaffUpcoming)
		staffGroup.GET("/overview", queryHandler.StaffOverview)
		staffGroup.GET("/overview/export", exportHandler.Overview)
		staffGroup.GET("/inbox/:staffId", queryHandler.Inbox)
		staffGroup.GET("/student-history", queryHandler.StudentHistory)
	}

	api.GET("/queues/summary", queryHandler.QueueSummary)
	api.GET("/queue/status/:studentId", append(guard(append(staff, middleware.RoleSelf)...), queryHandler.QueueStatus)...)

	notifications := api.Group("/notifications")
	{
		notifications.GET("/user/:userId", append(guard(string(models.RoleAdmin), middleware.RoleSelf), notificationHandler.List)...)
		notifications.PUT("/:id/read", append(guard(), notificationHandler.MarkRead)...)
	}

	return r
}
