package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/imayankmani/attendance-management-system/internal/auth"
	"github.com/imayankmani/attendance-management-system/internal/httpmiddleware"
)

// Register mounts every route on the engine. The terminal-facing endpoints
// and the websocket stream are public; everything else requires the admin
// bearer token.
func (h *Handler) Register(r *gin.Engine) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     h.cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}))
	r.Use(httpmiddleware.NewRateLimiter(h.cfg.RateLimitPerMin, h.cfg.RateLimitPerMin).Middleware())

	api := r.Group("/api")

	// Public: admin login, terminal endpoints, frame intake.
	api.POST("/auth/login", h.Login)
	api.POST("/process-frame", h.ProcessFrame)
	api.GET("/terminal/current-class", h.CurrentClass)
	api.GET("/terminal/classes", h.ListClasses)
	api.GET("/terminal/classes/:id", h.GetClass)
	api.POST("/camera-test", h.CameraTestDisabled)
	api.GET("/camera-test/status", h.CameraTestDisabled)

	// Admin: everything else.
	admin := api.Group("", auth.AdminAuth(h.cfg.JWTSigningKey, h.cfg.JWTIssuer))
	admin.GET("/dashboard/stats", h.DashboardStats)

	admin.GET("/students", h.ListStudents)
	admin.POST("/students", h.CreateStudent)
	admin.GET("/students/:id", h.GetStudent)
	admin.DELETE("/students/:id", h.DeleteStudent)
	admin.GET("/students/:id/summary", h.StudentSummary)

	admin.GET("/classes", h.ListClasses)
	admin.POST("/classes", h.CreateClass)
	admin.GET("/classes/:id", h.GetClass)
	admin.DELETE("/classes/:id", h.DeleteClass)
	admin.POST("/classes/upload/timetable", h.UploadTimetable)

	admin.POST("/attendance", h.MarkAttendance)
	admin.GET("/attendance/class/:id", h.ClassAttendance)

	admin.GET("/reports/attendance", h.ReportAttendance)
	admin.GET("/export/attendance", h.ExportAttendance)

	admin.POST("/send-attendance-email", h.SendAttendanceEmail)
	admin.GET("/email/status", h.EmailStatus)
	admin.POST("/logs", h.Logs)

	// Real-time event stream for terminals and dashboards.
	r.GET("/ws", func(c *gin.Context) {
		h.hub.ServeWS(c.Writer, c.Request)
	})
}
