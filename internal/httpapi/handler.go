// Package httpapi wires the REST surface to the domain services.
package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/imayankmani/attendance-management-system/internal/attendance"
	"github.com/imayankmani/attendance-management-system/internal/auth"
	"github.com/imayankmani/attendance-management-system/internal/class"
	"github.com/imayankmani/attendance-management-system/internal/config"
	"github.com/imayankmani/attendance-management-system/internal/gateway"
	"github.com/imayankmani/attendance-management-system/internal/hub"
	"github.com/imayankmani/attendance-management-system/internal/mailer"
	"github.com/imayankmani/attendance-management-system/internal/model"
	"github.com/imayankmani/attendance-management-system/internal/report"
	"github.com/imayankmani/attendance-management-system/internal/student"
)

// ActivityLog is the audit trail surface the handlers use.
type ActivityLog interface {
	Append(ctx context.Context, message string)
	Recent(ctx context.Context, limit int, pattern string) ([]model.ActivityEntry, error)
}

// Handler carries the service dependencies for all routes.
type Handler struct {
	cfg        config.App
	students   *student.Service
	classes    *class.Service
	attendance *attendance.Service
	reports    *report.Service
	gateway    *gateway.Gateway
	hub        *hub.Hub
	mail       *mailer.Mailer
	activity   ActivityLog
}

// New creates the handler set.
func New(cfg config.App, students *student.Service, classes *class.Service,
	att *attendance.Service, reports *report.Service, gw *gateway.Gateway,
	h *hub.Hub, mail *mailer.Mailer, act ActivityLog) *Handler {
	return &Handler{
		cfg:        cfg,
		students:   students,
		classes:    classes,
		attendance: att,
		reports:    reports,
		gateway:    gw,
		hub:        h,
		mail:       mail,
		activity:   act,
	}
}

// respondErr maps service errors onto the HTTP taxonomy. Internal detail is
// logged, never exposed.
func respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrDuplicate):
		c.JSON(http.StatusBadRequest, gin.H{"error": "student with this identifier already exists"})
	case errors.Is(err, model.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "feature not configured"})
	case errors.Is(err, model.ErrTimeout):
		log.Printf("request timed out: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "frame processing timed out"})
	default:
		log.Printf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// ---------- Auth ----------

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login exchanges the configured admin credentials for a bearer token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Username != h.cfg.AdminUsername || req.Password != h.cfg.AdminPassword {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	token, exp, err := auth.Issue(req.Username, "admin", h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.AccessTTL)
	if err != nil {
		respondErr(c, err)
		return
	}
	h.activity.Append(c.Request.Context(), "admin logged in")
	c.JSON(http.StatusOK, gin.H{"token": token, "expires_at": exp.Unix()})
}

// ---------- Dashboard ----------

// DashboardStats returns aggregate counts for the admin dashboard.
func (h *Handler) DashboardStats(c *gin.Context) {
	ctx := c.Request.Context()
	studentCount, err := h.students.Count(ctx)
	if err != nil {
		respondErr(c, err)
		return
	}
	classCount, err := h.classes.Count(ctx)
	if err != nil {
		respondErr(c, err)
		return
	}
	presentToday, err := h.attendance.PresentToday(ctx, time.Now())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"students":      studentCount,
		"classes":       classCount,
		"present_today": presentToday,
		"terminals":     h.hub.ClientCount(),
	})
}

// ---------- Activity logs ----------

type logsRequest struct {
	Password string `json:"password" binding:"required"`
	Pattern  string `json:"pattern"`
}

// Logs returns the last 1000 activity entries behind a secondary password.
func (h *Handler) Logs(c *gin.Context) {
	var req logsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Password != h.cfg.LogsPassword {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid log access password"})
		return
	}
	entries, err := h.activity.Recent(c.Request.Context(), 1000, req.Pattern)
	if err != nil {
		respondErr(c, err)
		return
	}
	if entries == nil {
		entries = []model.ActivityEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"logs": entries})
}

// ---------- Email ----------

// EmailStatus reports whether the email subsystem is configured.
func (h *Handler) EmailStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"configured": h.mail.Configured(),
		"from":       h.cfg.EmailFrom,
	})
}

// SendAttendanceEmail sends each student with an address a personalized
// attendance summary. Per-student failures are collected, not fatal.
func (h *Handler) SendAttendanceEmail(c *gin.Context) {
	if !h.mail.Configured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "email not configured"})
		return
	}
	ctx := c.Request.Context()
	students, err := h.students.List(ctx)
	if err != nil {
		respondErr(c, err)
		return
	}

	sent, failed := 0, []string{}
	for _, st := range students {
		if st.Email == "" {
			continue
		}
		sum, err := h.attendance.StudentSummary(ctx, st.StudentID)
		if err != nil {
			failed = append(failed, st.StudentID)
			continue
		}
		err = h.mail.SendSummary(ctx, mailer.Summary{
			Name:    st.Name,
			Email:   st.Email,
			Total:   sum.Total,
			Present: sum.Present,
			Rate:    sum.Rate,
		})
		if err != nil {
			log.Printf("summary mail failed for %s: %v", st.StudentID, err)
			failed = append(failed, st.StudentID)
			continue
		}
		sent++
	}
	h.activity.Append(ctx, "attendance summary emails sent")
	c.JSON(http.StatusOK, gin.H{"sent": sent, "failed": failed})
}

// ---------- Camera test kill switch ----------

// CameraTestDisabled answers the stubbed-out camera test endpoints. Disabled
// deliberately; the terminal falls back to live frame submission.
func (h *Handler) CameraTestDisabled(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "camera test endpoints are disabled"})
}
