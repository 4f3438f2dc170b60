package httpapi

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/imayankmani/attendance-management-system/internal/model"
	"github.com/imayankmani/attendance-management-system/internal/report"
)

const exportContentType = report.ExportContentType

// reportRange applies the documented default range to the query params.
func reportRange(c *gin.Context) (string, string) {
	return report.DefaultRange(c.Query("startDate"), c.Query("endDate"), time.Now())
}

type markRequest struct {
	StudentID string `json:"student_id" binding:"required"`
	ClassID   string `json:"class_id" binding:"required"`
	Status    string `json:"status" binding:"required"`
}

// MarkAttendance records a manual mark from the dashboard.
func (h *Handler) MarkAttendance(c *gin.Context) {
	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, err := h.attendance.Mark(c.Request.Context(), req.StudentID, req.ClassID, req.Status, "dashboard")
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// ClassAttendance returns the roster with statuses for one class.
func (h *Handler) ClassAttendance(c *gin.Context) {
	roster, err := h.attendance.ClassAttendance(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, roster)
}

// ---------- Frame intake ----------

type frameJSONRequest struct {
	Image      string `json:"image" binding:"required"`
	ClassID    string `json:"class_id" binding:"required"`
	TerminalID string `json:"terminal_id" binding:"required"`
}

// ProcessFrame accepts a camera frame from a terminal, either as a multipart
// "frame" file with class_id/terminal_id form fields or as JSON carrying a
// base64 data URL, and runs it through the recognition gateway.
func (h *Handler) ProcessFrame(c *gin.Context) {
	var (
		frame      []byte
		classID    string
		terminalID string
	)

	if strings.Contains(c.ContentType(), "multipart/form-data") {
		file, header, err := c.Request.FormFile("frame")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "frame file is required"})
			return
		}
		defer file.Close()
		if header.Size > h.cfg.MaxUploadMB<<20 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "frame too large"})
			return
		}
		frame, err = io.ReadAll(file)
		if err != nil {
			respondErr(c, err)
			return
		}
		classID = c.PostForm("class_id")
		terminalID = c.PostForm("terminal_id")
	} else {
		var req frameJSONRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		decoded, err := decodeDataURL(req.Image)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image must be base64 or a data URL"})
			return
		}
		frame = decoded
		classID = req.ClassID
		terminalID = req.TerminalID
	}

	result, err := h.gateway.SubmitFrame(c.Request.Context(), frame, classID, terminalID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// decodeDataURL accepts either a raw base64 string or a data URL.
func decodeDataURL(v string) ([]byte, error) {
	if idx := strings.Index(v, ";base64,"); idx >= 0 {
		v = v[idx+len(";base64,"):]
	}
	raw, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("empty image payload")
	}
	return raw, nil
}

// ---------- Terminal (public) ----------

// CurrentClass resolves the active class for unattended terminals, falling
// back to the upcoming class within the lookahead window.
func (h *Handler) CurrentClass(c *gin.Context) {
	ctx := c.Request.Context()
	now := time.Now()

	if cl, err := h.classes.Current(ctx, now); err == nil {
		c.JSON(http.StatusOK, gin.H{"current": cl})
		return
	} else if !errors.Is(err, model.ErrNotFound) {
		respondErr(c, err)
		return
	}

	if cl, err := h.classes.Upcoming(ctx, now); err == nil {
		c.JSON(http.StatusOK, gin.H{"current": nil, "upcoming": cl})
		return
	} else if !errors.Is(err, model.ErrNotFound) {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"current": nil, "upcoming": nil})
}

// ---------- Reports ----------

// ReportAttendance returns the filtered report rows.
func (h *Handler) ReportAttendance(c *gin.Context) {
	start, end := reportRange(c)
	rows, err := h.reports.Rows(c.Request.Context(), start, end, c.Query("studentId"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows, "start_date": start, "end_date": end})
}

// ExportAttendance streams the report as a spreadsheet download.
func (h *Handler) ExportAttendance(c *gin.Context) {
	start, end := reportRange(c)
	data, filename, err := h.reports.Export(c.Request.Context(), start, end)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, exportContentType, data)
}
