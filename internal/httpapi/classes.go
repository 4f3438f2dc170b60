package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imayankmani/attendance-management-system/internal/model"
)

type createClassRequest struct {
	Name      string `json:"name" binding:"required"`
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}

// CreateClass schedules a single class.
func (h *Handler) CreateClass(c *gin.Context) {
	var req createClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cl, err := h.classes.Create(c.Request.Context(), req.Name, req.Date, req.StartTime, req.EndTime)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, cl)
}

// ListClasses returns all classes.
func (h *Handler) ListClasses(c *gin.Context) {
	classes, err := h.classes.List(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	if classes == nil {
		classes = []model.Class{}
	}
	c.JSON(http.StatusOK, classes)
}

// GetClass returns one class by id.
func (h *Handler) GetClass(c *gin.Context) {
	cl, err := h.classes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, cl)
}

// DeleteClass removes a class, cascading its attendance rows.
func (h *Handler) DeleteClass(c *gin.Context) {
	if err := h.classes.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

// UploadTimetable bulk-imports classes from an uploaded spreadsheet. Row
// errors are reported alongside the rows that were applied.
func (h *Handler) UploadTimetable(c *gin.Context) {
	file, header, err := c.Request.FormFile("timetable")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "timetable file is required"})
		return
	}
	defer file.Close()
	if header.Size > h.cfg.MaxUploadMB<<20 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "timetable file too large"})
		return
	}

	result, err := h.classes.ImportTimetable(c.Request.Context(), file)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
