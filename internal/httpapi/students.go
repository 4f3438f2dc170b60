package httpapi

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/imayankmani/attendance-management-system/internal/model"
)

type createStudentRequest struct {
	StudentID string `form:"student_id" binding:"required"`
	Name      string `form:"name" binding:"required"`
	Email     string `form:"email" binding:"omitempty,email"`
}

// CreateStudent registers a student from a multipart form. An optional photo
// file is stored locally and queues asynchronous face enrollment; a failed
// insert removes the just-written photo.
func (h *Handler) CreateStudent(c *gin.Context) {
	var req createStudentRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	photoPath := ""
	if file, header, err := c.Request.FormFile("photo"); err == nil {
		defer file.Close()
		if header.Size > h.cfg.MaxUploadMB<<20 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("photo exceeds %dMB limit", h.cfg.MaxUploadMB)})
			return
		}
		ext := strings.ToLower(filepath.Ext(header.Filename))
		if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "photo must be a jpg or png file"})
			return
		}
		dir := filepath.Join(h.cfg.UploadDir, "photos")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			respondErr(c, err)
			return
		}
		photoPath = filepath.Join(dir, fmt.Sprintf("%s_%d%s", req.StudentID, time.Now().Unix(), ext))
		if err := c.SaveUploadedFile(header, photoPath); err != nil {
			respondErr(c, err)
			return
		}
	}

	st, err := h.students.Create(c.Request.Context(), req.StudentID, req.Name, req.Email, photoPath)
	if err != nil {
		if photoPath != "" {
			if rmErr := os.Remove(photoPath); rmErr != nil && !os.IsNotExist(rmErr) {
				log.Printf("orphan photo cleanup failed: %v", rmErr)
			}
		}
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

// ListStudents returns all students.
func (h *Handler) ListStudents(c *gin.Context) {
	students, err := h.students.List(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	if students == nil {
		students = []model.Student{}
	}
	c.JSON(http.StatusOK, students)
}

// GetStudent returns one student by external identifier.
func (h *Handler) GetStudent(c *gin.Context) {
	st, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// DeleteStudent removes a student, cascading attendance rows and removing the
// stored photo.
func (h *Handler) DeleteStudent(c *gin.Context) {
	if err := h.students.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

// StudentSummary returns a student's aggregate attendance.
func (h *Handler) StudentSummary(c *gin.Context) {
	sum, err := h.attendance.StudentSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}
