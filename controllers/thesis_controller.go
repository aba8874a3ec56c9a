package controllers

import (
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vnkhanh/thesis-selection-backend/config"
	"github.com/vnkhanh/thesis-selection-backend/models"
	"github.com/vnkhanh/thesis-selection-backend/services"
	"github.com/vnkhanh/thesis-selection-backend/utils"
	"github.com/vnkhanh/thesis-selection-backend/ws"
)

// Sinh viên nộp luận văn (multipart, field "thesis").
// Nộp lại: cập nhật bản ghi cũ, file cũ bị xoá sau khi lưu DB thành công.
func SubmitThesis(c *gin.Context) {
	studentID, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "user_id không hợp lệ"})
		return
	}

	file, err := c.FormFile("thesis")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Vui lòng chọn file luận văn"})
		return
	}

	if err := utils.ValidateThesisFile(file); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	// Chỉ nộp được khi đã có đăng ký đề tài được duyệt
	var selection models.TopicSelection
	if err := config.DB.
		Where("student_id = ? AND status = ?", studentID, models.SelectionApproved).
		First(&selection).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Bạn chưa có đề tài được duyệt, không thể nộp luận văn"})
		return
	}

	uploadDir := config.UploadDir()
	fileURL, err := utils.SaveThesisFile(c, file, uploadDir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Không lưu được file luận văn"})
		return
	}

	// Trích bản xem trước cho file PDF, lỗi trích xuất không chặn việc nộp
	preview, err := services.ExtractThesisPreview(file)
	if err != nil {
		log.Println("Không trích xuất được nội dung PDF:", err)
		preview = ""
	}

	now := time.Now()

	// Đã có luận văn cho cặp (đề tài, sinh viên) -> nộp lại
	var existing models.Thesis
	if err := config.DB.
		Where("student_id = ? AND topic_id = ?", studentID, selection.TopicID).
		First(&existing).Error; err == nil {
		oldFile := existing.FileURL
		updates := map[string]interface{}{
			"file_url":       fileURL,
			"original_name":  file.Filename,
			"file_size":      file.Size,
			"status":         models.ThesisSubmitted,
			"score":          nil,
			"feedback":       "",
			"extracted_text": preview,
			"submitted_at":   now,
		}
		if err := config.DB.Model(&existing).Updates(updates).Error; err != nil {
			// DB lỗi thì bỏ file vừa lưu, giữ nguyên file cũ
			utils.RemoveUploadedFile(fileURL, uploadDir)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Không cập nhật được luận văn"})
			return
		}
		// Xoá file cũ sau khi DB đã ghi nhận file mới; crash giữa 2 bước
		// chỉ để lại 1 file mồ côi trên đĩa, không làm sai bản ghi
		utils.RemoveUploadedFile(oldFile, uploadDir)

		config.DB.First(&existing, "id = ?", existing.ID)
		ws.BroadcastThesisChanged(existing.ID.String())
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Nộp lại luận văn thành công",
			"data":    existing,
		})
		return
	}

	thesis := models.Thesis{
		ID:            uuid.New(),
		TopicID:       selection.TopicID,
		StudentID:     studentID,
		FileURL:       fileURL,
		OriginalName:  file.Filename,
		FileSize:      file.Size,
		Status:        models.ThesisSubmitted,
		Annotations:   models.AnnotationList{},
		ExtractedText: preview,
		SubmittedAt:   now,
	}
	if err := config.DB.Create(&thesis).Error; err != nil {
		utils.RemoveUploadedFile(fileURL, uploadDir)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Không lưu được luận văn"})
		return
	}

	ws.BroadcastThesisChanged(thesis.ID.String())
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Nộp luận văn thành công",
		"data":    thesis,
	})
}

// Sinh viên xem luận văn của mình
func GetMyThesis(c *gin.Context) {
	studentID := c.GetString("user_id")

	var thesis models.Thesis
	if err := config.DB.
		Preload("Topic").
		Where("student_id = ?", studentID).
		Order("submitted_at desc").
		First(&thesis).Error; err != nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": thesis})
}

// Giảng viên xem các luận văn nộp vào đề tài của mình
func GetTeacherTheses(c *gin.Context) {
	teacherID := c.GetString("user_id")

	var theses []models.Thesis
	if err := config.DB.
		Preload("Topic").
		Preload("Student").
		Joins("JOIN topics ON topics.id = theses.topic_id").
		Where("topics.teacher_id = ?", teacherID).
		Order("theses.submitted_at desc").
		Find(&theses).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Không thể lấy danh sách luận văn"})
		return
	}

	data := make([]gin.H, 0, len(theses))
	for _, t := range theses {
		data = append(data, gin.H{
			"id":            t.ID,
			"file_url":      t.FileURL,
			"original_name": t.OriginalName,
			"status":        t.Status,
			"score":         t.Score,
			"feedback":      t.Feedback,
			"submitted_at":  t.SubmittedAt,
			"topic":         gin.H{"id": t.Topic.ID, "title": t.Topic.Title},
			"student": gin.H{
				"id":         t.Student.ID,
				"name":       t.Student.Name,
				"student_id": t.Student.StudentID,
			},
		})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

type ReviewThesisInput struct {
	Score    *int   `json:"score" binding:"required,min=0,max=100"`
	Feedback string `json:"feedback"`
}

// Giảng viên chấm điểm luận văn thuộc đề tài của mình
func ReviewThesis(c *gin.Context) {
	teacherID := c.GetString("user_id")
	id := c.Param("id")

	var thesis models.Thesis
	if err := config.DB.
		Joins("JOIN topics ON topics.id = theses.topic_id").
		Where("theses.id = ? AND topics.teacher_id = ?", id, teacherID).
		First(&thesis).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Luận văn không tồn tại hoặc không thuộc quyền quản lý"})
		return
	}

	var input ReviewThesisInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	thesis.Score = input.Score
	thesis.Feedback = input.Feedback
	thesis.Status = models.ThesisReviewed

	if err := config.DB.Save(&thesis).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Không thể lưu kết quả chấm"})
		return
	}

	ws.BroadcastThesisChanged(thesis.ID.String())
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Chấm luận văn thành công",
		"data":    thesis,
	})
}

type AnnotateThesisInput struct {
	Annotations []models.Annotation `json:"annotations" binding:"required"`
}

// Giảng viên lưu ghi chú trên luận văn: ghi đè toàn bộ danh sách, không merge
func AnnotateThesis(c *gin.Context) {
	teacherID := c.GetString("user_id")
	id := c.Param("id")

	var thesis models.Thesis
	if err := config.DB.
		Joins("JOIN topics ON topics.id = theses.topic_id").
		Where("theses.id = ? AND topics.teacher_id = ?", id, teacherID).
		First(&thesis).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Luận văn không tồn tại hoặc không thuộc quyền quản lý"})
		return
	}

	var input AnnotateThesisInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	thesis.Annotations = models.AnnotationList(input.Annotations)
	if err := config.DB.Save(&thesis).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Không thể lưu ghi chú"})
		return
	}

	ws.BroadcastThesisChanged(thesis.ID.String())
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Lưu ghi chú thành công",
		"data":    thesis,
	})
}

// Tải file luận văn: chỉ sinh viên nộp bài hoặc giảng viên của đề tài
func DownloadThesis(c *gin.Context) {
	userID := c.GetString("user_id")
	id := c.Param("id")

	var thesis models.Thesis
	if err := config.DB.
		Preload("Topic").
		Preload("Student").
		First(&thesis, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Luận văn không tồn tại"})
		return
	}

	// Không có quyền thì trả lời như không tồn tại
	if thesis.StudentID.String() != userID && thesis.Topic.TeacherID.String() != userID {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Luận văn không tồn tại hoặc không có quyền truy cập"})
		return
	}

	filePath := filepath.Join(config.UploadDir(), filepath.FromSlash(thesis.FileURL))
	if _, err := os.Stat(filePath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "File luận văn không tồn tại"})
		return
	}

	ext := filepath.Ext(filePath)
	// Tên file tải về theo tên sinh viên, encode để hỗ trợ tiếng Việt
	fileName := url.PathEscape(thesis.Student.Name + "-thesis" + ext)

	c.Header("Content-Type", utils.ThesisContentType(ext))
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+fileName)
	c.File(filePath)
}
