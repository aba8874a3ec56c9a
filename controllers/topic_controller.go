package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/xuri/excelize/v2"

	"github.com/vnkhanh/thesis-selection-backend/config"
	"github.com/vnkhanh/thesis-selection-backend/models"
)

// Giảng viên lấy danh sách đề tài của mình kèm sinh viên đã đăng ký
func GetMyTopics(c *gin.Context) {
	teacherID := c.GetString("user_id")

	var topics []models.Topic
	query := config.DB.Model(&models.Topic{}).
		Where("teacher_id = ?", teacherID).
		Preload("Selections").
		Preload("Selections.Student")

	// --- Tìm kiếm theo tiêu đề ---
	if search := c.Query("search"); search != "" {
		query = query.Where("title ILIKE ?", "%"+search+"%") // Postgres
	}

	// --- Lọc theo trạng thái ---
	if status := c.Query("status"); status != "" {
		switch models.TopicStatus(status) {
		case models.TopicOpen, models.TopicClosed, models.TopicDeleted:
			query = query.Where("status = ?", status)
		}
	}

	if err := query.Order("created_at desc").Find(&topics).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Không thể lấy danh sách đề tài"})
		return
	}

	// Format dữ liệu trả về cho trang quản lý của giảng viên
	data := make([]gin.H, 0, len(topics))
	for _, t := range topics {
		students := make([]gin.H, 0, len(t.Selections))
		for _, s := range t.Selections {
			students = append(students, gin.H{
				"id":               s.Student.ID,
				"name":             s.Student.Name,
				"student_id":       s.Student.StudentID,
				"selection_id":     s.ID,
				"selection_status": s.Status,
			})
		}
		data = append(data, gin.H{
			"id":             t.ID,
			"title":          t.Title,
			"slug":           t.Slug,
			"description":    t.Description,
			"requirements":   t.Requirements,
			"max_students":   t.MaxStudents,
			"selected_count": t.SelectedCount,
			"status":         t.Status,
			"deadline":       t.Deadline,
			"students":       students,
		})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

type CreateTopicInput struct {
	Title        string     `json:"title" binding:"required"`
	Description  string     `json:"description" binding:"required"`
	Requirements string     `json:"requirements"`
	MaxStudents  int        `json:"max_students" binding:"omitempty,min=1"`
	Deadline     *time.Time `json:"deadline"`
}

// Giảng viên tạo đề tài mới
func CreateTopic(c *gin.Context) {
	teacherID, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "user_id không hợp lệ"})
		return
	}

	var input CreateTopicInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	if input.MaxStudents == 0 {
		input.MaxStudents = 1
	}
	// Không truyền deadline thì mặc định 30 ngày
	deadline := time.Now().AddDate(0, 0, 30)
	if input.Deadline != nil {
		deadline = *input.Deadline
	}

	topic := models.Topic{
		ID:           uuid.New(),
		Title:        input.Title,
		Slug:         slug.Make(input.Title),
		Description:  input.Description,
		Requirements: input.Requirements,
		MaxStudents:  input.MaxStudents,
		TeacherID:    teacherID,
		Status:       models.TopicOpen,
		Deadline:     deadline,
	}

	if err := config.DB.Create(&topic).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Không thể tạo đề tài"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Tạo đề tài thành công",
		"data":    topic,
	})
}

// Chi tiết đề tài của giảng viên kèm danh sách sinh viên đăng ký
func GetTopicDetail(c *gin.Context) {
	teacherID := c.GetString("user_id")
	id := c.Param("id")

	var topic models.Topic
	if err := config.DB.
		Preload("Selections").
		Preload("Selections.Student").
		Where("id = ? AND teacher_id = ?", id, teacherID).
		First(&topic).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Đề tài không tồn tại hoặc không thuộc quyền quản lý"})
		return
	}

	students := make([]gin.H, 0, len(topic.Selections))
	for _, s := range topic.Selections {
		students = append(students, gin.H{
			"id":               s.Student.ID,
			"name":             s.Student.Name,
			"student_id":       s.Student.StudentID,
			"selection_id":     s.ID,
			"selection_status": s.Status,
			"feedback":         s.Feedback,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"id":             topic.ID,
			"title":          topic.Title,
			"description":    topic.Description,
			"requirements":   topic.Requirements,
			"max_students":   topic.MaxStudents,
			"selected_count": topic.SelectedCount,
			"status":         topic.Status,
			"deadline":       topic.Deadline,
			"students":       students,
		},
	})
}

type UpdateTopicInput struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	Requirements *string    `json:"requirements"`
	MaxStudents  *int       `json:"max_students" binding:"omitempty,min=1"`
	Deadline     *time.Time `json:"deadline"`
}

// Giảng viên cập nhật đề tài của mình
func UpdateTopic(c *gin.Context) {
	teacherID := c.GetString("user_id")
	id := c.Param("id")

	var topic models.Topic
	if err := config.DB.Where("id = ? AND teacher_id = ?", id, teacherID).First(&topic).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Đề tài không tồn tại"})
		return
	}

	var input UpdateTopicInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	if input.Title != nil {
		topic.Title = *input.Title
		topic.Slug = slug.Make(*input.Title)
	}
	if input.Description != nil {
		topic.Description = *input.Description
	}
	if input.Requirements != nil {
		topic.Requirements = *input.Requirements
	}
	if input.MaxStudents != nil {
		// Không được hạ sức chứa xuống dưới số sinh viên đang giữ chỗ
		if *input.MaxStudents < topic.SelectedCount {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Số lượng tối đa nhỏ hơn số sinh viên đã đăng ký"})
			return
		}
		topic.MaxStudents = *input.MaxStudents
	}
	if input.Deadline != nil {
		topic.Deadline = *input.Deadline
	}

	if err := config.DB.Save(&topic).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Không thể cập nhật đề tài"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Cập nhật đề tài thành công",
		"data":    topic,
	})
}

type UpdateTopicStatusInput struct {
	Status models.TopicStatus `json:"status" binding:"required,oneof=open closed deleted"`
}

// Giảng viên đóng/mở/xoá mềm đề tài
func UpdateTopicStatus(c *gin.Context) {
	teacherID := c.GetString("user_id")
	id := c.Param("id")

	var topic models.Topic
	if err := config.DB.Where("id = ? AND teacher_id = ?", id, teacherID).First(&topic).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Đề tài không tồn tại"})
		return
	}

	var input UpdateTopicStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	topic.Status = input.Status
	if err := config.DB.Save(&topic).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Không thể cập nhật trạng thái"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Cập nhật trạng thái đề tài thành công",
		"data":    topic,
	})
}

// Xuất danh sách đăng ký đề tài của giảng viên ra file Excel
func ExportTopics(c *gin.Context) {
	teacherID := c.GetString("user_id")

	var topics []models.Topic
	if err := config.DB.
		Preload("Selections").
		Preload("Selections.Student").
		Where("teacher_id = ?", teacherID).
		Order("created_at desc").
		Find(&topics).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Không thể lấy danh sách đề tài"})
		return
	}

	// Luận văn đã nộp, tra theo cặp (đề tài, sinh viên)
	var theses []models.Thesis
	config.DB.
		Joins("JOIN topics ON topics.id = theses.topic_id").
		Where("topics.teacher_id = ?", teacherID).
		Find(&theses)
	thesisByKey := make(map[string]models.Thesis, len(theses))
	for _, th := range theses {
		thesisByKey[th.TopicID.String()+"/"+th.StudentID.String()] = th
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "DanhSach"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Đề tài", "Trạng thái đề tài", "Hạn đăng ký", "Sinh viên", "MSSV", "Trạng thái đăng ký", "Luận văn", "Điểm"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, t := range topics {
		if len(t.Selections) == 0 {
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), t.Title)
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), string(t.Status))
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), t.Deadline.Format("2006-01-02"))
			row++
			continue
		}
		for _, s := range t.Selections {
			mssv := ""
			if s.Student.StudentID != nil {
				mssv = *s.Student.StudentID
			}
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), t.Title)
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), string(t.Status))
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), t.Deadline.Format("2006-01-02"))
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), s.Student.Name)
			f.SetCellValue(sheet, fmt.Sprintf("E%d", row), mssv)
			f.SetCellValue(sheet, fmt.Sprintf("F%d", row), string(s.Status))
			if th, ok := thesisByKey[t.ID.String()+"/"+s.StudentID.String()]; ok {
				f.SetCellValue(sheet, fmt.Sprintf("G%d", row), string(th.Status))
				if th.Score != nil {
					f.SetCellValue(sheet, fmt.Sprintf("H%d", row), *th.Score)
				}
			}
			row++
		}
	}

	fileName := "danh-sach-de-tai-" + time.Now().Format("20060102") + ".xlsx"
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)

	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Không thể xuất file Excel"})
		return
	}
}
