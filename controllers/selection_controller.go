package controllers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/thesis-selection-backend/config"
	"github.com/vnkhanh/thesis-selection-backend/models"
	"github.com/vnkhanh/thesis-selection-backend/utils"
	"github.com/vnkhanh/thesis-selection-backend/ws"
)

var errTopicFull = errors.New("đề tài đã đủ số lượng sinh viên")

// Sinh viên xem danh sách đề tài còn chỗ và chưa hết hạn đăng ký
func GetAvailableTopics(c *gin.Context) {
	var topics []models.Topic
	if err := config.DB.
		Preload("Teacher").
		Where("status = ? AND deadline > ? AND selected_count < max_students", models.TopicOpen, time.Now()).
		Order("deadline asc").
		Find(&topics).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Không thể lấy danh sách đề tài"})
		return
	}

	data := make([]gin.H, 0, len(topics))
	for _, t := range topics {
		data = append(data, gin.H{
			"id":             t.ID,
			"title":          t.Title,
			"description":    t.Description,
			"requirements":   t.Requirements,
			"max_students":   t.MaxStudents,
			"selected_count": t.SelectedCount,
			"deadline":       t.Deadline,
			"teacher": gin.H{
				"id":            t.Teacher.ID,
				"name":          t.Teacher.Name,
				"title":         t.Teacher.Title,
				"research_area": t.Teacher.ResearchArea,
				"department":    t.Teacher.Department,
			},
		})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

type SelectTopicInput struct {
	TopicID string `json:"topic_id" binding:"required,uuid"`
}

// Sinh viên đăng ký đề tài.
// Tạo bản ghi selection và tăng selected_count trong cùng 1 transaction;
// điều kiện sức chứa được kiểm lại ngay trên câu UPDATE nên 2 request
// đồng thời không thể cùng vượt qua giới hạn max_students.
func SelectTopic(c *gin.Context) {
	studentID, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "user_id không hợp lệ"})
		return
	}

	var input SelectTopicInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	topicID := uuid.MustParse(input.TopicID)

	var topic models.Topic
	if err := config.DB.First(&topic, "id = ?", topicID).Error; err != nil || topic.Status == models.TopicDeleted {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Đề tài không tồn tại"})
		return
	}

	if topic.Status != models.TopicOpen {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Đề tài đã đóng đăng ký"})
		return
	}

	if topic.Deadline.Before(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Đã hết hạn đăng ký đề tài"})
		return
	}

	// Mỗi sinh viên chỉ được giữ 1 selection đang active trên toàn hệ thống
	var existing models.TopicSelection
	if err := config.DB.
		Where("student_id = ? AND status IN ?", studentID, []models.SelectionStatus{models.SelectionPending, models.SelectionApproved}).
		First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Bạn đã đăng ký đề tài, hãy chờ duyệt hoặc huỷ trước khi chọn đề tài khác"})
		return
	}

	selection := models.TopicSelection{
		ID:        uuid.New(),
		TopicID:   topicID,
		StudentID: studentID,
		Status:    models.SelectionPending,
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		// Tăng counter có điều kiện: 0 row nghĩa là đề tài vừa bị người khác lấy chỗ cuối
		res := tx.Model(&models.Topic{}).
			Where("id = ? AND selected_count < max_students", topicID).
			UpdateColumn("selected_count", gorm.Expr("selected_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errTopicFull
		}

		return tx.Create(&selection).Error
	})
	if err != nil {
		if errors.Is(err, errTopicFull) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Đề tài đã đủ số lượng sinh viên"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Đăng ký đề tài thất bại"})
		return
	}

	ws.BroadcastSelectionChanged(topicID.String())

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Đăng ký đề tài thành công, vui lòng chờ giảng viên duyệt",
		"data":    selection,
	})
}

// Sinh viên huỷ đăng ký: xoá bản ghi selection và trả lại chỗ trong cùng 1 transaction
func CancelSelection(c *gin.Context) {
	studentID := c.GetString("user_id")

	var selection models.TopicSelection
	if err := config.DB.
		Where("student_id = ? AND status IN ?", studentID, []models.SelectionStatus{models.SelectionPending, models.SelectionApproved}).
		First(&selection).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Không tìm thấy đăng ký đề tài"})
		return
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Topic{}).
			Where("id = ? AND selected_count > 0", selection.TopicID).
			UpdateColumn("selected_count", gorm.Expr("selected_count - 1")).Error; err != nil {
			return err
		}
		return tx.Delete(&models.TopicSelection{}, "id = ?", selection.ID).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Huỷ đăng ký thất bại"})
		return
	}

	ws.BroadcastSelectionChanged(selection.TopicID.String())

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Huỷ đăng ký đề tài thành công",
	})
}

// Sinh viên xem đăng ký của mình (kể cả đã bị từ chối)
func GetMySelection(c *gin.Context) {
	studentID := c.GetString("user_id")

	var selection models.TopicSelection
	if err := config.DB.
		Preload("Topic").
		Preload("Topic.Teacher").
		Where("student_id = ?", studentID).
		Order("created_at desc").
		First(&selection).Error; err != nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"id":          selection.ID,
			"status":      selection.Status,
			"feedback":    selection.Feedback,
			"approved_at": selection.ApprovedAt,
			"topic": gin.H{
				"id":           selection.Topic.ID,
				"title":        selection.Topic.Title,
				"description":  selection.Topic.Description,
				"requirements": selection.Topic.Requirements,
				"deadline":     selection.Topic.Deadline,
				"status":       selection.Topic.Status,
				"teacher": gin.H{
					"name":  selection.Topic.Teacher.Name,
					"title": selection.Topic.Teacher.Title,
				},
			},
		},
	})
}

// Trạng thái đăng ký đang active của sinh viên (null nếu không có)
func GetSelectionStatus(c *gin.Context) {
	studentID := c.GetString("user_id")

	var selection models.TopicSelection
	if err := config.DB.
		Preload("Topic").
		Where("student_id = ? AND status IN ?", studentID, []models.SelectionStatus{models.SelectionPending, models.SelectionApproved}).
		First(&selection).Error; err != nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"id":     selection.ID,
			"status": selection.Status,
			"topic":  gin.H{"id": selection.Topic.ID, "title": selection.Topic.Title},
		},
	})
}

type ReviewSelectionInput struct {
	Status   models.SelectionStatus `json:"status" binding:"required,oneof=approved rejected"`
	Feedback string                 `json:"feedback"`
}

// Giảng viên duyệt đăng ký theo id selection
func ReviewSelection(c *gin.Context) {
	teacherID := c.GetString("user_id")
	id := c.Param("id")

	var selection models.TopicSelection
	if err := config.DB.
		Preload("Topic").
		Preload("Student").
		Joins("JOIN topics ON topics.id = topic_selections.topic_id").
		Where("topic_selections.id = ? AND topics.teacher_id = ?", id, teacherID).
		First(&selection).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Đăng ký đề tài không tồn tại hoặc không thuộc quyền quản lý"})
		return
	}

	reviewSelection(c, &selection)
}

// Giảng viên duyệt đăng ký theo cặp (đề tài, sinh viên)
func ReviewTopicSelection(c *gin.Context) {
	teacherID := c.GetString("user_id")
	topicID := c.Param("id")
	studentID := c.Param("studentId")

	// Đề tài phải thuộc giảng viên đang đăng nhập
	var topic models.Topic
	if err := config.DB.Where("id = ? AND teacher_id = ?", topicID, teacherID).First(&topic).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Đề tài không tồn tại hoặc không thuộc quyền quản lý"})
		return
	}

	var selection models.TopicSelection
	if err := config.DB.
		Preload("Topic").
		Preload("Student").
		Where("topic_id = ? AND student_id = ?", topicID, studentID).
		First(&selection).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Đăng ký đề tài không tồn tại"})
		return
	}

	reviewSelection(c, &selection)
}

// Chuyển trạng thái pending -> approved/rejected.
// Không đụng tới selected_count: chỗ đã bị chiếm từ lúc đăng ký,
// chỉ được trả lại khi sinh viên chủ động huỷ.
func reviewSelection(c *gin.Context, selection *models.TopicSelection) {
	var input ReviewSelectionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	if selection.Status != models.SelectionPending {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Chỉ duyệt được đăng ký đang chờ"})
		return
	}

	selection.Status = input.Status
	selection.Feedback = input.Feedback
	if input.Status == models.SelectionApproved {
		now := time.Now()
		selection.ApprovedAt = &now
	}

	if err := config.DB.Save(selection).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Không thể cập nhật đăng ký"})
		return
	}

	ws.BroadcastSelectionChanged(selection.TopicID.String())

	// Báo kết quả cho sinh viên qua email (không chặn luồng)
	if selection.Student.Email != nil && *selection.Student.Email != "" {
		email := *selection.Student.Email
		studentName := selection.Student.Name
		topicTitle := selection.Topic.Title
		status := string(input.Status)
		feedback := input.Feedback
		go func() {
			subject, body := utils.SelectionReviewedEmail(studentName, topicTitle, status, feedback)
			if err := utils.SendEmail(email, subject, body); err != nil {
				log.Println("Lỗi gửi email:", err)
			}
		}()
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Duyệt đăng ký thành công",
		"data":    selection,
	})
}
