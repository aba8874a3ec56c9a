package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vnkhanh/thesis-selection-backend/config"
	"github.com/vnkhanh/thesis-selection-backend/models"
	"github.com/vnkhanh/thesis-selection-backend/routes"
	"github.com/vnkhanh/thesis-selection-backend/utils"
)

// DB sqlite in-memory riêng cho từng test, gán vào config.DB như lúc chạy thật
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("mở sqlite thất bại: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Topic{},
		&models.TopicSelection{},
		&models.Thesis{},
	); err != nil {
		t.Fatalf("migrate thất bại: %v", err)
	}

	config.DB = db
	return db
}

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("UPLOAD_DIR", t.TempDir())

	db := setupTestDB(t)
	r := routes.SetupRouter(gin.New(), db)
	return r, db
}

func createUser(t *testing.T, db *gorm.DB, role models.UserRole, username string, studentID *string) models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash mật khẩu thất bại: %v", err)
	}
	user := models.User{
		ID:        uuid.New(),
		Username:  username,
		Password:  string(hashed),
		Name:      "Người dùng " + username,
		Role:      role,
		StudentID: studentID,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("tạo user thất bại: %v", err)
	}
	return user
}

func createTeacher(t *testing.T, db *gorm.DB, username string) models.User {
	return createUser(t, db, models.RoleTeacher, username, nil)
}

func createStudent(t *testing.T, db *gorm.DB, username, mssv string) models.User {
	return createUser(t, db, models.RoleStudent, username, &mssv)
}

func createTopic(t *testing.T, db *gorm.DB, teacherID uuid.UUID, maxStudents int, deadline time.Time) models.Topic {
	t.Helper()
	topic := models.Topic{
		ID:          uuid.New(),
		Title:       "Đề tài " + uuid.New().String()[:8],
		Description: "Mô tả đề tài",
		MaxStudents: maxStudents,
		TeacherID:   teacherID,
		Status:      models.TopicOpen,
		Deadline:    deadline,
	}
	if err := db.Create(&topic).Error; err != nil {
		t.Fatalf("tạo topic thất bại: %v", err)
	}
	return topic
}

func tokenFor(t *testing.T, user models.User) string {
	t.Helper()
	token, err := utils.GenerateToken(user.ID.String(), string(user.Role))
	if err != nil {
		t.Fatalf("tạo token thất bại: %v", err)
	}
	return token
}

func doJSON(r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doMultipart(r *gin.Engine, path, token, field, filename string, content []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile(field, filename)
	fw.Write(content)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// selectedCount phải luôn khớp số selection đang active của đề tài
func assertCounterConsistent(t *testing.T, db *gorm.DB, topicID uuid.UUID) {
	t.Helper()

	var topic models.Topic
	if err := db.First(&topic, "id = ?", topicID).Error; err != nil {
		t.Fatalf("không đọc được topic: %v", err)
	}

	var active int64
	db.Model(&models.TopicSelection{}).
		Where("topic_id = ? AND status IN ?", topicID, []models.SelectionStatus{models.SelectionPending, models.SelectionApproved}).
		Count(&active)

	if int64(topic.SelectedCount) != active {
		t.Fatalf("selected_count=%d nhưng số selection active=%d", topic.SelectedCount, active)
	}
}
