package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ThesisStatus string

const (
	ThesisSubmitted ThesisStatus = "submitted"
	ThesisReviewed  ThesisStatus = "reviewed"
	ThesisRejected  ThesisStatus = "rejected"
)

// Annotation là 1 ghi chú của giảng viên trên luận văn
type Annotation struct {
	Page    int    `json:"page"`
	Content string `json:"content"`
}

// AnnotationList lưu dạng JSON trong DB
type AnnotationList []Annotation

func (a AnnotationList) Value() (driver.Value, error) {
	if a == nil {
		a = AnnotationList{}
	}
	return json.Marshal(a)
}

func (a *AnnotationList) Scan(value interface{}) error {
	if value == nil {
		*a = AnnotationList{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("kiểu dữ liệu annotations không hợp lệ")
	}
	return json.Unmarshal(raw, a)
}

// Thesis: luận văn đã nộp của 1 selection được duyệt, mỗi cặp (topic, student) chỉ có 1 bản ghi.
// Nộp lại sẽ ghi đè file cũ và đưa status về submitted.
type Thesis struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TopicID       uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_thesis_topic_student" json:"topic_id"`
	Topic         Topic          `gorm:"foreignKey:TopicID;constraint:OnDelete:CASCADE;" json:"topic,omitempty"`
	StudentID     uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_thesis_topic_student" json:"student_id"`
	Student       User           `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE;" json:"student,omitempty"`
	FileURL       string         `gorm:"type:text;not null" json:"file_url"` // đường dẫn tương đối trong thư mục uploads
	OriginalName  string         `gorm:"size:255" json:"original_name"`
	FileSize      int64          `json:"file_size"` // bytes
	Status        ThesisStatus   `gorm:"type:varchar(20);not null;default:'submitted'" json:"status"`
	Score         *int           `json:"score"` // 0-100, null khi chưa chấm
	Feedback      string         `gorm:"type:text" json:"feedback"`
	Annotations   AnnotationList `gorm:"type:text" json:"annotations"`
	ExtractedText string         `gorm:"type:text" json:"extracted_text"` // bản xem trước trích từ file PDF
	SubmittedAt   time.Time      `json:"submitted_at"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t *Thesis) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
