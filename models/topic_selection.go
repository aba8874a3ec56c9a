package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SelectionStatus string

const (
	SelectionPending  SelectionStatus = "pending"
	SelectionApproved SelectionStatus = "approved"
	SelectionRejected SelectionStatus = "rejected"
)

// TopicSelection là 1 dòng trong sổ chọn đề tài: sinh viên nào đăng ký đề tài nào.
// Vòng đời: pending -> approved/rejected (giảng viên duyệt), sinh viên huỷ thì xoá dòng.
type TopicSelection struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TopicID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_student_topic" json:"topic_id"`
	Topic     Topic           `gorm:"foreignKey:TopicID;constraint:OnDelete:CASCADE;" json:"topic,omitempty"`
	StudentID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_student_topic" json:"student_id"`
	Student   User            `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE;" json:"student,omitempty"`
	Status    SelectionStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Feedback  string          `gorm:"type:text" json:"feedback"`
	ApprovedAt *time.Time     `json:"approved_at"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsActive: selection còn chiếm chỗ trong đề tài hay không
func (s SelectionStatus) IsActive() bool {
	return s == SelectionPending || s == SelectionApproved
}

func (ts *TopicSelection) BeforeCreate(tx *gorm.DB) error {
	if ts.ID == uuid.Nil {
		ts.ID = uuid.New()
	}
	return nil
}
