package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TopicStatus string

const (
	TopicOpen    TopicStatus = "open"
	TopicClosed  TopicStatus = "closed"
	TopicDeleted TopicStatus = "deleted"
)

type Topic struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Title        string      `gorm:"size:255;not null" json:"title"`
	Slug         string      `gorm:"size:255;index" json:"slug"`
	Description  string      `gorm:"type:text;not null" json:"description"`
	Requirements string      `gorm:"type:text" json:"requirements"`
	MaxStudents  int         `gorm:"not null;default:1" json:"max_students"`
	TeacherID    uuid.UUID   `gorm:"type:uuid;not null;index" json:"teacher_id"`
	Teacher      User        `gorm:"foreignKey:TeacherID;constraint:OnDelete:CASCADE;" json:"teacher"`
	// SelectedCount luôn bằng số selection đang active (pending/approved),
	// chỉ được thay đổi trong cùng transaction với bản ghi selection
	SelectedCount int         `gorm:"not null;default:0" json:"selected_count"`
	Status        TopicStatus `gorm:"type:varchar(20);not null;default:'open'" json:"status"`
	Deadline      time.Time   `gorm:"not null" json:"deadline"`
	CreatedAt     time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time   `gorm:"autoUpdateTime" json:"updated_at"`

	Selections []TopicSelection `gorm:"foreignKey:TopicID;constraint:OnDelete:CASCADE;" json:"selections,omitempty"`
}

func (t *Topic) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
