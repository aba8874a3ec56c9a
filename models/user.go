package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin   UserRole = "admin"   // Quản trị hệ thống
	RoleTeacher UserRole = "teacher" // Giảng viên (ra đề tài, duyệt chọn đề tài, chấm luận văn)
	RoleStudent UserRole = "student" // Sinh viên (chọn đề tài, nộp luận văn)
)

type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username       string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Password       string    `gorm:"type:text;not null" json:"-"`
	Name           string    `gorm:"size:50;not null" json:"name"`
	Role           UserRole  `gorm:"type:varchar(20);not null;default:'student'" json:"role"`
	StudentID      *string   `gorm:"size:20;uniqueIndex" json:"student_id"` // mã số sinh viên, chỉ có với role student
	Email          *string   `gorm:"size:100" json:"email"`
	Department     string    `gorm:"size:100" json:"department"`
	Bio            string    `gorm:"type:text" json:"bio"`
	Title          string    `gorm:"size:50" json:"title"`          // học hàm/học vị của giảng viên
	ResearchArea   string    `gorm:"size:200" json:"research_area"` // hướng nghiên cứu
	OfficeLocation string    `gorm:"size:100" json:"office_location"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Quan hệ
	Topics []Topic `gorm:"foreignKey:TeacherID" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
