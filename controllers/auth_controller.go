package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vnkhanh/thesis-selection-backend/config"
	"github.com/vnkhanh/thesis-selection-backend/models"
	"github.com/vnkhanh/thesis-selection-backend/utils"
)

// ====== INPUT STRUCTS ======
type RegisterInput struct {
	Username   string          `json:"username" binding:"required,min=3,max=50"`
	Password   string          `json:"password" binding:"required,min=6"`
	Name       string          `json:"name" binding:"required"`
	Role       models.UserRole `json:"role" binding:"required,oneof=student teacher"`
	StudentID  string          `json:"student_id"`
	Department string          `json:"department"`
}

type LoginInput struct {
	Username string          `json:"username" binding:"required"`
	Password string          `json:"password" binding:"required"`
	Role     models.UserRole `json:"role" binding:"required"`
}

// ====== HANDLERS ======
func Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	// Check username tồn tại
	var existing models.User
	if err := config.DB.Where("username = ?", input.Username).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Tên đăng nhập đã tồn tại"})
		return
	}

	// Sinh viên bắt buộc có mã số, và mã số không được trùng
	var studentID *string
	if input.Role == models.RoleStudent {
		if input.StudentID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Sinh viên phải nhập mã số sinh viên"})
			return
		}
		if err := config.DB.Where("student_id = ?", input.StudentID).First(&existing).Error; err == nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Mã số sinh viên đã tồn tại"})
			return
		}
		studentID = &input.StudentID
	}

	// Hash password
	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Không thể mã hoá mật khẩu"})
		return
	}

	newUser := models.User{
		ID:         uuid.New(),
		Username:   input.Username,
		Password:   string(hashed),
		Name:       input.Name,
		Role:       input.Role,
		StudentID:  studentID,
		Department: input.Department,
	}

	if err := config.DB.Create(&newUser).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi khi tạo người dùng"})
		return
	}

	token, err := utils.GenerateToken(newUser.ID.String(), string(newUser.Role))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Không thể tạo token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Đăng ký thành công",
		"data": gin.H{
			"token": token,
			"user": gin.H{
				"id":         newUser.ID,
				"username":   newUser.Username,
				"name":       newUser.Name,
				"role":       newUser.Role,
				"student_id": newUser.StudentID,
				"department": newUser.Department,
			},
		},
	})
}

func Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	var user models.User
	if err := config.DB.Where("username = ?", input.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Tên đăng nhập hoặc mật khẩu không đúng"})
		return
	}

	// Vai trò chọn trên form đăng nhập phải khớp với tài khoản
	if user.Role != input.Role {
		hint := "(giảng viên)"
		if user.Role == models.RoleStudent {
			hint = "(sinh viên)"
		}
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Vui lòng chọn đúng vai trò đăng nhập " + hint})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Tên đăng nhập hoặc mật khẩu không đúng"})
		return
	}

	token, err := utils.GenerateToken(user.ID.String(), string(user.Role))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Không thể tạo token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Đăng nhập thành công",
		"data": gin.H{
			"token": token,
			"user": gin.H{
				"id":         user.ID,
				"username":   user.Username,
				"name":       user.Name,
				"role":       user.Role,
				"student_id": user.StudentID,
				"department": user.Department,
			},
		},
	})
}
