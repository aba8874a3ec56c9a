package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/vnkhanh/thesis-selection-backend/config"
	"github.com/vnkhanh/thesis-selection-backend/models"
)

// Lấy thông tin cá nhân
func GetProfile(c *gin.Context) {
	userID := c.GetString("user_id")

	var user models.User
	if err := config.DB.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Người dùng không tồn tại"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}

type UpdateProfileInput struct {
	Name           *string `json:"name"`
	Email          *string `json:"email" binding:"omitempty,email"`
	Department     *string `json:"department"`
	Bio            *string `json:"bio"`
	Title          *string `json:"title"`
	ResearchArea   *string `json:"research_area"`
	OfficeLocation *string `json:"office_location"`
	Password       *string `json:"password" binding:"omitempty,min=6"`
}

// Cập nhật thông tin cá nhân, chỉ ghi các field được gửi lên
func UpdateProfile(c *gin.Context) {
	userID := c.GetString("user_id")

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	var user models.User
	if err := config.DB.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Người dùng không tồn tại"})
		return
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Email != nil {
		updates["email"] = *input.Email
	}
	if input.Department != nil {
		updates["department"] = *input.Department
	}
	if input.Bio != nil {
		updates["bio"] = *input.Bio
	}
	if input.Title != nil {
		updates["title"] = *input.Title
	}
	if input.ResearchArea != nil {
		updates["research_area"] = *input.ResearchArea
	}
	if input.OfficeLocation != nil {
		updates["office_location"] = *input.OfficeLocation
	}
	if input.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Không thể mã hoá mật khẩu"})
			return
		}
		updates["password"] = string(hashed)
	}

	if len(updates) > 0 {
		if err := config.DB.Model(&user).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi khi cập nhật thông tin"})
			return
		}
	}

	config.DB.First(&user, "id = ?", userID)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Cập nhật thông tin thành công",
		"data":    user,
	})
}

// Đổi mật khẩu
type ChangePasswordInput struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

func ChangePassword(c *gin.Context) {
	db := config.DB
	userID := c.GetString("user_id")

	var input ChangePasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	// Lấy user hiện tại
	var user models.User
	if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Người dùng không tồn tại"})
		return
	}

	// Kiểm tra mật khẩu cũ
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.OldPassword)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Mật khẩu cũ không đúng"})
		return
	}

	// Mã hoá mật khẩu mới
	hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Không thể mã hoá mật khẩu mới"})
		return
	}

	// Cập nhật DB
	user.Password = string(hashed)
	if err := db.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi khi cập nhật mật khẩu"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Đổi mật khẩu thành công",
	})
}

// Danh sách giảng viên (public, dùng cho trang giới thiệu)
func GetTeachers(c *gin.Context) {
	var teachers []models.User
	if err := config.DB.
		Select("id", "name", "title", "department", "research_area", "bio", "email", "office_location").
		Where("role = ?", models.RoleTeacher).
		Order("name asc").
		Find(&teachers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Không thể lấy danh sách giảng viên"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": teachers})
}

func GetTeacherDetail(c *gin.Context) {
	id := c.Param("id")

	var teacher models.User
	if err := config.DB.
		Select("id", "name", "title", "department", "research_area", "bio", "email", "office_location").
		Where("id = ? AND role = ?", id, models.RoleTeacher).
		First(&teacher).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Giảng viên không tồn tại"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": teacher})
}
