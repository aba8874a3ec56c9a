package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vnkhanh/thesis-selection-backend/config"
	"github.com/vnkhanh/thesis-selection-backend/models"
	"github.com/vnkhanh/thesis-selection-backend/utils"
)

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Thử Authorization header trước
		authHeader := c.GetHeader("Authorization")

		var tokenString string
		if authHeader != "" {
			// Tách token khỏi chuỗi "Bearer <token>"
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authorization header không hợp lệ"})
				c.Abort()
				return
			}
			tokenString = parts[1]
		} else {
			// Nếu không có header, thử query ?token= (cho link download và websocket)
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Thiếu token xác thực"})
			c.Abort()
			return
		}

		claims, err := utils.VerifyToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Token không hợp lệ hoặc hết hạn"})
			c.Abort()
			return
		}

		// Kiểm tra user còn tồn tại trong DB
		var user models.User
		if err := config.DB.Select("id").First(&user, "id = ?", claims.UserID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Không tìm thấy người dùng"})
			c.Abort()
			return
		}

		// Lưu thông tin vào context để controller dùng
		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}
