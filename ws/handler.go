package ws

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/vnkhanh/thesis-selection-backend/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // chỉ để phát triển, nên giới hạn ở production
	},
}

// WebSocket nhận sự kiện selection_changed / thesis_changed,
// token truyền qua query vì trình duyệt không gửi được header khi mở ws
func HandleStatusWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Thiếu token"})
		return
	}
	claims, err := utils.VerifyToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Token không hợp lệ hoặc hết hạn"})
		return
	}

	userID := claims.UserID
	log.Printf("Status WS connected: userID=%s\n", userID)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade thất bại:", err)
		return
	}
	H.Register(conn)
	defer H.Unregister(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	log.Printf("Status WS disconnected: userID=%s\n", userID)
	conn.Close()
}
