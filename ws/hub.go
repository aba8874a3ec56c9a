package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

type Client struct {
	Conn *websocket.Conn
	Send chan []byte
}

type Hub struct {
	Clients map[*websocket.Conn]*Client
	Mutex   sync.RWMutex
}

var H = Hub{
	Clients: make(map[*websocket.Conn]*Client),
}

// Sự kiện gửi cho các dashboard đang mở (trang quản lý của giảng viên,
// trang chọn đề tài của sinh viên)
type Event struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

func (h *Hub) Register(conn *websocket.Conn) {
	h.Mutex.Lock()
	defer h.Mutex.Unlock()

	client := &Client{
		Conn: conn,
		Send: make(chan []byte, 256),
	}

	h.Clients[conn] = client

	// Chỉ chạy write pump; vòng đọc nằm ở handler để giữ connection
	go h.writePump(client)
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.Mutex.Lock()
	defer h.Mutex.Unlock()

	if client, ok := h.Clients[conn]; ok {
		close(client.Send)
		delete(h.Clients, conn)
	}
}

func (h *Hub) Broadcast(data []byte) {
	h.Mutex.RLock()
	defer h.Mutex.RUnlock()

	for _, client := range h.Clients {
		select {
		case client.Send <- data:
		default:
		}
	}
}

func broadcastEvent(eventType, id string) {
	data, err := json.Marshal(Event{Type: eventType, ID: id})
	if err != nil {
		log.Println("JSON marshal error:", err)
		return
	}
	H.Broadcast(data)
}

// BroadcastSelectionChanged báo các client reload danh sách đăng ký của 1 đề tài
func BroadcastSelectionChanged(topicID string) {
	broadcastEvent("selection_changed", topicID)
}

// BroadcastThesisChanged báo các client reload thông tin 1 luận văn
func BroadcastThesisChanged(thesisID string) {
	broadcastEvent("thesis_changed", thesisID)
}

func (h *Hub) writePump(client *Client) {
	defer func() {
		client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
		client.Conn.Close()
	}()
	for msg := range client.Send {
		if err := client.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}
