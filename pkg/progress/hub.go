// Package progress 把DagEngine/TaskSupervisor产生的实时事件，经由一个gin可挂载的
// websocket端点广播给所有订阅连接，落地 supervisor.ProgressSink。
package progress

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/workflow-master/core/pkg/core/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub 维护当前连接的websocket客户端集合，并把每个事件经DataBuffer背压后fan-out广播
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
	buf     *realtime.DataBuffer
}

// NewHub 创建一个Hub，capacity/threshold控制广播缓冲区的背压阈值
func NewHub(capacity int, threshold float64) *Hub {
	h := &Hub{
		clients: make(map[*websocket.Conn]chan []byte),
		buf:     realtime.NewDataBuffer(capacity, threshold),
	}
	h.buf.SetBackpressureCallback(func(usage float64) {
		log.Printf("⚠️ progress广播缓冲区占用率%.0f%%，已触发背压", usage*100)
	})
	go h.drain()
	return h
}

// Publish 实现 supervisor.ProgressSink：把一条任务事件封装为RealtimeEvent后排队广播
func (h *Hub) Publish(taskID, instanceID string, eventType string, payload interface{}) {
	ev := realtime.NewRealtimeEvent(realtime.EventType(eventType), taskID, instanceID, payload)
	if !h.buf.Push(ev) {
		log.Printf("⚠️ progress事件被丢弃（缓冲区已满）: task=%s instance=%s", taskID, instanceID)
	}
}

func (h *Hub) drain() {
	for {
		item := h.buf.PopBlocking()
		ev, ok := item.(*realtime.RealtimeEvent)
		if !ok {
			continue
		}
		data, err := json.Marshal(ev)
		if err != nil {
			log.Printf("⚠️ 序列化RealtimeEvent失败: %v", err)
			continue
		}
		h.broadcast(data)
	}
}

func (h *Hub) broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, send := range h.clients {
		select {
		case send <- data:
		default:
			log.Printf("⚠️ 客户端发送队列已满，断开连接: %s", conn.RemoteAddr())
			h.removeLocked(conn)
		}
	}
}

func (h *Hub) removeLocked(conn *websocket.Conn) {
	if send, ok := h.clients[conn]; ok {
		close(send)
		delete(h.clients, conn)
		conn.Close()
	}
}

// ServeWS 是可以直接挂到gin路由上的处理函数（GET /ws/progress）
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("⚠️ websocket升级失败: %v", err)
		return
	}

	send := make(chan []byte, 256)
	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()

	go h.writeLoop(conn, send)
	h.readLoop(conn)
}

func (h *Hub) writeLoop(conn *websocket.Conn, send <-chan []byte) {
	for data := range send {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

// readLoop只负责检测连接断开（客户端不会主动推送任何消息）
func (h *Hub) readLoop(conn *websocket.Conn) {
	defer func() {
		h.mu.Lock()
		h.removeLocked(conn)
		h.mu.Unlock()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
