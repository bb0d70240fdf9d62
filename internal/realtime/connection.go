// Package realtime 实现了聊天消息的实时路由：
// 每个 WebSocket 连接由 Connection 封装，Router 负责把消息
// 转发给同一会话房间内的其他在线成员。
package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pingPeriod        = 30 * time.Second
	defaultSendBuffer = 128
)

// ErrConnectionClosed 表示向一个已关闭的连接投递消息。
var ErrConnectionClosed = errors.New("connection closed")

// Connection 封装一条 WebSocket 连接，出站消息经由带缓冲的 channel
// 统一由写循环串行发送，因此可以被多个 goroutine 并发调用 Send。
type Connection struct {
	ID     string
	UserID uint

	ws    *websocket.Conn
	send  chan []byte
	once  sync.Once
	close chan struct{}
}

// NewConnection 为指定用户构造一个 Connection。
// bufferSize <= 0 时使用默认的发送缓冲区大小。
func NewConnection(userID uint, ws *websocket.Conn, bufferSize int) *Connection {
	if bufferSize <= 0 {
		bufferSize = defaultSendBuffer
	}
	return &Connection{
		ID:     uuid.NewString(),
		UserID: userID,
		ws:     ws,
		send:   make(chan []byte, bufferSize),
		close:  make(chan struct{}),
	}
}

// Start 启动写循环，每条连接必须且只能调用一次。
func (c *Connection) Start() {
	go c.writeLoop()
}

// Send 将 payload 入队等待投递。客户端消费过慢导致缓冲区占满时，
// 关闭该连接以保证背压有界，绝不阻塞调用方。
func (c *Connection) Send(payload []byte) error {
	select {
	case <-c.close:
		return ErrConnectionClosed
	case c.send <- payload:
		return nil
	default:
		c.Close(websocket.CloseGoingAway, "send buffer full")
		return errors.New("connection buffer exceeded")
	}
}

// Close 终止连接并停止写循环，可安全地重复调用。
func (c *Connection) Close(code int, reason string) {
	c.once.Do(func() {
		close(c.close)
		_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
		_ = c.ws.Close()
	})
}

func (c *Connection) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.close:
			return
		case msg := <-c.send:
			if err := c.writeMessage(msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.writePing(); err != nil {
				return
			}
		}
	}
}

func (c *Connection) writeMessage(payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

func (c *Connection) writePing() error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.PingMessage, nil)
}
