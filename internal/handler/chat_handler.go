package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"alumniverse/internal/model"
	"alumniverse/internal/realtime"
	"alumniverse/internal/repository"
	"alumniverse/internal/service"
	"alumniverse/pkg/log"
	"alumniverse/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	defaultReadLimit = 16 << 10 // 16KB
	pongWait         = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// 聊天协议的入站帧。客户端每条消息是一个 JSON 对象，
// type 决定语义：joinRoom 加入会话房间，sendMessage 发送消息。
type inboundFrame struct {
	Type           string `json:"type"`
	ConversationID uint   `json:"conversationId"`
	Content        string `json:"content"`
}

// joinedFrame 是加入房间成功的确认帧。
type joinedFrame struct {
	Type           string `json:"type"`
	ConversationID uint   `json:"conversationId"`
}

// errorFrame 是出站的业务错误帧，连接保持打开。
type errorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// connectErrorFrame 在连接级错误（认证失败）时发送，随后连接被关闭。
type connectErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ChatHandler 负责处理 WebSocket 聊天连接。
type ChatHandler struct {
	chatService    service.ChatService
	jwtManager     *token.JWTManager
	readLimit      int64
	sendBufferSize int
}

// NewChatHandler 创建一个新的 ChatHandler 实例。
func NewChatHandler(chatService service.ChatService, jwtManager *token.JWTManager, readLimitBytes, sendBufferSize int) *ChatHandler {
	limit := int64(readLimitBytes)
	if limit <= 0 {
		limit = defaultReadLimit
	}
	return &ChatHandler{
		chatService:    chatService,
		jwtManager:     jwtManager,
		readLimit:      limit,
		sendBufferSize: sendBufferSize,
	}
}

// Handle 处理一个传入的 WebSocket 连接。
// 认证使用 token 查询参数：缺失时直接拒绝升级；token 无效时
// 升级连接后发送 connectError 帧再关闭，让客户端能够区分认证失败与网络故障。
func (h *ChatHandler) Handle(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 token 参数"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("WebSocket 升级失败: %v", err)
		return
	}

	claims, err := h.jwtManager.VerifyToken(tokenString)
	if err != nil {
		h.rejectConnection(ws, "无效或已过期的 token")
		return
	}

	// 会话只需要用户身份，参与者校验以数据库中的会话记录为准
	user := &model.User{ID: claims.UserID, Name: claims.Name, Role: claims.Role}

	conn := realtime.NewConnection(user.ID, ws, h.sendBufferSize)
	conn.Start()

	session := h.chatService.NewSession(user, conn)
	defer session.Close()

	log.Infof("WebSocket 连接已建立: userID=%d, connID=%s", user.ID, conn.ID)
	h.readLoop(c, ws, conn, session)
	log.Infof("WebSocket 连接已断开: userID=%d, connID=%s", user.ID, conn.ID)
}

// rejectConnection 发送 connectError 帧后关闭连接。
func (h *ChatHandler) rejectConnection(ws *websocket.Conn, message string) {
	frame, _ := json.Marshal(connectErrorFrame{Type: "connectError", Message: message})
	_ = ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
	_ = ws.WriteMessage(websocket.TextMessage, frame)
	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "authentication failed"),
		time.Now().Add(10*time.Second))
	_ = ws.Close()
}

// readLoop 串行消费该连接上的入站帧，直到连接断开。
func (h *ChatHandler) readLoop(c *gin.Context, ws *websocket.Conn, conn *realtime.Connection, session *service.ChatSession) {
	ws.SetReadLimit(h.readLimit)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnf("从 WebSocket 读取消息失败: %v", err)
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			h.sendError(conn, "badFrame", "无法解析消息帧")
			continue
		}

		switch frame.Type {
		case "joinRoom":
			h.handleJoin(c, conn, session, frame)
		case "sendMessage":
			h.handleSend(c, conn, session, frame)
		default:
			h.sendError(conn, "badFrame", "未知的消息类型: "+frame.Type)
		}
	}
}

func (h *ChatHandler) handleJoin(c *gin.Context, conn *realtime.Connection, session *service.ChatSession, frame inboundFrame) {
	conv, err := session.Join(c.Request.Context(), frame.ConversationID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrConversationNotFound):
			h.sendError(conn, "notFound", "会话不存在")
		case errors.Is(err, service.ErrNotAParticipant):
			h.sendError(conn, "notAParticipant", "你不是该会话的参与者")
		default:
			log.Errorf("joinRoom 失败: userID=%d, conversationID=%d, error: %v", session.User().ID, frame.ConversationID, err)
			h.sendError(conn, "joinFailed", "加入会话失败")
		}
		return
	}

	ack, err := json.Marshal(joinedFrame{Type: "joined", ConversationID: conv.ID})
	if err != nil {
		return
	}
	if err := conn.Send(ack); err != nil {
		log.Warnf("发送 joined 确认帧失败: %v", err)
	}
}

func (h *ChatHandler) handleSend(c *gin.Context, conn *realtime.Connection, session *service.ChatSession, frame inboundFrame) {
	_, err := session.Send(c.Request.Context(), frame.ConversationID, frame.Content)
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, service.ErrNotJoined):
		h.sendError(conn, "notJoined", "发送消息前需要先加入会话")
	case errors.Is(err, service.ErrEmptyContent):
		h.sendError(conn, "emptyContent", "消息内容不能为空")
	default:
		log.Errorf("sendMessage 失败: userID=%d, conversationID=%d, error: %v", session.User().ID, session.Joined(), err)
		h.sendError(conn, "sendFailed", "消息发送失败")
	}
}

func (h *ChatHandler) sendError(conn *realtime.Connection, code, message string) {
	frame, err := json.Marshal(errorFrame{Type: "error", Code: code, Message: message})
	if err != nil {
		return
	}
	if err := conn.Send(frame); err != nil {
		log.Warnf("发送错误帧失败: %v", err)
	}
}
