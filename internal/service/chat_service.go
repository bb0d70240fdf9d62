package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"alumniverse/internal/model"
	"alumniverse/internal/realtime"
	"alumniverse/internal/repository"
	"alumniverse/pkg/log"
)

// RoomRouter 抽象了聊天会话控制器对房间路由的依赖，由 *realtime.Router 实现。
type RoomRouter interface {
	Join(conversationID uint, conn *realtime.Connection)
	Detach(conn *realtime.Connection)
	Relay(conversationID uint, payload []byte, excludeConnID string) int
}

// ReceiveMessageFrame 是推送给房间内其他成员的消息帧。
type ReceiveMessageFrame struct {
	Type    string         `json:"type"`
	Message *model.Message `json:"message"`
}

// ChatService 负责为每条已认证的 WebSocket 连接创建会话控制器。
type ChatService interface {
	NewSession(user *model.User, conn *realtime.Connection) *ChatSession
}

type chatService struct {
	convRepo repository.ConversationRepository
	router   RoomRouter
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(convRepo repository.ConversationRepository, router RoomRouter) ChatService {
	return &chatService{convRepo: convRepo, router: router}
}

// NewSession 为一条已通过认证的连接创建会话控制器。
// 认证在 WebSocket 握手阶段完成，认证失败的连接不会走到这里。
func (s *chatService) NewSession(user *model.User, conn *realtime.Connection) *ChatSession {
	return &ChatSession{
		user:     user,
		conn:     conn,
		convRepo: s.convRepo,
		router:   s.router,
	}
}

// ChatSession 管理一条实时连接的生命周期：加入房间、发送消息、断开清理。
//
// 会话状态只被该连接的读循环这一个 goroutine 访问，因此 joined 等
// 字段不需要加锁；共享状态集中在 Router 内部由其自己的锁保护。
type ChatSession struct {
	user     *model.User
	conn     *realtime.Connection
	convRepo repository.ConversationRepository
	router   RoomRouter

	joined uint // 当前加入的会话 ID，0 表示未加入任何房间
	closed bool
}

// User 返回会话绑定的用户。
func (s *ChatSession) User() *model.User { return s.user }

// Joined 返回当前加入的会话 ID，未加入时为 0。
func (s *ChatSession) Joined() uint { return s.joined }

// Join 校验成员资格后将会话加入指定会话的房间。
// 已在其他房间时静默替换成员资格（退出旧房间、加入新房间）。
// 会话不存在时返回 repository.ErrConversationNotFound，
// 用户不是参与者时返回 ErrNotAParticipant 且成员资格不变。
func (s *ChatSession) Join(ctx context.Context, conversationID uint) (*model.Conversation, error) {
	if s.closed {
		return nil, ErrNotJoined
	}

	conv, err := s.convRepo.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(s.user.ID) {
		return nil, ErrNotAParticipant
	}

	s.router.Join(conversationID, s.conn)
	s.joined = conversationID
	return conv, nil
}

// Send 持久化一条消息并转发给房间内的其他在线成员。
//
// 顺序保证：先持久化、后转发，且本方法只被连接的读循环串行调用，
// 因此同一发送者的消息按 send 调用顺序到达所有在线成员（FIFO per sender）。
// 转发对在线成员是尽力而为的；持久化成功后即认为发送成功，
// 即便房间里没有其他在线成员（他们会通过历史拉取看到这条消息）。
func (s *ChatSession) Send(ctx context.Context, conversationID uint, content string) (*model.Message, error) {
	if s.closed || s.joined == 0 {
		return nil, ErrNotJoined
	}
	// 消息帧里的 conversationId 必须指向当前加入的房间
	if conversationID != 0 && conversationID != s.joined {
		return nil, ErrNotJoined
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	// 消息 ID 与时间戳由存储层在持久化时分配，避免客户端时钟漂移影响排序
	msg, err := s.convRepo.CreateMessage(ctx, s.joined, s.user.ID, content)
	if err != nil {
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}

	payload, err := json.Marshal(ReceiveMessageFrame{Type: "receiveMessage", Message: msg})
	if err != nil {
		// 消息已持久化，接收方仍会通过历史拉取看到它
		log.Errorf("[ChatSession] 序列化消息帧失败: %v", err)
		return msg, nil
	}
	s.router.Relay(s.joined, payload, s.conn.ID)
	return msg, nil
}

// Close 在连接断开时调用：退出所在房间并丢弃全部会话状态。
// 服务端不保留任何重连状态，客户端重连后需要重新认证并重新加入。
func (s *ChatSession) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.joined = 0
	s.router.Detach(s.conn)
}
