package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alumniverse/internal/model"
	"alumniverse/internal/repository"
	"alumniverse/pkg/log"
	"alumniverse/pkg/tasks"

	"gorm.io/gorm"
)

// 连接请求被接受时双方各自获得的积分。
const pointsConnectionAccepted = 10

// PointsPublisher 将一个积分事件投递到消息队列。
type PointsPublisher interface {
	Publish(ctx context.Context, event tasks.ActivityPointsEvent) error
}

// PointsPublisherFunc 让普通函数可以充当 PointsPublisher。
type PointsPublisherFunc func(ctx context.Context, event tasks.ActivityPointsEvent) error

func (f PointsPublisherFunc) Publish(ctx context.Context, event tasks.ActivityPointsEvent) error {
	return f(ctx, event)
}

// ConnectionView 是连接请求的展示形态，附带对方用户的简要信息。
type ConnectionView struct {
	ID        uint       `json:"id"`
	Requester *UserBrief `json:"requester"`
	Recipient *UserBrief `json:"recipient"`
	Status    string     `json:"status"`
	Message   string     `json:"message,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// ConnectionService 接口定义了用户之间连接请求的业务逻辑。
type ConnectionService interface {
	// Request 创建一个从 requester 到 recipient 的连接请求。
	Request(ctx context.Context, requesterID, recipientID uint, message string) (*model.Connection, error)
	// Respond 由接收方接受或拒绝一个待处理的连接请求。
	// 接受时会为双方创建会话并投递积分事件。
	Respond(ctx context.Context, connectionID, userID uint, accept bool) (*model.Connection, error)
	List(ctx context.Context, userID uint, status string) ([]ConnectionView, error)
}

type connectionService struct {
	connRepo  repository.ConnectionRepository
	convRepo  repository.ConversationRepository
	userRepo  repository.UserRepository
	publisher PointsPublisher
}

// NewConnectionService 创建一个新的 ConnectionService 实例。
func NewConnectionService(connRepo repository.ConnectionRepository, convRepo repository.ConversationRepository, userRepo repository.UserRepository, publisher PointsPublisher) ConnectionService {
	return &connectionService{
		connRepo:  connRepo,
		convRepo:  convRepo,
		userRepo:  userRepo,
		publisher: publisher,
	}
}

// Request 创建连接请求，同一对用户之间只允许存在一条记录。
func (s *connectionService) Request(ctx context.Context, requesterID, recipientID uint, message string) (*model.Connection, error) {
	if requesterID == recipientID {
		return nil, ErrSelfConnection
	}

	// 接收方必须存在
	if _, err := s.userRepo.FindByID(recipientID); err != nil {
		return nil, err
	}

	// 两人之间已有请求（无论方向与状态）时拒绝重复创建
	if _, err := s.connRepo.FindBetween(requesterID, recipientID); err == nil {
		return nil, ErrAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing connection: %w", err)
	}

	conn := &model.Connection{
		RequesterID: requesterID,
		RecipientID: recipientID,
		Status:      model.ConnectionPending,
		Message:     message,
	}
	if err := s.connRepo.Create(conn); err != nil {
		return nil, fmt.Errorf("failed to create connection request: %w", err)
	}
	return conn, nil
}

// Respond 处理接收方对连接请求的答复。
func (s *connectionService) Respond(ctx context.Context, connectionID, userID uint, accept bool) (*model.Connection, error) {
	conn, err := s.connRepo.FindByID(connectionID)
	if err != nil {
		return nil, err
	}
	if conn.RecipientID != userID {
		return nil, ErrNotRecipient
	}
	if conn.Status != model.ConnectionPending {
		return nil, ErrAlreadyDecided
	}

	if !accept {
		conn.Status = model.ConnectionRejected
		if err := s.connRepo.Update(conn); err != nil {
			return nil, fmt.Errorf("failed to update connection: %w", err)
		}
		return conn, nil
	}

	conn.Status = model.ConnectionAccepted
	if err := s.connRepo.Update(conn); err != nil {
		return nil, fmt.Errorf("failed to update connection: %w", err)
	}

	// 建立连接后自动为双方创建会话，聊天入口立即可用
	if _, err := s.convRepo.GetOrCreate(ctx, conn.RequesterID, conn.RecipientID); err != nil {
		log.Errorf("为连接 %d 创建会话失败: %v", conn.ID, err)
	}

	// 双方各自获得积分，投递失败只记录日志
	s.publishPoints(ctx, conn.RequesterID)
	s.publishPoints(ctx, conn.RecipientID)

	return conn, nil
}

// List 返回用户的连接请求列表，并附带双方的用户简要信息。
func (s *connectionService) List(ctx context.Context, userID uint, status string) ([]ConnectionView, error) {
	conns, err := s.connRepo.ListForUser(userID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}

	// 批量取出涉及到的所有用户
	idSet := make(map[uint]struct{}, len(conns)*2)
	for _, c := range conns {
		idSet[c.RequesterID] = struct{}{}
		idSet[c.RecipientID] = struct{}{}
	}
	ids := make([]uint, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	users, err := s.userRepo.FindByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	byID := make(map[uint]*UserBrief, len(users))
	for i := range users {
		u := &users[i]
		byID[u.ID] = &UserBrief{ID: u.ID, Name: u.Name, Role: u.Role, ProfilePicture: u.ProfilePicture}
	}

	views := make([]ConnectionView, 0, len(conns))
	for _, c := range conns {
		views = append(views, ConnectionView{
			ID:        c.ID,
			Requester: byID[c.RequesterID],
			Recipient: byID[c.RecipientID],
			Status:    c.Status,
			Message:   c.Message,
			CreatedAt: c.CreatedAt,
		})
	}
	return views, nil
}

func (s *connectionService) publishPoints(ctx context.Context, userID uint) {
	event := tasks.ActivityPointsEvent{
		UserID:     userID,
		Action:     tasks.ActionConnectionAccepted,
		Points:     pointsConnectionAccepted,
		OccurredAt: time.Now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Errorf("投递积分事件失败: userID=%d, action=%s, error: %v", event.UserID, event.Action, err)
	}
}
