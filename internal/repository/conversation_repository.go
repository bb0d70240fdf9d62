// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"errors"

	"alumniverse/internal/model"

	"gorm.io/gorm"
)

// ErrConversationNotFound 表示操作的目标会话不存在。
var ErrConversationNotFound = errors.New("conversation not found")

// 侧边栏摘要的最大长度（按 rune 截断，避免截断多字节字符）。
const summaryMaxLen = 80

// ConversationRepository 定义了会话与消息的持久化操作接口。
// 它是实时聊天核心消费的 Conversation Store 契约。
type ConversationRepository interface {
	// GetOrCreate 返回这对用户的会话，不存在时创建。参与者对是无序的。
	GetOrCreate(ctx context.Context, userX, userY uint) (*model.Conversation, error)
	FindByID(ctx context.Context, conversationID uint) (*model.Conversation, error)
	// ListForUser 返回用户参与的全部会话，不保证顺序，由上层排序。
	ListForUser(ctx context.Context, userID uint) ([]model.Conversation, error)
	// CreateMessage 原子地完成三件事：校验会话存在、写入消息（由存储分配
	// ID 与时间戳）、更新会话的 lastMessageSummary 缓存。
	// 会话不存在时返回 ErrConversationNotFound。
	CreateMessage(ctx context.Context, conversationID, senderID uint, content string) (*model.Message, error)
	// ListMessages 返回会话的完整消息历史，按 createdAt 升序。
	ListMessages(ctx context.Context, conversationID uint) ([]model.Message, error)
}

// conversationRepository 是 ConversationRepository 接口的 GORM 实现。
type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository 创建一个新的 ConversationRepository 实例。
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

// GetOrCreate 返回这对用户的会话，不存在时创建。
// 参与者对归一化后写入，配合唯一索引保证每对用户仅有一条会话。
func (r *conversationRepository) GetOrCreate(ctx context.Context, userX, userY uint) (*model.Conversation, error) {
	a, b := model.NormalizePair(userX, userY)
	conv := model.Conversation{ParticipantAID: a, ParticipantBID: b}
	err := r.db.WithContext(ctx).
		Where("participant_a_id = ? AND participant_b_id = ?", a, b).
		FirstOrCreate(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// FindByID 根据会话 ID 查找会话。
func (r *conversationRepository) FindByID(ctx context.Context, conversationID uint) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.WithContext(ctx).First(&conv, conversationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return &conv, nil
}

// ListForUser 返回用户参与的全部会话。
func (r *conversationRepository) ListForUser(ctx context.Context, userID uint) ([]model.Conversation, error) {
	var convs []model.Conversation
	err := r.db.WithContext(ctx).
		Where("participant_a_id = ? OR participant_b_id = ?", userID, userID).
		Find(&convs).Error
	return convs, err
}

// CreateMessage 在一个事务中写入消息并维护会话的摘要缓存。
func (r *conversationRepository) CreateMessage(ctx context.Context, conversationID, senderID uint, content string) (*model.Message, error) {
	var msg *model.Message
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conv model.Conversation
		if err := tx.First(&conv, conversationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrConversationNotFound
			}
			return err
		}

		m := model.Message{
			ConversationID: conversationID,
			SenderID:       senderID,
			Content:        content,
		}
		if err := tx.Create(&m).Error; err != nil {
			return err
		}

		// 用本条消息刷新反范式化缓存；m.CreatedAt 由 GORM 在插入时分配
		if err := tx.Model(&model.Conversation{}).
			Where("id = ?", conversationID).
			Updates(map[string]interface{}{
				"last_message_summary": summarize(content),
				"last_message_at":      m.CreatedAt,
			}).Error; err != nil {
			return err
		}

		msg = &m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// ListMessages 返回会话的完整消息历史，按 createdAt 升序。
// ID 作为次级排序键，保证同一时间戳内的顺序稳定。
func (r *conversationRepository) ListMessages(ctx context.Context, conversationID uint) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	return msgs, err
}

// summarize 截断消息内容作为侧边栏摘要。
func summarize(content string) string {
	runes := []rune(content)
	if len(runes) <= summaryMaxLen {
		return content
	}
	return string(runes[:summaryMaxLen])
}
