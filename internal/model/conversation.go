// Package model 包含了应用的数据模型定义。
package model

import "time"

// Conversation 代表两个用户之间的一条私信会话。
// 参与者按 ID 归一化存储（ParticipantAID < ParticipantBID），
// 配合唯一索引保证每对用户只有一条会话，创建后参与者不可变更。
type Conversation struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	ParticipantAID uint `gorm:"uniqueIndex:idx_conversation_pair;not null" json:"participantAId"`
	ParticipantBID uint `gorm:"uniqueIndex:idx_conversation_pair;not null" json:"participantBId"`

	// LastMessageSummary 是最近一条消息的反范式化缓存，用于侧边栏快速展示。
	// 与该会话中 createdAt 最大的 Message 保持一致，由消息写入事务维护。
	LastMessageSummary string     `gorm:"type:varchar(255)" json:"lastMessageSummary"`
	LastMessageAt      *time.Time `json:"lastMessageAt"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// NormalizePair 将一对无序的用户 ID 归一化为 (小, 大) 的有序对。
func NormalizePair(x, y uint) (a, b uint) {
	if x <= y {
		return x, y
	}
	return y, x
}

// HasParticipant 判断给定用户是否是该会话的参与者之一。
func (c *Conversation) HasParticipant(userID uint) bool {
	return c.ParticipantAID == userID || c.ParticipantBID == userID
}

// OtherParticipant 返回会话中另一位参与者的 ID。
// 调用方需先通过 HasParticipant 确认 userID 属于该会话。
func (c *Conversation) OtherParticipant(userID uint) uint {
	if c.ParticipantAID == userID {
		return c.ParticipantBID
	}
	return c.ParticipantAID
}

// Message 代表会话中的一条不可变消息。
// ID 与 CreatedAt 由存储层在持久化时分配，不接受客户端提供的时间戳。
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"index;not null" json:"conversationId"`
	SenderID       uint      `gorm:"not null" json:"senderId"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Message) TableName() string {
	return "messages"
}
