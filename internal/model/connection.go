package model

import "time"

// 连接请求状态的合法取值。
const (
	ConnectionPending  = "pending"
	ConnectionAccepted = "accepted"
	ConnectionRejected = "rejected"
)

// Connection 对应于数据库中的 'connections' 表，代表一条导师/人脉连接请求。
// 请求被接受后，系统会为这对用户惰性创建会话。
type Connection struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RequesterID uint      `gorm:"index;not null" json:"requesterId"`
	RecipientID uint      `gorm:"index;not null" json:"recipientId"`
	Status      string    `gorm:"type:varchar(20);not null;default:pending" json:"status"`
	Message     string    `gorm:"type:text" json:"message"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Connection) TableName() string {
	return "connections"
}
