// Package tasks 定义了经由 Kafka 传递的异步任务的数据结构。
// 单独成包以避免生产者与消费者之间的循环依赖。
package tasks

import "time"

// 可获得积分的行为类型。
const (
	ActionPostCreated        = "post_created"
	ActionJobPosted          = "job_posted"
	ActionStartupShared      = "startup_shared"
	ActionConnectionAccepted = "connection_accepted"
)

// ActivityPointsEvent 代表一次可获得积分的用户行为。
// 由业务服务投递到 Kafka，排行榜消费者负责累加积分。
type ActivityPointsEvent struct {
	UserID     uint      `json:"userId"`
	Action     string    `json:"action"`
	Points     int       `json:"points"`
	OccurredAt time.Time `json:"occurredAt"`
}
