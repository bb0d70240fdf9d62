package model

import "time"

// Post 对应于数据库中的 'posts' 表，代表动态墙上的一条帖子。
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AuthorID  uint      `gorm:"index;not null" json:"authorId"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Post) TableName() string {
	return "posts"
}

// Job 对应于数据库中的 'jobs' 表，代表校友发布的职位信息。
type Job struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PostedByID  uint      `gorm:"index;not null" json:"postedById"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Company     string    `gorm:"type:varchar(255);not null" json:"company"`
	Location    string    `gorm:"type:varchar(255)" json:"location"`
	Description string    `gorm:"type:text" json:"description"`
	ApplyLink   string    `gorm:"type:varchar(512)" json:"applyLink"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Job) TableName() string {
	return "jobs"
}

// Startup 对应于数据库中的 'startups' 表，代表创业项目展示信息。
type Startup struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FounderID uint      `gorm:"index;not null" json:"founderId"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Pitch     string    `gorm:"type:text;not null" json:"pitch"`
	Website   string    `gorm:"type:varchar(512)" json:"website"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Startup) TableName() string {
	return "startups"
}
