// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// 用户角色与认证方式的合法取值。
const (
	RoleStudent = "student"
	RoleAlumni  = "alumni"

	AuthMethodTraditional = "traditional"
	AuthMethodGoogle      = "google"
)

// User 对应于数据库中的 'users' 表，是校友与学生共用的身份记录。
type User struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	Name       string  `gorm:"type:varchar(100);not null" json:"name"`
	Email      string  `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password   string  `gorm:"type:varchar(100)" json:"-"` // Google 登录的用户没有密码
	GoogleID   *string `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	AuthMethod string  `gorm:"type:varchar(20);not null;default:traditional" json:"authMethod"`
	Role       string  `gorm:"type:varchar(20);not null" json:"role"` // student 或 alumni

	// --- 个人资料 ---
	CollegeName    string `gorm:"type:varchar(255)" json:"collegeName"`
	ProfilePicture string `gorm:"type:varchar(512)" json:"profilePicture"`
	IsOnboarded    bool   `gorm:"not null;default:false" json:"isOnboarded"`

	// --- 积分系统 ---
	Points int `gorm:"not null;default:0" json:"points"`

	// --- 校友字段 ---
	GraduationYear int    `json:"graduationYear,omitempty"`
	CurrentCompany string `gorm:"type:varchar(255)" json:"currentCompany,omitempty"`
	JobTitle       string `gorm:"type:varchar(255)" json:"jobTitle,omitempty"`

	// --- 学生字段 ---
	ExpectedGraduationYear int    `json:"expectedGraduationYear,omitempty"`
	Major                  string `gorm:"type:varchar(255)" json:"major,omitempty"`
	CareerGoals            string `gorm:"type:text" json:"careerGoals,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (User) TableName() string {
	return "users"
}
