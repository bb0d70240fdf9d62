// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"alumniverse/internal/model"

	"gorm.io/gorm"
)

// UserRepository 接口定义了用户数据的持久化操作。
type UserRepository interface {
	Create(user *model.User) error
	FindByID(userID uint) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	FindByGoogleID(googleID string) (*model.User, error)
	Update(user *model.User) error
	FindAll() ([]model.User, error)
	FindByIDs(userIDs []uint) ([]model.User, error)
	IncrementPoints(userID uint, delta int) error
}

// userRepository 是 UserRepository 接口的 GORM 实现。
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建一个新的 UserRepository 实例。
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create 在数据库中创建一个新的用户记录。
func (r *userRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

// FindByID 根据用户 ID 从数据库中查找一个用户。
func (r *userRepository) FindByID(userID uint) (*model.User, error) {
	var user model.User
	err := r.db.First(&user, userID).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail 根据邮箱从数据库中查找一个用户。
func (r *userRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByGoogleID 根据 Google 账号 ID 查找一个用户。
func (r *userRepository) FindByGoogleID(googleID string) (*model.User, error) {
	var user model.User
	err := r.db.Where("google_id = ?", googleID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update 更新数据库中一个已存在的用户记录。
func (r *userRepository) Update(user *model.User) error {
	return r.db.Save(user).Error
}

// FindAll 从数据库中检索所有用户记录。
func (r *userRepository) FindAll() ([]model.User, error) {
	var users []model.User
	err := r.db.Find(&users).Error
	return users, err
}

// FindByIDs 批量查找一组用户。
func (r *userRepository) FindByIDs(userIDs []uint) ([]model.User, error) {
	var users []model.User
	if len(userIDs) == 0 {
		return users, nil
	}
	err := r.db.Where("id IN ?", userIDs).Find(&users).Error
	return users, err
}

// IncrementPoints 原子地累加用户的积分。
func (r *userRepository) IncrementPoints(userID uint, delta int) error {
	return r.db.Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumn("points", gorm.Expr("points + ?", delta)).Error
}
