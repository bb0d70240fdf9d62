package repository

import (
	"alumniverse/internal/model"

	"gorm.io/gorm"
)

// ConnectionRepository 接口定义了连接请求的持久化操作。
type ConnectionRepository interface {
	Create(conn *model.Connection) error
	FindByID(connectionID uint) (*model.Connection, error)
	// FindBetween 查找两个用户之间的连接请求（不区分方向）。
	FindBetween(userX, userY uint) (*model.Connection, error)
	ListForUser(userID uint, status string) ([]model.Connection, error)
	Update(conn *model.Connection) error
}

type connectionRepository struct {
	db *gorm.DB
}

// NewConnectionRepository 创建一个新的 ConnectionRepository 实例。
func NewConnectionRepository(db *gorm.DB) ConnectionRepository {
	return &connectionRepository{db: db}
}

func (r *connectionRepository) Create(conn *model.Connection) error {
	return r.db.Create(conn).Error
}

func (r *connectionRepository) FindByID(connectionID uint) (*model.Connection, error) {
	var conn model.Connection
	err := r.db.First(&conn, connectionID).Error
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

// FindBetween 查找两个用户之间的连接请求，方向不限。
func (r *connectionRepository) FindBetween(userX, userY uint) (*model.Connection, error) {
	var conn model.Connection
	err := r.db.
		Where("(requester_id = ? AND recipient_id = ?) OR (requester_id = ? AND recipient_id = ?)",
			userX, userY, userY, userX).
		First(&conn).Error
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

// ListForUser 列出用户作为请求方或接收方的连接请求，可按状态过滤。
func (r *connectionRepository) ListForUser(userID uint, status string) ([]model.Connection, error) {
	var conns []model.Connection
	query := r.db.Where("requester_id = ? OR recipient_id = ?", userID, userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("created_at DESC").Find(&conns).Error
	return conns, err
}

func (r *connectionRepository) Update(conn *model.Connection) error {
	return r.db.Save(conn).Error
}
