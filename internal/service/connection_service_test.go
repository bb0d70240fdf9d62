package service

import (
	"context"
	"testing"

	"alumniverse/internal/model"
	"alumniverse/pkg/tasks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stubConnRepo 是 ConnectionRepository 的内存实现。
type stubConnRepo struct {
	conns  map[uint]*model.Connection
	nextID uint
}

func newStubConnRepo() *stubConnRepo {
	return &stubConnRepo{conns: make(map[uint]*model.Connection), nextID: 1}
}

func (r *stubConnRepo) Create(conn *model.Connection) error {
	conn.ID = r.nextID
	r.nextID++
	r.conns[conn.ID] = conn
	return nil
}

func (r *stubConnRepo) FindByID(connectionID uint) (*model.Connection, error) {
	if c, ok := r.conns[connectionID]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubConnRepo) FindBetween(userX, userY uint) (*model.Connection, error) {
	for _, c := range r.conns {
		if (c.RequesterID == userX && c.RecipientID == userY) ||
			(c.RequesterID == userY && c.RecipientID == userX) {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubConnRepo) ListForUser(userID uint, status string) ([]model.Connection, error) {
	var out []model.Connection
	for _, c := range r.conns {
		if c.RequesterID != userID && c.RecipientID != userID {
			continue
		}
		if status != "" && c.Status != status {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (r *stubConnRepo) Update(conn *model.Connection) error {
	r.conns[conn.ID] = conn
	return nil
}

// recordingPublisher 记录所有投递的积分事件。
type recordingPublisher struct {
	events []tasks.ActivityPointsEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event tasks.ActivityPointsEvent) error {
	p.events = append(p.events, event)
	return nil
}

func newConnectionFixture() (ConnectionService, *stubConnRepo, *stubConvRepo, *recordingPublisher) {
	connRepo := newStubConnRepo()
	convRepo := newStubConvRepo()
	userRepo := newStubUserRepo(
		&model.User{ID: 1, Name: "Alice", Role: model.RoleStudent},
		&model.User{ID: 2, Name: "Bob", Role: model.RoleAlumni},
	)
	pub := &recordingPublisher{}
	return NewConnectionService(connRepo, convRepo, userRepo, pub), connRepo, convRepo, pub
}

func TestConnectionService_Request(t *testing.T) {
	svc, _, _, _ := newConnectionFixture()

	conn, err := svc.Request(context.Background(), 1, 2, "hi Bob")
	require.NoError(t, err)
	assert.Equal(t, model.ConnectionPending, conn.Status)
	assert.Equal(t, uint(1), conn.RequesterID)
	assert.Equal(t, uint(2), conn.RecipientID)
}

func TestConnectionService_RequestValidation(t *testing.T) {
	svc, _, _, _ := newConnectionFixture()

	t.Run("self connection", func(t *testing.T) {
		_, err := svc.Request(context.Background(), 1, 1, "")
		assert.ErrorIs(t, err, ErrSelfConnection)
	})

	t.Run("unknown recipient", func(t *testing.T) {
		_, err := svc.Request(context.Background(), 1, 99, "")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("duplicate in either direction", func(t *testing.T) {
		_, err := svc.Request(context.Background(), 1, 2, "")
		require.NoError(t, err)

		_, err = svc.Request(context.Background(), 1, 2, "")
		assert.ErrorIs(t, err, ErrAlreadyExists)
		_, err = svc.Request(context.Background(), 2, 1, "")
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})
}

func TestConnectionService_Accept(t *testing.T) {
	svc, _, convRepo, pub := newConnectionFixture()

	conn, err := svc.Request(context.Background(), 1, 2, "")
	require.NoError(t, err)

	updated, err := svc.Respond(context.Background(), conn.ID, 2, true)
	require.NoError(t, err)
	assert.Equal(t, model.ConnectionAccepted, updated.Status)

	// 接受后自动创建会话
	convs, err := convRepo.ListForUser(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.True(t, convs[0].HasParticipant(2))

	// 双方各获得一条积分事件
	require.Len(t, pub.events, 2)
	seen := map[uint]bool{}
	for _, e := range pub.events {
		assert.Equal(t, tasks.ActionConnectionAccepted, e.Action)
		assert.Equal(t, pointsConnectionAccepted, e.Points)
		seen[e.UserID] = true
	}
	assert.True(t, seen[1])
	assert.True(t, seen[2])
}

func TestConnectionService_Reject(t *testing.T) {
	svc, _, convRepo, pub := newConnectionFixture()

	conn, err := svc.Request(context.Background(), 1, 2, "")
	require.NoError(t, err)

	updated, err := svc.Respond(context.Background(), conn.ID, 2, false)
	require.NoError(t, err)
	assert.Equal(t, model.ConnectionRejected, updated.Status)

	// 拒绝既不建会话也不发积分
	convs, _ := convRepo.ListForUser(context.Background(), 1)
	assert.Empty(t, convs)
	assert.Empty(t, pub.events)
}

func TestConnectionService_RespondGuards(t *testing.T) {
	svc, _, _, _ := newConnectionFixture()

	conn, err := svc.Request(context.Background(), 1, 2, "")
	require.NoError(t, err)

	t.Run("only recipient can respond", func(t *testing.T) {
		_, err := svc.Respond(context.Background(), conn.ID, 1, true)
		assert.ErrorIs(t, err, ErrNotRecipient)
	})

	t.Run("already decided", func(t *testing.T) {
		_, err := svc.Respond(context.Background(), conn.ID, 2, true)
		require.NoError(t, err)
		_, err = svc.Respond(context.Background(), conn.ID, 2, false)
		assert.ErrorIs(t, err, ErrAlreadyDecided)
	})

	t.Run("unknown connection", func(t *testing.T) {
		_, err := svc.Respond(context.Background(), 404, 2, true)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestConnectionService_List(t *testing.T) {
	svc, _, _, _ := newConnectionFixture()

	conn, err := svc.Request(context.Background(), 1, 2, "hello")
	require.NoError(t, err)

	views, err := svc.List(context.Background(), 2, model.ConnectionPending)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, conn.ID, views[0].ID)
	assert.Equal(t, "Alice", views[0].Requester.Name)
	assert.Equal(t, "Bob", views[0].Recipient.Name)
	assert.Equal(t, "hello", views[0].Message)

	// 状态过滤
	views, err = svc.List(context.Background(), 2, model.ConnectionAccepted)
	require.NoError(t, err)
	assert.Empty(t, views)
}
