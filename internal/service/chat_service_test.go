package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"alumniverse/internal/model"
	"alumniverse/internal/realtime"
	"alumniverse/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubConvRepo 是 ConversationRepository 的内存实现，
// 消息 ID 与时间戳在 CreateMessage 时分配，与真实存储一致。
type stubConvRepo struct {
	convs  map[uint]*model.Conversation
	msgs   []model.Message
	nextID uint
}

func newStubConvRepo(convs ...*model.Conversation) *stubConvRepo {
	r := &stubConvRepo{convs: make(map[uint]*model.Conversation), nextID: 1}
	for _, c := range convs {
		r.convs[c.ID] = c
	}
	return r
}

func (r *stubConvRepo) GetOrCreate(ctx context.Context, userX, userY uint) (*model.Conversation, error) {
	a, b := model.NormalizePair(userX, userY)
	for _, c := range r.convs {
		if c.ParticipantAID == a && c.ParticipantBID == b {
			return c, nil
		}
	}
	conv := &model.Conversation{ID: uint(len(r.convs) + 1), ParticipantAID: a, ParticipantBID: b}
	r.convs[conv.ID] = conv
	return conv, nil
}

func (r *stubConvRepo) FindByID(ctx context.Context, conversationID uint) (*model.Conversation, error) {
	conv, ok := r.convs[conversationID]
	if !ok {
		return nil, repository.ErrConversationNotFound
	}
	return conv, nil
}

func (r *stubConvRepo) ListForUser(ctx context.Context, userID uint) ([]model.Conversation, error) {
	var out []model.Conversation
	for _, c := range r.convs {
		if c.HasParticipant(userID) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubConvRepo) CreateMessage(ctx context.Context, conversationID, senderID uint, content string) (*model.Message, error) {
	if _, ok := r.convs[conversationID]; !ok {
		return nil, repository.ErrConversationNotFound
	}
	msg := model.Message{
		ID:             r.nextID,
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	r.nextID++
	r.msgs = append(r.msgs, msg)
	return &msg, nil
}

func (r *stubConvRepo) ListMessages(ctx context.Context, conversationID uint) ([]model.Message, error) {
	var out []model.Message
	for _, m := range r.msgs {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

// recordedRelay 记录一次转发调用。
type recordedRelay struct {
	ConversationID uint
	Payload        []byte
	ExcludeConnID  string
}

// fakeRouter 记录所有路由调用，代替真实的 realtime.Router。
type fakeRouter struct {
	joins    []uint
	detached int
	relays   []recordedRelay
	members  map[uint]map[string]bool
}

func newFakeRouter() *fakeRouter {
	return &fakeRouter{members: make(map[uint]map[string]bool)}
}

func (f *fakeRouter) Join(conversationID uint, conn *realtime.Connection) {
	for _, room := range f.members {
		delete(room, conn.ID)
	}
	if f.members[conversationID] == nil {
		f.members[conversationID] = make(map[string]bool)
	}
	f.members[conversationID][conn.ID] = true
	f.joins = append(f.joins, conversationID)
}

func (f *fakeRouter) Detach(conn *realtime.Connection) {
	f.detached++
	for _, room := range f.members {
		delete(room, conn.ID)
	}
}

func (f *fakeRouter) Relay(conversationID uint, payload []byte, excludeConnID string) int {
	f.relays = append(f.relays, recordedRelay{conversationID, payload, excludeConnID})
	return len(f.members[conversationID])
}

// newTestSession 构造一个绑定了 stub 存储与 fake 路由的会话。
// Connection 不调用 Start，因此 nil 的底层 ws 不会被触碰。
func newTestSession(user *model.User, repo repository.ConversationRepository, router RoomRouter) *ChatSession {
	conn := realtime.NewConnection(user.ID, nil, 8)
	return NewChatService(repo, router).NewSession(user, conn)
}

func participants(a, b uint) *model.Conversation {
	pa, pb := model.NormalizePair(a, b)
	return &model.Conversation{ID: 1, ParticipantAID: pa, ParticipantBID: pb}
}

func TestChatSession_JoinAndSend(t *testing.T) {
	alice := &model.User{ID: 1, Name: "Alice"}
	repo := newStubConvRepo(participants(1, 2))
	router := newFakeRouter()
	session := newTestSession(alice, repo, router)

	conv, err := session.Join(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, uint(1), conv.ID)
	assert.Equal(t, uint(1), session.Joined())

	msg, err := session.Send(context.Background(), 1, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, uint(1), msg.SenderID)
	assert.NotZero(t, msg.ID)
	assert.False(t, msg.CreatedAt.IsZero())

	// 转发的帧是 receiveMessage 且排除了发送者自己的连接
	require.Len(t, router.relays, 1)
	var frame ReceiveMessageFrame
	require.NoError(t, json.Unmarshal(router.relays[0].Payload, &frame))
	assert.Equal(t, "receiveMessage", frame.Type)
	assert.Equal(t, "hello", frame.Message.Content)
	assert.NotEmpty(t, router.relays[0].ExcludeConnID)
}

func TestChatSession_SendOrderIsFIFO(t *testing.T) {
	alice := &model.User{ID: 1}
	repo := newStubConvRepo(participants(1, 2))
	router := newFakeRouter()
	session := newTestSession(alice, repo, router)

	_, err := session.Join(context.Background(), 1)
	require.NoError(t, err)

	contents := []string{"first", "second", "third"}
	for _, c := range contents {
		_, err := session.Send(context.Background(), 1, c)
		require.NoError(t, err)
	}

	// 持久化顺序与转发顺序都与发送顺序一致
	msgs, err := repo.ListMessages(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	for i, c := range contents {
		assert.Equal(t, c, msgs[i].Content)
		if i > 0 {
			assert.Greater(t, msgs[i].ID, msgs[i-1].ID)
		}
	}
	require.Len(t, router.relays, 3)
	for i, c := range contents {
		var frame ReceiveMessageFrame
		require.NoError(t, json.Unmarshal(router.relays[i].Payload, &frame))
		assert.Equal(t, c, frame.Message.Content)
	}
}

func TestChatSession_JoinNotAParticipant(t *testing.T) {
	mallory := &model.User{ID: 99}
	repo := newStubConvRepo(participants(1, 2))
	router := newFakeRouter()
	session := newTestSession(mallory, repo, router)

	_, err := session.Join(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotAParticipant)
	// 失败的 join 不改变成员状态
	assert.Empty(t, router.joins)
	assert.Zero(t, session.Joined())
}

func TestChatSession_JoinUnknownConversation(t *testing.T) {
	alice := &model.User{ID: 1}
	session := newTestSession(alice, newStubConvRepo(), newFakeRouter())

	_, err := session.Join(context.Background(), 404)
	assert.ErrorIs(t, err, repository.ErrConversationNotFound)
}

func TestChatSession_SendWithoutJoin(t *testing.T) {
	alice := &model.User{ID: 1}
	repo := newStubConvRepo(participants(1, 2))
	router := newFakeRouter()
	session := newTestSession(alice, repo, router)

	_, err := session.Send(context.Background(), 1, "hello")
	assert.ErrorIs(t, err, ErrNotJoined)
	assert.Empty(t, repo.msgs)
	assert.Empty(t, router.relays)
}

func TestChatSession_SendToDifferentConversation(t *testing.T) {
	alice := &model.User{ID: 1}
	repo := newStubConvRepo(participants(1, 2), &model.Conversation{ID: 2, ParticipantAID: 1, ParticipantBID: 3})
	router := newFakeRouter()
	session := newTestSession(alice, repo, router)

	_, err := session.Join(context.Background(), 1)
	require.NoError(t, err)

	// 帧里的会话 ID 与已加入的房间不一致
	_, err = session.Send(context.Background(), 2, "misdirected")
	assert.ErrorIs(t, err, ErrNotJoined)
	assert.Empty(t, repo.msgs)

	// 省略会话 ID（0）时默认发往已加入的房间
	_, err = session.Send(context.Background(), 0, "default room")
	require.NoError(t, err)
	require.Len(t, repo.msgs, 1)
	assert.Equal(t, uint(1), repo.msgs[0].ConversationID)
}

func TestChatSession_SendEmptyContent(t *testing.T) {
	alice := &model.User{ID: 1}
	repo := newStubConvRepo(participants(1, 2))
	router := newFakeRouter()
	session := newTestSession(alice, repo, router)

	_, err := session.Join(context.Background(), 1)
	require.NoError(t, err)

	for _, content := range []string{"", "   ", "\n\t "} {
		_, err = session.Send(context.Background(), 1, content)
		assert.ErrorIs(t, err, ErrEmptyContent)
	}
	// 空消息既不持久化也不转发
	assert.Empty(t, repo.msgs)
	assert.Empty(t, router.relays)
}

func TestChatSession_SendPersistsWithEmptyRoom(t *testing.T) {
	alice := &model.User{ID: 1}
	repo := newStubConvRepo(participants(1, 2))
	router := newFakeRouter()
	session := newTestSession(alice, repo, router)

	_, err := session.Join(context.Background(), 1)
	require.NoError(t, err)

	// 对端不在线也算发送成功，消息落库等待历史拉取
	msg, err := session.Send(context.Background(), 1, "anyone there?")
	require.NoError(t, err)
	assert.NotNil(t, msg)
	require.Len(t, repo.msgs, 1)
}

func TestChatSession_JoinReplacesRoom(t *testing.T) {
	alice := &model.User{ID: 1}
	repo := newStubConvRepo(participants(1, 2), &model.Conversation{ID: 2, ParticipantAID: 1, ParticipantBID: 3})
	router := newFakeRouter()
	session := newTestSession(alice, repo, router)

	_, err := session.Join(context.Background(), 1)
	require.NoError(t, err)
	_, err = session.Join(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, uint(2), session.Joined())
	assert.Equal(t, []uint{1, 2}, router.joins)

	// 切换房间后消息发往新房间
	_, err = session.Send(context.Background(), 2, "in the new room")
	require.NoError(t, err)
	assert.Equal(t, uint(2), repo.msgs[0].ConversationID)
}

func TestChatSession_Close(t *testing.T) {
	alice := &model.User{ID: 1}
	repo := newStubConvRepo(participants(1, 2))
	router := newFakeRouter()
	session := newTestSession(alice, repo, router)

	_, err := session.Join(context.Background(), 1)
	require.NoError(t, err)

	session.Close()
	assert.Equal(t, 1, router.detached)
	assert.Zero(t, session.Joined())

	// 关闭后的会话拒绝任何操作
	_, err = session.Send(context.Background(), 1, "too late")
	assert.ErrorIs(t, err, ErrNotJoined)
	_, err = session.Join(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotJoined)

	// Close 幂等
	session.Close()
	assert.Equal(t, 1, router.detached)
}
