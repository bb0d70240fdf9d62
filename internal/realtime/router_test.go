package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestConn 建立一对真实的 WebSocket 连接：服务端一侧包装为 Connection
// 并启动写循环，客户端一侧返回给测试用于读取投递结果。
func newTestConn(t *testing.T, userID uint) (*Connection, *websocket.Conn) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	serverSide := make(chan *websocket.Conn, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverSide <- ws
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	ws := <-serverSide
	conn := NewConnection(userID, ws, 8)
	conn.Start()
	t.Cleanup(func() { conn.Close(websocket.CloseNormalClosure, "") })

	return conn, client
}

// readFrame 从客户端读取一条消息，超时视为测试失败。
func readFrame(t *testing.T, client *websocket.Conn) []byte {
	t.Helper()
	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := client.ReadMessage()
	require.NoError(t, err)
	return payload
}

// assertNoFrame 断言客户端在短时间内收不到任何消息。
func assertNoFrame(t *testing.T, client *websocket.Conn) {
	t.Helper()
	require.NoError(t, client.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := client.ReadMessage()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "timeout") || websocket.IsUnexpectedCloseError(err))
}

func TestRouter_RelayExcludesSender(t *testing.T) {
	r := NewRouter()
	connA, clientA := newTestConn(t, 1)
	connB, clientB := newTestConn(t, 2)

	r.Join(10, connA)
	r.Join(10, connB)
	require.Equal(t, 2, r.Members(10))

	delivered := r.Relay(10, []byte("hello"), connA.ID)
	assert.Equal(t, 1, delivered)

	assert.Equal(t, "hello", string(readFrame(t, clientB)))
	assertNoFrame(t, clientA)
}

func TestRouter_RelayToEmptyRoom(t *testing.T) {
	r := NewRouter()
	assert.Equal(t, 0, r.Relay(99, []byte("void"), "nobody"))
}

func TestRouter_RelayToRoomWithOnlySender(t *testing.T) {
	r := NewRouter()
	connA, clientA := newTestConn(t, 1)

	r.Join(10, connA)
	assert.Equal(t, 0, r.Relay(10, []byte("solo"), connA.ID))
	assertNoFrame(t, clientA)
}

func TestRouter_JoinReplacesRoom(t *testing.T) {
	r := NewRouter()
	connA, _ := newTestConn(t, 1)
	connB, clientB := newTestConn(t, 2)

	r.Join(10, connA)
	r.Join(10, connB)

	// A 切换到另一个房间后不再是房间 10 的成员
	r.Join(20, connA)
	assert.Equal(t, 1, r.Members(10))
	assert.Equal(t, 1, r.Members(20))

	delivered := r.Relay(20, []byte("moved"), "")
	assert.Equal(t, 1, delivered)
	assert.Equal(t, 0, r.Relay(10, []byte("stale"), connB.ID))
	assertNoFrame(t, clientB)
}

func TestRouter_JoinSameRoomTwice(t *testing.T) {
	r := NewRouter()
	connA, _ := newTestConn(t, 1)

	r.Join(10, connA)
	r.Join(10, connA)
	assert.Equal(t, 1, r.Members(10))
}

func TestRouter_DetachRemovesMembershipAndRoom(t *testing.T) {
	r := NewRouter()
	connA, _ := newTestConn(t, 1)

	r.Join(10, connA)
	r.Detach(connA)

	assert.Equal(t, 0, r.Members(10))
	// 空房间被回收
	r.mu.RLock()
	_, exists := r.rooms[10]
	r.mu.RUnlock()
	assert.False(t, exists)

	// 重复 Detach 是空操作
	r.Detach(connA)
}

func TestRouter_LeaveUnknownRoom(t *testing.T) {
	r := NewRouter()
	connA, _ := newTestConn(t, 1)
	r.Leave(404, connA)
	assert.Equal(t, 0, r.Members(404))
}

func TestRouter_CloseClosesConnections(t *testing.T) {
	r := NewRouter()
	connA, clientA := newTestConn(t, 1)
	r.Join(10, connA)

	r.Close()
	assert.Equal(t, 0, r.Members(10))

	// 服务端关闭后客户端读到 close 帧
	require.NoError(t, clientA.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := clientA.ReadMessage()
	assert.Error(t, err)
}

func TestConnection_SendAfterClose(t *testing.T) {
	connA, _ := newTestConn(t, 1)
	connA.Close(websocket.CloseNormalClosure, "bye")
	assert.ErrorIs(t, connA.Send([]byte("late")), ErrConnectionClosed)
}
