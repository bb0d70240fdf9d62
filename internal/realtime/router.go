package realtime

import (
	"sync"
)

// Router 维护会话 ID 到当前在线成员集合的映射，并向房间内
// 除发送者以外的成员转发消息。
//
// Router 在服务启动时显式构造并注入到聊天层，生命周期与进程一致；
// 内部状态全部是临时的内存数据，进程重启后由客户端重连重建。
// 所有成员变更与转发都在同一把粗粒度锁下进行，
// join/leave/send 的变更频率很低，不值得引入更细的锁。
type Router struct {
	mu       sync.RWMutex
	rooms    map[uint]map[string]*Connection // conversationID -> connID -> connection
	connRoom map[string]uint                 // connID -> conversationID
}

// NewRouter 构造一个初始化完成的 Router。
func NewRouter() *Router {
	return &Router{
		rooms:    make(map[uint]map[string]*Connection),
		connRoom: make(map[string]uint),
	}
}

// Join 将连接加入指定会话的房间，房间不存在时惰性创建。
// 一条连接同一时刻至多属于一个房间（一个连接对应一个打开的聊天窗口），
// 已在其他房间时先静默退出旧房间。
func (r *Router) Join(conversationID uint, conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.connRoom[conn.ID]; ok {
		if prev == conversationID {
			return
		}
		r.leaveLocked(prev, conn.ID)
	}

	room := r.rooms[conversationID]
	if room == nil {
		room = make(map[string]*Connection)
		r.rooms[conversationID] = room
	}
	room[conn.ID] = conn
	r.connRoom[conn.ID] = conversationID
}

// Leave 将连接移出指定会话的房间。
func (r *Router) Leave(conversationID uint, conn *Connection) {
	r.mu.Lock()
	r.leaveLocked(conversationID, conn.ID)
	r.mu.Unlock()
}

// Detach 在连接断开时调用，将其从所在房间移除。
func (r *Router) Detach(conn *Connection) {
	r.mu.Lock()
	if roomID, ok := r.connRoom[conn.ID]; ok {
		r.leaveLocked(roomID, conn.ID)
	}
	r.mu.Unlock()
}

// Relay 将 payload 投递给房间内除 excludeConnID 以外的所有成员，
// 返回成功入队的连接数。投递是尽力而为的：Send 只入队不等待，
// 某个成员消费过慢不会阻塞其他成员收到消息。
// 房间不存在或没有其他成员时是正常的空操作。
func (r *Router) Relay(conversationID uint, payload []byte, excludeConnID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room := r.rooms[conversationID]
	if len(room) == 0 {
		return 0
	}

	delivered := 0
	for id, conn := range room {
		if id == excludeConnID {
			continue
		}
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

// Members 返回房间当前的成员数量。
func (r *Router) Members(conversationID uint) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[conversationID])
}

// Close 关闭所有在线连接并清空路由状态，在服务停机时调用。
func (r *Router) Close() {
	r.mu.Lock()
	conns := make([]*Connection, 0, len(r.connRoom))
	for _, room := range r.rooms {
		for _, conn := range room {
			conns = append(conns, conn)
		}
	}
	r.rooms = make(map[uint]map[string]*Connection)
	r.connRoom = make(map[string]uint)
	r.mu.Unlock()

	for _, conn := range conns {
		conn.Close(1001, "server shutdown")
	}
}

// leaveLocked 在持有写锁的前提下移除成员，空房间随即被回收。
func (r *Router) leaveLocked(conversationID uint, connID string) {
	room := r.rooms[conversationID]
	if room == nil {
		return
	}
	delete(room, connID)
	if len(room) == 0 {
		delete(r.rooms, conversationID)
	}
	if current, ok := r.connRoom[connID]; ok && current == conversationID {
		delete(r.connRoom, connID)
	}
}
