package handlers

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"blockpush-backend/models"
)

// 클라이언트 종류
const (
	ClientWeb   = "web"
	ClientRobot = "robot"
)

// WSConn - JSON을 주고받는 WebSocket 연결
type WSConn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Client - 연결된 클라이언트
type Client struct {
	Conn       WSConn
	ClientType string // "robot" 또는 "web"
	writeMu    sync.Mutex
}

// Send - 동시 쓰기 방지 후 전송
func (c *Client) Send(msg interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteJSON(msg)
}

// ClientManager - WebSocket 클라이언트 등록과 브로드캐스트
type ClientManager struct {
	clients    map[WSConn]*Client
	broadcast  chan models.WebSocketMessage
	register   chan *Client
	unregister chan WSConn
	mutex      sync.RWMutex
	logger     *zap.SugaredLogger
}

// NewClientManager - 관리자 생성 (Start로 루프 시작)
func NewClientManager(logger *zap.SugaredLogger) *ClientManager {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ClientManager{
		clients:    make(map[WSConn]*Client),
		broadcast:  make(chan models.WebSocketMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan WSConn),
		logger:     logger,
	}
}

// Start - 등록/해제/브로드캐스트 처리 루프
func (manager *ClientManager) Start(ctx context.Context) {
	manager.logger.Info("✅ ClientManager 시작")
	for {
		select {
		case <-ctx.Done():
			manager.closeAll()
			return
		case client := <-manager.register:
			manager.mutex.Lock()
			manager.clients[client.Conn] = client
			manager.mutex.Unlock()
			manager.logger.Infof("클라이언트 등록: %s", client.ClientType)

		case conn := <-manager.unregister:
			manager.remove(conn)

		case message := <-manager.broadcast:
			manager.handleBroadcast(message)
		}
	}
}

// Register - 클라이언트 등록 (Start 루프가 처리)
func (manager *ClientManager) Register(conn WSConn, clientType string) *Client {
	client := &Client{Conn: conn, ClientType: clientType}
	manager.register <- client
	return client
}

// Unregister - 클라이언트 해제
func (manager *ClientManager) Unregister(conn WSConn) {
	manager.unregister <- conn
}

func (manager *ClientManager) remove(conn WSConn) {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()
	if client, ok := manager.clients[conn]; ok {
		delete(manager.clients, conn)
		_ = conn.Close()
		manager.logger.Infof("클라이언트 해제: %s", client.ClientType)
	}
}

func (manager *ClientManager) closeAll() {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()
	for conn := range manager.clients {
		_ = conn.Close()
		delete(manager.clients, conn)
	}
}

// handleBroadcast - 웹 클라이언트에게 전송, 실패한 연결은 제거
func (manager *ClientManager) handleBroadcast(message models.WebSocketMessage) {
	var failed []WSConn

	manager.mutex.RLock()
	for conn, client := range manager.clients {
		if client.ClientType != ClientWeb {
			continue // 로봇 명령은 RemoteRobot이 직접 보낸다
		}
		if err := client.Send(message); err != nil {
			manager.logger.Warnf("전송 실패 (%s): %v", client.ClientType, err)
			failed = append(failed, conn)
		}
	}
	manager.mutex.RUnlock()

	for _, conn := range failed {
		manager.remove(conn)
	}
}

// BroadcastMessage - 웹 클라이언트 브로드캐스트 (가득 차면 버림)
func (manager *ClientManager) BroadcastMessage(msg models.WebSocketMessage) {
	select {
	case manager.broadcast <- msg:
	default:
		manager.logger.Warn("⚠️ broadcast 채널 가득 참")
	}
}

// GetClientCount - 종류별 연결 수
func (manager *ClientManager) GetClientCount() map[string]int {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()

	count := map[string]int{
		ClientRobot: 0,
		ClientWeb:   0,
	}
	for _, client := range manager.clients {
		count[client.ClientType]++
	}
	return count
}
