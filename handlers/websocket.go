package handlers

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/pkg/errors"

	"blockpush-backend/models"
	"blockpush-backend/services"
)

// inboundMessage - Data를 타입별로 나중에 해석하기 위한 수신 메시지
type inboundMessage struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// poseData - 로봇 자세 보고 ({cell, heading} 또는 미터 단위 {x, y, heading})
type poseData struct {
	Cell    *models.Cell `json:"cell"`
	X       *float64     `json:"x"`
	Y       *float64     `json:"y"`
	Heading int          `json:"heading"`
}

func (a *API) decodePose(raw json.RawMessage) (models.Pose, error) {
	var d poseData
	if err := json.Unmarshal(raw, &d); err != nil {
		return models.Pose{}, errors.Wrap(err, "decode pose")
	}
	pose := models.Pose{Heading: models.NormalizeHeading(d.Heading)}
	switch {
	case d.Cell != nil:
		pose.Cell = *d.Cell
	case d.X != nil && d.Y != nil:
		pose.Cell = a.Planner.WorldToCell(*d.X, *d.Y)
	default:
		return models.Pose{}, errors.New("pose has neither cell nor x/y")
	}
	return pose, nil
}

// wsLink - RemoteRobot이 명령을 보내는 WebSocket 연결
type wsLink struct {
	mu   sync.Mutex
	conn WSConn
}

func (l *wsLink) Send(msg models.WebSocketMessage) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn.WriteJSON(msg)
}

// HandleRobotWebSocket - 로봇 연결 처리 (hello / pose / report 수신)
func (a *API) HandleRobotWebSocket(c *websocket.Conn) {
	if a.Remote == nil {
		_ = c.WriteJSON(models.WebSocketMessage{
			Type:      models.MessageTypeSystemInfo,
			Data:      map[string]string{"message": "서버가 시뮬레이션 모드로 실행 중입니다"},
			Timestamp: time.Now().UnixMilli(),
		})
		_ = c.Close()
		return
	}

	link := &wsLink{conn: c}
	a.Remote.Attach(link)
	a.Clients.Register(c, ClientRobot)
	defer func() {
		a.Remote.Detach(link)
		a.Clients.Unregister(c)
	}()

	for {
		var msg inboundMessage
		if err := c.ReadJSON(&msg); err != nil {
			a.Logger.Warnf("로봇 메시지 읽기 오류: %v", err)
			return
		}
		if err := a.handleRobotMessage(msg); err != nil {
			a.Logger.Warnf("⚠️ 로봇 메시지 처리 실패 (%s): %v", msg.Type, err)
		}
	}
}

func (a *API) handleRobotMessage(msg inboundMessage) error {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}

	switch msg.Type {
	case models.MessageTypeHello, models.MessageTypePose:
		pose, err := a.decodePose(msg.Data)
		if err != nil {
			return err
		}
		a.Remote.HandlePose(pose)
		a.broadcast(models.MessageTypePose, pose)

	case models.MessageTypeReport:
		var report models.RobotReportMessage
		if err := json.Unmarshal(msg.Data, &report); err != nil {
			return errors.Wrap(err, "decode report")
		}
		a.Remote.HandleReport(report)

	default:
		return errors.Errorf("unknown message type %q", msg.Type)
	}
	return nil
}

// HandleWebClientWebSocket - 웹 클라이언트 연결 (서버 → 웹 브로드캐스트 수신 전용)
func (a *API) HandleWebClientWebSocket(c *websocket.Conn) {
	client := a.Clients.Register(c, ClientWeb)
	defer a.Clients.Unregister(c)

	// 연결 확인 메시지와 현재 격자 전송
	_ = client.Send(models.WebSocketMessage{
		Type: models.MessageTypeSystemInfo,
		Data: map[string]interface{}{
			"message":      "웹 클라이언트 연결됨",
			"connected_at": time.Now().Format(time.RFC3339),
		},
		Timestamp: time.Now().UnixMilli(),
	})
	_ = client.Send(models.WebSocketMessage{
		Type:      models.MessageTypeGridUpdate,
		Data:      a.Planner.Snapshot(),
		Timestamp: time.Now().UnixMilli(),
	})

	for {
		var msg inboundMessage
		if err := c.ReadJSON(&msg); err != nil {
			a.Logger.Debugf("웹 메시지 읽기 오류: %v", err)
			return
		}
		a.Logger.Debugf("웹 메시지 무시: %s", msg.Type)
	}
}

var _ services.RobotLink = (*wsLink)(nil)
