package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"blockpush-backend/models"
	"blockpush-backend/services"
)

type fakeConn struct {
	mu      sync.Mutex
	written []interface{}
	closed  bool
	failing bool
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errors.New("broken pipe")
	}
	c.written = append(c.written, v)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.written)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	test.That(t, cond(), test.ShouldBeTrue)
}

func TestClientManagerBroadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	manager := NewClientManager(nil)
	go manager.Start(ctx)

	web, robot, broken := &fakeConn{}, &fakeConn{}, &fakeConn{failing: true}
	manager.Register(web, ClientWeb)
	manager.Register(robot, ClientRobot)
	manager.Register(broken, ClientWeb)
	eventually(t, func() bool { return manager.GetClientCount()[ClientWeb] == 2 })
	test.That(t, manager.GetClientCount()[ClientRobot], test.ShouldEqual, 1)

	manager.BroadcastMessage(models.WebSocketMessage{Type: models.MessageTypeGridUpdate})
	eventually(t, func() bool { return web.count() == 1 })
	eventually(t, broken.isClosed)
	test.That(t, robot.count(), test.ShouldEqual, 0)
	test.That(t, manager.GetClientCount()[ClientWeb], test.ShouldEqual, 1)

	manager.Unregister(web)
	eventually(t, web.isClosed)

	cancel()
	eventually(t, robot.isClosed)
}

func TestHandleRobotMessage(t *testing.T) {
	remote := services.NewRemoteRobot(time.Second, nil)
	link := &wsLink{conn: &fakeConn{}}
	remote.Attach(link)
	a := &API{Remote: remote}

	pose := models.Pose{Cell: models.Cell{X: 2, Y: 3}, Heading: models.HeadingNorth}
	data, err := json.Marshal(pose)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, a.handleRobotMessage(inboundMessage{Type: models.MessageTypeHello, Data: data}), test.ShouldBeNil)

	got, err := remote.Pose(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldResemble, pose)

	test.That(t, a.handleRobotMessage(inboundMessage{Type: models.MessageTypeReport, Data: []byte(`{"seq": 9, "ok": true}`)}), test.ShouldBeNil)
	test.That(t, a.handleRobotMessage(inboundMessage{Type: models.MessageTypePose, Data: []byte(`"bad"`)}), test.ShouldNotBeNil)
	test.That(t, a.handleRobotMessage(inboundMessage{Type: "dance"}), test.ShouldNotBeNil)
}
