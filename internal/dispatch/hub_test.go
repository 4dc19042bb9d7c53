// internal/dispatch/hub_test.go
package dispatch

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestHubNotifyWithoutMembers(t *testing.T) {
	h := NewHub(quietLogger())
	assert.NotPanics(t, func() {
		h.Notify("room-1", EventPlayerJoined, map[string]interface{}{"id": "p1"})
	})
	assert.Equal(t, 0, h.RoomMembers("room-1"))
}

func TestHubCloseRoomWithoutMembers(t *testing.T) {
	h := NewHub(quietLogger())
	assert.NotPanics(t, func() { h.CloseRoom("room-1") })
	assert.Equal(t, 0, h.RoomMembers("room-1"))
}

func TestNotifierFuncAdapter(t *testing.T) {
	var gotRoom, gotEvent string
	var gotPayload map[string]interface{}
	n := NotifierFunc(func(roomID, event string, payload map[string]interface{}) {
		gotRoom, gotEvent, gotPayload = roomID, event, payload
	})

	n.Notify("room-1", EventTurnChanged, map[string]interface{}{"playerId": "p2"})
	assert.Equal(t, "room-1", gotRoom)
	assert.Equal(t, EventTurnChanged, gotEvent)
	assert.Equal(t, "p2", gotPayload["playerId"])
}
