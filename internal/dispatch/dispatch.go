// internal/dispatch/dispatch.go
package dispatch

// Event names broadcast to room members.
const (
	EventPlayerJoined = "playerJoined"
	EventGameStarted  = "gameStarted"
	EventTurnChanged  = "turnChanged"
	EventDiceRolled   = "diceRolled"
	EventBotThinking  = "botThinking"
	EventRoomClosed   = "roomClosed"
)

// Notifier delivers a named event to every member of a room. Delivery is
// best-effort: a failed or dropped notification never blocks or fails the
// operation that produced it.
type Notifier interface {
	Notify(roomID, event string, payload map[string]interface{})
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(roomID, event string, payload map[string]interface{})

func (f NotifierFunc) Notify(roomID, event string, payload map[string]interface{}) {
	f(roomID, event, payload)
}
