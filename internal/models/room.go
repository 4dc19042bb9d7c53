// internal/models/room.go
package models

import "time"

// GameStatus tracks the lifecycle of a room. Transitions only move forward:
// waiting -> playing -> finished.
type GameStatus string

const (
	StatusWaiting  GameStatus = "waiting"
	StatusPlaying  GameStatus = "playing"
	StatusFinished GameStatus = "finished"
)

// Room is the authoritative game room document. It is owned by the external
// store; in-process copies (RoomCache) are mirrors only.
//
// Player order is seating order and drives turn rotation.
type Room struct {
	ID          string     `bson:"_id" json:"id"`
	Players     []Player   `bson:"players" json:"players"`
	GameStatus  GameStatus `bson:"gameStatus" json:"gameStatus"`
	CurrentTurn string     `bson:"currentTurn" json:"currentTurn"`
	LastRoll    int        `bson:"lastRoll" json:"lastRoll"`
	MaxPlayers  int        `bson:"maxPlayers" json:"maxPlayers"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
}

// IsFull reports whether every seat is taken.
func (r *Room) IsFull() bool {
	return len(r.Players) >= r.MaxPlayers
}

// PlayerByID returns the seated player with the given ID, or nil.
func (r *Room) PlayerByID(id string) *Player {
	for i := range r.Players {
		if r.Players[i].ID == id {
			return &r.Players[i]
		}
	}
	return nil
}

// BotCount returns how many seated players are bots.
func (r *Room) BotCount() int {
	n := 0
	for i := range r.Players {
		if r.Players[i].IsBot {
			n++
		}
	}
	return n
}

// NextSeat returns the ID of the player seated after the given one,
// wrapping around the table. Returns "" if the player is not seated.
func (r *Room) NextSeat(playerID string) string {
	for i := range r.Players {
		if r.Players[i].ID == playerID {
			return r.Players[(i+1)%len(r.Players)].ID
		}
	}
	return ""
}
