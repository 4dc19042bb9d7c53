// internal/models/player.go
package models

// Palette is the fixed set of token colors, in assignment priority order.
var Palette = []string{"red", "green", "blue", "yellow"}

// FallbackColor is assigned when every palette color is already taken.
// Reusing a taken color is the documented policy for over-subscribed rooms,
// not an error.
const FallbackColor = "red"

// Avatars is the fixed set of default bot avatars.
var Avatars = []string{"lion", "hyena", "gelada", "ibex", "nyala", "serval"}

// Player is one seat in a room. Bots carry a difficulty tier and never an
// owning user.
type Player struct {
	ID         string `bson:"id" json:"id"`
	Name       string `bson:"name" json:"name"`
	Color      string `bson:"color" json:"color"`
	Avatar     string `bson:"avatar,omitempty" json:"avatar,omitempty"`
	IsBot      bool   `bson:"isBot" json:"isBot"`
	Difficulty string `bson:"difficulty,omitempty" json:"difficulty,omitempty"`
	UserID     string `bson:"userId,omitempty" json:"userId,omitempty"`
}

// Public returns the fields broadcast to room members on join events.
func (p Player) Public() map[string]interface{} {
	return map[string]interface{}{
		"id":     p.ID,
		"name":   p.Name,
		"color":  p.Color,
		"avatar": p.Avatar,
		"isBot":  p.IsBot,
	}
}
