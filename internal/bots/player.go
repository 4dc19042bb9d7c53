// internal/bots/player.go
package bots

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/Gadisaka/ethioludo-backend-sub001/internal/models"
)

// NewBotPlayer synthesizes a bot player record. Pure: no I/O, no shared
// state. The name comes from the generator seeded with the room's existing
// bot names; the color is the first palette entry not already taken by a
// seated player, or the fixed fallback when the palette is exhausted.
func NewBotPlayer(existing []models.Player, existingNames []string, gen NameGenerator, difficulty string) models.Player {
	return models.Player{
		ID:         uuid.NewString(),
		Name:       gen.Generate(existingNames),
		Color:      pickColor(existing),
		Avatar:     models.Avatars[rand.Intn(len(models.Avatars))],
		IsBot:      true,
		Difficulty: difficulty,
	}
}

func pickColor(existing []models.Player) string {
	taken := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		taken[p.Color] = struct{}{}
	}
	for _, c := range models.Palette {
		if _, ok := taken[c]; !ok {
			return c
		}
	}
	return models.FallbackColor
}

// botNames extracts the display names of seated bot players.
func botNames(players []models.Player) []string {
	var names []string
	for _, p := range players {
		if p.IsBot {
			names = append(names, p.Name)
		}
	}
	return names
}
