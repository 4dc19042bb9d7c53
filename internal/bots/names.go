// internal/bots/names.go
package bots

import (
	"fmt"
	"math/rand"
)

// NameGenerator produces a bot display name not present in existing.
type NameGenerator interface {
	Generate(existing []string) string
}

var (
	nameAdjectives = []string{"Swift", "Lucky", "Clever", "Bold", "Quiet", "Mighty", "Sly", "Brave"}
	nameAnimals    = []string{"Lion", "Hyena", "Gelada", "Ibex", "Nyala", "Serval", "Jackal", "Oryx"}
)

// DefaultNameGenerator combines a fixed adjective/animal pool, falling back
// to a numeric suffix once the pool is exhausted for a room.
type DefaultNameGenerator struct{}

func (DefaultNameGenerator) Generate(existing []string) string {
	taken := make(map[string]struct{}, len(existing))
	for _, n := range existing {
		taken[n] = struct{}{}
	}

	// Start from a random offset so rooms don't all get the same roster.
	offset := rand.Intn(len(nameAdjectives) * len(nameAnimals))
	for i := 0; i < len(nameAdjectives)*len(nameAnimals); i++ {
		k := (offset + i) % (len(nameAdjectives) * len(nameAnimals))
		name := nameAdjectives[k%len(nameAdjectives)] + " " + nameAnimals[k/len(nameAdjectives)]
		if _, ok := taken[name]; !ok {
			return name
		}
	}

	for i := 1; ; i++ {
		name := fmt.Sprintf("Bot %d", i)
		if _, ok := taken[name]; !ok {
			return name
		}
	}
}
