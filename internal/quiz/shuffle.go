package quiz

import (
	"math/rand"

	"github.com/BrightPath-Learning/course-progress-service/internal/models"
)

// shuffleItems returns a copy of items in uniform random order
// (Fisher-Yates). The input slice is never modified; authored order stays
// available for the answer key.
func shuffleItems(rng *rand.Rand, items []models.MatchItem) []models.MatchItem {
	out := make([]models.MatchItem, len(items))
	copy(out, items)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
