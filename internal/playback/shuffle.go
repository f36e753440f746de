package playback

import (
	"math/rand/v2"
	"slices"

	"github.com/desertthunder/aero/internal/models"
)

// Shuffler returns a permuted copy of tracks and never mutates its input.
type Shuffler func(tracks []models.Track) []models.Track

// NewShuffler returns a Fisher-Yates [Shuffler]. A nil rng uses the package-level source.
func NewShuffler(rng *rand.Rand) Shuffler {
	intN := rand.IntN
	if rng != nil {
		intN = rng.IntN
	}

	return func(tracks []models.Track) []models.Track {
		out := slices.Clone(tracks)
		for i := len(out) - 1; i > 0; i-- {
			j := intN(i + 1)
			out[i], out[j] = out[j], out[i]
		}
		return out
	}
}
