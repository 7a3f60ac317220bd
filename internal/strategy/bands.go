package strategy

import (
	"errors"
	"fmt"
	"math"

	"RiskSentinel/internal/model"
)

// DefaultFallbackScore is the composite reported when no factor is fresh.
const DefaultFallbackScore = 50.0

// DefaultBands covers [0,100] in ascending order; the last band is closed at 100.
var DefaultBands = []model.Band{
	{Key: "aggressive_buy", Label: "Aggressive Buying", Lo: 0, Hi: 15, Color: "#0f9d58"},
	{Key: "dca_buy", Label: "Regular DCA Buying", Lo: 15, Hi: 35, Color: "#7cb342"},
	{Key: "moderate_buy", Label: "Moderate Buying", Lo: 35, Hi: 50, Color: "#c0ca33"},
	{Key: "hold", Label: "Hold/Neutral", Lo: 50, Hi: 65, Color: "#fbc02d"},
	{Key: "reduce", Label: "Reduce Risk", Lo: 65, Hi: 80, Color: "#fb8c00"},
	{Key: "take_profit", Label: "Take Profits", Lo: 80, Hi: 100, Color: "#e53935"},
}

// ValidateBands checks that bands are ascending, contiguous, non-overlapping
// and together cover exactly [0,100].
func ValidateBands(bands []model.Band) error {
	if len(bands) == 0 {
		return errors.New("no bands configured")
	}
	if bands[0].Lo != 0 {
		return fmt.Errorf("first band %q must start at 0, starts at %g", bands[0].Key, bands[0].Lo)
	}
	if last := bands[len(bands)-1]; last.Hi != 100 {
		return fmt.Errorf("last band %q must end at 100, ends at %g", last.Key, last.Hi)
	}
	seen := make(map[string]bool, len(bands))
	for i, b := range bands {
		if b.Key == "" || b.Label == "" {
			return fmt.Errorf("band %d: key and label are required", i)
		}
		if seen[b.Key] {
			return fmt.Errorf("band %q defined twice", b.Key)
		}
		seen[b.Key] = true
		if b.Hi <= b.Lo {
			return fmt.Errorf("band %q: hi %g must exceed lo %g", b.Key, b.Hi, b.Lo)
		}
		if i > 0 && bands[i-1].Hi != b.Lo {
			return fmt.Errorf("band %q starts at %g but previous band ends at %g", b.Key, b.Lo, bands[i-1].Hi)
		}
	}
	return nil
}

// BandFor returns the first band whose [lo,hi) range contains score.
// The last band is closed at its upper bound. Scores outside [0,100] are clamped.
func BandFor(bands []model.Band, score float64) model.Band {
	if len(bands) == 0 {
		return model.Band{}
	}
	score = math.Max(0, math.Min(100, score))
	for i, b := range bands {
		if b.Contains(score, i == len(bands)-1) {
			return b
		}
	}
	return bands[len(bands)-1]
}

// BandIndex returns the position of the band with key, or -1.
func BandIndex(bands []model.Band, key string) int {
	for i, b := range bands {
		if b.Key == key || b.Label == key {
			return i
		}
	}
	return -1
}
