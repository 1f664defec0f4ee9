package crawler

import (
	"math"
	"math/rand/v2"

	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/graph"
)

// SelectRandom walks cursor once and returns the value of variable from the
// first row whose draw in [0, round(100/percent)) comes up zero. When no row
// hits, the last value seen is returned. ok is false only when the cursor
// yields no usable row. Rows after the hit are left unread.
func SelectRandom(cursor graph.Cursor, variable string, percent float64, rng *rand.Rand) (value string, ok bool) {
	limit := drawLimit(percent)
	for cursor.Next() {
		v, bound := cursor.Binding()[variable]
		if !bound || v == "" {
			continue
		}
		value, ok = v, true
		if limit > 0 && rng.IntN(limit) == 0 {
			return value, true
		}
	}
	return value, ok
}

// drawLimit returns 0 when percent never stops early.
func drawLimit(percent float64) int {
	if percent <= 0 || math.IsNaN(percent) {
		return 0
	}
	limit := math.Round(100 / percent)
	if limit < 1 {
		return 1
	}
	if limit > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(limit)
}
