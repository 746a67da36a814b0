package game

import (
	"time"

	"github.com/ugaemi/safezone-server/internal/zone"
)

// ValidMove reports whether moving from one position to another between the
// last accepted move and now stays under the speed limit. The first move
// after joining is always accepted.
func ValidMove(from, to zone.Vec2, last, now time.Time) bool {
	if last.IsZero() {
		return true
	}
	dist := zone.Distance(from, to)
	elapsed := now.Sub(last).Seconds()
	if elapsed <= 0 {
		return dist == 0
	}
	return dist <= MaxMoveSpeed*MoveSpeedTolerance*elapsed
}
