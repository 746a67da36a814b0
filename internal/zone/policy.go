package zone

// Participant is a read-only view of a player the zone can eliminate.
// Tracked is false when the participant has no live body to measure.
type Participant struct {
	ID       string
	Position Vec2
	Tracked  bool
}

// Threshold returns the elimination distance for z. It is tied to the
// population at spawn, not the live count.
func Threshold(z *Zone) float64 {
	if z == nil {
		return 0
	}
	return float64(z.ParticipantCountAtSpawn) * EliminationScale
}

// Outside reports whether p is strictly farther from the center than the threshold.
func Outside(z *Zone, p Vec2) bool {
	return Distance(p, z.Center) > Threshold(z)
}

// Classify returns the IDs of tracked participants standing outside the zone,
// in input order. A nil zone eliminates nobody.
func Classify(z *Zone, participants []Participant) []string {
	if z == nil {
		return nil
	}
	var out []string
	for _, p := range participants {
		if !p.Tracked {
			continue
		}
		if Outside(z, p.Position) {
			out = append(out, p.ID)
		}
	}
	return out
}
