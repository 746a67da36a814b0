package zone

import "math"

// Radius scale factors, multiplied by the participant count at spawn.
const (
	InnerRadiusScale = 0.8
	InnerPeakScale   = 0.85
	LimitRadiusScale = 0.95
	LimitPeakScale   = 1.2
	EliminationScale = 0.7
)

// Vec2 is a point on the arena floor. The vertical axis is not modeled.
type Vec2 struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// Distance returns the planar Euclidean distance between two points.
func Distance(a, b Vec2) float64 {
	dx := a.X - b.X
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dz*dz)
}

// Bounds is the rectangle zone centers are placed in.
// MinX < 0 < MaxX and MinZ < 0 < MaxZ.
type Bounds struct {
	MinX float64 `json:"min_x" yaml:"min_x"`
	MaxX float64 `json:"max_x" yaml:"max_x"`
	MinZ float64 `json:"min_z" yaml:"min_z"`
	MaxZ float64 `json:"max_z" yaml:"max_z"`
}

// DefaultBounds matches the stadium maps the mode was designed for.
var DefaultBounds = Bounds{MinX: -10, MaxX: 10, MinZ: -5, MaxZ: 5}

// Contains reports whether p lies inside the bounds (edges included).
func (b Bounds) Contains(p Vec2) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Z >= b.MinZ && p.Z <= b.MaxZ
}

// Rand is the random source used for placement. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Zone is the logical state of the single active safe zone.
type Zone struct {
	Center                  Vec2    `json:"center"`
	Target                  Vec2    `json:"target"`
	CurrentRadius           float64 `json:"current_radius"`
	LimitRadius             float64 `json:"limit_radius"`
	RemainingTicks          int     `json:"remaining_ticks"`
	ParticipantCountAtSpawn int     `json:"participant_count"`
}

// Spawn creates a zone sized for participantCount at a uniformly random center.
// The countdown is derived from the same count.
func Spawn(participantCount int, bounds Bounds, rng Rand) *Zone {
	if participantCount < 0 {
		participantCount = 0
	}
	n := float64(participantCount)
	center := Vec2{
		X: bounds.MinX + rng.Float64()*(bounds.MaxX-bounds.MinX),
		Z: bounds.MinZ + rng.Float64()*(bounds.MaxZ-bounds.MinZ),
	}
	return &Zone{
		Center:                  center,
		Target:                  center,
		CurrentRadius:           n * InnerRadiusScale,
		LimitRadius:             n * LimitRadiusScale,
		RemainingTicks:          CountdownTicks(participantCount),
		ParticipantCountAtSpawn: participantCount,
	}
}

// Relocate picks the next center in the opposite half of the arena on both axes,
// so a zone never settles where it started. A nil zone has no center yet and
// gets a fresh random placement.
func Relocate(z *Zone, bounds Bounds, rng Rand) Vec2 {
	if z == nil {
		return Spawn(0, bounds, rng).Center
	}
	return Vec2{
		X: oppositeHalf(z.Center.X, bounds.MinX, bounds.MaxX, rng),
		Z: oppositeHalf(z.Center.Z, bounds.MinZ, bounds.MaxZ, rng),
	}
}

// oppositeHalf returns a value in [lo, 0) when v is positive, otherwise in (0, hi].
func oppositeHalf(v, lo, hi float64, rng Rand) float64 {
	if v > 0 {
		return lo - rng.Float64()*lo
	}
	return hi - rng.Float64()*hi
}

// CountdownTicks returns the countdown length for a zone spawned with n participants.
// Small groups get double time, mid-size groups one tick per participant, and
// large groups are capped at 10.
func CountdownTicks(n int) int {
	switch {
	case n > 9:
		return 10
	case n > 6:
		return n - 1
	case n > 2:
		return n
	case n > 0:
		return n * 2
	default:
		return 0
	}
}

// Rings describes the visual keyframes for a freshly spawned zone: each ring
// grows to its peak then settles to its resting radius.
type Rings struct {
	InnerPeak   float64 `json:"inner_peak"`
	InnerRadius float64 `json:"inner_radius"`
	LimitPeak   float64 `json:"limit_peak"`
	LimitRadius float64 `json:"limit_radius"`
}

// RingsFor returns the spawn keyframes for z.
func RingsFor(z *Zone) Rings {
	n := float64(z.ParticipantCountAtSpawn)
	return Rings{
		InnerPeak:   n * InnerPeakScale,
		InnerRadius: z.CurrentRadius,
		LimitPeak:   n * LimitPeakScale,
		LimitRadius: z.LimitRadius,
	}
}
