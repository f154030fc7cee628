// Package layout assigns positions to snapshot nodes: the orbital Solar
// engine with its three motion regimes, and the Mesh engine that seeds an
// external force simulation with a ring lattice.
package layout

import "math"

// GoldenAngle is pi(3 - sqrt 5), about 137.5 degrees.
var GoldenAngle = math.Pi * (3 - math.Sqrt(5))

// Orbital constants.
const (
	innerBuffer  = 40.0
	marginXExtra = 20.0
	marginYExtra = 30.0 // extra room under the disc for its label
	radiusFill   = 0.9
	baseSpeed    = 0.0003
	innerBoost   = 0.0005
	wobbleRate   = 0.02
)

// WobbleDistance bounds the Alive-mode jitter per axis, in world pixels.
const WobbleDistance = 3.0

// AngleFor returns the golden-angle placement for index i.
func AngleFor(i int) float64 {
	return float64(i) * GoldenAngle
}

// Interpolation returns i/(n-1), or 0 when n <= 1.
func Interpolation(i, n int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(i) / float64(n-1)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// OrbitSpeed is the signed per-frame angular speed for index i of n. Inner
// orbits are faster and neighbours rotate in opposite directions.
func OrbitSpeed(i, n int) float64 {
	speed := baseSpeed + (1-Interpolation(i, n))*innerBoost
	if i%2 == 1 {
		return -speed
	}
	return speed
}

// Wobble is the Alive-mode offset for index i at the given frame.
func Wobble(frame uint64, multiplier float64, i int) (dx, dy float64) {
	phase := float64(frame)*wobbleRate*multiplier + float64(i)
	return math.Sin(phase) * WobbleDistance, math.Cos(phase) * WobbleDistance
}

// RadiusBounds is the range of orbit radii per axis.
type RadiusBounds struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// ComputeBounds derives orbit radius bounds for a container and node sizes.
// Negative extents collapse to zero so radii never go negative.
func ComputeBounds(width, height, centerRadius, groupRadius float64) RadiusBounds {
	absMaxX := math.Max(0, width/2-(groupRadius+marginXExtra))
	absMaxY := math.Max(0, height/2-(groupRadius+marginYExtra))

	minX := math.Min(centerRadius+innerBuffer, radiusFill*absMaxX)
	minY := math.Min(centerRadius+innerBuffer, radiusFill*absMaxY)

	return RadiusBounds{
		MinX: minX,
		MinY: minY,
		MaxX: math.Max(minX, radiusFill*absMaxX),
		MaxY: math.Max(minY, radiusFill*absMaxY),
	}
}

// Radii returns the linear orbit radius pair for index i of n.
func (b RadiusBounds) Radii(i, n int) (rx, ry float64) {
	t := Interpolation(i, n)
	return lerp(b.MinX, b.MaxX, t), lerp(b.MinY, b.MaxY, t)
}

// StaticRadii returns the area-proportional resting radius pair for index i
// of n, using sqrt(i+1)/sqrt(n) in place of the linear parameter.
func (b RadiusBounds) StaticRadii(i, n int) (rx, ry float64) {
	if n <= 0 {
		return b.MinX, b.MinY
	}
	t := math.Sqrt(float64(i+1)) / math.Sqrt(float64(n))
	return lerp(b.MinX, b.MaxX, t), lerp(b.MinY, b.MaxY, t)
}
