package surfaces

import "math"

// Vec3 is a battlefield position. Y is elevation and is ignored by every
// footprint check; surfaces are flat decals stamped onto the walkable plane.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func horizontalDistance(a, b Vec3) float64 {
	dx := a.X - b.X
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dz*dz)
}

// horizontalDirection returns the unit vector from `from` to `to` on the
// walkable plane. A degenerate zero-length separation falls back to +X so
// callers never divide by zero.
func horizontalDirection(from, to Vec3) Vec3 {
	dx := to.X - from.X
	dz := to.Z - from.Z
	length := math.Sqrt(dx*dx + dz*dz)
	if length <= geometryEpsilon {
		return Vec3{X: 1}
	}
	return Vec3{X: dx / length, Z: dz / length}
}

func lerp(a, b Vec3, t float64) Vec3 {
	return Vec3{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
		Z: a.Z + (b.Z-a.Z)*t,
	}
}
