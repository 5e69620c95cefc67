package surfaces

import "math"

const (
	// minBlobRadius is the smallest circle the geometry layer will keep.
	// Radii are floored here so direction normalization never sees zero.
	minBlobRadius = 0.1

	geometryEpsilon = 1e-6

	// Shrink-and-push tuning for SubtractArea. This is a visual
	// approximation of circle difference, not exact geometry; the contract
	// is monotonic area reduction and eventual depletion.
	subtractShrinkFactor = 0.55
	subtractPushFactor   = 0.2
)

// Blob is a single circle. A surface footprint is the union of its blobs;
// overlapping blobs are allowed to coexist.
type Blob struct {
	Center Vec3    `json:"center"`
	Radius float64 `json:"radius"`
}

// Instance is one active surface on the battlefield: its footprint, the
// shared definition, and the remaining lifetime in rounds.
type Instance struct {
	ID         string
	Definition *Definition
	Blobs      []Blob

	// Position and Radius summarize the footprint as a bounding circle.
	// They are recomputed after every geometric mutation.
	Position Vec3
	Radius   float64

	CreatorID         string
	RemainingDuration int
}

// InitializeGeometry replaces the footprint with a single blob.
func (inst *Instance) InitializeGeometry(center Vec3, radius float64) {
	if inst == nil {
		return
	}
	inst.Blobs = inst.Blobs[:0]
	inst.Blobs = append(inst.Blobs, Blob{Center: center, Radius: floorRadius(radius)})
	inst.recalculateBounds()
}

// AddBlob appends a blob to the footprint. No dedup: geometry consumers
// handle unions.
func (inst *Instance) AddBlob(center Vec3, radius float64) {
	if inst == nil {
		return
	}
	inst.Blobs = append(inst.Blobs, Blob{Center: center, Radius: floorRadius(radius)})
	inst.recalculateBounds()
}

// MergeGeometryFrom copies every blob of other into this instance.
func (inst *Instance) MergeGeometryFrom(other *Instance) {
	if inst == nil || other == nil || len(other.Blobs) == 0 {
		return
	}
	inst.Blobs = append(inst.Blobs, other.Blobs...)
	inst.recalculateBounds()
}

// SubtractArea carves a circular bite out of the footprint. Blobs fully
// covered by the subtraction are removed; partially covered blobs shrink and
// get pushed away from the subtraction center. Blobs that would fall below
// minRadius are dropped rather than kept as slivers. Reports whether any
// blob changed.
func (inst *Instance) SubtractArea(center Vec3, radius, minRadius float64) bool {
	if inst == nil || len(inst.Blobs) == 0 {
		return false
	}
	if minRadius < minBlobRadius {
		minRadius = minBlobRadius
	}
	radius = floorRadius(radius)

	changed := false
	kept := inst.Blobs[:0]
	for _, blob := range inst.Blobs {
		distance := horizontalDistance(blob.Center, center)
		overlap := blob.Radius + radius - distance
		if overlap <= 0 {
			kept = append(kept, blob)
			continue
		}
		if radius >= distance+blob.Radius-geometryEpsilon {
			// Fully swallowed.
			changed = true
			continue
		}
		shrink := overlap * subtractShrinkFactor
		next := blob.Radius - shrink
		if next < minRadius {
			changed = true
			continue
		}
		direction := horizontalDirection(center, blob.Center)
		push := shrink * subtractPushFactor
		blob.Center.X += direction.X * push
		blob.Center.Z += direction.Z * push
		blob.Radius = next
		changed = true
		kept = append(kept, blob)
	}
	inst.Blobs = kept
	if changed {
		inst.recalculateBounds()
	}
	return changed
}

// ContainsPosition reports whether the point lies inside any blob. Only the
// walkable plane is considered; elevation never affects footprint checks.
func (inst *Instance) ContainsPosition(point Vec3) bool {
	if inst == nil {
		return false
	}
	for _, blob := range inst.Blobs {
		if horizontalDistance(blob.Center, point) <= blob.Radius {
			return true
		}
	}
	return false
}

// IntersectsArea reports whether a circle at center with the given radius
// touches any blob.
func (inst *Instance) IntersectsArea(center Vec3, radius float64) bool {
	if inst == nil {
		return false
	}
	for _, blob := range inst.Blobs {
		if horizontalDistance(blob.Center, center) <= blob.Radius+radius {
			return true
		}
	}
	return false
}

// Overlaps reports whether any blob pair of the two instances touches.
func (inst *Instance) Overlaps(other *Instance) bool {
	if inst == nil || other == nil {
		return false
	}
	for _, blob := range inst.Blobs {
		for _, theirs := range other.Blobs {
			if horizontalDistance(blob.Center, theirs.Center) <= blob.Radius+theirs.Radius {
				return true
			}
		}
	}
	return false
}

// IsPermanent reports whether the instance ignores round ticking. A zero
// default duration or a remaining duration of zero both mean permanent.
func (inst *Instance) IsPermanent() bool {
	if inst == nil {
		return false
	}
	if inst.Definition != nil && inst.Definition.DefaultDuration == 0 {
		return true
	}
	return inst.RemainingDuration <= 0
}

// IsDepleted reports whether subtraction emptied the footprint.
func (inst *Instance) IsDepleted() bool {
	return inst == nil || len(inst.Blobs) == 0
}

// Tick consumes one round of lifetime. Returns whether the instance should
// stay active.
func (inst *Instance) Tick() bool {
	if inst == nil {
		return false
	}
	if inst.IsPermanent() {
		return true
	}
	inst.RemainingDuration--
	return inst.RemainingDuration > 0
}

// recalculateBounds rebuilds the bounding summary: Position is the
// blob-area-weighted centroid, Radius the tightest circle around every blob.
func (inst *Instance) recalculateBounds() {
	if inst == nil || len(inst.Blobs) == 0 {
		return
	}
	var totalWeight, sumX, sumY, sumZ float64
	for _, blob := range inst.Blobs {
		weight := math.Pi * blob.Radius * blob.Radius
		totalWeight += weight
		sumX += blob.Center.X * weight
		sumY += blob.Center.Y * weight
		sumZ += blob.Center.Z * weight
	}
	if totalWeight <= geometryEpsilon {
		inst.Position = inst.Blobs[0].Center
	} else {
		inst.Position = Vec3{X: sumX / totalWeight, Y: sumY / totalWeight, Z: sumZ / totalWeight}
	}
	radius := 0.0
	for _, blob := range inst.Blobs {
		reach := horizontalDistance(inst.Position, blob.Center) + blob.Radius
		if reach > radius {
			radius = reach
		}
	}
	inst.Radius = floorRadius(radius)
}

func floorRadius(radius float64) float64 {
	if radius < minBlobRadius {
		return minBlobRadius
	}
	return radius
}
