package surfaces

import (
	"context"
	"strings"

	logsurfaces "cinder-and-brine/engine/logging/surfaces"
)

// reactionContext carries the shared inputs of the contact and event paths.
// source is nil on the event path.
type reactionContext struct {
	target    *Instance
	source    *Instance
	epicenter Vec3
	area      float64
	sourceID  string
}

// resolveContactReactions scans every other active instance overlapping the
// subject and applies the first matching reaction per pair. The subject is
// the freshly placed/grown geometry; the overlapped pre-existing instance is
// the one transformed or removed ("new displaces old"). Iteration runs over
// a snapshot because reactions remove and replace entries mid-scan.
func (m *Manager) resolveContactReactions(subject *Instance) {
	if m == nil || subject == nil || subject.Definition == nil {
		return
	}
	for _, other := range m.snapshotActive() {
		if !m.alive(subject) {
			// A RemoveSource reaction consumed the subject mid-scan.
			return
		}
		if other == subject || !m.alive(other) || other.Definition == nil {
			continue
		}
		if !subject.Overlaps(other) {
			continue
		}
		if !canInteract(subject.Definition, other.Definition) {
			continue
		}
		reaction, ok := lookupContactReaction(subject.Definition, other.Definition)
		if !ok {
			continue
		}
		m.applyReaction(reactionContext{
			target:    other,
			source:    subject,
			epicenter: overlapPoint(subject, other),
			area:      subject.Radius,
			sourceID:  subject.CreatorID,
		}, reaction)
	}
}

// canInteract gates cross-layer contact: two surfaces interact only when
// they share a layer or either side names the other explicitly.
func canInteract(a, b *Definition) bool {
	if a.Layer == b.Layer {
		return true
	}
	return hasEntryFor(a, b.ID) || hasEntryFor(b, a.ID)
}

func hasEntryFor(def *Definition, otherID string) bool {
	if def == nil {
		return false
	}
	if _, ok := def.ContactReactions[otherID]; ok {
		return true
	}
	_, ok := def.Interactions[otherID]
	return ok
}

// lookupContactReaction prefers the subject's own table, falling back to the
// other side's table keyed by the subject (symmetric lookup, subject
// priority). Legacy Interactions entries convert to a bare transform.
func lookupContactReaction(subject, other *Definition) (Reaction, bool) {
	if reaction, ok := tableReaction(subject, other.ID); ok {
		return reaction, true
	}
	return tableReaction(other, subject.ID)
}

func tableReaction(def *Definition, otherID string) (Reaction, bool) {
	if def == nil {
		return Reaction{}, false
	}
	if reaction, ok := def.ContactReactions[otherID]; ok {
		return reaction, true
	}
	if result, ok := def.Interactions[otherID]; ok {
		return Reaction{ResultSurfaceID: result}, true
	}
	return Reaction{}, false
}

// overlapPoint approximates where two footprints touch: the point between
// the closest blob pair, weighted by their radii.
func overlapPoint(a, b *Instance) Vec3 {
	bestDistance := -1.0
	var bestA, bestB Blob
	for _, mine := range a.Blobs {
		for _, theirs := range b.Blobs {
			gap := horizontalDistance(mine.Center, theirs.Center) - mine.Radius - theirs.Radius
			if bestDistance < 0 || gap < bestDistance {
				bestDistance = gap
				bestA = mine
				bestB = theirs
			}
		}
	}
	total := bestA.Radius + bestB.Radius
	if total <= geometryEpsilon {
		return bestA.Center
	}
	return lerp(bestA.Center, bestB.Center, bestA.Radius/total)
}

// applyReaction is the shared tail of the contact and event paths. Reports
// whether the reaction changed anything.
func (m *Manager) applyReaction(rc reactionContext, reaction Reaction) bool {
	changed := false

	if reaction.RemoveTarget && m.alive(rc.target) {
		m.removeOrShrink(rc.target, rc.epicenter, rc.area, "reaction")
		changed = true
	}

	if result := m.ResolveSurfaceID(reaction.ResultSurfaceID); result != "" && m.alive(rc.target) {
		if newDef, ok := m.definitions[result]; ok {
			exploded := reaction.ExplosionDamage > 0 && reaction.ExplosionRadius > 0
			m.transformInstance(rc.target, newDef, reaction.ResultRadiusMultiplier, exploded)
			changed = true
		} else {
			logsurfaces.UnknownID(context.Background(), m.publisher, m.round, logsurfaces.UnknownIDPayload{
				Requested: reaction.ResultSurfaceID,
				Operation: "transform",
			})
		}
	}

	if reaction.RemoveSource && rc.source != nil && m.alive(rc.source) {
		m.removeInstance(rc.source, "consumed-by-reaction")
		changed = true
	}

	if reaction.ExplosionDamage > 0 && reaction.ExplosionRadius > 0 {
		m.explode(rc.epicenter, reaction)
		changed = true
	}

	return changed
}

// transformInstance rebuilds an instance in place under a new definition,
// preserving its blob geometry scaled by radiusMultiplier.
func (m *Manager) transformInstance(inst *Instance, newDef *Definition, radiusMultiplier float64, exploded bool) {
	oldID := ""
	if inst.Definition != nil {
		oldID = inst.Definition.ID
	}
	if radiusMultiplier > 0 && radiusMultiplier != 1 {
		for i := range inst.Blobs {
			inst.Blobs[i].Radius = floorRadius(inst.Blobs[i].Radius * radiusMultiplier)
		}
	}
	inst.Definition = newDef
	inst.RemainingDuration = transformedDuration(inst.RemainingDuration, newDef)
	inst.recalculateBounds()

	logsurfaces.Transformed(context.Background(), m.publisher, m.round, m.surfaceRef(inst), logsurfaces.TransformedPayload{
		FromSurfaceID: oldID,
		ToSurfaceID:   newDef.ID,
		Exploded:      exploded,
	})
}

// transformedDuration: permanent results stay permanent; a permanent input
// adopts the new default; otherwise the surface keeps the longer of its
// remaining life and the new default, never less than one round.
func transformedDuration(remaining int, newDef *Definition) int {
	if newDef.DefaultDuration == 0 {
		return 0
	}
	if remaining == 0 {
		return newDef.DefaultDuration
	}
	duration := remaining
	if newDef.DefaultDuration > duration {
		duration = newDef.DefaultDuration
	}
	if duration < 1 {
		duration = 1
	}
	return duration
}

// removeOrShrink subtracts the affecting area when the definition allows it,
// otherwise removes the instance outright.
func (m *Manager) removeOrShrink(inst *Instance, center Vec3, radius float64, reason string) {
	if inst.Definition != nil && inst.Definition.CanBeSubtracted && radius > 0 {
		inst.SubtractArea(center, radius, minBlobRadius)
		if inst.IsDepleted() {
			m.removeInstance(inst, reason)
		} else {
			m.publishGeometryChanged(inst)
		}
		return
	}
	m.removeInstance(inst, reason)
}

// explode deals flat area damage around the reaction epicenter, optionally
// tagging survivors with a status.
func (m *Manager) explode(epicenter Vec3, reaction Reaction) {
	if m.roster == nil {
		return
	}
	for _, unit := range m.roster() {
		if unit == nil || !unit.IsActive() {
			continue
		}
		if horizontalDistance(unit.Position(), epicenter) > reaction.ExplosionRadius {
			continue
		}
		amount := m.resolveDamage(unit, reaction.ExplosionDamage, reaction.ExplosionDamageType)
		unit.TakeDamage(amount)
		if reaction.ExplosionStatusID != "" {
			m.applyStatus(reaction.ExplosionStatusID, "", unit)
		}
	}
}

// Event synonyms collapse upstream ability vocab onto canonical event names.
func normalizeEventID(raw string) string {
	id := strings.ToLower(strings.TrimSpace(raw))
	switch id {
	case "electric", "shock", "electrocute":
		return "electrify"
	case "thaw", "unfreeze":
		return "melt"
	case "extinguish", "quench":
		return "douse"
	}
	return id
}

// defaultEventTransforms is the built-in fallback consulted when a
// definition carries no EventReactions entry for the event.
var defaultEventTransforms = map[string]map[string]string{
	"freeze": {
		"water":             "ice",
		"electrified_water": "ice",
		"blood":             "ice",
	},
	"ignite": {
		"oil":    "fire",
		"grease": "fire",
		"web":    "fire",
		"acid":   "fire",
		"water":  "steam",
	},
	"melt": {
		"ice": "water",
	},
	"electrify": {
		"water": "electrified_water",
		"blood": "electrified_water",
	},
}

// destroyWaterTargets lists everything the destroy_water global handler
// consumes.
var destroyWaterTargets = map[string]struct{}{
	"water":             {},
	"ice":               {},
	"steam":             {},
	"blood":             {},
	"electrified_water": {},
}

// ApplySurfaceEvent fires a named event (ignite, freeze, douse, ...) into an
// area. Each intersecting instance consults, in order: its own
// EventReactions table, the built-in default transforms, and finally the
// global handlers. Returns how many instances were affected.
func (m *Manager) ApplySurfaceEvent(eventID string, position Vec3, radius float64, sourceID string) int {
	if m == nil {
		return 0
	}
	event := normalizeEventID(eventID)
	if event == "" {
		return 0
	}

	affected := 0
	for _, inst := range m.snapshotActive() {
		if !m.alive(inst) || inst.Definition == nil {
			continue
		}
		if !inst.IntersectsArea(position, radius) {
			continue
		}

		reaction, ok := inst.Definition.EventReactions[event]
		if !ok {
			if result, found := defaultEventTransforms[event][inst.Definition.ID]; found {
				reaction = Reaction{ResultSurfaceID: result}
				ok = true
			}
		}
		if ok {
			if m.applyReaction(reactionContext{
				target:    inst,
				epicenter: position,
				area:      radius,
				sourceID:  sourceID,
			}, reaction) {
				affected++
			}
			continue
		}

		if m.applyGlobalEvent(event, inst, position, radius) {
			affected++
		}
	}

	if affected > 0 {
		logsurfaces.Applied(context.Background(), m.publisher, m.round, m.sourceRef(sourceID), logsurfaces.AppliedPayload{
			Event:    event,
			SourceID: sourceID,
			Affected: affected,
		})
	}
	return affected
}

// applyGlobalEvent handles the few events that work against whole families
// of surfaces without per-definition table entries.
func (m *Manager) applyGlobalEvent(event string, inst *Instance, position Vec3, radius float64) bool {
	def := inst.Definition
	switch event {
	case "douse":
		if def.Category == CategoryFire {
			m.removeOrShrink(inst, position, radius, "doused")
			return true
		}
	case "daylight":
		if def.Category == CategoryDarkness || def.ID == "darkness" {
			m.removeOrShrink(inst, position, radius, "daylight")
			return true
		}
	case "destroy_water":
		if _, ok := destroyWaterTargets[def.ID]; ok {
			m.removeOrShrink(inst, position, radius, "destroyed")
			return true
		}
	}
	return false
}
