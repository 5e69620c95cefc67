package surfaces

import (
	"context"
	"strconv"
	"strings"

	logsurfaces "cinder-and-brine/engine/logging/surfaces"
)

const (
	statusBurning = "burning"
	statusWet     = "wet"

	// movementSampleStep is the segment sampling resolution for
	// damage-while-moving hazards.
	movementSampleStep = 0.25
)

const (
	TriggerEnter     = "enter"
	TriggerLeave     = "leave"
	TriggerTurnStart = "turn-start"
	TriggerTurnEnd   = "turn-end"
)

// ProcessEnter fires for every surface covering the position a unit just
// stepped into. Enter triggers apply the full damage/status payload.
func (m *Manager) ProcessEnter(unit Unit, position Vec3) {
	m.processTrigger(unit, position, TriggerEnter, true)
}

// ProcessLeave fires for every surface covering the position a unit just
// left. Leave triggers notify only.
func (m *Manager) ProcessLeave(unit Unit, position Vec3) {
	m.processTrigger(unit, position, TriggerLeave, false)
}

// ProcessTurnStart fires for every surface the acting unit stands in when
// its turn begins, applying the damage/status payload.
func (m *Manager) ProcessTurnStart(unit Unit) {
	if unit == nil {
		return
	}
	m.processTrigger(unit, unit.Position(), TriggerTurnStart, true)
}

// ProcessTurnEnd fires for every surface the acting unit stands in when its
// turn ends. Notification only.
func (m *Manager) ProcessTurnEnd(unit Unit) {
	if unit == nil {
		return
	}
	m.processTrigger(unit, unit.Position(), TriggerTurnEnd, false)
}

func (m *Manager) processTrigger(unit Unit, position Vec3, phase string, applyPayload bool) {
	if m == nil || unit == nil || !unit.IsActive() {
		return
	}
	for _, inst := range m.snapshotActive() {
		if !m.alive(inst) || inst.Definition == nil {
			continue
		}
		if !inst.ContainsPosition(position) {
			continue
		}
		payload := logsurfaces.TriggeredPayload{
			SurfaceID: inst.Definition.ID,
			Phase:     phase,
		}
		if applyPayload {
			damage, statusID, saved := m.applyTriggerPayload(inst, unit)
			payload.Damage = damage
			payload.StatusID = statusID
			payload.Saved = saved
		}
		logsurfaces.Triggered(context.Background(), m.publisher, m.round, m.surfaceRef(inst), m.unitRef(unit), payload)
	}
}

// applyTriggerPayload deals the per-trigger damage and status of a single
// surface to a unit. Returns the damage dealt, the status applied (empty
// when suppressed, missing, or saved against), and whether a save negated
// the status.
func (m *Manager) applyTriggerPayload(inst *Instance, unit Unit) (int, string, bool) {
	def := inst.Definition
	damage := 0
	if def.DamagePerTrigger > 0 {
		damage = m.resolveDamage(unit, def.DamagePerTrigger, def.DamageType)
		unit.TakeDamage(damage)
	}

	statusID := def.AppliesStatusID
	if statusID == "" || m.status == nil || !m.status.HasDefinition(statusID) {
		return damage, "", false
	}

	// Wet and burning are mutually exclusive: soaking a burning unit puts
	// the flames out, and a soaked unit cannot newly catch fire.
	switch statusID {
	case statusBurning:
		if m.status.HasStatus(unit.ID(), statusWet) {
			return damage, "", false
		}
	case statusWet:
		if m.status.HasStatus(unit.ID(), statusBurning) {
			m.status.RemoveStatus(unit.ID(), statusBurning)
		}
	}

	if def.SaveAbility != "" && def.SaveDC > 0 {
		if m.rollSave(unit, def.SaveAbility, def.SaveDC) {
			return damage, "", true
		}
	}

	m.status.ApplyStatus(statusID, inst.CreatorID, unit.ID(), 0, 1)
	return damage, statusID, false
}

func (m *Manager) applyStatus(statusID, sourceID string, unit Unit) {
	if m.status == nil || !m.status.HasDefinition(statusID) {
		return
	}
	m.status.ApplyStatus(statusID, sourceID, unit.ID(), 0, 1)
}

func (m *Manager) rollSave(unit Unit, ability string, dc int) bool {
	if m.saveRoller != nil {
		return m.saveRoller(unit, ability, dc)
	}
	roll := m.rng.Intn(20) + 1
	return roll+unit.SaveModifier(ability) >= dc
}

// ProcessMovement charges damage-per-distance hazards for a straight-line
// move. The segment is sampled at a fixed step; step lengths whose midpoint
// falls inside the footprint count toward the distance spent inside, and
// every whole distance unit inside rolls the configured dice as a separate
// damage instance. Crossing a large spike field in one move hurts more than
// standing still in it.
func (m *Manager) ProcessMovement(unit Unit, from, to Vec3) {
	if m == nil || unit == nil || !unit.IsActive() {
		return
	}
	for _, inst := range m.snapshotActive() {
		if !m.alive(inst) || inst.Definition == nil {
			continue
		}
		def := inst.Definition
		if def.DamageDicePerDistanceUnit == "" || def.DamageDistanceUnit <= 0 {
			continue
		}
		count, sides, ok := parseDice(def.DamageDicePerDistanceUnit)
		if !ok {
			continue
		}
		inside := m.distanceInside(inst, from, to)
		ticks := int(inside / def.DamageDistanceUnit)
		for i := 0; i < ticks; i++ {
			amount := m.rollDice(count, sides)
			amount = m.resolveDamage(unit, amount, def.DamageType)
			unit.TakeDamage(amount)
			logsurfaces.Triggered(context.Background(), m.publisher, m.round, m.surfaceRef(inst), m.unitRef(unit), logsurfaces.TriggeredPayload{
				SurfaceID: def.ID,
				Phase:     "movement",
				Damage:    amount,
			})
		}
	}
}

// distanceInside estimates how much of the from→to segment lies inside the
// footprint by summing sample steps whose midpoint is contained.
func (m *Manager) distanceInside(inst *Instance, from, to Vec3) float64 {
	total := horizontalDistance(from, to)
	if total <= geometryEpsilon {
		return 0
	}
	inside := 0.0
	for travelled := 0.0; travelled < total; travelled += movementSampleStep {
		step := movementSampleStep
		if travelled+step > total {
			step = total - travelled
		}
		midpoint := lerp(from, to, (travelled+step/2)/total)
		if inst.ContainsPosition(midpoint) {
			inside += step
		}
	}
	return inside
}

func (m *Manager) rollDice(count, sides int) int {
	total := 0
	for i := 0; i < count; i++ {
		total += m.rng.Intn(sides) + 1
	}
	return total
}

// parseDice reads "NdS" notation. Malformed notation reports false and the
// hazard stays inert rather than faulting.
func parseDice(notation string) (count, sides int, ok bool) {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(notation)), "d", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	count, err := strconv.Atoi(parts[0])
	if err != nil || count <= 0 {
		return 0, 0, false
	}
	sides, err = strconv.Atoi(parts[1])
	if err != nil || sides <= 0 {
		return 0, 0, false
	}
	return count, sides, true
}

// ProcessRoundEnd ticks every active instance's duration and removes the
// ones that expired, then advances the round counter.
func (m *Manager) ProcessRoundEnd() {
	if m == nil {
		return
	}
	for _, inst := range m.snapshotActive() {
		if !m.alive(inst) {
			continue
		}
		if !inst.Tick() {
			m.removeInstance(inst, "expired")
		}
	}
	m.round++
}
