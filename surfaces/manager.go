package surfaces

import (
	"context"
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"cinder-and-brine/engine/logging"
	logsurfaces "cinder-and-brine/engine/logging/surfaces"
)

// mergeProximityFraction widens the merge-before-insert overlap check by a
// fraction of the candidate radius so near-miss placements still coalesce.
const mergeProximityFraction = 0.3

// Config wires the manager to its collaborators. Every field is optional;
// zero values degrade to inert fallbacks (no-op publisher, raw damage, no
// statuses, empty roster).
type Config struct {
	// Seed drives every die the manager rolls. Supplying the same seed and
	// the same inputs replays combat identically.
	Seed       int64
	Publisher  logging.Publisher
	Damage     DamageResolver
	Status     StatusBackend
	Roster     Roster
	SaveRoller SaveRoller
	// SkipDefaultCatalog leaves the definition table empty so the host can
	// register a fully custom catalog.
	SkipDefaultCatalog bool
}

// Manager owns the surface catalog and the active-instance set, and runs
// placement, merging, reactions, triggers, and snapshotting. All operations
// are synchronous; there is exactly one logical writer (the turn loop).
type Manager struct {
	definitions map[string]*Definition
	aliases     map[string]string

	// active preserves insertion order so reaction resolution and exports
	// never depend on map iteration order.
	active []*Instance
	byID   map[string]*Instance

	publisher  logging.Publisher
	rng        *rand.Rand
	damage     DamageResolver
	status     StatusBackend
	roster     Roster
	saveRoller SaveRoller

	round uint64
}

func NewManager(cfg Config) *Manager {
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	m := &Manager{
		definitions: make(map[string]*Definition),
		aliases:     defaultAliases(),
		byID:        make(map[string]*Instance),
		publisher:   publisher,
		rng:         rand.New(rand.NewSource(cfg.Seed)),
		damage:      cfg.Damage,
		status:      cfg.Status,
		roster:      cfg.Roster,
		saveRoller:  cfg.SaveRoller,
	}
	if !cfg.SkipDefaultCatalog {
		for _, def := range defaultCatalog() {
			m.RegisterDefinition(def)
		}
	}
	return m
}

// RegisterDefinition indexes a definition by its lower-cased id. Nil
// definitions and blank ids are ignored; re-registering an id overrides the
// previous entry.
func (m *Manager) RegisterDefinition(def *Definition) {
	if m == nil || def == nil {
		return
	}
	id := strings.ToLower(strings.TrimSpace(def.ID))
	if id == "" {
		return
	}
	def.ID = id
	m.definitions[id] = def
}

// RegisterAlias maps a legacy or engine-specific name onto a canonical id.
func (m *Manager) RegisterAlias(alias, canonical string) {
	if m == nil {
		return
	}
	alias = strings.ToLower(strings.TrimSpace(alias))
	if alias == "" {
		return
	}
	m.aliases[alias] = strings.ToLower(strings.TrimSpace(canonical))
}

// DefinitionFor returns the catalog entry for a (possibly aliased) id.
func (m *Manager) DefinitionFor(surfaceID string) *Definition {
	if m == nil {
		return nil
	}
	return m.definitions[m.ResolveSurfaceID(surfaceID)]
}

// ResolveSurfaceID normalizes upstream naming into a canonical catalog key.
// Unresolvable names come back normalized but unchanged so the caller's
// "unknown type" check fails with a useful string.
func (m *Manager) ResolveSurfaceID(raw string) string {
	if m == nil {
		return ""
	}
	id := strings.ToLower(strings.TrimSpace(raw))
	id = strings.Trim(id, `"'`)
	if id == "" {
		return ""
	}
	if _, ok := m.definitions[id]; ok {
		return id
	}
	if canonical, ok := m.aliases[id]; ok {
		return canonical
	}
	if stripped, ok := strings.CutPrefix(id, "surface_"); ok {
		if _, known := m.definitions[stripped]; known {
			return stripped
		}
		if canonical, known := m.aliases[stripped]; known {
			return canonical
		}
	}
	return id
}

// CreateSurface places a one-blob surface using the definition's default
// duration. Returns the live instance covering the requested area, which may
// be a pre-existing instance the new footprint merged into, or nil when the
// id is unknown or a reaction consumed the placement.
func (m *Manager) CreateSurface(surfaceID string, position Vec3, radius float64, creatorID string) *Instance {
	return m.createSurface(surfaceID, position, radius, creatorID, 0, false)
}

// CreateSurfaceLasting is CreateSurface with an explicit duration override.
// Negative durations clamp to 0 (permanent).
func (m *Manager) CreateSurfaceLasting(surfaceID string, position Vec3, radius float64, creatorID string, duration int) *Instance {
	if duration < 0 {
		duration = 0
	}
	return m.createSurface(surfaceID, position, radius, creatorID, duration, true)
}

func (m *Manager) createSurface(surfaceID string, position Vec3, radius float64, creatorID string, duration int, hasDuration bool) *Instance {
	if m == nil {
		return nil
	}
	resolved := m.ResolveSurfaceID(surfaceID)
	def, ok := m.definitions[resolved]
	if resolved == "" || !ok {
		logsurfaces.UnknownID(context.Background(), m.publisher, m.round, logsurfaces.UnknownIDPayload{
			Requested: surfaceID,
			Operation: "create",
		})
		return nil
	}
	if !hasDuration {
		duration = def.DefaultDuration
	}

	candidate := &Instance{
		ID:                uuid.NewString(),
		Definition:        def,
		CreatorID:         creatorID,
		RemainingDuration: duration,
	}
	candidate.InitializeGeometry(position, radius)

	// Merge-before-insert: same definition, same layer, overlapping or
	// near-coincident footprints must stay a single instance.
	if def.CanMerge {
		if existing := m.findMergeTarget(def, nil, position, radius*(1+mergeProximityFraction)); existing != nil {
			existing.AddBlob(position, radius)
			m.refreshDuration(existing, duration)
			if creatorID != "" {
				existing.CreatorID = creatorID
			}
			m.publishGeometryChanged(existing)
			return existing
		}
	}

	m.insert(candidate)
	m.resolveContactReactions(candidate)

	// Merge-after-reactions safety net: a reaction can mint a second
	// instance of the candidate's type at the same spot (fire cast onto oil
	// turns the oil into fire right under the fresh fire). Reaction
	// outcomes are only knowable after they run, so re-scan.
	if m.alive(candidate) && def.CanMerge {
		if survivor := m.findMergeTarget(def, candidate, position, radius*(1+mergeProximityFraction)); survivor != nil {
			survivor.MergeGeometryFrom(candidate)
			m.refreshDuration(survivor, duration)
			if creatorID != "" {
				survivor.CreatorID = creatorID
			}
			m.removeInstanceSilent(candidate)
			m.publishGeometryChanged(survivor)
			return survivor
		}
	}

	if !m.alive(candidate) {
		return nil
	}
	logsurfaces.Created(context.Background(), m.publisher, m.round, m.surfaceRef(candidate), logsurfaces.CreatedPayload{
		SurfaceID: def.ID,
		CreatorID: creatorID,
		Duration:  candidate.RemainingDuration,
		X:         candidate.Position.X,
		Z:         candidate.Position.Z,
		Radius:    candidate.Radius,
	})
	return candidate
}

// findMergeTarget locates an active instance of the same definition and
// layer whose footprint touches the given circle. exclude skips the
// candidate itself during the post-reaction scan.
func (m *Manager) findMergeTarget(def *Definition, exclude *Instance, center Vec3, radius float64) *Instance {
	for _, inst := range m.active {
		if inst == exclude || inst.Definition == nil {
			continue
		}
		if inst.Definition.ID != def.ID || inst.Definition.Layer != def.Layer {
			continue
		}
		if inst.IntersectsArea(center, radius) {
			return inst
		}
	}
	return nil
}

// refreshDuration applies the merge rule: durations only ever grow. A zero
// incoming duration makes the instance permanent outright.
func (m *Manager) refreshDuration(inst *Instance, duration int) {
	if inst == nil {
		return
	}
	if duration == 0 {
		inst.RemainingDuration = 0
		return
	}
	if inst.RemainingDuration == 0 {
		// Already permanent; a finite refresh never shortens that.
		return
	}
	if duration > inst.RemainingDuration {
		inst.RemainingDuration = duration
	}
}

// AddSurfaceArea grows an existing instance by one blob and re-runs contact
// resolution, since new area may newly overlap other surfaces. Like the
// create path, reactions can mint a second instance of the subject's own
// type (growing fire into oil ignites the oil), so a post-reaction merge
// scan keeps same-definition/layer overlaps collapsed to one instance.
func (m *Manager) AddSurfaceArea(instanceID string, center Vec3, radius float64) bool {
	inst := m.instanceByID(instanceID)
	if inst == nil {
		return false
	}
	inst.AddBlob(center, radius)
	m.publishGeometryChanged(inst)
	m.resolveContactReactions(inst)
	if m.alive(inst) && inst.Definition != nil && inst.Definition.CanMerge {
		if twin := m.findOverlappingTwin(inst); twin != nil {
			inst.MergeGeometryFrom(twin)
			m.refreshDuration(inst, twin.RemainingDuration)
			m.removeInstanceSilent(twin)
			m.publishGeometryChanged(inst)
		}
	}
	return true
}

// findOverlappingTwin locates another active instance of the same definition
// and layer whose footprint overlaps the given one.
func (m *Manager) findOverlappingTwin(inst *Instance) *Instance {
	def := inst.Definition
	for _, other := range m.active {
		if other == inst || other.Definition == nil {
			continue
		}
		if other.Definition.ID != def.ID || other.Definition.Layer != def.Layer {
			continue
		}
		if inst.Overlaps(other) {
			return other
		}
	}
	return nil
}

// SubtractSurfaceArea carves area out of an existing instance, removing it
// when the footprint empties.
func (m *Manager) SubtractSurfaceArea(instanceID string, center Vec3, radius float64) bool {
	inst := m.instanceByID(instanceID)
	if inst == nil {
		return false
	}
	changed := inst.SubtractArea(center, radius, minBlobRadius)
	if inst.IsDepleted() {
		m.removeInstance(inst, "subtracted")
		return true
	}
	if changed {
		m.publishGeometryChanged(inst)
	}
	return changed
}

// RemoveSurface removes an instance by id. Stale ids are a no-op.
func (m *Manager) RemoveSurface(instanceID string) bool {
	inst := m.instanceByID(instanceID)
	if inst == nil {
		return false
	}
	m.removeInstance(inst, "removed")
	return true
}

// RemoveSurfacesByCreator removes every instance placed by the given
// creator and returns how many were removed.
func (m *Manager) RemoveSurfacesByCreator(creatorID string) int {
	if m == nil || creatorID == "" {
		return 0
	}
	removed := 0
	for _, inst := range m.snapshotActive() {
		if !m.alive(inst) || inst.CreatorID != creatorID {
			continue
		}
		m.removeInstance(inst, "creator-removed")
		removed++
	}
	return removed
}

// ActiveSurfaces returns a copy of the active set in insertion order.
func (m *Manager) ActiveSurfaces() []*Instance {
	if m == nil {
		return nil
	}
	return m.snapshotActive()
}

// SurfaceByID returns the live instance with the given id, or nil.
func (m *Manager) SurfaceByID(instanceID string) *Instance {
	return m.instanceByID(instanceID)
}

// SurfacesAt returns every active surface whose footprint contains the
// point. Movement and LOS systems consume this.
func (m *Manager) SurfacesAt(position Vec3) []*Instance {
	if m == nil {
		return nil
	}
	var found []*Instance
	for _, inst := range m.active {
		if inst.ContainsPosition(position) {
			found = append(found, inst)
		}
	}
	return found
}

// SurfacesInArea returns every active surface touching the circle.
func (m *Manager) SurfacesInArea(center Vec3, radius float64) []*Instance {
	if m == nil {
		return nil
	}
	var found []*Instance
	for _, inst := range m.active {
		if inst.IntersectsArea(center, radius) {
			found = append(found, inst)
		}
	}
	return found
}

// MovementCostMultiplierAt reports the strongest movement-cost multiplier
// among surfaces covering the point. 1 means unimpeded.
func (m *Manager) MovementCostMultiplierAt(position Vec3) float64 {
	cost := 1.0
	for _, inst := range m.SurfacesAt(position) {
		if inst.Definition == nil {
			continue
		}
		if inst.Definition.MovementCostMultiplier > cost {
			cost = inst.Definition.MovementCostMultiplier
		}
	}
	return cost
}

// Round returns the number of completed rounds.
func (m *Manager) Round() uint64 {
	if m == nil {
		return 0
	}
	return m.round
}

func (m *Manager) insert(inst *Instance) {
	m.active = append(m.active, inst)
	m.byID[inst.ID] = inst
}

// alive is the liveness contract for mutation-during-iteration paths: every
// step that runs after a merge or reaction must re-check the handle.
func (m *Manager) alive(inst *Instance) bool {
	if m == nil || inst == nil {
		return false
	}
	return m.byID[inst.ID] == inst
}

func (m *Manager) instanceByID(instanceID string) *Instance {
	if m == nil || instanceID == "" {
		return nil
	}
	return m.byID[instanceID]
}

func (m *Manager) snapshotActive() []*Instance {
	return append([]*Instance(nil), m.active...)
}

func (m *Manager) removeInstance(inst *Instance, reason string) {
	if !m.alive(inst) {
		return
	}
	m.detach(inst)
	payload := logsurfaces.RemovedPayload{Reason: reason}
	if inst.Definition != nil {
		payload.SurfaceID = inst.Definition.ID
	}
	logsurfaces.Removed(context.Background(), m.publisher, m.round, m.surfaceRef(inst), payload)
}

func (m *Manager) removeInstanceSilent(inst *Instance) {
	if !m.alive(inst) {
		return
	}
	m.detach(inst)
}

func (m *Manager) detach(inst *Instance) {
	delete(m.byID, inst.ID)
	for i, active := range m.active {
		if active == inst {
			m.active = append(m.active[:i], m.active[i+1:]...)
			return
		}
	}
}

func (m *Manager) publishGeometryChanged(inst *Instance) {
	payload := logsurfaces.GeometryPayload{
		BlobCount: len(inst.Blobs),
		Radius:    inst.Radius,
	}
	if inst.Definition != nil {
		payload.SurfaceID = inst.Definition.ID
	}
	logsurfaces.GeometryChanged(context.Background(), m.publisher, m.round, m.surfaceRef(inst), payload)
}

func (m *Manager) surfaceRef(inst *Instance) logging.EntityRef {
	if inst == nil {
		return logging.EntityRef{Kind: logging.EntityKindSurface}
	}
	return logging.EntityRef{ID: inst.ID, Kind: logging.EntityKindSurface}
}

func (m *Manager) sourceRef(sourceID string) logging.EntityRef {
	if sourceID == "" {
		return logging.EntityRef{Kind: logging.EntityKindWorld}
	}
	return logging.EntityRef{ID: sourceID, Kind: logging.EntityKindUnit}
}

func (m *Manager) unitRef(unit Unit) logging.EntityRef {
	if unit == nil {
		return logging.EntityRef{Kind: logging.EntityKindUnit}
	}
	return logging.EntityRef{ID: unit.ID(), Kind: logging.EntityKindUnit}
}

// resolveDamage routes raw damage through the external pipeline when one is
// configured.
func (m *Manager) resolveDamage(target Unit, amount int, damageType string) int {
	if m.damage == nil {
		return amount
	}
	return m.damage.ResolveDamage(target, amount, damageType)
}
