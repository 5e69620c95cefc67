package surfaces

import (
	"context"
	"testing"

	"cinder-and-brine/engine/logging"
	logsurfaces "cinder-and-brine/engine/logging/surfaces"
)

// eventRecorder is a synchronous capture publisher shared by the tests in
// this package.
type eventRecorder struct {
	events []logging.Event
}

func (r *eventRecorder) publisher() logging.Publisher {
	return logging.PublisherFunc(func(_ context.Context, event logging.Event) {
		r.events = append(r.events, event)
	})
}

func (r *eventRecorder) ofType(eventType logging.EventType) []logging.Event {
	var out []logging.Event
	for _, event := range r.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

type fakeUnit struct {
	id       string
	position Vec3
	hp       int
	inactive bool
	saves    map[string]int
	hits     []int
}

func (u *fakeUnit) ID() string     { return u.id }
func (u *fakeUnit) Position() Vec3 { return u.position }
func (u *fakeUnit) IsActive() bool { return !u.inactive && u.hp > 0 }

func (u *fakeUnit) TakeDamage(amount int) {
	u.hp -= amount
	u.hits = append(u.hits, amount)
}
func (u *fakeUnit) SaveModifier(ability string) int { return u.saves[ability] }

type appliedStatus struct {
	statusID string
	sourceID string
	targetID string
}

type fakeStatusBackend struct {
	known   map[string]bool
	current map[string]map[string]bool
	applied []appliedStatus
	removed []appliedStatus
}

func newFakeStatusBackend(known ...string) *fakeStatusBackend {
	b := &fakeStatusBackend{
		known:   make(map[string]bool, len(known)),
		current: make(map[string]map[string]bool),
	}
	for _, id := range known {
		b.known[id] = true
	}
	return b
}

func (b *fakeStatusBackend) ApplyStatus(statusID, sourceID, targetID string, _, _ int) {
	if b.current[targetID] == nil {
		b.current[targetID] = make(map[string]bool)
	}
	b.current[targetID][statusID] = true
	b.applied = append(b.applied, appliedStatus{statusID: statusID, sourceID: sourceID, targetID: targetID})
}

func (b *fakeStatusBackend) RemoveStatus(targetID, statusID string) {
	delete(b.current[targetID], statusID)
	b.removed = append(b.removed, appliedStatus{statusID: statusID, targetID: targetID})
}

func (b *fakeStatusBackend) HasStatus(targetID, statusID string) bool {
	return b.current[targetID][statusID]
}

func (b *fakeStatusBackend) Statuses(targetID string) []string {
	var out []string
	for id := range b.current[targetID] {
		out = append(out, id)
	}
	return out
}

func (b *fakeStatusBackend) HasDefinition(statusID string) bool { return b.known[statusID] }

func TestCreateSurfaceMergesSameType(t *testing.T) {
	recorder := &eventRecorder{}
	m := NewManager(Config{Publisher: recorder.publisher()})

	first := m.CreateSurface("water", Vec3{}, 2, "caster-1")
	if first == nil {
		t.Fatal("expected first placement to yield an instance")
	}
	second := m.CreateSurface("water", Vec3{X: 1}, 2, "caster-2")
	if second != first {
		t.Fatal("overlapping same-type placement must merge into the existing instance")
	}
	if got := len(m.ActiveSurfaces()); got != 1 {
		t.Fatalf("expected 1 active instance, got %d", got)
	}
	if got := len(first.Blobs); got != 2 {
		t.Fatalf("expected merged footprint with 2 blobs, got %d", got)
	}
	if first.CreatorID != "caster-2" {
		t.Fatalf("merge must adopt the newest creator, got %q", first.CreatorID)
	}
	if got := len(recorder.ofType(logsurfaces.EventCreated)); got != 1 {
		t.Fatalf("expected exactly 1 created event, got %d", got)
	}
	if len(recorder.ofType(logsurfaces.EventGeometryChanged)) == 0 {
		t.Fatal("expected a geometry_changed event for the merge")
	}
}

func TestCreateSurfaceDistantSameTypeStaysSeparate(t *testing.T) {
	m := NewManager(Config{})
	m.CreateSurface("water", Vec3{}, 1, "")
	m.CreateSurface("water", Vec3{X: 20}, 1, "")
	if got := len(m.ActiveSurfaces()); got != 2 {
		t.Fatalf("expected 2 separate instances, got %d", got)
	}
}

func TestCreateSurfaceUnknownID(t *testing.T) {
	recorder := &eventRecorder{}
	m := NewManager(Config{Publisher: recorder.publisher()})

	if inst := m.CreateSurface("chocolate", Vec3{}, 1, ""); inst != nil {
		t.Fatal("unknown surface id must not create an instance")
	}
	if got := len(m.ActiveSurfaces()); got != 0 {
		t.Fatalf("expected empty active set, got %d", got)
	}
	warns := recorder.ofType(logsurfaces.EventUnknownID)
	if len(warns) != 1 {
		t.Fatalf("expected 1 unknown-id warning, got %d", len(warns))
	}
	if warns[0].Severity != logging.SeverityWarn {
		t.Fatalf("unknown-id event must be a warning, got severity %d", warns[0].Severity)
	}
}

func TestFireCastOntoOilScenario(t *testing.T) {
	recorder := &eventRecorder{}
	unit := &fakeUnit{id: "rogue", hp: 30}
	m := NewManager(Config{
		Publisher: recorder.publisher(),
		Roster:    func() []Unit { return []Unit{unit} },
	})

	oil := m.CreateSurface("oil", Vec3{}, 3, "caster-1")
	if oil == nil {
		t.Fatal("expected oil placement to succeed")
	}
	m.CreateSurface("fire", Vec3{}, 2, "caster-2")

	active := m.ActiveSurfaces()
	if len(active) != 1 {
		t.Fatalf("expected the oil to ignite into a single fire, got %d instances", len(active))
	}
	result := active[0]
	if result.Definition.ID != "fire" {
		t.Fatalf("expected surviving instance to be fire, got %q", result.Definition.ID)
	}
	if result.RemainingDuration != 3 {
		t.Fatalf("ignited fire must adopt fire's default duration, got %d", result.RemainingDuration)
	}

	transforms := recorder.ofType(logsurfaces.EventTransformed)
	if len(transforms) != 1 {
		t.Fatalf("expected 1 transform event, got %d", len(transforms))
	}
	payload := transforms[0].Payload.(logsurfaces.TransformedPayload)
	if payload.FromSurfaceID != "oil" || payload.ToSurfaceID != "fire" {
		t.Fatalf("expected oil->fire transform, got %s->%s", payload.FromSurfaceID, payload.ToSurfaceID)
	}

	// The unit standing at the origin burns exactly once at turn start.
	m.ProcessTurnStart(unit)
	if len(unit.hits) != 1 || unit.hits[0] != 5 {
		t.Fatalf("expected a single 5-damage trigger, got %v", unit.hits)
	}
}

func TestWaterDousesFreshFire(t *testing.T) {
	m := NewManager(Config{})
	water := m.CreateSurface("water", Vec3{}, 3, "")
	if inst := m.CreateSurface("fire", Vec3{}, 2, ""); inst != nil {
		t.Fatal("fire cast onto standing water must be consumed")
	}
	active := m.ActiveSurfaces()
	if len(active) != 1 || active[0] != water {
		t.Fatalf("expected only the water to survive, got %d instances", len(active))
	}
}

func TestSubtractDepletionRemovesInstance(t *testing.T) {
	recorder := &eventRecorder{}
	m := NewManager(Config{Publisher: recorder.publisher()})

	water := m.CreateSurface("water", Vec3{}, 1, "")
	if !m.SubtractSurfaceArea(water.ID, Vec3{}, 3) {
		t.Fatal("expected subtraction to report a change")
	}
	if got := len(m.ActiveSurfaces()); got != 0 {
		t.Fatalf("expected depleted instance to be removed, got %d active", got)
	}
	if m.SurfaceByID(water.ID) != nil {
		t.Fatal("removed instance must not be resolvable by id")
	}
	if len(recorder.ofType(logsurfaces.EventRemoved)) != 1 {
		t.Fatal("expected a removed event for the depleted instance")
	}
	// Stale handle: a second subtraction is a no-op.
	if m.SubtractSurfaceArea(water.ID, Vec3{}, 3) {
		t.Fatal("subtracting a removed instance must be a no-op")
	}
}

func TestMergeRefreshNeverShortensDuration(t *testing.T) {
	m := NewManager(Config{})
	fire := m.CreateSurface("fire", Vec3{}, 2, "")
	m.ProcessRoundEnd()
	if fire.RemainingDuration != 2 {
		t.Fatalf("expected duration 2 after one round, got %d", fire.RemainingDuration)
	}
	merged := m.CreateSurface("fire", Vec3{X: 0.5}, 2, "")
	if merged != fire {
		t.Fatal("expected overlapping fire to merge")
	}
	if fire.RemainingDuration != 3 {
		t.Fatalf("merge must refresh duration back to 3, got %d", fire.RemainingDuration)
	}

	// Refreshing with a shorter explicit duration changes nothing.
	m.CreateSurfaceLasting("fire", Vec3{X: 0.75}, 2, "", 1)
	if fire.RemainingDuration != 3 {
		t.Fatalf("shorter refresh must not shorten the duration, got %d", fire.RemainingDuration)
	}

	// A zero-duration refresh makes the instance permanent outright.
	m.CreateSurfaceLasting("fire", Vec3{X: 1}, 2, "", 0)
	if fire.RemainingDuration != 0 {
		t.Fatalf("zero-duration refresh must pin the instance permanent, got %d", fire.RemainingDuration)
	}
}

func TestAddSurfaceAreaMergesReactionTwin(t *testing.T) {
	unit := &fakeUnit{id: "grunt", hp: 30, position: Vec3{X: 9.5}}
	m := NewManager(Config{})
	fire := m.CreateSurface("fire", Vec3{}, 2, "")
	m.CreateSurface("oil", Vec3{X: 10}, 2, "")

	// Growing the fire into the oil ignites it, minting a second fire right
	// under the new blob. The grown instance must absorb it.
	if !m.AddSurfaceArea(fire.ID, Vec3{X: 9}, 2) {
		t.Fatal("expected area growth to succeed")
	}

	fires := 0
	for _, inst := range m.ActiveSurfaces() {
		if inst.Definition.ID == "fire" {
			fires++
		}
	}
	if fires != 1 {
		t.Fatalf("expected exactly 1 fire instance after the reaction, got %d", fires)
	}
	if m.SurfaceByID(fire.ID) != fire {
		t.Fatal("the grown instance must survive the merge")
	}

	m.ProcessTurnStart(unit)
	if len(unit.hits) != 1 || unit.hits[0] != 5 {
		t.Fatalf("unit inside the merged fire must burn exactly once, got %v", unit.hits)
	}
}

func TestAddSurfaceAreaMergePreservesPermanence(t *testing.T) {
	m := NewManager(Config{})
	m.RegisterDefinition(&Definition{
		ID:           "brine",
		Layer:        LayerGround,
		CanMerge:     true,
		Interactions: map[string]string{"oil": "brine"},
	})

	pool := m.CreateSurfaceLasting("brine", Vec3{}, 2, "", 3)
	m.CreateSurface("oil", Vec3{X: 10}, 2, "")

	m.AddSurfaceArea(pool.ID, Vec3{X: 9}, 2)

	// The converted oil was permanent; the merged pool must not expire.
	if pool.RemainingDuration != 0 {
		t.Fatalf("absorbing a permanent twin must pin the pool permanent, got %d", pool.RemainingDuration)
	}
	if got := len(m.ActiveSurfaces()); got != 1 {
		t.Fatalf("expected a single merged pool, got %d", got)
	}
}

func TestResolveSurfaceID(t *testing.T) {
	m := NewManager(Config{})
	cases := []struct {
		raw  string
		want string
	}{
		{"fire", "fire"},
		{"  FIRE  ", "fire"},
		{`"fire"`, "fire"},
		{"flames", "fire"},
		{"surface_fire", "fire"},
		{"surface_flames", "fire"},
		{"poison", "poison_cloud"},
		{"none", ""},
		{"", ""},
		{"chocolate", "chocolate"},
	}
	for _, tc := range cases {
		if got := m.ResolveSurfaceID(tc.raw); got != tc.want {
			t.Fatalf("ResolveSurfaceID(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestRemoveSurfacesByCreator(t *testing.T) {
	m := NewManager(Config{})
	m.CreateSurface("water", Vec3{}, 1, "druid")
	m.CreateSurface("web", Vec3{X: 10}, 1, "druid")
	m.CreateSurface("oil", Vec3{X: 20}, 1, "alchemist")

	if got := m.RemoveSurfacesByCreator("druid"); got != 2 {
		t.Fatalf("expected 2 removals, got %d", got)
	}
	active := m.ActiveSurfaces()
	if len(active) != 1 || active[0].Definition.ID != "oil" {
		t.Fatalf("expected only the alchemist's oil to survive, got %d instances", len(active))
	}
	if got := m.RemoveSurfacesByCreator("druid"); got != 0 {
		t.Fatalf("expected repeat removal to find nothing, got %d", got)
	}
}

func TestSurfaceQueries(t *testing.T) {
	m := NewManager(Config{})
	m.CreateSurface("ice", Vec3{}, 2, "")
	m.CreateSurface("oil", Vec3{X: 10}, 2, "")

	at := m.SurfacesAt(Vec3{X: 1})
	if len(at) != 1 || at[0].Definition.ID != "ice" {
		t.Fatalf("expected the ice at x=1, got %d surfaces", len(at))
	}
	inArea := m.SurfacesInArea(Vec3{X: 5}, 4)
	if len(inArea) != 2 {
		t.Fatalf("expected both surfaces in the query circle, got %d", len(inArea))
	}
	if got := m.MovementCostMultiplierAt(Vec3{}); got != 2 {
		t.Fatalf("expected ice movement multiplier 2, got %v", got)
	}
	if got := m.MovementCostMultiplierAt(Vec3{X: 100}); got != 1 {
		t.Fatalf("expected clear ground multiplier 1, got %v", got)
	}
}

func TestSkipDefaultCatalog(t *testing.T) {
	m := NewManager(Config{SkipDefaultCatalog: true})
	if inst := m.CreateSurface("fire", Vec3{}, 1, ""); inst != nil {
		t.Fatal("empty catalog must reject every id")
	}
	m.RegisterDefinition(&Definition{ID: "brine", Layer: LayerGround, CanMerge: true})
	if inst := m.CreateSurface("brine", Vec3{}, 1, ""); inst == nil {
		t.Fatal("expected custom definition to be usable")
	}
}

func TestDeterministicReplay(t *testing.T) {
	run := func() []InstanceSnapshot {
		unit := &fakeUnit{id: "grunt", hp: 100, position: Vec3{X: 0.5}}
		m := NewManager(Config{
			Seed:   42,
			Roster: func() []Unit { return []Unit{unit} },
		})
		m.CreateSurface("oil", Vec3{}, 3, "a")
		m.CreateSurface("fire", Vec3{}, 2, "b")
		m.CreateSurface("water", Vec3{X: 10}, 2, "c")
		m.ApplySurfaceEvent("electrify", Vec3{X: 10}, 3, "c")
		m.ProcessTurnStart(unit)
		m.ProcessRoundEnd()
		return m.ExportState()
	}

	first := run()
	second := run()
	if len(first) != len(second) {
		t.Fatalf("replay diverged: %d vs %d instances", len(first), len(second))
	}
	for i := range first {
		a, b := first[i], second[i]
		if a.SurfaceID != b.SurfaceID || a.RemainingDuration != b.RemainingDuration || len(a.Blobs) != len(b.Blobs) {
			t.Fatalf("replay diverged at instance %d: %+v vs %+v", i, a, b)
		}
		for j := range a.Blobs {
			if a.Blobs[j] != b.Blobs[j] {
				t.Fatalf("replay diverged at instance %d blob %d: %+v vs %+v", i, j, a.Blobs[j], b.Blobs[j])
			}
		}
	}
}
