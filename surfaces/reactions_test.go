package surfaces

import (
	"testing"

	logsurfaces "cinder-and-brine/engine/logging/surfaces"
)

func TestWaterCastOverFireBoilsIntoSteam(t *testing.T) {
	m := NewManager(Config{})
	fire := m.CreateSurface("fire", Vec3{}, 2, "")
	water := m.CreateSurface("water", Vec3{}, 2, "druid")
	if water == nil {
		t.Fatal("expected water placement to survive")
	}

	if fire.Definition.ID != "steam" {
		t.Fatalf("expected the fire to transform into steam, got %q", fire.Definition.ID)
	}
	if fire.Definition.Layer != LayerCloud {
		t.Fatal("steam must live on the cloud layer")
	}
	// transform keeps the longer of remaining life and the new default
	if fire.RemainingDuration != 3 {
		t.Fatalf("expected steam to inherit the fire's 3 remaining rounds, got %d", fire.RemainingDuration)
	}

	active := m.ActiveSurfaces()
	if len(active) != 2 {
		t.Fatalf("expected ground water plus cloud steam, got %d instances", len(active))
	}
}

func TestTransformScalesBlobRadii(t *testing.T) {
	m := NewManager(Config{})
	oil := m.CreateSurface("oil", Vec3{}, 2, "")
	baseRadius := oil.Blobs[0].Radius

	m.CreateSurface("fire", Vec3{X: 2.5}, 1, "")
	if oil.Definition.ID != "fire" {
		t.Fatalf("expected oil to ignite, got %q", oil.Definition.ID)
	}
	want := baseRadius * 1.25
	if got := oil.Blobs[0].Radius; got != want {
		t.Fatalf("expected ignited blob radius %v, got %v", want, got)
	}
}

func TestCrossLayerContactIsGated(t *testing.T) {
	m := NewManager(Config{})
	m.CreateSurface("water", Vec3{}, 2, "")
	cloud := m.CreateSurface("darkness", Vec3{}, 2, "")
	if cloud == nil {
		t.Fatal("expected the cloud placement to survive")
	}
	active := m.ActiveSurfaces()
	if len(active) != 2 {
		t.Fatalf("a cloud over ground water must not react, got %d instances", len(active))
	}
	for _, inst := range active {
		switch inst.Definition.ID {
		case "water", "darkness":
		default:
			t.Fatalf("unexpected surface %q after cross-layer contact", inst.Definition.ID)
		}
	}
}

func TestFireDetonatesPoisonCloudAcrossLayers(t *testing.T) {
	bystander := &fakeUnit{id: "goblin", hp: 30, position: Vec3{X: 0.5}}
	distant := &fakeUnit{id: "scout", hp: 30, position: Vec3{X: 50}}
	m := NewManager(Config{
		Roster: func() []Unit { return []Unit{bystander, distant} },
	})

	m.CreateSurface("poison_cloud", Vec3{}, 2, "")
	m.CreateSurface("fire", Vec3{}, 2, "torchbearer")

	// Explicit table entry bridges the ground/cloud gap: the cloud ignites,
	// transforms into fire, and the result merges with the fresh fire.
	active := m.ActiveSurfaces()
	if len(active) != 1 {
		t.Fatalf("expected a single fire after the detonation, got %d instances", len(active))
	}
	if active[0].Definition.ID != "fire" {
		t.Fatalf("expected fire, got %q", active[0].Definition.ID)
	}

	if bystander.hp != 20 {
		t.Fatalf("expected the bystander to take 10 explosion damage, got hp %d", bystander.hp)
	}
	if distant.hp != 30 {
		t.Fatalf("units outside the blast radius must be untouched, got hp %d", distant.hp)
	}
}

func TestExplosionAppliesStatusThroughBackend(t *testing.T) {
	unit := &fakeUnit{id: "goblin", hp: 30, position: Vec3{X: 0.5}}
	backend := newFakeStatusBackend(statusBurning)
	m := NewManager(Config{
		Roster: func() []Unit { return []Unit{unit} },
		Status: backend,
	})

	m.CreateSurface("poison_cloud", Vec3{}, 2, "")
	m.CreateSurface("fire", Vec3{}, 2, "")

	if !backend.HasStatus("goblin", statusBurning) {
		t.Fatal("expected the explosion to set the goblin burning")
	}
}

func TestLegacyInteractionsTableStillTransforms(t *testing.T) {
	m := NewManager(Config{})
	m.RegisterDefinition(&Definition{
		ID:       "tar",
		Layer:    LayerGround,
		CanMerge: true,
	})
	m.RegisterDefinition(&Definition{
		ID:           "torchfire",
		Layer:        LayerGround,
		CanMerge:     true,
		Interactions: map[string]string{"tar": "fire"},
	})

	tar := m.CreateSurface("tar", Vec3{}, 2, "")
	m.CreateSurface("torchfire", Vec3{}, 1, "")
	if tar.Definition.ID != "fire" {
		t.Fatalf("expected legacy interaction to ignite the tar, got %q", tar.Definition.ID)
	}
}

func TestUnknownReactionResultWarnsAndLeavesTarget(t *testing.T) {
	recorder := &eventRecorder{}
	m := NewManager(Config{Publisher: recorder.publisher()})
	m.RegisterDefinition(&Definition{
		ID:       "slag",
		Layer:    LayerGround,
		CanMerge: true,
	})
	m.RegisterDefinition(&Definition{
		ID:               "quicksilver",
		Layer:            LayerGround,
		CanMerge:         true,
		ContactReactions: map[string]Reaction{"slag": {ResultSurfaceID: "philosopher_stone"}},
	})

	slag := m.CreateSurface("slag", Vec3{}, 2, "")
	m.CreateSurface("quicksilver", Vec3{}, 1, "")

	if slag.Definition.ID != "slag" {
		t.Fatalf("unresolvable result must leave the target untouched, got %q", slag.Definition.ID)
	}
	warns := recorder.ofType(logsurfaces.EventUnknownID)
	if len(warns) != 1 {
		t.Fatalf("expected 1 unknown-id warning, got %d", len(warns))
	}
	payload := warns[0].Payload.(logsurfaces.UnknownIDPayload)
	if payload.Requested != "philosopher_stone" || payload.Operation != "transform" {
		t.Fatalf("unexpected warning payload %+v", payload)
	}
}

func TestApplySurfaceEventFreezesWater(t *testing.T) {
	m := NewManager(Config{})
	water := m.CreateSurface("water", Vec3{}, 2, "")
	if got := m.ApplySurfaceEvent("freeze", Vec3{}, 3, "wizard"); got != 1 {
		t.Fatalf("expected 1 affected instance, got %d", got)
	}
	if water.Definition.ID != "ice" {
		t.Fatalf("expected frozen water to become ice, got %q", water.Definition.ID)
	}
	if water.RemainingDuration != 0 {
		t.Fatalf("ice is permanent, got duration %d", water.RemainingDuration)
	}
}

func TestApplySurfaceEventPrefersDefinitionTable(t *testing.T) {
	m := NewManager(Config{})
	water := m.CreateSurface("water", Vec3{}, 2, "")
	// water carries its own electrify entry; the default table must not win.
	if got := m.ApplySurfaceEvent("shock", Vec3{}, 3, ""); got != 1 {
		t.Fatalf("expected 1 affected instance, got %d", got)
	}
	if water.Definition.ID != "electrified_water" {
		t.Fatalf("expected electrified water, got %q", water.Definition.ID)
	}
	if water.RemainingDuration != 2 {
		t.Fatalf("expected the electrified water's 2-round default, got %d", water.RemainingDuration)
	}
}

func TestEventSynonymsNormalize(t *testing.T) {
	m := NewManager(Config{})
	m.CreateSurface("fire", Vec3{}, 2, "")
	if got := m.ApplySurfaceEvent("Extinguish", Vec3{}, 3, ""); got != 1 {
		t.Fatalf("expected the synonym to resolve to douse, got %d affected", got)
	}
	if got := len(m.ActiveSurfaces()); got != 0 {
		t.Fatalf("expected the doused fire to be removed, got %d active", got)
	}
}

func TestDouseShrinksSubtractableFireFamily(t *testing.T) {
	m := NewManager(Config{})
	// lava is fire-category but not subtractable: douse removes it outright.
	m.CreateSurface("lava", Vec3{}, 2, "")
	if got := m.ApplySurfaceEvent("douse", Vec3{X: 1.5}, 1, ""); got != 1 {
		t.Fatalf("expected the lava to be affected, got %d", got)
	}
	if got := len(m.ActiveSurfaces()); got != 0 {
		t.Fatalf("non-subtractable fire-family surface must be removed, got %d active", got)
	}
}

func TestDaylightClearsDarkness(t *testing.T) {
	m := NewManager(Config{})
	m.CreateSurface("darkness", Vec3{}, 1, "")
	if got := m.ApplySurfaceEvent("daylight", Vec3{}, 5, "cleric"); got != 1 {
		t.Fatalf("expected the darkness to be affected, got %d", got)
	}
	if got := len(m.ActiveSurfaces()); got != 0 {
		t.Fatalf("expected the darkness to be fully burned away, got %d active", got)
	}
}

func TestDestroyWaterConsumesWaterFamily(t *testing.T) {
	m := NewManager(Config{})
	m.CreateSurface("water", Vec3{}, 1, "")
	m.CreateSurface("oil", Vec3{X: 10}, 1, "")

	if got := m.ApplySurfaceEvent("destroy_water", Vec3{}, 20, ""); got != 1 {
		t.Fatalf("expected only the water to be affected, got %d", got)
	}
	active := m.ActiveSurfaces()
	if len(active) != 1 || active[0].Definition.ID != "oil" {
		t.Fatalf("expected only the oil to survive, got %d instances", len(active))
	}
}

func TestApplySurfaceEventOutsideAreaIsNoop(t *testing.T) {
	recorder := &eventRecorder{}
	m := NewManager(Config{Publisher: recorder.publisher()})
	m.CreateSurface("water", Vec3{}, 1, "")
	if got := m.ApplySurfaceEvent("freeze", Vec3{X: 50}, 2, ""); got != 0 {
		t.Fatalf("expected no instances affected, got %d", got)
	}
	if len(recorder.ofType(logsurfaces.EventApplied)) != 0 {
		t.Fatal("an event affecting nothing must not publish an applied record")
	}
}

func TestIgniteDefaultTurnsWaterToSteam(t *testing.T) {
	m := NewManager(Config{})
	water := m.CreateSurface("water", Vec3{}, 2, "")
	if got := m.ApplySurfaceEvent("ignite", Vec3{}, 3, ""); got != 1 {
		t.Fatalf("expected 1 affected instance, got %d", got)
	}
	if water.Definition.ID != "steam" {
		t.Fatalf("expected ignited water to boil into steam, got %q", water.Definition.ID)
	}
}
