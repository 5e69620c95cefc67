package surfaces

import (
	"context"

	"github.com/google/uuid"

	logsurfaces "cinder-and-brine/engine/logging/surfaces"
)

// BlobSnapshot is one circle of a persisted footprint.
type BlobSnapshot struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
	Radius float64 `json:"radius"`
}

// InstanceSnapshot is the flat persistence record for one active surface:
// enough to reconstruct geometry exactly on import.
type InstanceSnapshot struct {
	SurfaceID         string         `json:"surfaceId"`
	CreatorID         string         `json:"creatorId,omitempty"`
	RemainingDuration int            `json:"remainingDuration"`
	Blobs             []BlobSnapshot `json:"blobs"`
}

// ExportState flattens the active set into snapshot records.
func (m *Manager) ExportState() []InstanceSnapshot {
	if m == nil {
		return nil
	}
	snapshots := make([]InstanceSnapshot, 0, len(m.active))
	for _, inst := range m.active {
		if inst.Definition == nil {
			continue
		}
		snap := InstanceSnapshot{
			SurfaceID:         inst.Definition.ID,
			CreatorID:         inst.CreatorID,
			RemainingDuration: inst.RemainingDuration,
			Blobs:             make([]BlobSnapshot, 0, len(inst.Blobs)),
		}
		for _, blob := range inst.Blobs {
			snap.Blobs = append(snap.Blobs, BlobSnapshot{
				X:      blob.Center.X,
				Y:      blob.Center.Y,
				Z:      blob.Center.Z,
				Radius: blob.Radius,
			})
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots
}

// ImportState clears the current state and rebuilds instances directly from
// snapshots, bypassing merge and reaction logic: this is a full-state
// restore, not a gameplay action. Entries naming unknown surface types are
// skipped with a warning.
func (m *Manager) ImportState(snapshots []InstanceSnapshot) {
	m.importState(snapshots, false)
}

// ImportStateSilent is ImportState without any notifications, for load
// sequences where downstream systems must not react as if surfaces were
// freshly cast.
func (m *Manager) ImportStateSilent(snapshots []InstanceSnapshot) {
	m.importState(snapshots, true)
}

func (m *Manager) importState(snapshots []InstanceSnapshot, silent bool) {
	if m == nil {
		return
	}
	m.active = m.active[:0]
	m.byID = make(map[string]*Instance)

	for _, snap := range snapshots {
		resolved := m.ResolveSurfaceID(snap.SurfaceID)
		def, ok := m.definitions[resolved]
		if !ok {
			if !silent {
				logsurfaces.UnknownID(context.Background(), m.publisher, m.round, logsurfaces.UnknownIDPayload{
					Requested: snap.SurfaceID,
					Operation: "import",
				})
			}
			continue
		}
		if len(snap.Blobs) == 0 {
			continue
		}
		inst := &Instance{
			ID:                uuid.NewString(),
			Definition:        def,
			CreatorID:         snap.CreatorID,
			RemainingDuration: snap.RemainingDuration,
		}
		first := snap.Blobs[0]
		inst.InitializeGeometry(Vec3{X: first.X, Y: first.Y, Z: first.Z}, first.Radius)
		for _, blob := range snap.Blobs[1:] {
			inst.AddBlob(Vec3{X: blob.X, Y: blob.Y, Z: blob.Z}, blob.Radius)
		}
		m.insert(inst)
		if !silent {
			logsurfaces.Created(context.Background(), m.publisher, m.round, m.surfaceRef(inst), logsurfaces.CreatedPayload{
				SurfaceID: def.ID,
				CreatorID: inst.CreatorID,
				Duration:  inst.RemainingDuration,
				X:         inst.Position.X,
				Z:         inst.Position.Z,
				Radius:    inst.Radius,
			})
		}
	}
}
