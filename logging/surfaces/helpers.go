package surfaces

import (
	"context"

	"cinder-and-brine/engine/logging"
)

const (
	// EventCreated is emitted when a new surface instance enters play.
	EventCreated logging.EventType = "surfaces.created"
	// EventRemoved is emitted when an instance leaves the active set.
	EventRemoved logging.EventType = "surfaces.removed"
	// EventTransformed is emitted when a reaction rebuilds an instance under
	// a new definition.
	EventTransformed logging.EventType = "surfaces.transformed"
	// EventGeometryChanged is emitted after merge, blob addition, or
	// partial subtraction.
	EventGeometryChanged logging.EventType = "surfaces.geometry_changed"
	// EventTriggered is emitted when a surface's payload fires against a
	// unit during the turn pipeline.
	EventTriggered logging.EventType = "surfaces.triggered"
	// EventApplied is emitted once per ApplySurfaceEvent call that affected
	// at least one instance.
	EventApplied logging.EventType = "surfaces.event_applied"
	// EventUnknownID is emitted when a caller names a surface type the
	// catalog cannot resolve.
	EventUnknownID logging.EventType = "surfaces.unknown_id"
)

type CreatedPayload struct {
	SurfaceID string  `json:"surfaceId"`
	CreatorID string  `json:"creatorId,omitempty"`
	Duration  int     `json:"duration"`
	X         float64 `json:"x"`
	Z         float64 `json:"z"`
	Radius    float64 `json:"radius"`
}

type RemovedPayload struct {
	SurfaceID string `json:"surfaceId"`
	Reason    string `json:"reason,omitempty"`
}

type TransformedPayload struct {
	FromSurfaceID string `json:"fromSurfaceId"`
	ToSurfaceID   string `json:"toSurfaceId"`
	Exploded      bool   `json:"exploded,omitempty"`
}

type GeometryPayload struct {
	SurfaceID string  `json:"surfaceId"`
	BlobCount int     `json:"blobCount"`
	Radius    float64 `json:"radius"`
}

type TriggeredPayload struct {
	SurfaceID string `json:"surfaceId"`
	Phase     string `json:"phase"`
	Damage    int    `json:"damage,omitempty"`
	StatusID  string `json:"statusId,omitempty"`
	Saved     bool   `json:"saved,omitempty"`
}

type AppliedPayload struct {
	Event    string `json:"event"`
	SourceID string `json:"sourceId,omitempty"`
	Affected int    `json:"affected"`
}

type UnknownIDPayload struct {
	Requested string `json:"requested"`
	Operation string `json:"operation"`
}

func Created(ctx context.Context, pub logging.Publisher, round uint64, surface logging.EntityRef, payload CreatedPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventCreated,
		Round:    round,
		Actor:    surface,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySurfaces,
		Payload:  payload,
	})
}

func Removed(ctx context.Context, pub logging.Publisher, round uint64, surface logging.EntityRef, payload RemovedPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventRemoved,
		Round:    round,
		Actor:    surface,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySurfaces,
		Payload:  payload,
	})
}

func Transformed(ctx context.Context, pub logging.Publisher, round uint64, surface logging.EntityRef, payload TransformedPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventTransformed,
		Round:    round,
		Actor:    surface,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySurfaces,
		Payload:  payload,
	})
}

func GeometryChanged(ctx context.Context, pub logging.Publisher, round uint64, surface logging.EntityRef, payload GeometryPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventGeometryChanged,
		Round:    round,
		Actor:    surface,
		Severity: logging.SeverityDebug,
		Category: logging.CategorySurfaces,
		Payload:  payload,
	})
}

func Triggered(ctx context.Context, pub logging.Publisher, round uint64, surface logging.EntityRef, unit logging.EntityRef, payload TriggeredPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventTriggered,
		Round:    round,
		Actor:    surface,
		Targets:  []logging.EntityRef{unit},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

func Applied(ctx context.Context, pub logging.Publisher, round uint64, source logging.EntityRef, payload AppliedPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventApplied,
		Round:    round,
		Actor:    source,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySurfaces,
		Payload:  payload,
	})
}

func UnknownID(ctx context.Context, pub logging.Publisher, round uint64, payload UnknownIDPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventUnknownID,
		Round:    round,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityWarn,
		Category: logging.CategorySurfaces,
		Payload:  payload,
	})
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, event)
}
