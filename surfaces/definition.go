package surfaces

// Layer separates ground decals from airborne clouds. Two surfaces on
// different layers never occupy the same physical space unless a reaction
// entry explicitly names the other side.
type Layer string

const (
	LayerGround Layer = "ground"
	LayerCloud  Layer = "cloud"
)

// Category is the broad elemental tag consulted by global event handlers
// (douse targets anything tagged fire, daylight anything tagged darkness).
type Category string

const (
	CategoryFire     Category = "fire"
	CategoryWater    Category = "water"
	CategoryPoison   Category = "poison"
	CategoryIce      Category = "ice"
	CategoryOil      Category = "oil"
	CategoryWeb      Category = "web"
	CategoryAcid     Category = "acid"
	CategoryDarkness Category = "darkness"
	CategoryHazard   Category = "hazard"
)

// Reaction describes what happens to a surface when another surface touches
// it or when a named event (ignite, freeze, douse, ...) reaches it. A zero
// value means "nothing happens".
type Reaction struct {
	// ResultSurfaceID transforms the affected surface in place. Empty or the
	// "none" sentinel leaves the surface's type untouched.
	ResultSurfaceID string `json:"resultSurfaceId,omitempty"`
	// RemoveSource removes the newly placed surface that triggered the
	// contact. Ignored on the event path.
	RemoveSource bool `json:"removeSource,omitempty"`
	// RemoveTarget subtracts the affecting area from the surface, or removes
	// it outright when its definition forbids subtraction.
	RemoveTarget bool `json:"removeTarget,omitempty"`
	// ResultRadiusMultiplier scales every blob of the transformed footprint.
	// Zero means keep the radius as-is.
	ResultRadiusMultiplier float64 `json:"resultRadiusMultiplier,omitempty"`

	ExplosionDamage     int     `json:"explosionDamage,omitempty"`
	ExplosionRadius     float64 `json:"explosionRadius,omitempty"`
	ExplosionDamageType string  `json:"explosionDamageType,omitempty"`
	ExplosionStatusID   string  `json:"explosionStatusId,omitempty"`
}

// Definition is an immutable catalog entry for one surface type. Instances
// share the definition by pointer; nothing mutates it after registration.
type Definition struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Layer    Layer    `json:"layer"`

	// DefaultDuration is measured in rounds. Zero means the surface persists
	// until explicitly removed or subtracted away.
	DefaultDuration int `json:"defaultDuration"`

	MovementCostMultiplier float64 `json:"movementCostMultiplier,omitempty"`
	DamagePerTrigger       int     `json:"damagePerTrigger,omitempty"`
	DamageType             string  `json:"damageType,omitempty"`
	AppliesStatusID        string  `json:"appliesStatusId,omitempty"`
	SaveAbility            string  `json:"saveAbility,omitempty"`
	SaveDC                 int     `json:"saveDc,omitempty"`

	// DamageDicePerDistanceUnit ("2d4") rolls once per DamageDistanceUnit of
	// movement spent inside the footprint. Spike fields, not camp fires.
	DamageDicePerDistanceUnit string  `json:"damageDicePerDistanceUnit,omitempty"`
	DamageDistanceUnit        float64 `json:"damageDistanceUnit,omitempty"`

	CanMerge        bool `json:"canMerge"`
	CanBeSubtracted bool `json:"canBeSubtracted"`

	// Interactions is the legacy single-result transform table: touching
	// otherSurfaceId turns that other surface into resultSurfaceId.
	Interactions map[string]string `json:"interactions,omitempty"`
	// ContactReactions supersedes Interactions where present.
	ContactReactions map[string]Reaction `json:"contactReactions,omitempty"`
	// EventReactions answers externally fired events independent of contact.
	EventReactions map[string]Reaction `json:"eventReactions,omitempty"`
}

// IsPermanentByDefault reports whether instances of this definition outlive
// round ticking unless a caller supplies an explicit duration.
func (d *Definition) IsPermanentByDefault() bool {
	return d != nil && d.DefaultDuration == 0
}
