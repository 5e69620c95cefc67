package surfaces

// Unit is the slice of the combatant model the surface engine needs: a
// stable id, a position, a health sink, and a saving-throw modifier lookup.
type Unit interface {
	ID() string
	Position() Vec3
	TakeDamage(amount int)
	IsActive() bool
	SaveModifier(ability string) int
}

// DamageResolver runs raw surface damage through the external
// resistance/immunity pipeline. A nil resolver means the raw amount applies.
type DamageResolver interface {
	ResolveDamage(target Unit, amount int, damageType string) int
}

// DamageResolverFunc adapts a plain function to DamageResolver.
type DamageResolverFunc func(target Unit, amount int, damageType string) int

func (f DamageResolverFunc) ResolveDamage(target Unit, amount int, damageType string) int {
	if f == nil {
		return amount
	}
	return f(target, amount, damageType)
}

// StatusBackend is the external status-effect subsystem. HasDefinition is
// consulted before every apply so typos in catalog data degrade to inert
// surfaces instead of phantom statuses.
type StatusBackend interface {
	ApplyStatus(statusID, sourceID, targetID string, duration, stacks int)
	RemoveStatus(targetID, statusID string)
	HasStatus(targetID, statusID string) bool
	Statuses(targetID string) []string
	HasDefinition(statusID string) bool
}

// Roster returns the currently active units. It is only consulted for
// area-explosion damage resolution.
type Roster func() []Unit

// SaveRoller lets the host route saving throws through its own dice
// pipeline. When nil the manager rolls d20 + modifier against the DC with
// its seeded generator.
type SaveRoller func(unit Unit, ability string, dc int) bool
