// Package catalog layers designer-authored surface definitions from JSON
// files on top of the engine's built-in table. Files hold either an array of
// entry objects or an object keyed by entry id; later sources override
// earlier ones so local overlays win during development.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"cinder-and-brine/engine/surfaces"
)

// Source is one catalog input. Production code uses file paths; tests and
// embedded overlays can supply in-memory data.
type Source interface {
	Load() ([]byte, error)
	Path() string
}

type fileSource struct {
	path string
}

func (f fileSource) Load() ([]byte, error) {
	return os.ReadFile(f.path)
}

func (f fileSource) Path() string {
	return f.path
}

// memorySource backs tests and embedded overlays.
type memorySource struct {
	name string
	data []byte
}

func (m memorySource) Load() ([]byte, error) {
	return m.data, nil
}

func (m memorySource) Path() string {
	return m.name
}

// MemorySource wraps raw JSON as a resolver source.
func MemorySource(name string, data []byte) Source {
	return memorySource{name: name, data: data}
}

// EntryDocument models the JSON contract for one designer-authored surface
// type. It is shared with the schema generator so tooling can validate and
// autocomplete catalog files.
type EntryDocument struct {
	ID       string `json:"id" jsonschema:"title=Surface id,pattern=^[a-z0-9_]+$,minLength=1,description=Canonical identifier other tables reference"`
	Name     string `json:"name,omitempty" jsonschema:"title=Display name"`
	Category string `json:"category,omitempty" jsonschema:"description=Elemental tag consulted by global event handlers (fire water poison ice oil web acid darkness hazard)"`
	Layer    string `json:"layer,omitempty" jsonschema:"description=ground or cloud,enum=ground,enum=cloud"`

	DefaultDuration int `json:"defaultDuration,omitempty" jsonschema:"description=Lifetime in rounds. 0 means permanent"`

	MovementCostMultiplier float64 `json:"movementCostMultiplier,omitempty"`
	DamagePerTrigger       int     `json:"damagePerTrigger,omitempty"`
	DamageType             string  `json:"damageType,omitempty"`
	AppliesStatusID        string  `json:"appliesStatusId,omitempty"`
	SaveAbility            string  `json:"saveAbility,omitempty"`
	SaveDC                 int     `json:"saveDc,omitempty"`

	DamageDicePerDistanceUnit string  `json:"damageDicePerDistanceUnit,omitempty" jsonschema:"description=NdS dice rolled per distance unit moved inside the surface"`
	DamageDistanceUnit        float64 `json:"damageDistanceUnit,omitempty"`

	CanMerge        bool `json:"canMerge,omitempty"`
	CanBeSubtracted bool `json:"canBeSubtracted,omitempty"`

	Interactions     map[string]string            `json:"interactions,omitempty" jsonschema:"description=Legacy transform-on-contact table: other surface id to result surface id"`
	ContactReactions map[string]surfaces.Reaction `json:"contactReactions,omitempty"`
	EventReactions   map[string]surfaces.Reaction `json:"eventReactions,omitempty"`

	Aliases []string `json:"aliases,omitempty" jsonschema:"description=Legacy names resolving to this entry"`
}

// FileDefinitions represents the canonical array format authored by
// designers; the loader also accepts an object keyed by id.
type FileDefinitions []EntryDocument

// Definition converts the document into the engine's catalog record.
func (e EntryDocument) Definition() *surfaces.Definition {
	return &surfaces.Definition{
		ID:                        strings.ToLower(strings.TrimSpace(e.ID)),
		Name:                      e.Name,
		Category:                  surfaces.Category(e.Category),
		Layer:                     normalizeLayer(e.Layer),
		DefaultDuration:           e.DefaultDuration,
		MovementCostMultiplier:    e.MovementCostMultiplier,
		DamagePerTrigger:          e.DamagePerTrigger,
		DamageType:                e.DamageType,
		AppliesStatusID:           e.AppliesStatusID,
		SaveAbility:               e.SaveAbility,
		SaveDC:                    e.SaveDC,
		DamageDicePerDistanceUnit: e.DamageDicePerDistanceUnit,
		DamageDistanceUnit:        e.DamageDistanceUnit,
		CanMerge:                  e.CanMerge,
		CanBeSubtracted:           e.CanBeSubtracted,
		Interactions:              e.Interactions,
		ContactReactions:          e.ContactReactions,
		EventReactions:            e.EventReactions,
	}
}

func normalizeLayer(raw string) surfaces.Layer {
	if strings.EqualFold(strings.TrimSpace(raw), string(surfaces.LayerCloud)) {
		return surfaces.LayerCloud
	}
	return surfaces.LayerGround
}

// Resolver merges one or more catalog sources into a stable lookup table.
// Call Reload to pick up on-disk changes (used for dev hot reload).
type Resolver struct {
	mu      sync.RWMutex
	sources []Source
	entries map[string]EntryDocument
	order   []string
}

// DefaultPaths returns the canonical catalog locations relative to the
// module root.
func DefaultPaths() []string {
	return []string{
		filepath.Join("config", "surfaces", "definitions.json"),
	}
}

// Load constructs a Resolver backed by the provided catalog file paths.
// Missing files are skipped so optional overlays cost nothing.
func Load(paths ...string) (*Resolver, error) {
	sources := make([]Source, 0, len(paths))
	for _, path := range paths {
		trimmed := strings.TrimSpace(path)
		if trimmed == "" {
			continue
		}
		sources = append(sources, fileSource{path: trimmed})
	}
	return newResolver(sources...)
}

// LoadSources constructs a Resolver from arbitrary sources. Tests supply
// in-memory sources while production code uses file paths.
func LoadSources(srcs ...Source) (*Resolver, error) {
	sources := make([]Source, 0, len(srcs))
	for _, s := range srcs {
		if s == nil {
			continue
		}
		sources = append(sources, s)
	}
	return newResolver(sources...)
}

func newResolver(sources ...Source) (*Resolver, error) {
	r := &Resolver{
		sources: append([]Source(nil), sources...),
		entries: make(map[string]EntryDocument),
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-parses all catalog sources. Later sources override earlier ones.
func (r *Resolver) Reload() error {
	if r == nil {
		return nil
	}
	entries := make(map[string]EntryDocument)
	order := make([]string, 0)
	for _, src := range r.sources {
		data, err := src.Load()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("catalog: failed loading %s: %w", src.Path(), err)
		}
		documents, err := decodeEntries(data)
		if err != nil {
			return fmt.Errorf("catalog: failed parsing %s: %w", src.Path(), err)
		}
		seen := make(map[string]struct{}, len(documents))
		for _, doc := range documents {
			id := strings.ToLower(strings.TrimSpace(doc.ID))
			if id == "" {
				return fmt.Errorf("catalog: entry missing id in %s", src.Path())
			}
			if _, dup := seen[id]; dup {
				return fmt.Errorf("catalog: duplicate id %q in %s", id, src.Path())
			}
			seen[id] = struct{}{}
			if _, exists := entries[id]; !exists {
				order = append(order, id)
			}
			entries[id] = doc
		}
	}

	r.mu.Lock()
	r.entries = entries
	r.order = order
	r.mu.Unlock()
	return nil
}

// Resolve returns the catalog entry for the provided id.
func (r *Resolver) Resolve(id string) (EntryDocument, bool) {
	if r == nil {
		return EntryDocument{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[strings.ToLower(strings.TrimSpace(id))]
	return entry, ok
}

// Entries returns the loaded documents in first-seen order.
func (r *Resolver) Entries() []EntryDocument {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]EntryDocument, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id])
	}
	return out
}

// Apply registers every loaded definition (and its aliases) on the manager,
// overriding built-in entries with the same id.
func (r *Resolver) Apply(m *surfaces.Manager) {
	if r == nil || m == nil {
		return
	}
	for _, doc := range r.Entries() {
		def := doc.Definition()
		m.RegisterDefinition(def)
		for _, alias := range doc.Aliases {
			m.RegisterAlias(alias, def.ID)
		}
	}
}

func decodeEntries(data []byte) ([]EntryDocument, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	switch trimmed[0] {
	case '[':
		var entries []EntryDocument
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, err
		}
		return entries, nil
	case '{':
		var object map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &object); err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(object))
		for id := range object {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		entries := make([]EntryDocument, 0, len(ids))
		for _, id := range ids {
			var entry EntryDocument
			if err := json.Unmarshal(object[id], &entry); err != nil {
				return nil, fmt.Errorf("entry %q: %w", id, err)
			}
			if entry.ID == "" {
				entry.ID = id
			} else if !strings.EqualFold(entry.ID, id) {
				return nil, fmt.Errorf("entry id %q does not match key %q", entry.ID, id)
			}
			entries = append(entries, entry)
		}
		return entries, nil
	default:
		return nil, fmt.Errorf("unexpected json token %q", string(trimmed[:1]))
	}
}
