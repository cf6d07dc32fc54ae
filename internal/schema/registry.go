package schema

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// ErrUnknownEntity is returned when a name has no registered entity.
// Looking up an undeclared entity is a configuration error, not a runtime
// condition - callers should fail fast rather than degrade.
var ErrUnknownEntity = errors.New("unknown entity")

// ErrUnknownModel is returned when an entity has no registered model factory.
var ErrUnknownModel = errors.New("no model registered for entity")

// IDGenerator produces unique ids for UID attributes.
// Implemented by UUIDGenerator (production) and testutil.SequentialIDs (tests).
type IDGenerator interface {
	Generate() string
}

// UUIDGenerator generates RFC 4122 UUIDs via github.com/google/uuid.
type UUIDGenerator struct{}

// Generate returns a new random UUID string.
func (UUIDGenerator) Generate() string {
	return uuid.NewString()
}

// Factory wraps a flat record (possibly carrying nested loaded relations)
// into a typed model instance. wrapNested reports whether the factory should
// also wrap nested relation records; the core always wraps exactly once at
// the top of a result and passes true.
type Factory func(rec Record, wrapNested bool) (any, error)

// Registry holds the entity schemas and model factories for one store.
// It is a pure lookup structure: entries are fixed once registered.
type Registry struct {
	entities map[string]*Entity
	models   map[string]Factory
	ids      IDGenerator
}

// RegistryOption configures a Registry at construction time.
type RegistryOption func(*Registry)

// WithIDGenerator substitutes the generator used for UID attributes.
func WithIDGenerator(g IDGenerator) RegistryOption {
	return func(r *Registry) {
		r.ids = g
	}
}

// NewRegistry creates an empty registry with UUID id generation.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		entities: make(map[string]*Entity),
		models:   make(map[string]Factory),
		ids:      UUIDGenerator{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds an entity schema. Registering the same name twice or an
// unnamed entity is a configuration error.
func (r *Registry) Register(e *Entity) error {
	if e == nil || e.Name == "" {
		return errors.New("register: entity must have a name")
	}
	if _, exists := r.entities[e.Name]; exists {
		return fmt.Errorf("register: entity %q already registered", e.Name)
	}
	r.entities[e.Name] = e
	return nil
}

// MustRegister is Register for static schema declarations; it panics on
// error since a broken declaration cannot be recovered at runtime.
func (r *Registry) MustRegister(e *Entity) {
	if err := r.Register(e); err != nil {
		panic(err)
	}
}

// RegisterModel associates a model factory with an entity name.
func (r *Registry) RegisterModel(entity string, f Factory) error {
	if _, err := r.Entity(entity); err != nil {
		return err
	}
	r.models[entity] = f
	return nil
}

// Entity looks up a registered entity schema by name.
func (r *Registry) Entity(name string) (*Entity, error) {
	e, ok := r.entities[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, name)
	}
	return e, nil
}

// Model looks up the model factory registered for an entity.
func (r *Registry) Model(entity string) (Factory, error) {
	f, ok := r.models[entity]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, entity)
	}
	return f, nil
}

// Names returns all registered entity names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entities))
	for name := range r.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewID generates an id for a UID attribute.
func (r *Registry) NewID() string {
	return r.ids.Generate()
}

// Validate checks that every relationship declaration points at a registered
// entity. Called after all entities are registered (schema compilation and
// CLI startup) so dangling relation targets surface before any data flows.
func (r *Registry) Validate() error {
	for _, name := range r.Names() {
		e := r.entities[name]
		if err := r.validateFields(name, e.Fields); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) validateFields(entity string, fields Fields) error {
	for fieldName, f := range fields {
		var target string
		switch rel := f.(type) {
		case HasOne:
			target = rel.Entity
		case BelongsTo:
			target = rel.Entity
		case HasMany:
			target = rel.Entity
		case HasManyBy:
			target = rel.Entity
		case Group:
			if err := r.validateFields(entity, rel.Fields); err != nil {
				return err
			}
			continue
		default:
			continue
		}
		if _, ok := r.entities[target]; !ok {
			return fmt.Errorf("entity %q field %q: %w: %q", entity, fieldName, ErrUnknownEntity, target)
		}
	}
	return nil
}
