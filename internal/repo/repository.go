package repo

import (
	"go.uber.org/zap"

	"github.com/quiltdb/quilt/internal/schema"
	"github.com/quiltdb/quilt/internal/store"
)

// Repository is the facade for one entity: reads reconstruct relationship
// graphs on demand, writes normalize nested input into the flat table set.
type Repository struct {
	reg    *schema.Registry
	store  *store.Store
	entity *schema.Entity
	log    *zap.Logger
}

// Option configures a Repository at construction time.
type Option func(*Repository)

// WithLogger attaches a logger for write-path diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(r *Repository) {
		r.log = log
	}
}

// New creates a repository scoped to one registered entity. An undeclared
// entity name is a configuration error and fails immediately.
func New(reg *schema.Registry, st *store.Store, entity string, opts ...Option) (*Repository, error) {
	e, err := reg.Entity(entity)
	if err != nil {
		return nil, err
	}
	r := &Repository{
		reg:    reg,
		store:  st,
		entity: e,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Entity returns the entity schema this repository is scoped to.
func (r *Repository) Entity() *schema.Entity {
	return r.entity
}

// Select starts an empty selection over this repository's entity.
func (r *Repository) Select() Selection {
	return Selection{repo: r}
}

// All returns every record of the entity in canonical table order.
func (r *Repository) All() ([]schema.Record, error) {
	return r.Select().Get()
}

// Find returns the record with the given primary key, or nil when absent.
func (r *Repository) Find(id any) (schema.Record, error) {
	return r.Select().Find(id)
}

// Count returns the number of records in the entity's table.
func (r *Repository) Count() (int, error) {
	return r.Select().Count()
}
