package repo

import (
	"github.com/quiltdb/quilt/internal/query"
	"github.com/quiltdb/quilt/internal/schema"
)

// Constraint narrows a nested relation query. It receives the base config
// for the related entity and returns the constrained one.
type Constraint func(cfg query.Config) query.Config

// Relation names a relationship to eager-load: a dotted path (e.g.
// "comments.author") plus an optional constraint applied to the query at
// the path's final segment.
type Relation struct {
	Path       string
	Constraint Constraint
}

// Selection is an immutable description of one read over a repository's
// entity. Every builder method takes a value receiver and returns a
// modified copy, so selections are never shared mutable state; each
// executed call (Get, First, Count, Models) sees exactly the chain that
// produced it.
type Selection struct {
	repo      *Repository
	cfg       query.Config
	relations []Relation
	existence []existence
}

// Where adds an AND-chained predicate.
func (s Selection) Where(p query.Predicate) Selection {
	s.cfg = s.cfg.Where(p)
	return s
}

// WhereEq adds an AND-chained field equality predicate.
func (s Selection) WhereEq(field string, value any) Selection {
	return s.Where(query.Eq{Field: field, Value: value})
}

// OrWhere adds an OR-chained predicate: a record is included when all AND
// predicates pass or any OR predicate passes.
func (s Selection) OrWhere(p query.Predicate) Selection {
	s.cfg = s.cfg.OrWhere(p)
	return s
}

// OrderBy appends a sort key; earlier keys take precedence and equal keys
// keep canonical table order.
func (s Selection) OrderBy(field string, dir query.Direction) Selection {
	s.cfg = s.cfg.OrderBy(field, dir)
	return s
}

// Offset skips the first n matches.
func (s Selection) Offset(n int) Selection {
	s.cfg = s.cfg.Offset(n)
	return s
}

// Limit caps the result count after the offset.
func (s Selection) Limit(n int) Selection {
	s.cfg = s.cfg.Limit(n)
	return s
}

// With requests eager loading of a dotted relation path. An optional
// constraint narrows the query for the entity at the path's end.
func (s Selection) With(path string, cs ...Constraint) Selection {
	rel := Relation{Path: path}
	if len(cs) > 0 {
		rel.Constraint = cs[0]
	}
	s.relations = appendRelation(s.relations, rel)
	return s
}

// Get executes the selection and returns matching records with requested
// relations loaded. Returned records are copies; mutating them never
// touches the store.
func (s Selection) Get() ([]schema.Record, error) {
	cfg, err := s.applyExistence()
	if err != nil {
		return nil, err
	}
	table, err := s.repo.store.TableFor(s.repo.entity.Name)
	if err != nil {
		return nil, err
	}

	matched := query.Run(table, cfg)
	out := make([]schema.Record, 0, len(matched))
	for _, rec := range matched {
		loaded, err := s.repo.loadRelations(s.repo.entity, rec, s.relations)
		if err != nil {
			return nil, err
		}
		out = append(out, loaded)
	}
	return out, nil
}

// First returns the first record after filter, sort, and offset, or nil
// when nothing matches. Absence is a sentinel, never an error.
func (s Selection) First() (schema.Record, error) {
	results, err := s.Limit(1).Get()
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

// Find looks up one record directly by primary key, bypassing filters and
// ordering. Requested relations are still loaded. Returns nil when absent.
func (s Selection) Find(id any) (schema.Record, error) {
	table, err := s.repo.store.TableFor(s.repo.entity.Name)
	if err != nil {
		return nil, err
	}
	rec := query.FirstByKey(table, id)
	if rec == nil {
		return nil, nil
	}
	return s.repo.loadRelations(s.repo.entity, rec, s.relations)
}

// Count returns the number of matching records. Relation loading and model
// wrapping are skipped entirely - counting never pays their cost.
func (s Selection) Count() (int, error) {
	cfg, err := s.applyExistence()
	if err != nil {
		return 0, err
	}
	table, err := s.repo.store.TableFor(s.repo.entity.Name)
	if err != nil {
		return 0, err
	}
	return query.Count(table, cfg), nil
}

// Models executes the selection and wraps each record into a typed model
// instance via the factory registered for this entity. Nested relation
// records are handed to the factory unwrapped, with wrapNested set so the
// factory instantiates nested model types exactly once.
func (s Selection) Models() ([]any, error) {
	factory, err := s.repo.reg.Model(s.repo.entity.Name)
	if err != nil {
		return nil, err
	}
	records, err := s.Get()
	if err != nil {
		return nil, err
	}
	models := make([]any, 0, len(records))
	for _, rec := range records {
		m, err := factory(rec, true)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, nil
}

func appendRelation(s []Relation, r Relation) []Relation {
	out := make([]Relation, len(s), len(s)+1)
	copy(out, s)
	return append(out, r)
}
