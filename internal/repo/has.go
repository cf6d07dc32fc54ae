package repo

import (
	"fmt"
	"strings"

	"github.com/quiltdb/quilt/internal/query"
	"github.com/quiltdb/quilt/internal/schema"
)

// CountOp compares a relation's loaded count against a bound in Has
// selections.
type CountOp string

const (
	OpEq  CountOp = "="
	OpGt  CountOp = ">"
	OpGte CountOp = ">="
	OpLt  CountOp = "<"
	OpLte CountOp = "<="
)

// existence is one relationship-existence predicate attached to a
// selection.
type existence struct {
	rel   Relation
	op    CountOp
	count int
}

// Has keeps only records whose named relation (optionally constrained) is
// non-empty.
func (s Selection) Has(path string, cs ...Constraint) Selection {
	return s.HasCount(path, OpGte, 1, cs...)
}

// HasNot keeps only records whose named relation (optionally constrained)
// is empty.
func (s Selection) HasNot(path string, cs ...Constraint) Selection {
	return s.HasCount(path, OpEq, 0, cs...)
}

// HasCount keeps only records whose relation count compares as requested,
// e.g. HasCount("comments", OpEq, 2) selects records with exactly two
// comments.
func (s Selection) HasCount(path string, op CountOp, n int, cs ...Constraint) Selection {
	ex := existence{rel: Relation{Path: path}, op: op, count: n}
	if len(cs) > 0 {
		ex.rel.Constraint = cs[0]
	}
	out := make([]existence, len(s.existence), len(s.existence)+1)
	copy(out, s.existence)
	s.existence = append(out, ex)
	return s
}

// applyExistence resolves every Has/HasNot predicate into a primary-key
// membership predicate on the query config.
//
// This is a two-pass filter: pass one scans every record of the entity,
// loads the relation per record and collects the keys whose count
// satisfies the comparison; pass two lets the query engine execute with
// the derived membership predicate. The full rescan is quadratic in table
// size but keeps relation semantics in exactly one place (the loader).
func (s Selection) applyExistence() (query.Config, error) {
	cfg := s.cfg
	if len(s.existence) == 0 {
		return cfg, nil
	}

	table, err := s.repo.store.TableFor(s.repo.entity.Name)
	if err != nil {
		return cfg, err
	}
	key := s.repo.entity.Key()

	for _, ex := range s.existence {
		members := make(map[string]struct{})
		for _, rec := range query.Run(table, query.Config{}) {
			loaded, err := s.repo.loadRelations(s.repo.entity, rec, []Relation{ex.rel})
			if err != nil {
				return cfg, err
			}
			n, err := countAtPath(loaded, ex.rel.Path)
			if err != nil {
				return cfg, err
			}
			if compareCount(n, ex.op, ex.count) {
				members[schema.KeyString(rec[key])] = struct{}{}
			}
		}

		set := members
		cfg = cfg.Where(query.Satisfies{Fn: func(rec schema.Record) bool {
			_, ok := set[schema.KeyString(rec[key])]
			return ok
		}})
	}
	return cfg, nil
}

// countAtPath counts loaded relation values at the end of a dotted path:
// nil counts zero, a single record one, a collection its length; interior
// collections sum over their elements.
func countAtPath(rec schema.Record, path string) (int, error) {
	head, rest := splitPath(path)
	value := rec[head]

	if rest == "" {
		switch v := value.(type) {
		case nil:
			return 0, nil
		case schema.Record:
			return 1, nil
		case []schema.Record:
			return len(v), nil
		default:
			return 0, fmt.Errorf("path %q: unexpected loaded value %T", path, value)
		}
	}

	switch v := value.(type) {
	case nil:
		return 0, nil
	case schema.Record:
		return countAtPath(v, rest)
	case []schema.Record:
		total := 0
		for _, item := range v {
			n, err := countAtPath(item, rest)
			if err != nil {
				return 0, err
			}
			total += n
		}
		return total, nil
	default:
		return 0, fmt.Errorf("path %q: unexpected loaded value %T", strings.Join([]string{head, rest}, "."), value)
	}
}

func compareCount(n int, op CountOp, bound int) bool {
	switch op {
	case OpEq:
		return n == bound
	case OpGt:
		return n > bound
	case OpGte:
		return n >= bound
	case OpLt:
		return n < bound
	case OpLte:
		return n <= bound
	default:
		return false
	}
}
