package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quiltdb/quilt/internal/query"
	"github.com/quiltdb/quilt/internal/repo"
	"github.com/quiltdb/quilt/internal/schema"
	"github.com/quiltdb/quilt/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	Entity  string
	Seed    string
	Where   []string
	OrWhere []string
	Order   []string
	With    []string
	Offset  int
	Limit   int
}

// QueryResult is the query command's output payload.
type QueryResult struct {
	Entity  string          `json:"entity"`
	Count   int             `json:"count"`
	Records []schema.Record `json:"records"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query <schema-dir>",
		Short: "Seed records and run one query",
		Long: `Seed nested records through the normalizing write path, then execute
one query and print the matching records with requested relations loaded.

Example:
  quilt query ./schemas --seed data.yaml --entity posts \
    --where published=true --with user --order title:asc --limit 10`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Entity, "entity", "", "entity to query (required)")
	cmd.Flags().StringVar(&opts.Seed, "seed", "", "YAML seed file")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "field=value equality predicate, AND-chained (repeatable)")
	cmd.Flags().StringArrayVar(&opts.OrWhere, "or-where", nil, "field=value equality predicate, OR-chained (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Order, "order", nil, "sort key field:asc|desc (repeatable)")
	cmd.Flags().StringArrayVar(&opts.With, "with", nil, "relation path to eager-load (repeatable)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "skip the first n matches")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "cap the result count (0 = unlimited)")
	_ = cmd.MarkFlagRequired("entity")

	return cmd
}

func runQuery(rootOpts *RootOptions, opts *QueryOptions, schemaDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}
	log := rootOpts.Logger()

	loaded, err := LoadSchemas(schemaDir)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded %d entities from %s", len(loaded.Entities), schemaDir)

	st := store.New(loaded.Registry, store.WithLogger(log))
	if opts.Seed != "" {
		seed, err := LoadSeed(opts.Seed)
		if err != nil {
			_ = formatter.Error(ErrCodeBadSeed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "seed failed", err)
		}
		if err := ApplySeed(loaded.Registry, st, seed, log); err != nil {
			_ = formatter.Error(ErrCodeBadSeed, err.Error(), nil)
			return WrapExitError(ExitFailure, "seed failed", err)
		}
	}

	r, err := repo.New(loaded.Registry, st, opts.Entity, repo.WithLogger(log))
	if err != nil {
		_ = formatter.Error(ErrCodeUnknownEntity, err.Error(), nil)
		return WrapExitError(ExitCommandError, "unknown entity", err)
	}

	sel, err := buildSelection(r, opts)
	if err != nil {
		_ = formatter.Error(ErrCodeBadQuery, err.Error(), nil)
		return WrapExitError(ExitCommandError, "bad query", err)
	}

	records, err := sel.Get()
	if err != nil {
		_ = formatter.Error(ErrCodeBadQuery, err.Error(), nil)
		return WrapExitError(ExitFailure, "query failed", err)
	}

	return outputQueryResult(formatter, QueryResult{
		Entity:  opts.Entity,
		Count:   len(records),
		Records: records,
	})
}

// buildSelection translates query flags into an immutable selection.
func buildSelection(r *repo.Repository, opts *QueryOptions) (repo.Selection, error) {
	sel := r.Select()

	for _, clause := range opts.Where {
		field, value, err := parsePredicate(clause)
		if err != nil {
			return sel, err
		}
		sel = sel.WhereEq(field, value)
	}
	for _, clause := range opts.OrWhere {
		field, value, err := parsePredicate(clause)
		if err != nil {
			return sel, err
		}
		sel = sel.OrWhere(query.Eq{Field: field, Value: value})
	}
	for _, key := range opts.Order {
		field, dir, err := parseOrderFlag(key)
		if err != nil {
			return sel, err
		}
		sel = sel.OrderBy(field, dir)
	}
	for _, path := range opts.With {
		sel = sel.With(path)
	}
	if opts.Offset > 0 {
		sel = sel.Offset(opts.Offset)
	}
	if opts.Limit > 0 {
		sel = sel.Limit(opts.Limit)
	}
	return sel, nil
}

// parsePredicate splits a "field=value" clause. Values are literal-coerced
// so --where published=true compares as a boolean and --where views=3 as a
// number.
func parsePredicate(clause string) (string, any, error) {
	field, raw, found := strings.Cut(clause, "=")
	if !found || field == "" {
		return "", nil, fmt.Errorf("predicate %q: expected field=value", clause)
	}
	return field, parseLiteral(raw), nil
}

// parseLiteral interprets a flag value as bool, int, or float before
// falling back to a plain string.
func parseLiteral(raw string) any {
	if b, err := strconv.ParseBool(raw); err == nil && (raw == "true" || raw == "false") {
		return b
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

// parseOrderFlag splits a "field:direction" sort key; the direction
// defaults to ascending when omitted.
func parseOrderFlag(key string) (string, query.Direction, error) {
	field, dir, found := strings.Cut(key, ":")
	if field == "" {
		return "", "", fmt.Errorf("sort key %q: empty field", key)
	}
	if !found || dir == "" {
		return field, query.Asc, nil
	}
	switch dir {
	case "asc":
		return field, query.Asc, nil
	case "desc":
		return field, query.Desc, nil
	default:
		return "", "", fmt.Errorf("sort key %q: unknown direction %q", key, dir)
	}
}

// outputQueryResult prints records in the configured format. Text output is
// one canonical JSON record per line for pipe-friendly consumption.
func outputQueryResult(formatter *OutputFormatter, result QueryResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "%d %s\n", result.Count, result.Entity)
	for _, rec := range result.Records {
		line, err := marshalRecord(rec)
		if err != nil {
			return err
		}
		fmt.Fprintln(formatter.Writer, line)
	}
	return nil
}
