package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/quiltdb/quilt/internal/ingest"
	"github.com/quiltdb/quilt/internal/repo"
	"github.com/quiltdb/quilt/internal/schema"
	"github.com/quiltdb/quilt/internal/store"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	DB       string
	Entities []string
}

// ImportResult is the import command's output payload.
type ImportResult struct {
	Imported map[string]int             `json:"imported"` // entity -> record count
	Records  map[string][]schema.Record `json:"records"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{}

	cmd := &cobra.Command{
		Use:   "import <schema-dir>",
		Short: "Import SQLite tables into the store",
		Long: `Read one SQLite table per entity into the store and print the imported
records in canonical table order.

Example:
  quilt import ./schemas --db app.sqlite --entity users --entity posts`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite database path (required)")
	cmd.Flags().StringArrayVar(&opts.Entities, "entity", nil, "entity to import (repeatable, required)")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("entity")

	return cmd
}

func runImport(rootOpts *RootOptions, opts *ImportOptions, schemaDir string, cmd *cobra.Command) error {
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

	src, err := ingest.Open(opts.DB, ingest.WithLogger(log))
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "open database", err)
	}
	defer src.Close()

	tables, err := src.Load(cmd.Context(), loaded.Registry, opts.Entities...)
	if err != nil {
		_ = formatter.Error(ErrCodeImportFailed, err.Error(), nil)
		return WrapExitError(ExitFailure, "import failed", err)
	}

	st := store.New(loaded.Registry, store.WithLogger(log))
	result := ImportResult{
		Imported: make(map[string]int, len(tables)),
		Records:  make(map[string][]schema.Record, len(tables)),
	}
	for _, entity := range sortedTableNames(tables) {
		if err := st.Create(entity, tables[entity]); err != nil {
			_ = formatter.Error(ErrCodeImportFailed, err.Error(), nil)
			return WrapExitError(ExitFailure, "import failed", err)
		}
		r, err := repo.New(loaded.Registry, st, entity, repo.WithLogger(log))
		if err != nil {
			return WrapExitError(ExitFailure, "import failed", err)
		}
		records, err := r.All()
		if err != nil {
			return WrapExitError(ExitFailure, "import failed", err)
		}
		result.Imported[entity] = len(records)
		result.Records[entity] = records
	}

	return outputImportResult(formatter, result)
}

func outputImportResult(formatter *OutputFormatter, result ImportResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	for _, entity := range sortedTableNames(result.Records) {
		fmt.Fprintf(formatter.Writer, "%s: %d record(s)\n", entity, result.Imported[entity])
		for _, rec := range result.Records[entity] {
			line, err := marshalRecord(rec)
			if err != nil {
				return err
			}
			fmt.Fprintf(formatter.Writer, "  %s\n", line)
		}
	}
	return nil
}

func sortedTableNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
