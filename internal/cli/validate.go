package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// ValidationResult holds validation results for a schema directory.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Files    int      `json:"files"`
	Entities []string `json:"entities,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema-dir>",
		Short: "Validate CUE entity declarations",
		Long: `Validate CUE entity declarations without loading any data.

Compiles every declaration in the directory and checks that all
relationship targets point at declared entities.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, schemaDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	result, err := LoadSchemas(schemaDir)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", result.FileCount, schemaDir)

	names := result.Registry.Names()
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{
			Valid:    true,
			Files:    result.FileCount,
			Entities: names,
		})
	}

	fmt.Fprintf(formatter.Writer, "✓ %d entities valid (%d files)\n", len(names), result.FileCount)
	for _, name := range names {
		fmt.Fprintf(formatter.Writer, "  %s\n", name)
	}
	return nil
}

// outputLoadError reports a schema load failure and maps it onto an exit
// code: path and toolchain problems are command errors, declaration
// problems are validation failures.
func outputLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "schema load failed", err)
	}

	_ = formatter.Error(loadErr.Code, loadErr.Message, nil)

	switch loadErr.Code {
	case ErrCodeBadSchema, ErrCodeBadRelation:
		return NewExitError(ExitFailure, loadErr.Error())
	default:
		return NewExitError(ExitCommandError, loadErr.Error())
	}
}
