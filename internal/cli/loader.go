package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/quiltdb/quilt/internal/compiler"
	"github.com/quiltdb/quilt/internal/schema"
)

// LoadResult contains the results of loading entity schemas from a directory.
type LoadResult struct {
	Registry  *schema.Registry
	Entities  []*schema.Entity
	FileCount int // Number of CUE files found
}

// LoadError represents an error that occurred during schema loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeScanError     = "E002" // Directory scan error
	ErrCodeNoFiles       = "E003" // No CUE files found
	ErrCodeLoadFailed    = "E004" // CUE load failed
	ErrCodeNotFound      = "E005" // Path not found
	ErrCodeBuildFailed   = "E006" // CUE build failed
	ErrCodeBadSchema     = "E101" // Entity declaration rejected by the compiler
	ErrCodeBadRelation   = "E102" // Relation points at an undeclared entity
	ErrCodeBadSeed       = "E201" // Seed file rejected
	ErrCodeBadQuery      = "E202" // Query flags rejected
	ErrCodeImportFailed  = "E301" // SQLite import failed
	ErrCodeUnknownEntity = "E302" // Entity not declared in the loaded schemas
)

// LoadSchemas loads every CUE entity declaration under dir and registers
// the compiled entities, with relation targets validated.
func LoadSchemas(dir string, opts ...schema.RegistryOption) (*LoadResult, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	// Declaration files carry no package clause; "_" selects the anonymous
	// package.
	cfg := &load.Config{Dir: dir, Package: "_"}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	ents, err := compiler.CompileEntities(value)
	if err != nil {
		return nil, convertCompileError(err)
	}

	reg := schema.NewRegistry(opts...)
	for _, ent := range ents {
		if err := reg.Register(ent); err != nil {
			return nil, &LoadError{Code: ErrCodeBadSchema, Message: err.Error()}
		}
	}
	if err := reg.Validate(); err != nil {
		return nil, &LoadError{Code: ErrCodeBadRelation, Message: err.Error()}
	}

	return &LoadResult{
		Registry:  reg,
		Entities:  ents,
		FileCount: len(cueFiles),
	}, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeBadSchema,
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeBadSchema,
		Message: err.Error(),
	}
}
