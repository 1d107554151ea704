// Package schema validates child extra data against a CUE schema.
//
// A schema file either declares an #Extra definition, which is used as
// the schema, or is itself the schema. Definitions are closed, so
// #Extra also rejects fields it does not declare:
//
//	#Extra: {
//		name:   string
//		owner?: string
//		tier:   *"basic" | "pro"
//	}
package schema

import (
	"fmt"
	"os"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/factory/internal/ir"
)

// DefinitionName is the definition looked up in schema files.
const DefinitionName = "#Extra"

// Validator checks extra data against a compiled schema.
// Safe for concurrent use.
type Validator struct {
	mu     sync.Mutex // cue.Context is not safe for concurrent use
	ctx    *cue.Context
	schema cue.Value
	source string
}

// Load compiles the schema file at path.
func Load(path string) (*Validator, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return Compile(path, src)
}

// Compile compiles schema source. filename is only used in error positions.
func Compile(filename string, src []byte) (*Validator, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	if def := v.LookupPath(cue.ParsePath(DefinitionName)); def.Exists() {
		v = def
	}
	if k := v.IncompleteKind(); k&cue.StructKind == 0 {
		return nil, &Error{Message: fmt.Sprintf("schema must describe an object, got %v", k), Pos: v.Pos()}
	}

	return &Validator{ctx: ctx, schema: v, source: filename}, nil
}

// Source returns the filename the schema was compiled from.
func (v *Validator) Source() string {
	return v.source
}

// Validate reports whether extra satisfies the schema. Every field the
// schema requires must be present and concrete.
func (v *Validator) Validate(extra ir.IRObject) error {
	if extra == nil {
		extra = ir.IRObject{}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	data := v.ctx.Encode(ir.ToGo(extra))
	if err := data.Err(); err != nil {
		return formatCUEError(err)
	}
	if err := v.schema.Unify(data).Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	return nil
}

// Error is a schema compile or validation failure with its CUE position.
type Error struct {
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors; report the first.
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	e := &Error{Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		e.Pos = positions[0]
	}
	return e
}
