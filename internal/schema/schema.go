// Package schema validates collected records against per-source CUE
// definitions embedded in the binary.
package schema

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/scrapekit/internal/record"
)

//go:embed schemas.cue
var schemaSource string

// Kind names a record definition in schemas.cue.
type Kind string

const (
	KindFood     Kind = "#Food"
	KindExercise Kind = "#Exercise"
	KindRecipe   Kind = "#Recipe"
)

// Kinds lists every known definition.
var Kinds = []Kind{KindFood, KindExercise, KindRecipe}

// Validator checks records against the embedded definitions.
// A Validator holds a cue.Context and is not safe for concurrent use.
type Validator struct {
	ctx  *cue.Context
	defs map[Kind]cue.Value
}

// New compiles the embedded schemas.
func New() (*Validator, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(schemaSource, cue.Filename("schemas.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile schemas: %w", err)
	}

	defs := make(map[Kind]cue.Value, len(Kinds))
	for _, k := range Kinds {
		def := v.LookupPath(cue.ParsePath(string(k)))
		if !def.Exists() {
			return nil, fmt.Errorf("schema %s not defined", k)
		}
		defs[k] = def
	}
	return &Validator{ctx: ctx, defs: defs}, nil
}

// Validate reports whether r satisfies the definition named by kind.
func (v *Validator) Validate(kind Kind, r record.Record) error {
	def, ok := v.defs[kind]
	if !ok {
		return fmt.Errorf("unknown schema %q", kind)
	}

	val := v.ctx.Encode(map[string]any(r))
	if err := val.Err(); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := def.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%s: %s", kind, cueerrors.Details(err, nil))
	}
	return nil
}

// Filter returns the records of c that satisfy kind, in order, and the
// validation errors of the ones dropped.
func (v *Validator) Filter(kind Kind, c record.Collection) (record.Collection, []error) {
	var (
		kept record.Collection
		errs []error
	)
	for i, r := range c {
		if err := v.Validate(kind, r); err != nil {
			errs = append(errs, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		kept = append(kept, r)
	}
	return kept, errs
}
