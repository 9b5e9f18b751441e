// Package api is the public programmatic surface (component K): compile a
// schema, parse bytes against it, and dump the resulting node tree for
// display. Grounded on the teacher's pkg/kbin (global convenience functions
// plus a configurable Parser), generalized from its benthos-oriented
// ParseBinary/SerializeToJSON pair onto the compile/parse split of §6.1.
package api

import (
	"context"
	"log/slog"

	"github.com/kbinterp/kbin/pkg/kaitaiexpr"
	"github.com/kbinterp/kbin/pkg/kaitaischema"
	"github.com/kbinterp/kbin/pkg/kaitaistruct"
)

// Options configures Parse/ParseWithSchema/CompileSchema.
type Options struct {
	// Strict promotes schema-validation warnings to errors (§4.4, §6.2 --strict).
	Strict bool
	// ResolveImport resolves a meta.imports entry to its YAML bytes; when it
	// is nil, a schema that declares imports fails to compile with an error
	// diagnostic.
	ResolveImport func(path string) ([]byte, error)
	// Logger receives structural diagnostics from the interpreter; defaults
	// to slog.Default() when nil.
	Logger *slog.Logger
}

func (o Options) normalizeOptions() kaitaischema.Options {
	return kaitaischema.Options{Strict: o.Strict, ResolveImport: o.ResolveImport}
}

// CompileSchema parses schema YAML text and normalizes it into a
// CompiledSchema, per §6.1 `compile_schema(text, options)`. It is idempotent
// and pure: the same text and options always produce the same result.
func CompileSchema(text []byte, opts Options) (*kaitaischema.CompiledSchema, []kaitaischema.Diagnostic, error) {
	raw, err := kaitaischema.ParseRawYAML(text)
	if err != nil {
		return nil, nil, err
	}
	return kaitaischema.Normalize(raw, opts.normalizeOptions())
}

// Parse compiles schema text and parses data against it. It accepts schema
// text only, not a CompiledSchema, and compiles it on every call; use
// ParseWithSchema to parse against an already-compiled schema.
func Parse(ctx context.Context, schemaText []byte, data []byte, opts Options) (*kaitaistruct.Node, error) {
	compiled, _, err := CompileSchema(schemaText, opts)
	if err != nil {
		return nil, err
	}
	return ParseWithSchema(ctx, compiled, data, opts)
}

// ParseWithSchema parses data against an already-compiled schema, per §6.1
// `parse_with_schema(compiled, bytes)`. Property: for any schema text S and
// bytes B, ParseWithSchema(CompileSchema(S), B) behaves identically to
// Parse(S, B) — compilation is a pure, deterministic function of the text.
func ParseWithSchema(ctx context.Context, compiled *kaitaischema.CompiledSchema, data []byte, opts Options) (*kaitaistruct.Node, error) {
	interp := kaitaistruct.NewInterpreter(compiled, opts.Logger)
	return interp.ParseRoot(ctx, data)
}

// Dump renders a parsed Node into a tree of plain Go values per §6.3,
// suitable for JSON/YAML marshaling.
func Dump(node *kaitaistruct.Node) any {
	return kaitaistruct.Dump(kaitaiexpr.Obj(node))
}
