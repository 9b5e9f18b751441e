// Package kaitaistruct is the type interpreter (component J): it drives a
// kaitaistream.Stream from a compiled kaitaischema.CompiledSchema,
// materializing the parsed object tree, and implements the expression
// Context (component I) those objects are evaluated against.
//
// Grounded on the teacher's pkg/kaitaistruct/parser.go (KaitaiInterpreter /
// ParseContext / ParsedData shape, per-attribute algorithm) and switch.go
// (SwitchTypeSelector / ResolveEnumValue / ResolveEnumName), generalized
// from the teacher's CEL-activation Context onto kaitaiexpr.Context and
// from CEL's `any`-typed values onto kaitaiexpr.Value.
package kaitaistruct

import (
	"github.com/kbinterp/kbin/pkg/kaitaierr"
	"github.com/kbinterp/kbin/pkg/kaitaiexpr"
	"github.com/kbinterp/kbin/pkg/kaitaischema"
	"github.com/kbinterp/kbin/pkg/kaitaistream"
)

// Node is a materialized object in the parsed tree (§3 "Parsed object").
// It implements kaitaiexpr.Object so expressions can access its fields
// directly, and kaitaiexpr.StreamLike indirectly through its IO field.
type Node struct {
	TypeName string
	Fields   map[string]kaitaiexpr.Value
	Order    []string

	Parent *Node
	Root   *Node
	IO     *kaitaistream.Stream

	StartPos int64
	SizeOf   int64

	Params map[string]kaitaiexpr.Value

	// scopeStack is the lexical chain of type definitions enclosing this
	// node, root-first, used to resolve type/enum names referenced by this
	// node's own attributes and by its instances evaluated lazily after
	// the seq finishes (§4.7 step 3).
	scopeStack []*kaitaischema.UserType

	interp *Interpreter

	instanceState map[string]*instanceState
}

type instanceState struct {
	resolved   bool
	evaluating bool
	value      kaitaiexpr.Value
}

func newNode(typeName string, interp *Interpreter, scopeStack []*kaitaischema.UserType) *Node {
	return &Node{
		TypeName:      typeName,
		Fields:        map[string]kaitaiexpr.Value{},
		scopeStack:    scopeStack,
		interp:        interp,
		instanceState: map[string]*instanceState{},
	}
}

func (nd *Node) own() *kaitaischema.UserType {
	return nd.scopeStack[len(nd.scopeStack)-1]
}

func (nd *Node) set(name string, v kaitaiexpr.Value) {
	if _, exists := nd.Fields[name]; !exists {
		nd.Order = append(nd.Order, name)
	}
	nd.Fields[name] = v
}

// Field implements kaitaiexpr.Object: already-assigned seq fields first,
// then instances (triggering lazy evaluation on first access, guarding
// against re-entrant cycles per §9 "Lazy instances").
func (nd *Node) Field(name string) (kaitaiexpr.Value, bool, error) {
	if v, ok := nd.Fields[name]; ok {
		return v, true, nil
	}
	def, ok := nd.own().Instances[name]
	if !ok {
		return kaitaiexpr.Value{}, false, nil
	}
	st, exists := nd.instanceState[name]
	if !exists {
		st = &instanceState{}
		nd.instanceState[name] = st
	}
	if st.resolved {
		return st.value, true, nil
	}
	if st.evaluating {
		return kaitaiexpr.Value{}, true, kaitaierr.NewParseError("cyclic instance evaluation for %q", name)
	}
	st.evaluating = true
	v, err := nd.interp.evalInstance(nd, name, def)
	st.evaluating = false
	if err != nil {
		return kaitaiexpr.Value{}, true, err
	}
	st.resolved = true
	st.value = v
	return v, true, nil
}

// Pos/Size report the position and size of the Node's IO stream. An `io:`
// attribute does not accept a Node: its expression must yield a stream
// value, such as the `_io` pseudo-identifier.
func (nd *Node) Pos() int64  { return nd.IO.Pos() }
func (nd *Node) Size() int64 { return nd.IO.Size() }
