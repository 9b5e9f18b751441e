package kaitaistruct

import (
	"github.com/kbinterp/kbin/pkg/kaitaierr"
	"github.com/kbinterp/kbin/pkg/kaitaiexpr"
)

// evalContext implements kaitaiexpr.Context (component I), bound to a
// single evaluation step. Identifier resolution order follows §4.6:
// local parameters, then node fields/instances, then pseudo-identifiers.
type evalContext struct {
	node       *Node
	underscore *kaitaiexpr.Value // bound during `valid:`/`repeat-until` evaluation
	index      *int64            // bound during repeat (any kind) evaluation
	interp     *Interpreter
}

func newContext(node *Node, interp *Interpreter) *evalContext {
	return &evalContext{node: node, interp: interp}
}

func (c *evalContext) withUnderscore(v kaitaiexpr.Value) *evalContext {
	cp := *c
	cp.underscore = &v
	return &cp
}

func (c *evalContext) withIndex(i int64) *evalContext {
	cp := *c
	cp.index = &i
	return &cp
}

func (c *evalContext) Resolve(name string) (kaitaiexpr.Value, error) {
	if v, ok := c.node.Params[name]; ok {
		return v, nil
	}
	if v, ok, err := c.node.Field(name); ok || err != nil {
		return v, err
	}
	switch name {
	case "_root":
		return kaitaiexpr.Obj(c.node.Root), nil
	case "_parent":
		if c.node.Parent == nil {
			return kaitaiexpr.Value{}, kaitaierr.NewParseError("_parent referenced on the root node")
		}
		return kaitaiexpr.Obj(c.node.Parent), nil
	case "_io":
		return kaitaiexpr.StreamVal(c.node.IO), nil
	case "_":
		if c.underscore != nil {
			return *c.underscore, nil
		}
		return kaitaiexpr.Value{}, kaitaierr.NewParseError("'_' referenced outside a repeat-until or valid expression")
	case "_index":
		if c.index != nil {
			return kaitaiexpr.Int(*c.index), nil
		}
		return kaitaiexpr.Value{}, kaitaierr.NewParseError("'_index' referenced outside a repeat body")
	case "_sizeof":
		return kaitaiexpr.Int(c.node.IO.Pos() - c.node.StartPos), nil
	}
	return kaitaiexpr.Value{}, kaitaierr.NewParseError("unresolved identifier %q", name)
}

func (c *evalContext) ResolveEnum(enumName, member string) (int64, error) {
	def, ok := lookupEnum(c.node.scopeStack, enumName)
	if !ok {
		return 0, kaitaierr.NewParseError("unknown enum %q", enumName)
	}
	v, ok := def.ByName(member)
	if !ok {
		return 0, kaitaierr.NewParseError("enum %q has no member %q", enumName, member)
	}
	return v, nil
}

// evalExpr is a small convenience wrapper used throughout interpreter.go:
// parse then evaluate src against ctx.
func evalExpr(src string, ctx kaitaiexpr.Context) (kaitaiexpr.Value, error) {
	node, err := kaitaiexpr.Parse(src)
	if err != nil {
		return kaitaiexpr.Value{}, err
	}
	return kaitaiexpr.Eval(node, ctx)
}
