package kaitaistruct

import (
	"strconv"
	"strings"

	"github.com/kbinterp/kbin/pkg/kaitaierr"
	"github.com/kbinterp/kbin/pkg/kaitaiexpr"
	"github.com/kbinterp/kbin/pkg/kaitaischema"
)

// lookupType resolves a type name against the composed namespace of stack
// (innermost last): the current type's own nested types first, then each
// ancestor's, per §3 "Every named referent... resolves in the composed
// namespace of the current type and its ancestors (walking enclosing types,
// then root, then imports)". Imports are already merged into the root
// scope's Types map by kaitaischema.Normalize.
func lookupType(stack []*kaitaischema.UserType, name string) (*kaitaischema.UserType, bool) {
	for i := len(stack) - 1; i >= 0; i-- {
		if t, ok := stack[i].Types[name]; ok {
			return t, true
		}
	}
	return nil, false
}

func lookupEnum(stack []*kaitaischema.UserType, name string) (kaitaischema.EnumDef, bool) {
	for i := len(stack) - 1; i >= 0; i-- {
		if e, ok := stack[i].Enums[name]; ok {
			return e, true
		}
	}
	return nil, false
}

// effectiveMeta walks the stack from innermost to outermost returning the
// nearest non-nil Meta override (§3 "own meta inherited from parent when
// absent"); the root scope always carries a non-nil Meta so this always
// terminates.
func effectiveMeta(stack []*kaitaischema.UserType) *kaitaischema.Meta {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].Meta != nil {
			return stack[i].Meta
		}
	}
	return nil
}

// resolveSwitch evaluates a SwitchType's `on` expression against ctx and
// returns the selected type name, matching case keys by deep equality
// (§4.7 "switch-on case matching is by deep equality"); enum-ref case keys
// (`EnumName::member`) are resolved against I at execution time, not E
// (§4.4 edge policy).
func resolveSwitch(sw *kaitaischema.SwitchType, ctx kaitaiexpr.Context, stack []*kaitaischema.UserType) (string, error) {
	val, err := evalExpr(sw.On, ctx)
	if err != nil {
		return "", err
	}
	for key, typeName := range sw.Cases {
		if strings.Contains(key, "::") {
			parts := strings.SplitN(key, "::", 2)
			def, ok := lookupEnum(stack, parts[0])
			if !ok {
				continue
			}
			caseVal, ok := def.ByName(parts[1])
			if !ok {
				continue
			}
			if valMatchesInt(val, caseVal) {
				return typeName, nil
			}
			continue
		}
		if keyVal, ok := literalCaseValue(key); ok {
			if kaitaiexpr.DeepEqual(val, keyVal) {
				return typeName, nil
			}
		}
	}
	if sw.HasDefault {
		return sw.Default, nil
	}
	return "", kaitaierr.NewParseError("no matching switch case for value (switch-on %q)", sw.On)
}

func valMatchesInt(v kaitaiexpr.Value, want int64) bool {
	i, err := v.AsInt64()
	if err != nil {
		return false
	}
	return i == want
}

// literalCaseValue interprets a raw YAML case key (already a string by the
// time it reaches kaitaischema) as an integer, boolean, or string literal.
func literalCaseValue(key string) (kaitaiexpr.Value, bool) {
	if iv, err := strconv.ParseInt(key, 0, 64); err == nil {
		return kaitaiexpr.Int(iv), true
	}
	if bv, err := strconv.ParseBool(key); err == nil {
		return kaitaiexpr.Bool(bv), true
	}
	return kaitaiexpr.Str(key), true
}
