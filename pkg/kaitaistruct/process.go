package kaitaistruct

import (
	"strings"

	"github.com/kbinterp/kbin/pkg/kaitaierr"
	"github.com/kbinterp/kbin/pkg/kaitaiexpr"
)

// processSpec is a parsed `process:` descriptor: a codec name plus its
// argument expressions, evaluated against the attribute's Context at
// decode time (since arguments like an XOR key commonly reference a
// sibling field).
type processSpec struct {
	name string
	args []string
}

func parseProcessSpec(spec string) processSpec {
	open := strings.IndexByte(spec, '(')
	if open < 0 || !strings.HasSuffix(spec, ")") {
		return processSpec{name: strings.TrimSpace(spec)}
	}
	name := strings.TrimSpace(spec[:open])
	inner := spec[open+1 : len(spec)-1]
	if strings.TrimSpace(inner) == "" {
		return processSpec{name: name}
	}
	parts := strings.Split(inner, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return processSpec{name: name, args: parts}
}

// evalProcessArgs evaluates each argument expression and flattens the
// result into the []int64 parameter form kaitaicodec.Func expects: a byte
// sequence becomes its constituent byte values, a bare integer becomes a
// single-element slice, an array of integers is flattened element-wise.
func evalProcessArgs(args []string, ctx kaitaiexpr.Context) ([]int64, error) {
	var out []int64
	for _, a := range args {
		v, err := evalExpr(a, ctx)
		if err != nil {
			return nil, err
		}
		vals, err := flattenToInt64s(v)
		if err != nil {
			return nil, err
		}
		out = append(out, vals...)
	}
	return out, nil
}

func flattenToInt64s(v kaitaiexpr.Value) ([]int64, error) {
	switch v.Kind {
	case kaitaiexpr.KindBytes:
		out := make([]int64, len(v.Bytes))
		for i, b := range v.Bytes {
			out[i] = int64(b)
		}
		return out, nil
	case kaitaiexpr.KindArray:
		var out []int64
		for _, e := range v.Arr {
			vs, err := flattenToInt64s(e)
			if err != nil {
				return nil, err
			}
			out = append(out, vs...)
		}
		return out, nil
	default:
		i, err := v.AsInt64()
		if err != nil {
			return nil, kaitaierr.NewParseError("process argument must be numeric or byte sequence")
		}
		return []int64{i}, nil
	}
}
