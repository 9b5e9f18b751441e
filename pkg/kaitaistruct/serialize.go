package kaitaistruct

import (
	"strconv"

	"github.com/kbinterp/kbin/pkg/kaitaiexpr"
)

// Dump renders a parsed Node (or any kaitaiexpr.Value reachable from one)
// into a tree of plain Go values suitable for JSON/YAML marshaling, per
// §6.3: byte sequences become integer arrays, arbitrary-precision integers
// become decimal strings, internal fields (_io/_root/_parent/_start_pos/
// _sizeof) are omitted, cycles are broken with the literal "[Circular]",
// and lazy instance evaluation errors are captured per-field as
// "[Error: <message>]" rather than aborting the walk.
//
// Grounded on the teacher's serializer.go SerializeContext tree-walk shape,
// repurposed from binary re-encoding (out of scope, §1 Non-goals) to
// display output.
func Dump(v kaitaiexpr.Value) any {
	return dumpValue(v, map[*Node]bool{})
}

func dumpValue(v kaitaiexpr.Value, visiting map[*Node]bool) any {
	switch v.Kind {
	case kaitaiexpr.KindNull:
		return nil
	case kaitaiexpr.KindBool:
		return v.Bool
	case kaitaiexpr.KindInt:
		return v.Int
	case kaitaiexpr.KindBigInt:
		return v.Big.String()
	case kaitaiexpr.KindFloat:
		return v.Float
	case kaitaiexpr.KindString:
		return v.Str
	case kaitaiexpr.KindBytes:
		out := make([]int, len(v.Bytes))
		for i, b := range v.Bytes {
			out[i] = int(b)
		}
		return out
	case kaitaiexpr.KindArray:
		out := make([]any, len(v.Arr))
		for i, e := range v.Arr {
			out[i] = dumpValue(e, visiting)
		}
		return out
	case kaitaiexpr.KindEnum:
		return strconv.FormatInt(v.EnumRaw, 10)
	case kaitaiexpr.KindStream:
		return nil
	case kaitaiexpr.KindObject:
		nd, ok := v.Obj.(*Node)
		if !ok {
			return nil
		}
		return dumpNode(nd, visiting)
	default:
		return nil
	}
}

func dumpNode(nd *Node, visiting map[*Node]bool) any {
	if visiting[nd] {
		return "[Circular]"
	}
	visiting[nd] = true
	defer delete(visiting, nd)

	out := make(map[string]any, len(nd.Order)+len(nd.own().Instances))
	for _, name := range nd.Order {
		out[name] = dumpValue(nd.Fields[name], visiting)
	}
	for name := range nd.own().Instances {
		if _, already := out[name]; already {
			continue
		}
		v, _, err := nd.Field(name)
		if err != nil {
			out[name] = "[Error: " + err.Error() + "]"
			continue
		}
		out[name] = dumpValue(v, visiting)
	}
	return out
}
