// eval.go is the tree-walking evaluator (component H): pure over an
// immutable Context snapshot, dispatching member/method calls through a
// static table keyed by (receiver-kind, method-name), as suggested by §9
// ("Dispatch method calls via a static table...fail closed").
package kaitaiexpr

import (
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/kbinterp/kbin/pkg/kaitaierr"
)

// Context is the name-resolution environment an evaluation runs against
// (component I). Implementations live in pkg/kaitaistruct, which knows
// about the node tree, parameters, and enum tables; this package only needs
// the resolution surface.
type Context interface {
	// Resolve looks up a bare identifier following the order of §4.6:
	// local parameters, then fields already assigned on the current node
	// (triggering lazy instance evaluation if needed), then the
	// pseudo-identifiers _root/_parent/_io/_/_index/_sizeof. Failure to
	// resolve returns a *kaitaierr.Error of kind ParseError.
	Resolve(name string) (Value, error)
	// ResolveEnum resolves `enumName::member` to its underlying integer.
	ResolveEnum(enumName, member string) (int64, error)
}

// Eval evaluates an AST node against ctx.
func Eval(node Node, ctx Context) (Value, error) {
	switch n := node.(type) {
	case *IntLit:
		return Int(n.Value), nil
	case *FloatLit:
		return Float(n.Value), nil
	case *StringLit:
		return Str(n.Value), nil
	case *BoolLit:
		return Bool(n.Value), nil
	case *Ident:
		return ctx.Resolve(n.Name)
	case *EnumAccess:
		v, err := ctx.ResolveEnum(n.EnumName, n.Member)
		if err != nil {
			return Value{}, err
		}
		return Enum(n.EnumName, v), nil
	case *ArrayLit:
		out := make([]Value, len(n.Elems))
		for i, e := range n.Elems {
			v, err := Eval(e, ctx)
			if err != nil {
				return Value{}, err
			}
			out[i] = v
		}
		return Array(out), nil
	case *UnaryOp:
		return evalUnary(n, ctx)
	case *BinaryOp:
		return evalBinary(n, ctx)
	case *TernaryOp:
		c, err := Eval(n.Cond, ctx)
		if err != nil {
			return Value{}, err
		}
		if c.IsTruthy() {
			return Eval(n.Then, ctx)
		}
		return Eval(n.Else, ctx)
	case *MemberAccess:
		return evalMember(n, ctx)
	case *Call:
		return evalCall(n, ctx)
	case *Index:
		return evalIndex(n, ctx)
	default:
		return Value{}, kaitaierr.NewParseError("unhandled expression node %T", node)
	}
}

func evalUnary(n *UnaryOp, ctx Context) (Value, error) {
	v, err := Eval(n.Operand, ctx)
	if err != nil {
		return Value{}, err
	}
	switch n.Op {
	case "not":
		return Bool(!v.IsTruthy()), nil
	case "-":
		switch v.Kind {
		case KindInt:
			return Int(-v.Int), nil
		case KindBigInt:
			return BigIntVal(new(big.Int).Neg(v.Big)), nil
		case KindFloat:
			return Float(-v.Float), nil
		default:
			return Value{}, kaitaierr.NewParseError("unary '-' requires a numeric operand")
		}
	default:
		return Value{}, kaitaierr.NewParseError("unknown unary operator %q", n.Op)
	}
}

func evalBinary(n *BinaryOp, ctx Context) (Value, error) {
	if n.Op == "and" {
		l, err := Eval(n.Left, ctx)
		if err != nil {
			return Value{}, err
		}
		if !l.IsTruthy() {
			return Bool(false), nil
		}
		r, err := Eval(n.Right, ctx)
		if err != nil {
			return Value{}, err
		}
		return Bool(r.IsTruthy()), nil
	}
	if n.Op == "or" {
		l, err := Eval(n.Left, ctx)
		if err != nil {
			return Value{}, err
		}
		if l.IsTruthy() {
			return Bool(true), nil
		}
		r, err := Eval(n.Right, ctx)
		if err != nil {
			return Value{}, err
		}
		return Bool(r.IsTruthy()), nil
	}

	l, err := Eval(n.Left, ctx)
	if err != nil {
		return Value{}, err
	}
	r, err := Eval(n.Right, ctx)
	if err != nil {
		return Value{}, err
	}

	switch n.Op {
	case "+":
		if l.Kind == KindString || r.Kind == KindString {
			return Str(toDisplayString(l) + toDisplayString(r)), nil
		}
		return arith(l, r, "+")
	case "-", "*", "/", "%":
		return arith(l, r, n.Op)
	case "==":
		return Bool(DeepEqual(l, r)), nil
	case "!=":
		return Bool(!DeepEqual(l, r)), nil
	case "<", "<=", ">", ">=":
		return compare(l, r, n.Op)
	case "|", "^", "&", "<<", ">>":
		return bitwise(l, r, n.Op)
	default:
		return Value{}, kaitaierr.NewParseError("unknown binary operator %q", n.Op)
	}
}

func toDisplayString(v Value) string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindBigInt:
		return v.Big.String()
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindBytes:
		return string(v.Bytes)
	default:
		return ""
	}
}

// arith implements the numeric-coercion rules of §4.5: integer ops stay
// integer when both sides are integer, floats widen, and BigInt is used
// whenever either operand already exceeds the safe range.
func arith(l, r Value, op string) (Value, error) {
	if !isNumeric(l) || !isNumeric(r) {
		return Value{}, kaitaierr.NewParseError("arithmetic operator %q requires numeric operands", op)
	}
	if l.Kind == KindFloat || r.Kind == KindFloat {
		lf, _ := l.AsFloat()
		rf, _ := r.AsFloat()
		switch op {
		case "+":
			return Float(lf + rf), nil
		case "-":
			return Float(lf - rf), nil
		case "*":
			return Float(lf * rf), nil
		case "/":
			if rf == 0 {
				return Value{}, kaitaierr.NewParseError("division by zero")
			}
			return Float(lf / rf), nil
		case "%":
			if rf == 0 {
				return Value{}, kaitaierr.NewParseError("division by zero")
			}
			m := lf - rf*floorDiv(lf, rf)
			return Float(m), nil
		}
	}
	if isBig(l) || isBig(r) {
		lb, _ := l.AsBigInt()
		rb, _ := r.AsBigInt()
		switch op {
		case "+":
			return BigIntVal(new(big.Int).Add(lb, rb)), nil
		case "-":
			return BigIntVal(new(big.Int).Sub(lb, rb)), nil
		case "*":
			return BigIntVal(new(big.Int).Mul(lb, rb)), nil
		case "/":
			if rb.Sign() == 0 {
				return Value{}, kaitaierr.NewParseError("division by zero")
			}
			return BigIntVal(new(big.Int).Quo(lb, rb)), nil
		case "%":
			if rb.Sign() == 0 {
				return Value{}, kaitaierr.NewParseError("division by zero")
			}
			return BigIntVal(euclideanModBig(lb, rb)), nil
		}
	}
	li, _ := l.AsInt64()
	ri, _ := r.AsInt64()
	switch op {
	case "+":
		return Int(li + ri), nil
	case "-":
		return Int(li - ri), nil
	case "*":
		return Int(li * ri), nil
	case "/":
		if ri == 0 {
			return Value{}, kaitaierr.NewParseError("division by zero")
		}
		return Int(floorDivInt(li, ri)), nil
	case "%":
		if ri == 0 {
			return Value{}, kaitaierr.NewParseError("division by zero")
		}
		return Int(euclideanMod(li, ri)), nil
	}
	return Value{}, kaitaierr.NewParseError("unknown arithmetic operator %q", op)
}

func floorDiv(a, b float64) float64 {
	q := a / b
	t := float64(int64(q))
	if q < 0 && t != q {
		return t - 1
	}
	return t
}

func floorDivInt(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// euclideanMod implements Kaitai's "%" (result has the sign of the
// divisor), per §4.5 and the worked example in §8: (-7) % 3 == 2.
func euclideanMod(a, b int64) int64 {
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

func euclideanModBig(a, b *big.Int) *big.Int {
	m := new(big.Int).Mod(a, new(big.Int).Abs(b))
	if m.Sign() != 0 && b.Sign() < 0 {
		m.Add(m, b)
	}
	return m
}

func compare(l, r Value, op string) (Value, error) {
	var cmp int
	switch {
	case l.Kind == KindString && r.Kind == KindString:
		cmp = strings.Compare(l.Str, r.Str)
	case isNumeric(l) && isNumeric(r):
		if l.Kind == KindFloat || r.Kind == KindFloat {
			lf, _ := l.AsFloat()
			rf, _ := r.AsFloat()
			switch {
			case lf < rf:
				cmp = -1
			case lf > rf:
				cmp = 1
			default:
				cmp = 0
			}
		} else {
			lb, _ := l.AsBigInt()
			rb, _ := r.AsBigInt()
			cmp = lb.Cmp(rb)
		}
	default:
		return Value{}, kaitaierr.NewParseError("comparison requires two numbers or two strings")
	}
	switch op {
	case "<":
		return Bool(cmp < 0), nil
	case "<=":
		return Bool(cmp <= 0), nil
	case ">":
		return Bool(cmp > 0), nil
	case ">=":
		return Bool(cmp >= 0), nil
	}
	return Value{}, kaitaierr.NewParseError("unknown comparison operator %q", op)
}

// bitwise implements §4.5's bit operators, promoting to arbitrary precision
// whenever either operand is outside the native 32-bit range, and for a left
// shift whose result could reach the safe-integer boundary.
func bitwise(l, r Value, op string) (Value, error) {
	if !isNumeric(l) || !isNumeric(r) {
		return Value{}, kaitaierr.NewParseError("bitwise operator %q requires integer operands", op)
	}
	li, lerr := l.AsInt64()
	ri, rerr := r.AsInt64()
	use32 := lerr == nil && rerr == nil && !isBig(l) && !isBig(r) &&
		li >= -(1<<31) && li < (1<<31) && ri >= -(1<<31) && ri < (1<<31)
	if use32 {
		switch op {
		case "|":
			return Int(li | ri), nil
		case "^":
			return Int(li ^ ri), nil
		case "&":
			return Int(li & ri), nil
		case "<<":
			if ri <= safeIntBits-32 {
				return Int(li << uint(ri)), nil
			}
		case ">>":
			return Int(li >> uint(ri)), nil
		}
	}
	lb, _ := l.AsBigInt()
	rb, _ := r.AsBigInt()
	switch op {
	case "|":
		return BigIntVal(new(big.Int).Or(lb, rb)), nil
	case "^":
		return BigIntVal(new(big.Int).Xor(lb, rb)), nil
	case "&":
		return BigIntVal(new(big.Int).And(lb, rb)), nil
	case "<<":
		return BigIntVal(new(big.Int).Lsh(lb, uint(ri))), nil
	case ">>":
		return BigIntVal(new(big.Int).Rsh(lb, uint(ri))), nil
	}
	return Value{}, kaitaierr.NewParseError("unknown bitwise operator %q", op)
}

func evalMember(n *MemberAccess, ctx Context) (Value, error) {
	recv, err := Eval(n.Receiver, ctx)
	if err != nil {
		return Value{}, err
	}
	switch n.Name {
	case "to_i":
		return toI(recv, nil)
	case "to_s":
		return toS(recv)
	case "length", "size":
		return lengthOf(recv)
	case "first":
		return indexed(recv, 0)
	case "last":
		return indexed(recv, -1)
	case "min", "max", "reverse", "sort":
		return callArrayMethod(recv, n.Name, nil)
	}
	if recv.Kind == KindObject {
		v, ok, err := recv.Obj.Field(n.Name)
		if err != nil {
			return Value{}, err
		}
		if !ok {
			return Value{}, kaitaierr.NewParseError("no such field %q", n.Name)
		}
		return v, nil
	}
	return Value{}, kaitaierr.NewParseError("unknown property %q on value of kind %d", n.Name, recv.Kind)
}

func evalCall(n *Call, ctx Context) (Value, error) {
	if n.Receiver == nil {
		return Value{}, kaitaierr.NewParseError("unknown function %q", n.Method)
	}
	recv, err := Eval(n.Receiver, ctx)
	if err != nil {
		return Value{}, err
	}
	args := make([]Value, len(n.Args))
	for i, a := range n.Args {
		v, err := Eval(a, ctx)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}
	switch n.Method {
	case "to_i":
		return toI(recv, args)
	case "to_s":
		return toS(recv)
	}
	if recv.Kind == KindString {
		return callStringMethod(recv, n.Method, args)
	}
	if recv.Kind == KindArray || recv.Kind == KindBytes {
		return callArrayMethod(recv, n.Method, args)
	}
	return Value{}, kaitaierr.NewParseError("unknown method %q on value of kind %d", n.Method, recv.Kind)
}

func evalIndex(n *Index, ctx Context) (Value, error) {
	recv, err := Eval(n.Receiver, ctx)
	if err != nil {
		return Value{}, err
	}
	idxV, err := Eval(n.Index, ctx)
	if err != nil {
		return Value{}, err
	}
	idx, err := idxV.AsInt64()
	if err != nil {
		return Value{}, kaitaierr.NewParseError("index must be an integer")
	}
	return indexed(recv, int(idx))
}

func indexed(recv Value, idx int) (Value, error) {
	switch recv.Kind {
	case KindArray:
		n := len(recv.Arr)
		i := idx
		if i < 0 {
			i += n
		}
		if i < 0 || i >= n {
			return Value{}, kaitaierr.NewParseError("array index %d out of range (length %d)", idx, n)
		}
		return recv.Arr[i], nil
	case KindBytes:
		n := len(recv.Bytes)
		i := idx
		if i < 0 {
			i += n
		}
		if i < 0 || i >= n {
			return Value{}, kaitaierr.NewParseError("byte index %d out of range (length %d)", idx, n)
		}
		return Int(int64(recv.Bytes[i])), nil
	default:
		return Value{}, kaitaierr.NewParseError("indexing requires an array or byte sequence")
	}
}

func lengthOf(v Value) (Value, error) {
	switch v.Kind {
	case KindArray:
		return Int(int64(len(v.Arr))), nil
	case KindBytes:
		return Int(int64(len(v.Bytes))), nil
	case KindString:
		return Int(int64(len([]rune(v.Str)))), nil
	default:
		return Value{}, kaitaierr.NewParseError("length/size requires an array, byte sequence, or string")
	}
}

func toI(v Value, args []Value) (Value, error) {
	if v.Kind == KindString {
		base := 10
		if len(args) == 1 {
			b, err := args[0].AsInt64()
			if err != nil {
				return Value{}, kaitaierr.NewParseError("to_i base must be an integer")
			}
			base = int(b)
		}
		n, err := strconv.ParseInt(strings.TrimSpace(v.Str), base, 64)
		if err != nil {
			return Value{}, kaitaierr.NewParseError("to_i: cannot parse %q as base %d integer", v.Str, base)
		}
		return Int(n), nil
	}
	if v.Kind == KindFloat {
		return Int(int64(v.Float)), nil
	}
	if isNumeric(v) {
		return v, nil
	}
	return Value{}, kaitaierr.NewParseError("to_i requires a string or numeric value")
}

func toS(v Value) (Value, error) {
	return Str(toDisplayString(v)), nil
}

func callArrayMethod(recv Value, method string, args []Value) (Value, error) {
	if recv.Kind == KindBytes {
		// Treat byte sequences as arrays of integers for these methods.
		arr := make([]Value, len(recv.Bytes))
		for i, b := range recv.Bytes {
			arr[i] = Int(int64(b))
		}
		recv = Array(arr)
	}
	if recv.Kind != KindArray {
		return Value{}, kaitaierr.NewParseError("method %q requires an array", method)
	}
	switch method {
	case "length", "size":
		return Int(int64(len(recv.Arr))), nil
	case "first":
		return indexed(recv, 0)
	case "last":
		return indexed(recv, -1)
	case "min":
		return arrayExtreme(recv.Arr, true)
	case "max":
		return arrayExtreme(recv.Arr, false)
	case "reverse":
		out := make([]Value, len(recv.Arr))
		for i, v := range recv.Arr {
			out[len(out)-1-i] = v
		}
		return Array(out), nil
	case "sort":
		out := append([]Value(nil), recv.Arr...)
		sort.SliceStable(out, func(i, j int) bool {
			v, _ := compare(out[i], out[j], "<")
			return v.Bool
		})
		return Array(out), nil
	case "slice":
		return arraySlice(recv.Arr, args)
	case "includes", "contains":
		if len(args) != 1 {
			return Value{}, kaitaierr.NewParseError("%s requires one argument", method)
		}
		for _, v := range recv.Arr {
			if DeepEqual(v, args[0]) {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	case "index_of":
		if len(args) != 1 {
			return Value{}, kaitaierr.NewParseError("index_of requires one argument")
		}
		for i, v := range recv.Arr {
			if DeepEqual(v, args[0]) {
				return Int(int64(i)), nil
			}
		}
		return Int(-1), nil
	default:
		return Value{}, kaitaierr.NewParseError("unknown array method %q", method)
	}
}

func arrayExtreme(arr []Value, min bool) (Value, error) {
	if len(arr) == 0 {
		return Value{}, kaitaierr.NewParseError("min/max of empty array")
	}
	best := arr[0]
	for _, v := range arr[1:] {
		op := "<"
		if !min {
			op = ">"
		}
		c, err := compare(v, best, op)
		if err != nil {
			return Value{}, err
		}
		if c.Bool {
			best = v
		}
	}
	return best, nil
}

func arraySlice(arr []Value, args []Value) (Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return Value{}, kaitaierr.NewParseError("slice requires 1 or 2 arguments")
	}
	n := len(arr)
	start, err := args[0].AsInt64()
	if err != nil {
		return Value{}, err
	}
	end := int64(n)
	if len(args) == 2 {
		end, err = args[1].AsInt64()
		if err != nil {
			return Value{}, err
		}
	}
	s, e := clampRange(int(start), int(end), n)
	return Array(append([]Value(nil), arr[s:e]...)), nil
}

func clampRange(start, end, n int) (int, int) {
	if start < 0 {
		start += n
	}
	if end < 0 {
		end += n
	}
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	if start > end {
		start = end
	}
	return start, end
}

func callStringMethod(recv Value, method string, args []Value) (Value, error) {
	s := recv.Str
	switch method {
	case "length", "size":
		return Int(int64(len([]rune(s)))), nil
	case "first":
		r := []rune(s)
		if len(r) == 0 {
			return Value{}, kaitaierr.NewParseError("first of empty string")
		}
		return Str(string(r[0])), nil
	case "last":
		r := []rune(s)
		if len(r) == 0 {
			return Value{}, kaitaierr.NewParseError("last of empty string")
		}
		return Str(string(r[len(r)-1])), nil
	case "reverse":
		r := []rune(s)
		for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
			r[i], r[j] = r[j], r[i]
		}
		return Str(string(r)), nil
	case "substring", "slice":
		return stringSlice(s, args)
	case "upcase":
		return Str(strings.ToUpper(s)), nil
	case "downcase":
		return Str(strings.ToLower(s)), nil
	case "capitalize":
		if s == "" {
			return Str(s), nil
		}
		r := []rune(s)
		return Str(strings.ToUpper(string(r[0])) + strings.ToLower(string(r[1:]))), nil
	case "strip":
		return Str(strings.TrimSpace(s)), nil
	case "lstrip":
		return Str(strings.TrimLeft(s, " \t\r\n")), nil
	case "rstrip":
		return Str(strings.TrimRight(s, " \t\r\n")), nil
	case "starts_with":
		if len(args) != 1 {
			return Value{}, kaitaierr.NewParseError("starts_with requires one argument")
		}
		return Bool(strings.HasPrefix(s, args[0].Str)), nil
	case "ends_with":
		if len(args) != 1 {
			return Value{}, kaitaierr.NewParseError("ends_with requires one argument")
		}
		return Bool(strings.HasSuffix(s, args[0].Str)), nil
	case "split":
		if len(args) != 1 {
			return Value{}, kaitaierr.NewParseError("split requires one argument")
		}
		parts := strings.Split(s, args[0].Str)
		out := make([]Value, len(parts))
		for i, p := range parts {
			out[i] = Str(p)
		}
		return Array(out), nil
	case "replace":
		if len(args) != 2 {
			return Value{}, kaitaierr.NewParseError("replace requires two arguments")
		}
		return Str(strings.Replace(s, args[0].Str, args[1].Str, 1)), nil
	case "replace_all":
		if len(args) != 2 {
			return Value{}, kaitaierr.NewParseError("replace_all requires two arguments")
		}
		return Str(strings.ReplaceAll(s, args[0].Str, args[1].Str)), nil
	case "includes", "contains":
		if len(args) != 1 {
			return Value{}, kaitaierr.NewParseError("%s requires one argument", method)
		}
		return Bool(strings.Contains(s, args[0].Str)), nil
	case "index_of":
		if len(args) != 1 {
			return Value{}, kaitaierr.NewParseError("index_of requires one argument")
		}
		return Int(int64(strings.Index(s, args[0].Str))), nil
	case "pad_left":
		return padString(s, args, true)
	case "pad_right":
		return padString(s, args, false)
	default:
		return Value{}, kaitaierr.NewParseError("unknown string method %q", method)
	}
}

func stringSlice(s string, args []Value) (Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return Value{}, kaitaierr.NewParseError("substring/slice requires 1 or 2 arguments")
	}
	r := []rune(s)
	n := len(r)
	start, err := args[0].AsInt64()
	if err != nil {
		return Value{}, err
	}
	end := int64(n)
	if len(args) == 2 {
		end, err = args[1].AsInt64()
		if err != nil {
			return Value{}, err
		}
	}
	st, en := clampRange(int(start), int(end), n)
	return Str(string(r[st:en])), nil
}

func padString(s string, args []Value, left bool) (Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return Value{}, kaitaierr.NewParseError("pad_left/pad_right requires 1 or 2 arguments")
	}
	width, err := args[0].AsInt64()
	if err != nil {
		return Value{}, err
	}
	pad := " "
	if len(args) == 2 {
		pad = args[1].Str
	}
	if pad == "" {
		pad = " "
	}
	r := []rune(s)
	need := int(width) - len(r)
	if need <= 0 {
		return Str(s), nil
	}
	var b strings.Builder
	padRunes := []rune(pad)
	for i := 0; i < need; i++ {
		b.WriteRune(padRunes[i%len(padRunes)])
	}
	if left {
		return Str(b.String() + s), nil
	}
	return Str(s + b.String()), nil
}
