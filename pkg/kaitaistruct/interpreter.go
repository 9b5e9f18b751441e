package kaitaistruct

import (
	"context"
	"log/slog"
	"math/big"
	"regexp"

	"github.com/kbinterp/kbin/pkg/kaitaicodec"
	"github.com/kbinterp/kbin/pkg/kaitaierr"
	"github.com/kbinterp/kbin/pkg/kaitaiexpr"
	"github.com/kbinterp/kbin/pkg/kaitaischema"
	"github.com/kbinterp/kbin/pkg/kaitaistream"
)

// Interpreter is the type interpreter (component J), the orchestrator that
// drives a kaitaistream.Stream from a compiled schema per §4.7. Grounded on
// the teacher's KaitaiInterpreter, generalized from its CEL expression pool
// onto kaitaiexpr and from `any`-typed ParsedData onto Node/kaitaiexpr.Value.
type Interpreter struct {
	schema *kaitaischema.CompiledSchema
	codecs *kaitaicodec.Registry
	logger *slog.Logger
}

// NewInterpreter creates an Interpreter bound to a compiled schema.
func NewInterpreter(schema *kaitaischema.CompiledSchema, logger *slog.Logger) *Interpreter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Interpreter{schema: schema, codecs: kaitaicodec.NewRegistry(), logger: logger}
}

// ParseRoot parses data according to the interpreter's schema, returning the
// root Node.
func (interp *Interpreter) ParseRoot(ctx context.Context, data []byte) (*Node, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	rootType := &kaitaischema.UserType{
		Meta:      &interp.schema.Meta,
		Seq:       interp.schema.Seq,
		Instances: interp.schema.Instances,
		Types:     interp.schema.Types,
		Enums:     interp.schema.Enums,
		Params:    interp.schema.Params,
	}
	stream := kaitaistream.New(data)
	stack := []*kaitaischema.UserType{rootType}
	interp.logger.DebugContext(ctx, "parsing root type", "id", interp.schema.RootName)
	return interp.parseType(ctx, rootType, stream, nil, nil, nil, stack, interp.schema.RootName)
}

// parseType executes the per-type algorithm of §4.7 steps 1-4.
func (interp *Interpreter) parseType(ctx context.Context, def *kaitaischema.UserType, stream *kaitaistream.Stream, parent *Node, root *Node, params map[string]kaitaiexpr.Value, stack []*kaitaischema.UserType, typeName string) (*Node, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	node := newNode(typeName, interp, stack)
	node.Parent = parent
	node.IO = stream
	node.StartPos = stream.Pos()
	node.Params = params
	if root == nil {
		node.Root = node
	} else {
		node.Root = root
	}

	evCtx := newContext(node, interp)

	for _, attr := range def.Seq {
		if err := interp.parseAttribute(ctx, attr, node, evCtx, stack); err != nil {
			return nil, err
		}
	}
	node.SizeOf = stream.Pos() - node.StartPos
	return node, nil
}

func (interp *Interpreter) parseAttribute(ctx context.Context, attr kaitaischema.Attribute, node *Node, evCtx *evalContext, stack []*kaitaischema.UserType) error {
	if attr.If != "" {
		v, err := evalExpr(attr.If, evCtx)
		if err != nil {
			return err
		}
		if !v.IsTruthy() {
			return nil
		}
	}

	stream := node.IO
	savedPos := int64(-1)
	if attr.Pos != "" {
		posVal, err := evalExpr(attr.Pos, evCtx)
		if err != nil {
			return err
		}
		p, err := posVal.AsInt64()
		if err != nil {
			return err
		}
		savedPos = stream.Pos()
		if err := stream.Seek(p); err != nil {
			return err
		}
	}

	effStream := stream
	if attr.IO != "" {
		ioVal, err := evalExpr(attr.IO, evCtx)
		if err != nil {
			return err
		}
		s, ok := ioVal.Stream.(*kaitaistream.Stream)
		if !ok {
			return kaitaierr.NewParseError("io: expression for %q did not resolve to a stream", attr.ID)
		}
		effStream = s
	}

	value, err := interp.computeAttributeValue(ctx, attr, effStream, evCtx, stack)
	if err != nil {
		return err
	}
	node.set(attr.ID, value)

	if savedPos >= 0 {
		if err := stream.Seek(savedPos); err != nil {
			return err
		}
	}
	return nil
}

// computeAttributeValue applies repetition (§4.7 step j) around a single
// decode (step 2.c-i), shared between seq attributes and positioned
// instances.
func (interp *Interpreter) computeAttributeValue(ctx context.Context, attr kaitaischema.Attribute, stream *kaitaistream.Stream, evCtx *evalContext, stack []*kaitaischema.UserType) (kaitaiexpr.Value, error) {
	switch attr.Repeat {
	case kaitaischema.RepeatNone:
		return interp.decodeOne(ctx, attr, stream, evCtx, stack)

	case kaitaischema.RepeatExpr:
		countVal, err := evalExpr(attr.RepeatExpr, evCtx)
		if err != nil {
			return kaitaiexpr.Value{}, err
		}
		count, err := countVal.AsInt64()
		if err != nil {
			return kaitaiexpr.Value{}, err
		}
		if count < 0 {
			return kaitaiexpr.Value{}, kaitaierr.NewParseError("repeat-expr count must be non-negative, got %d", count)
		}
		arr := make([]kaitaiexpr.Value, 0, count)
		for i := int64(0); i < count; i++ {
			v, err := interp.decodeOne(ctx, attr, stream, evCtx.withIndex(i), stack)
			if err != nil {
				return kaitaiexpr.Value{}, err
			}
			arr = append(arr, v)
		}
		return kaitaiexpr.Array(arr), nil

	case kaitaischema.RepeatUntil:
		var arr []kaitaiexpr.Value
		idx := int64(0)
		for {
			v, err := interp.decodeOne(ctx, attr, stream, evCtx.withIndex(idx), stack)
			if err != nil {
				return kaitaiexpr.Value{}, err
			}
			arr = append(arr, v)
			condVal, err := evalExpr(attr.RepeatUntil, evCtx.withUnderscore(v).withIndex(idx))
			if err != nil {
				return kaitaiexpr.Value{}, err
			}
			idx++
			if condVal.IsTruthy() {
				break
			}
		}
		return kaitaiexpr.Array(arr), nil

	case kaitaischema.RepeatEOS:
		var arr []kaitaiexpr.Value
		idx := int64(0)
		for {
			if stream.IsEOF() {
				break
			}
			v, err := interp.decodeOne(ctx, attr, stream, evCtx.withIndex(idx), stack)
			if err != nil {
				return kaitaiexpr.Value{}, err
			}
			arr = append(arr, v)
			idx++
		}
		return kaitaiexpr.Array(arr), nil
	}
	return kaitaiexpr.Value{}, kaitaierr.NewParseError("unknown repeat kind")
}

// decodeOne implements §4.7 steps 2.d-2.i for a single occurrence.
func (interp *Interpreter) decodeOne(ctx context.Context, attr kaitaischema.Attribute, stream *kaitaistream.Stream, evCtx *evalContext, stack []*kaitaischema.UserType) (kaitaiexpr.Value, error) {
	value, err := interp.decodeCore(ctx, attr, stream, evCtx, stack)
	if err != nil {
		return kaitaiexpr.Value{}, err
	}
	if attr.Valid != nil {
		if err := interp.checkValid(attr, value, evCtx); err != nil {
			return kaitaiexpr.Value{}, err
		}
	}
	if attr.Enum != "" {
		i, err := value.AsInt64()
		if err != nil {
			return kaitaiexpr.Value{}, kaitaierr.NewParseError("enum-tagged attribute %q did not produce an integer", attr.ID)
		}
		value = kaitaiexpr.Enum(attr.Enum, i)
	}
	return value, nil
}

func (interp *Interpreter) decodeCore(ctx context.Context, attr kaitaischema.Attribute, stream *kaitaistream.Stream, evCtx *evalContext, stack []*kaitaischema.UserType) (kaitaiexpr.Value, error) {
	size, hasSize, err := interp.resolveSize(attr, evCtx)
	if err != nil {
		return kaitaiexpr.Value{}, err
	}

	if attr.Type == nil {
		return interp.decodeRawBytes(attr, stream, hasSize, size)
	}

	typeName := attr.Type.Name
	typeArgs := attr.Type.TypeArgs
	if attr.Type.Switch != nil {
		typeName, err = resolveSwitch(attr.Type.Switch, evCtx, stack)
		if err != nil {
			return kaitaiexpr.Value{}, err
		}
	}

	if kind, width, suffix, ok := parseBuiltinType(typeName); ok {
		return interp.decodeBuiltin(kind, width, suffix, attr, stream, evCtx, stack, hasSize, size)
	}

	return interp.decodeUserType(ctx, typeName, typeArgs, attr, stream, evCtx, stack, hasSize, size)
}

func (interp *Interpreter) decodeRawBytes(attr kaitaischema.Attribute, stream *kaitaistream.Stream, hasSize bool, size int64) (kaitaiexpr.Value, error) {
	if len(attr.Contents) > 0 {
		start := stream.Pos()
		raw, err := stream.ReadBytes(int64(len(attr.Contents)))
		if err != nil {
			return kaitaiexpr.Value{}, err
		}
		for i, want := range attr.Contents {
			if raw[i] != want {
				pos := start + int64(i)
				return kaitaiexpr.Value{}, kaitaierr.NewValidationError("contents mismatch for %q at byte %d: expected 0x%02x, got 0x%02x", attr.ID, pos, want, raw[i]).WithPos(pos)
			}
		}
		return kaitaiexpr.Bytes(raw), nil
	}
	if attr.HasTerminator {
		raw, err := stream.ReadBytesTerm(attr.Terminator, attr.Include, attr.Consume, attr.EOSError)
		return kaitaiexpr.Bytes(raw), err
	}
	if hasSize {
		raw, err := stream.ReadBytes(size)
		return kaitaiexpr.Bytes(raw), err
	}
	raw, err := stream.ReadBytesFull()
	return kaitaiexpr.Bytes(raw), err
}

func (interp *Interpreter) decodeUserType(ctx context.Context, typeName string, typeArgs []string, attr kaitaischema.Attribute, stream *kaitaistream.Stream, evCtx *evalContext, stack []*kaitaischema.UserType, hasSize bool, size int64) (kaitaiexpr.Value, error) {
	def, ok := lookupType(stack, typeName)
	if !ok {
		return kaitaiexpr.Value{}, kaitaierr.NewParseError("unknown type %q", typeName)
	}

	subStream := stream
	if hasSize {
		raw, err := stream.ReadBytes(size)
		if err != nil {
			return kaitaiexpr.Value{}, err
		}
		if attr.Process != "" {
			raw, err = interp.applyProcess(attr.Process, raw, evCtx)
			if err != nil {
				return kaitaiexpr.Value{}, err
			}
		}
		subStream = kaitaistream.New(raw)
	} else if attr.SizeEOS {
		raw, err := stream.ReadBytesFull()
		if err != nil {
			return kaitaiexpr.Value{}, err
		}
		if attr.Process != "" {
			raw, err = interp.applyProcess(attr.Process, raw, evCtx)
			if err != nil {
				return kaitaiexpr.Value{}, err
			}
		}
		subStream = kaitaistream.New(raw)
	}

	params, err := interp.evalTypeArgs(typeArgs, def.Params, evCtx)
	if err != nil {
		return kaitaiexpr.Value{}, err
	}

	newStack := append(append([]*kaitaischema.UserType{}, stack...), def)
	child, err := interp.parseType(ctx, def, subStream, evCtx.node, evCtx.node.Root, params, newStack, typeName)
	if err != nil {
		return kaitaiexpr.Value{}, err
	}
	return kaitaiexpr.Obj(child), nil
}

func (interp *Interpreter) evalTypeArgs(argExprs []string, params []kaitaischema.Param, ctx kaitaiexpr.Context) (map[string]kaitaiexpr.Value, error) {
	if len(argExprs) == 0 {
		return nil, nil
	}
	if len(argExprs) != len(params) {
		return nil, kaitaierr.NewParseError("type argument arity mismatch: expected %d, got %d", len(params), len(argExprs))
	}
	out := make(map[string]kaitaiexpr.Value, len(params))
	for i, p := range params {
		v, err := evalExpr(argExprs[i], ctx)
		if err != nil {
			return nil, err
		}
		out[p.ID] = v
	}
	return out, nil
}

func (interp *Interpreter) resolveSize(attr kaitaischema.Attribute, ctx kaitaiexpr.Context) (int64, bool, error) {
	if attr.Size == "" {
		return 0, false, nil
	}
	v, err := evalExpr(attr.Size, ctx)
	if err != nil {
		return 0, false, err
	}
	i, err := v.AsInt64()
	if err != nil {
		return 0, false, kaitaierr.NewParseError("size expression for %q did not produce an integer", attr.ID)
	}
	return i, true, nil
}

func (interp *Interpreter) applyProcess(spec string, raw []byte, ctx kaitaiexpr.Context) ([]byte, error) {
	ps := parseProcessSpec(spec)
	args, err := evalProcessArgs(ps.args, ctx)
	if err != nil {
		return nil, err
	}
	return interp.codecs.Apply(ps.name, raw, args)
}

func (interp *Interpreter) checkValid(attr kaitaischema.Attribute, value kaitaiexpr.Value, evCtx *evalContext) error {
	loopCtx := evCtx.withUnderscore(value)
	var expr string
	switch attr.Valid.Kind {
	case kaitaischema.ValidEq:
		expr = "_ == (" + attr.Valid.Eq + ")"
	case kaitaischema.ValidMin:
		expr = "_ >= (" + attr.Valid.Min + ")"
	case kaitaischema.ValidMax:
		expr = "_ <= (" + attr.Valid.Max + ")"
	case kaitaischema.ValidMinMax:
		expr = "_ >= (" + attr.Valid.Min + ") and _ <= (" + attr.Valid.Max + ")"
	case kaitaischema.ValidExpr:
		expr = attr.Valid.Eq
	case kaitaischema.ValidAnyOf:
		for i, v := range attr.Valid.AnyOf {
			if i > 0 {
				expr += " or "
			}
			expr += "(_ == (" + v + "))"
		}
	default:
		return nil
	}
	v, err := evalExpr(expr, loopCtx)
	if err != nil {
		return err
	}
	if !v.IsTruthy() {
		return kaitaierr.NewValidationError("validation failed for %q", attr.ID)
	}
	return nil
}

// evalInstance computes a lazily-evaluated instance (§4.7 step 3, §9 "Lazy
// instances"): either a pure `value` expression, or a positioned read that
// seeks, decodes, and restores the stream position.
func (interp *Interpreter) evalInstance(node *Node, name string, def kaitaischema.Instance) (kaitaiexpr.Value, error) {
	evCtx := newContext(node, interp)
	interp.logger.Debug("evaluating instance", "type", node.TypeName, "name", name)

	if def.If != "" {
		v, err := evalExpr(def.If, evCtx)
		if err != nil {
			return kaitaiexpr.Value{}, err
		}
		if !v.IsTruthy() {
			return kaitaiexpr.Null(), nil
		}
	}

	if def.Value != "" {
		return evalExpr(def.Value, evCtx)
	}

	attr := kaitaischema.Attribute{
		ID:          name,
		Type:        def.Type,
		Size:        def.Size,
		SizeEOS:     def.SizeEOS,
		Repeat:      def.Repeat,
		RepeatExpr:  def.RepeatExpr,
		RepeatUntil: def.RepeatUntil,
		Encoding:    def.Encoding,
		Enum:        def.Enum,
		Process:     def.Process,
		Consume:     true,
		EOSError:    true,
	}

	stream := node.IO
	savedPos := stream.Pos()
	if def.Pos != "" {
		posVal, err := evalExpr(def.Pos, evCtx)
		if err != nil {
			return kaitaiexpr.Value{}, err
		}
		p, err := posVal.AsInt64()
		if err != nil {
			return kaitaiexpr.Value{}, err
		}
		if err := stream.Seek(p); err != nil {
			return kaitaiexpr.Value{}, err
		}
	}
	value, err := interp.computeAttributeValue(context.Background(), attr, stream, evCtx, node.scopeStack)
	if seekErr := stream.Seek(savedPos); seekErr != nil && err == nil {
		err = seekErr
	}
	return value, err
}

// builtin type name parsing (§4.1, §GLOSSARY "Built-in type").

type builtinKind int

const (
	builtinNone builtinKind = iota
	builtinUInt
	builtinSInt
	builtinFloat
	builtinBits
	builtinStr
	builtinStrz
)

var (
	reInt   = regexp.MustCompile(`^([us])(1|2|4|8)(le|be)?$`)
	reFloat = regexp.MustCompile(`^f(4|8)(le|be)?$`)
	reBits  = regexp.MustCompile(`^b([0-9]+)$`)
)

func parseBuiltinType(name string) (kind builtinKind, width int, suffix string, ok bool) {
	if name == "str" {
		return builtinStr, 0, "", true
	}
	if name == "strz" {
		return builtinStrz, 0, "", true
	}
	if m := reInt.FindStringSubmatch(name); m != nil {
		w := 1
		switch m[2] {
		case "1":
			w = 1
		case "2":
			w = 2
		case "4":
			w = 4
		case "8":
			w = 8
		}
		if m[1] == "u" {
			return builtinUInt, w, m[3], true
		}
		return builtinSInt, w, m[3], true
	}
	if m := reFloat.FindStringSubmatch(name); m != nil {
		w := 4
		if m[1] == "8" {
			w = 8
		}
		return builtinFloat, w, m[2], true
	}
	if m := reBits.FindStringSubmatch(name); m != nil {
		n := 0
		for _, c := range m[1] {
			n = n*10 + int(c-'0')
		}
		if n >= 1 && n <= 64 {
			return builtinBits, n, "", true
		}
	}
	return builtinNone, 0, "", false
}

func (interp *Interpreter) decodeBuiltin(kind builtinKind, width int, suffix string, attr kaitaischema.Attribute, stream *kaitaistream.Stream, evCtx *evalContext, stack []*kaitaischema.UserType, hasSize bool, size int64) (kaitaiexpr.Value, error) {
	switch kind {
	case builtinUInt, builtinSInt, builtinFloat:
		endian := suffix
		if endian == "" && width > 1 {
			e, err := interp.resolveEndian(stack, evCtx)
			if err != nil {
				return kaitaiexpr.Value{}, err
			}
			endian = e
		}
		le := endian == "le"
		switch kind {
		case builtinUInt:
			return interp.decodeUint(stream, width, le)
		case builtinSInt:
			return interp.decodeSint(stream, width, le)
		case builtinFloat:
			return interp.decodeFloat(stream, width, le)
		}
	case builtinBits:
		meta := effectiveMeta(stack)
		le := meta != nil && meta.BitEndian == "le"
		var v uint64
		var err error
		if le {
			v, err = stream.ReadBitsIntLe(width)
		} else {
			v, err = stream.ReadBitsIntBe(width)
		}
		if err != nil {
			return kaitaiexpr.Value{}, err
		}
		return kaitaiexpr.IntFromUintWidth(v, width), nil
	case builtinStr:
		raw, err := interp.readSizedBytes(stream, attr, hasSize, size, evCtx)
		if err != nil {
			return kaitaiexpr.Value{}, err
		}
		enc := resolveEncoding(attr.Encoding, stack)
		s, err := kaitaistream.DecodeString(raw, enc)
		return kaitaiexpr.Str(s), err
	case builtinStrz:
		term := byte(0)
		if attr.HasTerminator {
			term = attr.Terminator
		}
		raw, err := stream.ReadBytesTerm(term, attr.Include, attr.Consume, attr.EOSError)
		if err != nil {
			return kaitaiexpr.Value{}, err
		}
		if attr.Process != "" {
			raw, err = interp.applyProcess(attr.Process, raw, evCtx)
			if err != nil {
				return kaitaiexpr.Value{}, err
			}
		}
		enc := resolveEncoding(attr.Encoding, stack)
		s, err := kaitaistream.DecodeString(raw, enc)
		return kaitaiexpr.Str(s), err
	}
	return kaitaiexpr.Value{}, kaitaierr.NewParseError("unsupported builtin type")
}

func (interp *Interpreter) readSizedBytes(stream *kaitaistream.Stream, attr kaitaischema.Attribute, hasSize bool, size int64, ctx kaitaiexpr.Context) ([]byte, error) {
	var raw []byte
	var err error
	switch {
	case hasSize:
		raw, err = stream.ReadBytes(size)
	case attr.SizeEOS:
		raw, err = stream.ReadBytesFull()
	default:
		return nil, kaitaierr.NewParseError("string attribute %q requires size or size-eos", attr.ID)
	}
	if err != nil {
		return nil, err
	}
	if attr.Process != "" {
		raw, err = interp.applyProcess(attr.Process, raw, ctx)
	}
	return raw, err
}

func resolveEncoding(attrEncoding string, stack []*kaitaischema.UserType) string {
	if attrEncoding != "" {
		return attrEncoding
	}
	if m := effectiveMeta(stack); m != nil && m.Encoding != "" {
		return m.Encoding
	}
	return "UTF-8"
}

func (interp *Interpreter) resolveEndian(stack []*kaitaischema.UserType, ctx kaitaiexpr.Context) (string, error) {
	for i := len(stack) - 1; i >= 0; i-- {
		m := stack[i].Meta
		if m == nil {
			continue
		}
		if m.EndianSwitch != nil {
			v, err := evalExpr(m.EndianSwitch.On, ctx)
			if err != nil {
				return "", err
			}
			key := switchKeyString(v)
			if e, ok := m.EndianSwitch.Cases[key]; ok {
				return e, nil
			}
			return "", kaitaierr.NewParseError("no matching endian switch case for %q", key)
		}
		if m.Endian != "" {
			return m.Endian, nil
		}
	}
	return "", kaitaierr.NewParseError("endian could not be determined for a multi-byte field")
}

func switchKeyString(v kaitaiexpr.Value) string {
	if i, err := v.AsInt64(); err == nil {
		return bigIntString(i)
	}
	if v.Kind == kaitaiexpr.KindString {
		return v.Str
	}
	if v.Kind == kaitaiexpr.KindBool {
		if v.Bool {
			return "true"
		}
		return "false"
	}
	return ""
}

func bigIntString(i int64) string {
	return big.NewInt(i).String()
}

func (interp *Interpreter) decodeUint(stream *kaitaistream.Stream, width int, le bool) (kaitaiexpr.Value, error) {
	var v uint64
	var err error
	switch width {
	case 1:
		v, err = stream.ReadU1()
	case 2:
		if le {
			v, err = stream.ReadU2le()
		} else {
			v, err = stream.ReadU2be()
		}
	case 4:
		if le {
			v, err = stream.ReadU4le()
		} else {
			v, err = stream.ReadU4be()
		}
	case 8:
		if le {
			v, err = stream.ReadU8le()
		} else {
			v, err = stream.ReadU8be()
		}
	}
	if err != nil {
		return kaitaiexpr.Value{}, err
	}
	return kaitaiexpr.IntFromUintWidth(v, width*8), nil
}

func (interp *Interpreter) decodeSint(stream *kaitaistream.Stream, width int, le bool) (kaitaiexpr.Value, error) {
	var v int64
	var err error
	switch width {
	case 1:
		v, err = stream.ReadS1()
	case 2:
		if le {
			v, err = stream.ReadS2le()
		} else {
			v, err = stream.ReadS2be()
		}
	case 4:
		if le {
			v, err = stream.ReadS4le()
		} else {
			v, err = stream.ReadS4be()
		}
	case 8:
		if le {
			v, err = stream.ReadS8le()
		} else {
			v, err = stream.ReadS8be()
		}
	}
	if err != nil {
		return kaitaiexpr.Value{}, err
	}
	return intFromSigned(v, width*8), nil
}

func (interp *Interpreter) decodeFloat(stream *kaitaistream.Stream, width int, le bool) (kaitaiexpr.Value, error) {
	var f float64
	var err error
	if width == 4 {
		if le {
			f, err = stream.ReadF4le()
		} else {
			f, err = stream.ReadF4be()
		}
	} else {
		if le {
			f, err = stream.ReadF8le()
		} else {
			f, err = stream.ReadF8be()
		}
	}
	return kaitaiexpr.Float(f), err
}

// intFromSigned mirrors kaitaiexpr.IntFromUintWidth's promotion rule (§9
// "Numeric width") for signed reads, where the raw value may already be
// negative.
func intFromSigned(v int64, widthBits int) kaitaiexpr.Value {
	if widthBits > 53 {
		return kaitaiexpr.BigIntVal(big.NewInt(v))
	}
	abs := v
	if abs < 0 {
		abs = -abs
	}
	if abs >= (1 << 53) {
		return kaitaiexpr.BigIntVal(big.NewInt(v))
	}
	return kaitaiexpr.Int(v)
}
