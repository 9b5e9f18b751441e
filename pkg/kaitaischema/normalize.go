package kaitaischema

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Options controls normalization/validation behavior (E).
type Options struct {
	// Strict promotes warnings to errors (§4.4, §6.2 --strict).
	Strict bool
	// ResolveImport fetches the text of an imported schema by its
	// `meta.imports` path; callers (e.g. the CLI) own actual file access,
	// keeping this package free of I/O (§1 "external collaborators").
	ResolveImport func(path string) ([]byte, error)
}

type normalizer struct {
	opts  Options
	diags []Diagnostic
}

// Normalize consumes a RawSchema (the output of ParseRawYAML) and produces a
// CompiledSchema, applying defaults, checking exclusivity invariants, and
// merging imports. Diagnostics are always returned; in strict mode any
// warning also causes a non-nil error.
func Normalize(raw *RawSchema, opts Options) (*CompiledSchema, []Diagnostic, error) {
	n := &normalizer{opts: opts}

	meta := n.normalizeMeta(&raw.Meta, "meta")
	cs := &CompiledSchema{
		Meta:     meta,
		Enums:    map[string]EnumDef{},
		Types:    map[string]*UserType{},
		Instances: map[string]Instance{},
		RootName: meta.ID,
	}

	for name, e := range raw.Enums {
		cs.Enums[name] = n.normalizeEnum(e)
	}
	for _, p := range raw.Params {
		cs.Params = append(cs.Params, Param{ID: p.ID, Type: p.Type, Enum: p.Enum})
	}
	for _, item := range raw.Seq {
		cs.Seq = append(cs.Seq, n.normalizeSeqItem(item, "seq."+item.ID))
	}
	for name, inst := range raw.Instances {
		cs.Instances[name] = n.normalizeInstance(name, inst, "instances."+name)
	}
	for name, t := range raw.Types {
		ut := n.normalizeType(t, name)
		cs.Types[name] = ut
	}

	if len(raw.Meta.Imports) > 0 {
		if opts.ResolveImport == nil {
			n.errf("meta", "schema declares imports but no import resolver was supplied")
		} else {
			seen := map[string]bool{}
			for _, imp := range raw.Meta.Imports {
				n.mergeImport(cs, imp, seen)
			}
		}
	}

	var err error
	for _, d := range n.diags {
		if d.Severity == SeverityError || (opts.Strict && d.Severity == SeverityWarning) {
			err = fmt.Errorf("schema validation failed: %s", d.String())
			break
		}
	}
	return cs, n.diags, err
}

func (n *normalizer) warnf(path, format string, args ...any) {
	n.diags = append(n.diags, Diagnostic{Severity: SeverityWarning, Path: path, Message: fmt.Sprintf(format, args...)})
}

func (n *normalizer) errf(path, format string, args ...any) {
	n.diags = append(n.diags, Diagnostic{Severity: SeverityError, Path: path, Message: fmt.Sprintf(format, args...)})
}

func (n *normalizer) normalizeEnum(raw RawEnum) EnumDef {
	out := EnumDef{}
	for k, name := range raw {
		iv, err := strconv.ParseInt(k, 0, 64)
		if err != nil {
			n.errf("enums", "enum value %q is not an integer", k)
			continue
		}
		out[iv] = name
	}
	return out
}

func (n *normalizer) normalizeMeta(raw *RawMeta, path string) Meta {
	m := Meta{
		ID:        raw.ID,
		BitEndian: raw.BitEndian,
		Encoding:  raw.Encoding,
		Imports:   raw.Imports,
	}
	if m.BitEndian == "" {
		m.BitEndian = "be"
	}
	switch raw.Endian.Kind {
	case 0:
		// absent
	case yaml.ScalarNode:
		m.Endian = raw.Endian.Value
		if m.Endian != "le" && m.Endian != "be" {
			n.errf(path+".endian", "endian must be 'le' or 'be', got %q", m.Endian)
		}
	case yaml.MappingNode:
		sw := &EndianSwitch{Cases: map[string]string{}}
		for i := 0; i+1 < len(raw.Endian.Content); i += 2 {
			key := raw.Endian.Content[i].Value
			val := raw.Endian.Content[i+1].Value
			if key == "switch-on" {
				sw.On = val
				continue
			}
			if key == "cases" {
				casesNode := raw.Endian.Content[i+1]
				for j := 0; j+1 < len(casesNode.Content); j += 2 {
					sw.Cases[casesNode.Content[j].Value] = casesNode.Content[j+1].Value
				}
			}
		}
		if sw.On == "" {
			n.errf(path+".endian", "switch-on endian requires 'switch-on'")
		}
		m.EndianSwitch = sw
	default:
		n.errf(path+".endian", "unsupported endian node shape")
	}
	return m
}

func (n *normalizer) normalizeType(raw RawType, name string) *UserType {
	ut := &UserType{
		Instances: map[string]Instance{},
		Types:     map[string]*UserType{},
		Enums:     map[string]EnumDef{},
		Doc:       raw.Doc,
	}
	if raw.Meta != nil {
		m := n.normalizeMeta(raw.Meta, "types."+name+".meta")
		ut.Meta = &m
	}
	for _, p := range raw.Params {
		ut.Params = append(ut.Params, Param{ID: p.ID, Type: p.Type, Enum: p.Enum})
	}
	for _, item := range raw.Seq {
		ut.Seq = append(ut.Seq, n.normalizeSeqItem(item, "types."+name+".seq."+item.ID))
	}
	for iname, inst := range raw.Instances {
		ut.Instances[iname] = n.normalizeInstance(iname, inst, "types."+name+".instances."+iname)
	}
	for ename, e := range raw.Enums {
		ut.Enums[ename] = n.normalizeEnum(e)
	}
	for tname, t := range raw.Types {
		ut.Types[tname] = n.normalizeType(t, name+"."+tname)
	}
	return ut
}

// normalizeTypeRef accepts either a bare type name or a switch-on mapping,
// per §3 "type — one of: built-in primitive name, user type name... a
// switch-on descriptor, or absent".
func normalizeTypeRef(n *normalizer, node yaml.Node, path string) *TypeRef {
	switch node.Kind {
	case 0:
		return nil
	case yaml.ScalarNode:
		name, args := splitTypeArgs(node.Value)
		return &TypeRef{Name: name, TypeArgs: args}
	case yaml.MappingNode:
		st := &SwitchType{Cases: map[string]string{}}
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			switch key {
			case "switch-on":
				st.On = node.Content[i+1].Value
			case "cases":
				casesNode := node.Content[i+1]
				for j := 0; j+1 < len(casesNode.Content); j += 2 {
					caseKey := casesNode.Content[j].Value
					typeName := casesNode.Content[j+1].Value
					if caseKey == "_" {
						st.Default = typeName
						st.HasDefault = true
						continue
					}
					st.Cases[caseKey] = typeName
				}
			}
		}
		if st.On == "" {
			n.errf(path, "switch type requires 'switch-on'")
		}
		return &TypeRef{Switch: st}
	default:
		n.errf(path, "unsupported type node shape")
		return nil
	}
}

// splitTypeArgs parses `typename(arg1, arg2)` parametric-type invocations.
func splitTypeArgs(s string) (string, []string) {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return s, nil
	}
	name := s[:open]
	inner := s[open+1 : len(s)-1]
	if strings.TrimSpace(inner) == "" {
		return name, nil
	}
	parts := strings.Split(inner, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return name, parts
}

func normalizeSizeNode(node yaml.Node) string {
	switch node.Kind {
	case 0:
		return ""
	case yaml.ScalarNode:
		return node.Value
	default:
		return ""
	}
}

func normalizeContents(node yaml.Node) []byte {
	switch node.Kind {
	case 0:
		return nil
	case yaml.ScalarNode:
		return []byte(node.Value)
	case yaml.SequenceNode:
		out := make([]byte, 0, len(node.Content))
		for _, c := range node.Content {
			iv, err := strconv.ParseInt(c.Value, 0, 64)
			if err == nil {
				out = append(out, byte(iv))
				continue
			}
			out = append(out, []byte(c.Value)...)
		}
		return out
	default:
		return nil
	}
}

func normalizeBoolNode(node yaml.Node, def bool) bool {
	if node.Kind != yaml.ScalarNode {
		return def
	}
	b, err := strconv.ParseBool(node.Value)
	if err != nil {
		return def
	}
	return b
}

func normalizeTerminator(node yaml.Node) (byte, bool) {
	if node.Kind != yaml.ScalarNode {
		return 0, false
	}
	iv, err := strconv.ParseInt(node.Value, 0, 64)
	if err != nil {
		return 0, false
	}
	return byte(iv), true
}

func normalizeValid(node yaml.Node) *ValidSpec {
	switch node.Kind {
	case 0:
		return nil
	case yaml.ScalarNode:
		return &ValidSpec{Kind: ValidEq, Eq: node.Value}
	case yaml.MappingNode:
		spec := &ValidSpec{}
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			val := node.Content[i+1]
			switch key {
			case "min":
				spec.Min = val.Value
				spec.Kind = ValidMin
			case "max":
				spec.Max = val.Value
				if spec.Kind == ValidMin {
					spec.Kind = ValidMinMax
				} else {
					spec.Kind = ValidMax
				}
			case "eq":
				spec.Eq = val.Value
				spec.Kind = ValidEq
			case "expr":
				spec.Eq = val.Value
				spec.Kind = ValidExpr
			case "any-of":
				spec.Kind = ValidAnyOf
				for _, c := range val.Content {
					spec.AnyOf = append(spec.AnyOf, c.Value)
				}
			}
		}
		return spec
	default:
		return nil
	}
}

func (n *normalizer) normalizeSeqItem(raw RawSeqItem, path string) Attribute {
	attr := Attribute{
		ID:          raw.ID,
		Type:        normalizeTypeRef(n, raw.Type, path+".type"),
		Size:        normalizeSizeNode(raw.Size),
		SizeEOS:     raw.SizeEOS,
		If:          raw.IfExpr,
		Encoding:    raw.Encoding,
		Process:     raw.Process,
		Enum:        raw.Enum,
		Pos:         raw.Pos,
		IO:          raw.IO,
		Doc:         raw.Doc,
		Contents:    normalizeContents(raw.Contents),
		Include:     raw.Include,
		Consume:     normalizeBoolNode(raw.Consume, true),
		EOSError:    normalizeBoolNode(raw.EosError, true),
		Valid:       normalizeValid(raw.Valid),
	}
	if term, ok := normalizeTerminator(raw.Terminator); ok {
		attr.Terminator = term
		attr.HasTerminator = true
	}
	switch {
	case raw.Repeat == "expr" || raw.RepeatExpr != "":
		attr.Repeat = RepeatExpr
		attr.RepeatExpr = raw.RepeatExpr
	case raw.Repeat == "until" || raw.RepeatUntil != "":
		attr.Repeat = RepeatUntil
		attr.RepeatUntil = raw.RepeatUntil
	case raw.Repeat == "eos":
		attr.Repeat = RepeatEOS
	}

	n.checkSeqExclusivity(attr, raw, path)
	return attr
}

func (n *normalizer) checkSeqExclusivity(attr Attribute, raw RawSeqItem, path string) {
	kinds := 0
	if attr.Type != nil {
		kinds++
	}
	if len(attr.Contents) > 0 {
		kinds++
	}
	if kinds > 1 {
		n.errf(path, "a seq entry may have at most one of {type, contents}")
	}
	if attr.Type == nil && len(attr.Contents) == 0 && attr.Size == "" && !attr.SizeEOS && !attr.HasTerminator {
		n.warnf(path, "attribute %q has no type, contents, size, size-eos, or terminator; nothing will be read", attr.ID)
	}
}

func (n *normalizer) normalizeInstance(name string, raw RawInst, path string) Instance {
	inst := Instance{
		ID:          name,
		Value:       raw.Value,
		Type:        normalizeTypeRef(n, raw.Type, path+".type"),
		Size:        normalizeSizeNode(raw.Size),
		SizeEOS:     raw.SizeEOS,
		If:          raw.IfExpr,
		Pos:         raw.Pos,
		IO:          raw.IO,
		Encoding:    raw.Encoding,
		Enum:        raw.Enum,
		Process:     raw.Process,
		Doc:         raw.Doc,
	}
	switch {
	case raw.RepeatExpr != "":
		inst.Repeat = RepeatExpr
		inst.RepeatExpr = raw.RepeatExpr
	case raw.RepeatUntil != "":
		inst.Repeat = RepeatUntil
		inst.RepeatUntil = raw.RepeatUntil
	case raw.Repeat == "eos":
		inst.Repeat = RepeatEOS
	}
	if inst.Value != "" && inst.Pos != "" {
		n.errf(path, "a value-instance has no I/O attributes; 'value' and 'pos' are mutually exclusive")
	}
	return inst
}
