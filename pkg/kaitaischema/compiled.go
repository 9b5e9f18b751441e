package kaitaischema

// CompiledSchema is the normalized output of E: all shorthand forms are
// expanded, defaults applied, and imports merged. Type and enum references
// are not checked here; an unknown name is reported as a ParseError by the
// interpreter when the attribute or expression using it is reached. It is
// immutable and safe to share across concurrent parses (§5).
type CompiledSchema struct {
	Meta      Meta
	Seq       []Attribute
	Instances map[string]Instance
	Types     map[string]*UserType
	Enums     map[string]EnumDef
	Params    []Param
	RootName  string
}

// Meta holds `id`, endianness defaults, and import list (§3 "Meta").
type Meta struct {
	ID           string
	Endian       string // "le", "be", or "" (undetermined/switch)
	EndianSwitch *EndianSwitch
	BitEndian    string // "le" or "be", default "be"
	Encoding     string
	Imports      []string
}

// EndianSwitch represents `meta.endian` given as a switch-on mapping,
// evaluated against the partially built node per §4.7's tie-break rule.
type EndianSwitch struct {
	On    string
	Cases map[string]string // expr-literal (as written) -> "le"|"be"
}

// RepeatKind is the `repeat` discriminator of an Attribute.
type RepeatKind int

const (
	RepeatNone RepeatKind = iota
	RepeatExpr
	RepeatUntil
	RepeatEOS
)

// TypeRef names an attribute's or instance's decoded type: either a
// built-in/user type name (with optional evaluated type arguments) or a
// SwitchType descriptor. Exactly one of Name/Switch is set.
type TypeRef struct {
	Name     string
	TypeArgs []string // expressions, evaluated left-to-right at call (§4.7)
	Switch   *SwitchType
}

// SwitchType is `{on, cases, default}` (§3 "SwitchType").
type SwitchType struct {
	On      string
	Cases   map[string]string // literal or "EnumName::member" -> type name
	Default string
	HasDefault bool
}

// ValidKind discriminates the shape of a `valid:` constraint.
type ValidKind int

const (
	ValidNone ValidKind = iota
	ValidEq
	ValidMin
	ValidMax
	ValidMinMax
	ValidAnyOf
	ValidExpr
)

// ValidSpec is a normalized `valid:` constraint.
type ValidSpec struct {
	Kind  ValidKind
	Eq    string // expression text for eq/min/max/expr forms
	Min   string
	Max   string
	AnyOf []string
}

// Attribute is one normalized `seq` entry (§3 "Attribute").
type Attribute struct {
	ID          string
	Type        *TypeRef // nil => raw bytes
	Size        string   // expression text, "" if absent
	SizeEOS     bool
	Repeat      RepeatKind
	RepeatExpr  string
	RepeatUntil string
	If          string
	Contents    []byte
	Encoding    string
	Terminator  byte
	HasTerminator bool
	Consume     bool
	Include     bool
	EOSError    bool
	Pos         string
	IO          string
	Process     string
	Enum        string
	Valid       *ValidSpec
	Doc         string
}

// Instance is like an Attribute but driven by either a `value` expression
// (no I/O) or a positioned read (`pos`), never both (§3 "Instance").
type Instance struct {
	ID          string
	Value       string // expression text; "" if this is a positioned read
	Type        *TypeRef
	Size        string
	SizeEOS     bool
	Repeat      RepeatKind
	RepeatExpr  string
	RepeatUntil string
	If          string
	Pos         string
	IO          string
	Encoding    string
	Enum        string
	Process     string
	Doc         string
}

// UserType is a named nested type: its own seq/instances/types/enums/params,
// inheriting `meta` from its enclosing type when its own is absent (§3).
type UserType struct {
	Meta      *Meta
	Seq       []Attribute
	Instances map[string]Instance
	Types     map[string]*UserType
	Enums     map[string]EnumDef
	Params    []Param
	Doc       string
}

// EnumDef maps an integer value to its symbolic name, and must be
// resolvable in both directions (§3 "Enum").
type EnumDef map[int64]string

// ByName returns the integer for a symbolic enum member, if present.
func (e EnumDef) ByName(name string) (int64, bool) {
	for v, n := range e {
		if n == name {
			return v, true
		}
	}
	return 0, false
}

// Param is an ordered parametric-type parameter (§3 "parametric types").
type Param struct {
	ID   string
	Type string
	Enum string
}

// Diagnostic is a structured validation message (§4.4 "structured
// validation diagnostics").
type Diagnostic struct {
	Severity DiagnosticSeverity
	Path     string
	Message  string
}

type DiagnosticSeverity int

const (
	SeverityWarning DiagnosticSeverity = iota
	SeverityError
)

func (d Diagnostic) String() string {
	sev := "warning"
	if d.Severity == SeverityError {
		sev = "error"
	}
	if d.Path != "" {
		return sev + " at " + d.Path + ": " + d.Message
	}
	return sev + ": " + d.Message
}
