// Package kaitaischema implements the schema model and validator (components
// D and E): it turns the generic tree produced by a YAML unmarshal into a
// normalized, statically-resolvable CompiledSchema, and merges imports.
//
// Grounded on the teacher's pkg/kaitaistruct/schema.go (YAML-tagged structs,
// EnumDef as map[any]string, SwitchType shape) but split into a raw form
// (this file) feeding a separate normalization pass (normalize.go) rather
// than using the raw YAML structs directly as the interpreter's working
// model, so that defaults, exclusivity checks and import merge have one
// deterministic place to run (§4.4).
package kaitaischema

import (
	"gopkg.in/yaml.v3"
)

// RawSchema is the direct YAML unmarshal target for a .ksy document.
type RawSchema struct {
	Meta      RawMeta            `yaml:"meta"`
	Seq       []RawSeqItem       `yaml:"seq"`
	Types     map[string]RawType `yaml:"types"`
	Instances map[string]RawInst `yaml:"instances"`
	Enums     map[string]RawEnum `yaml:"enums"`
	Doc       string             `yaml:"doc"`
	DocRef    string             `yaml:"doc-ref"`
	Params    []RawParam         `yaml:"params"`
}

// RawMeta is the unparsed `meta` block. Endian may be a plain string
// ("le"/"be") or a switch-on mapping; both shapes are accepted here and
// disambiguated during normalization.
type RawMeta struct {
	ID        string    `yaml:"id"`
	Title     string    `yaml:"title"`
	Endian    yaml.Node `yaml:"endian"`
	BitEndian string    `yaml:"bit-endian"`
	Encoding  string    `yaml:"encoding"`
	Imports   []string  `yaml:"imports"`
}

// RawSeqItem is one unparsed `seq` entry.
type RawSeqItem struct {
	ID          string    `yaml:"id"`
	Type        yaml.Node `yaml:"type"`
	Value       string    `yaml:"value,omitempty"`
	Enum        string    `yaml:"enum,omitempty"`
	Repeat      string    `yaml:"repeat,omitempty"`
	RepeatExpr  string    `yaml:"repeat-expr,omitempty"`
	RepeatUntil string    `yaml:"repeat-until,omitempty"`
	Size        yaml.Node `yaml:"size,omitempty"`
	SizeEOS     bool      `yaml:"size-eos,omitempty"`
	IfExpr      string    `yaml:"if,omitempty"`
	Process     string    `yaml:"process,omitempty"`
	Contents    yaml.Node `yaml:"contents,omitempty"`
	Terminator  yaml.Node `yaml:"terminator,omitempty"`
	Include     bool      `yaml:"include,omitempty"`
	Consume     yaml.Node `yaml:"consume,omitempty"`
	EosError    yaml.Node `yaml:"eos-error,omitempty"`
	Encoding    string    `yaml:"encoding,omitempty"`
	Doc         string    `yaml:"doc,omitempty"`
	DocRef      string    `yaml:"doc-ref,omitempty"`
	Pos         string    `yaml:"pos,omitempty"`
	IO          string    `yaml:"io,omitempty"`
	Valid       yaml.Node `yaml:"valid,omitempty"`
}

// RawType is a nested user type definition.
type RawType struct {
	Meta      *RawMeta           `yaml:"meta"`
	Seq       []RawSeqItem       `yaml:"seq"`
	Types     map[string]RawType `yaml:"types"`
	Instances map[string]RawInst `yaml:"instances"`
	Enums     map[string]RawEnum `yaml:"enums"`
	Params    []RawParam         `yaml:"params"`
	Doc       string             `yaml:"doc"`
	DocRef    string             `yaml:"doc-ref"`
}

// RawInst is an `instances` entry: either a `value` expression or a
// positioned read sharing most fields of a seq item.
type RawInst struct {
	Value      string    `yaml:"value,omitempty"`
	Type       yaml.Node `yaml:"type,omitempty"`
	Repeat     string    `yaml:"repeat,omitempty"`
	RepeatExpr string    `yaml:"repeat-expr,omitempty"`
	RepeatUntil string   `yaml:"repeat-until,omitempty"`
	IfExpr     string    `yaml:"if,omitempty"`
	Pos        string    `yaml:"pos,omitempty"`
	IO         string    `yaml:"io,omitempty"`
	Size       yaml.Node `yaml:"size,omitempty"`
	SizeEOS    bool      `yaml:"size-eos,omitempty"`
	Encoding   string    `yaml:"encoding,omitempty"`
	Enum       string    `yaml:"enum,omitempty"`
	Process    string    `yaml:"process,omitempty"`
	Doc        string    `yaml:"doc,omitempty"`
	DocRef     string    `yaml:"doc-ref,omitempty"`
}

// RawEnum maps integer values to symbolic names, as written in YAML
// (`0: red`, `1: green`).
type RawEnum map[string]string

// RawParam is a parametric-type parameter declaration.
type RawParam struct {
	ID     string `yaml:"id"`
	Type   string `yaml:"type"`
	Enum   string `yaml:"enum,omitempty"`
	Doc    string `yaml:"doc,omitempty"`
	DocRef string `yaml:"doc-ref,omitempty"`
}

// ParseRawYAML unmarshals .ksy text into a RawSchema. This is the one place
// the module touches a YAML *library* directly; everything past this point
// is schema-model logic (D) and validation (E).
func ParseRawYAML(data []byte) (*RawSchema, error) {
	var raw RawSchema
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return &raw, nil
}
