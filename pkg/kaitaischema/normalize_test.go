package kaitaischema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gifLikeYAML = `
meta:
  id: giflike
  endian: le
seq:
  - id: header
    type: str
    size: 3
    encoding: ASCII
  - id: version
    type: str
    size: 3
    encoding: ASCII
`

func TestNormalizeBasicSeq(t *testing.T) {
	raw, err := ParseRawYAML([]byte(gifLikeYAML))
	require.NoError(t, err)
	cs, diags, err := Normalize(raw, Options{})
	require.NoError(t, err)
	for _, d := range diags {
		require.NotEqual(t, SeverityError, d.Severity)
	}
	assert.Equal(t, "giflike", cs.Meta.ID)
	assert.Equal(t, "le", cs.Meta.Endian)
	require.Len(t, cs.Seq, 2)
	assert.Equal(t, "header", cs.Seq[0].ID)
	assert.Equal(t, "str", cs.Seq[0].Type.Name)
	assert.Equal(t, "3", cs.Seq[0].Size)
	assert.Equal(t, "ASCII", cs.Seq[0].Encoding)
}

const switchEndianYAML = `
meta:
  id: switchendian
  endian:
    switch-on: byte_order
    cases:
      0: le
      1: be
seq:
  - id: byte_order
    type: u1
  - id: value
    type: u4
`

func TestNormalizeSwitchEndian(t *testing.T) {
	raw, err := ParseRawYAML([]byte(switchEndianYAML))
	require.NoError(t, err)
	cs, _, err := Normalize(raw, Options{})
	require.NoError(t, err)
	require.NotNil(t, cs.Meta.EndianSwitch)
	assert.Equal(t, "byte_order", cs.Meta.EndianSwitch.On)
	assert.Equal(t, "le", cs.Meta.EndianSwitch.Cases["0"])
	assert.Equal(t, "be", cs.Meta.EndianSwitch.Cases["1"])
}

const contentsYAML = `
meta:
  id: hasmagic
seq:
  - id: magic
    contents: [0x4d, 0x5a]
`

func TestNormalizeContentsAsIntList(t *testing.T) {
	raw, err := ParseRawYAML([]byte(contentsYAML))
	require.NoError(t, err)
	cs, _, err := Normalize(raw, Options{})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x4d, 0x5a}, cs.Seq[0].Contents)
}

const switchTypeYAML = `
meta:
  id: switchtype
seq:
  - id: opcode
    type: u1
  - id: body
    type:
      switch-on: opcode
      cases:
        1: type_a
        2: type_b
        _: type_default
types:
  type_a:
    seq:
      - id: x
        type: u1
  type_b:
    seq:
      - id: y
        type: u2
  type_default:
    seq: []
`

func TestNormalizeSwitchType(t *testing.T) {
	raw, err := ParseRawYAML([]byte(switchTypeYAML))
	require.NoError(t, err)
	cs, _, err := Normalize(raw, Options{})
	require.NoError(t, err)
	body := cs.Seq[1]
	require.NotNil(t, body.Type)
	require.NotNil(t, body.Type.Switch)
	assert.Equal(t, "opcode", body.Type.Switch.On)
	assert.Equal(t, "type_a", body.Type.Switch.Cases["1"])
	assert.True(t, body.Type.Switch.HasDefault)
	assert.Equal(t, "type_default", body.Type.Switch.Default)
	assert.Contains(t, cs.Types, "type_a")
}

const exclusivityViolationYAML = `
meta:
  id: bad
seq:
  - id: x
    type: u1
    contents: [0x01]
`

func TestNormalizeRejectsTypeAndContentsTogether(t *testing.T) {
	raw, err := ParseRawYAML([]byte(exclusivityViolationYAML))
	require.NoError(t, err)
	_, diags, err := Normalize(raw, Options{})
	require.Error(t, err)
	found := false
	for _, d := range diags {
		if d.Severity == SeverityError {
			found = true
		}
	}
	assert.True(t, found)
}

func TestNormalizeStrictPromotesWarnings(t *testing.T) {
	const emptyAttrYAML = `
meta:
  id: warny
seq:
  - id: nothing
`
	raw, err := ParseRawYAML([]byte(emptyAttrYAML))
	require.NoError(t, err)

	_, diags, err := Normalize(raw, Options{Strict: false})
	require.NoError(t, err)
	require.NotEmpty(t, diags)

	_, _, errStrict := Normalize(raw, Options{Strict: true})
	require.Error(t, errStrict)
}

func TestNormalizeImportMergeNamespacingAndEarliestWins(t *testing.T) {
	const mainYAML = `
meta:
  id: main
  imports:
    - common/shapes
seq:
  - id: a
    type: u1
types:
  circle:
    seq:
      - id: r
        type: u1
`
	const importedYAML = `
meta:
  id: shapes
types:
  circle:
    seq:
      - id: should_not_appear
        type: u2
  square:
    seq:
      - id: side
        type: u1
enums:
  kind:
    0: circle_kind
    1: square_kind
`
	raw, err := ParseRawYAML([]byte(mainYAML))
	require.NoError(t, err)

	resolver := func(path string) ([]byte, error) {
		if path == "common/shapes" {
			return []byte(importedYAML), nil
		}
		return nil, assertNeverCalled(path)
	}

	cs, _, err := Normalize(raw, Options{ResolveImport: resolver})
	require.NoError(t, err)

	// Local 'circle' must win over the imported one.
	assert.Contains(t, cs.Types, "circle")
	assert.Len(t, cs.Types["circle"].Seq, 1)
	assert.Equal(t, "r", cs.Types["circle"].Seq[0].ID)

	// Imported-only types/enums land under the "shapes" namespace.
	require.Contains(t, cs.Types, "shapes::square")
	require.Contains(t, cs.Enums, "shapes::kind")
}

func assertNeverCalled(path string) error {
	panic("unexpected import resolution for " + path)
}
