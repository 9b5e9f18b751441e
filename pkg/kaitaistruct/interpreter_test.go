package kaitaistruct

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbinterp/kbin/pkg/kaitaierr"
	"github.com/kbinterp/kbin/pkg/kaitaischema"
)

func compile(t *testing.T, yamlText string) *kaitaischema.CompiledSchema {
	t.Helper()
	raw, err := kaitaischema.ParseRawYAML([]byte(yamlText))
	require.NoError(t, err)
	cs, _, err := kaitaischema.Normalize(raw, kaitaischema.Options{})
	require.NoError(t, err)
	return cs
}

func parseBytes(t *testing.T, yamlText string, data []byte) *Node {
	t.Helper()
	cs := compile(t, yamlText)
	interp := NewInterpreter(cs, nil)
	node, err := interp.ParseRoot(context.Background(), data)
	require.NoError(t, err)
	return node
}

func fieldValue(t *testing.T, nd *Node, name string) any {
	t.Helper()
	v, ok, err := nd.Field(name)
	require.True(t, ok)
	require.NoError(t, err)
	return Dump(v)
}

// Scenario 1: str-typed header/version fields (spec §8 scenario 1).
func TestScenarioGIFLikeHeader(t *testing.T) {
	yamlText := `
meta:
  id: gif_like
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
	data := []byte{0x47, 0x49, 0x46, 0x38, 0x39, 0x61}
	nd := parseBytes(t, yamlText, data)
	assert.Equal(t, "GIF", fieldValue(t, nd, "header"))
	assert.Equal(t, "89a", fieldValue(t, nd, "version"))
}

// Scenario 2: contents magic check plus LE integers (spec §8 scenario 2).
func TestScenarioMagicContentsLEStruct(t *testing.T) {
	yamlText := `
meta:
  id: mz_like
  endian: le
seq:
  - id: magic
    contents: [0x4D, 0x5A]
  - id: version
    type: u2
  - id: count
    type: u4
`
	data := []byte{0x4D, 0x5A, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00}
	nd := parseBytes(t, yamlText, data)
	assert.Equal(t, []int{77, 90}, fieldValue(t, nd, "magic"))
	assert.Equal(t, int64(1), fieldValue(t, nd, "version"))
	assert.Equal(t, int64(0), fieldValue(t, nd, "count"))
}

// Scenario 3: meta.endian switch-on a preceding field (spec §8 scenario 3).
func TestScenarioSwitchEndianStruct(t *testing.T) {
	yamlText := `
meta:
  id: switch_endian
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
	data := []byte{0x01, 0x01, 0x02, 0x03, 0x04}
	nd := parseBytes(t, yamlText, data)
	assert.Equal(t, int64(1), fieldValue(t, nd, "byte_order"))
	assert.Equal(t, int64(0x01020304), fieldValue(t, nd, "value"))
}

// Scenario 4: repeat-expr count field (spec §8 scenario 4).
func TestScenarioRepeatExprCount(t *testing.T) {
	yamlText := `
meta:
  id: repeat_expr_example
  endian: le
seq:
  - id: count
    type: u2
  - id: values
    type: u4
    repeat: expr
    repeat-expr: count
`
	data := []byte{
		0x03, 0x00,
		0x0A, 0x00, 0x00, 0x00,
		0x14, 0x00, 0x00, 0x00,
		0x1E, 0x00, 0x00, 0x00,
	}
	nd := parseBytes(t, yamlText, data)
	assert.Equal(t, int64(3), fieldValue(t, nd, "count"))
	assert.Equal(t, []any{int64(10), int64(20), int64(30)}, fieldValue(t, nd, "values"))
}

// Scenario 5: TLV repeat-eos over a nested user type (spec §8 scenario 5).
func TestScenarioTLVRepeatEOS(t *testing.T) {
	yamlText := `
meta:
  id: tlv
  endian: le
seq:
  - id: items
    type: tlv_item
    repeat: eos
types:
  tlv_item:
    seq:
      - id: kind
        type: u1
      - id: len
        type: u1
      - id: value
        size: len
`
	data := []byte{0x02, 0x03, 0xAA, 0xBB, 0xCC, 0x02, 0x02, 0xDD, 0xEE}
	nd := parseBytes(t, yamlText, data)
	items := fieldValue(t, nd, "items").([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	second := items[1].(map[string]any)
	assert.Equal(t, []int{0xAA, 0xBB, 0xCC}, first["value"])
	assert.Equal(t, []int{0xDD, 0xEE}, second["value"])
}

// Scenario 6: zlib process then string decode (spec §8 scenario 6).
func TestScenarioZlibProcessThenString(t *testing.T) {
	yamlText := `
meta:
  id: zlib_string
  endian: le
seq:
  - id: payload
    size: 13
    process: zlib
    type: str
    encoding: UTF-8
`
	data := []byte{0x78, 0x9c, 0xf3, 0x48, 0xcd, 0xc9, 0xc9, 0x07, 0x00, 0x05, 0x8c, 0x01, 0xf5}
	nd := parseBytes(t, yamlText, data)
	assert.Equal(t, "Hello", fieldValue(t, nd, "payload"))
}

// Boundary: reading past EOS raises EndOfStream at the position the short
// read began.
func TestEndOfStreamPositionIsReadStart(t *testing.T) {
	yamlText := `
meta:
  id: short_read
  endian: le
seq:
  - id: a
    type: u4
`
	raw, err := kaitaischema.ParseRawYAML([]byte(yamlText))
	require.NoError(t, err)
	cs, _, err := kaitaischema.Normalize(raw, kaitaischema.Options{})
	require.NoError(t, err)
	interp := NewInterpreter(cs, nil)
	_, err = interp.ParseRoot(context.Background(), []byte{0x01, 0x02})
	require.Error(t, err)
	var kerr *kaitaierr.Error
	require.ErrorAs(t, err, &kerr)
	assert.Equal(t, kaitaierr.EndOfStream, kerr.Kind)
	require.NotNil(t, kerr.Pos)
	assert.Equal(t, int64(0), *kerr.Pos)
}

// Boundary: repeat-eos over an empty stream yields an empty array, not an
// error.
func TestRepeatEOSOnEmptyStreamYieldsEmptyArray(t *testing.T) {
	yamlText := `
meta:
  id: empty_repeat
  endian: le
seq:
  - id: items
    type: u1
    repeat: eos
`
	nd := parseBytes(t, yamlText, nil)
	v, ok, err := nd.Field("items")
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, []any{}, Dump(v))
}

// Boundary: contents mismatch raises ValidationError positioned at the
// first differing byte.
func TestContentsMismatchRaisesValidationErrorAtPosition(t *testing.T) {
	yamlText := `
meta:
  id: magic_check
  endian: le
seq:
  - id: magic
    contents: [0x4D, 0x5A]
`
	raw, err := kaitaischema.ParseRawYAML([]byte(yamlText))
	require.NoError(t, err)
	cs, _, err := kaitaischema.Normalize(raw, kaitaischema.Options{})
	require.NoError(t, err)
	interp := NewInterpreter(cs, nil)
	_, err = interp.ParseRoot(context.Background(), []byte{0x4D, 0x00, 0xFF})
	require.Error(t, err)
	var kerr *kaitaierr.Error
	require.ErrorAs(t, err, &kerr)
	assert.Equal(t, kaitaierr.ValidationError, kerr.Kind)
	require.NotNil(t, kerr.Pos)
	assert.Equal(t, int64(1), *kerr.Pos)
}

// §8 property 6: a node with no `pos` attributes has _sizeof equal to the
// sum of its seq children's sizes.
func TestSizeofEqualsSumOfSeqChildren(t *testing.T) {
	yamlText := `
meta:
  id: sizeof_check
  endian: le
seq:
  - id: a
    type: u1
  - id: b
    type: u4
`
	nd := parseBytes(t, yamlText, []byte{0x01, 0x02, 0x03, 0x04, 0x05})
	assert.Equal(t, int64(5), nd.SizeOf)
}

// §8 property 7: an instance with a pure value expression memoizes.
func TestInstanceValueExpressionMemoizes(t *testing.T) {
	yamlText := `
meta:
  id: memo_check
  endian: le
seq:
  - id: a
    type: u1
instances:
  doubled:
    value: a * 2
`
	nd := parseBytes(t, yamlText, []byte{0x05})
	v1, ok, err := nd.Field("doubled")
	require.True(t, ok)
	require.NoError(t, err)
	v2, _, err := nd.Field("doubled")
	require.NoError(t, err)
	assert.Equal(t, int64(10), Dump(v1))
	assert.Equal(t, Dump(v1), Dump(v2))
}

// A cyclic instance (referencing itself) is rejected with a ParseError
// rather than recursing forever (§9 "Lazy instances").
func TestCyclicInstanceEvaluationIsParseError(t *testing.T) {
	yamlText := `
meta:
  id: cyclic
  endian: le
seq: []
instances:
  a:
    value: b
  b:
    value: a
`
	nd := parseBytes(t, yamlText, nil)
	_, _, err := nd.Field("a")
	require.Error(t, err)
	var kerr *kaitaierr.Error
	require.ErrorAs(t, err, &kerr)
	assert.Equal(t, kaitaierr.ParseError, kerr.Kind)
}
