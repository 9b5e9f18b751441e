package kaitaistruct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbinterp/kbin/pkg/kaitaiexpr"
)

// Dump renders byte sequences as integer arrays and big integers as decimal
// strings, omitting internal bookkeeping fields (§6.3).
func TestDumpBytesAndBigInt(t *testing.T) {
	yamlText := `
meta:
  id: dump_bytes
  endian: le
seq:
  - id: raw
    size: 3
  - id: big
    type: u8
`
	data := []byte{0x01, 0x02, 0x03, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	nd := parseBytes(t, yamlText, data)
	tree := Dump(kaitaiexpr.Obj(nd)).(map[string]any)
	assert.Equal(t, []int{1, 2, 3}, tree["raw"])
	assert.Equal(t, "18446744073709551615", tree["big"])
	assert.NotContains(t, tree, "_io")
	assert.NotContains(t, tree, "_root")
	assert.NotContains(t, tree, "_parent")
}

// A lazy instance that errors is captured per-field as "[Error: ...]"
// rather than aborting the whole dump.
func TestDumpCapturesInstanceErrorPerField(t *testing.T) {
	yamlText := `
meta:
  id: dump_instance_error
  endian: le
seq:
  - id: a
    type: u1
instances:
  bad:
    value: a / 0
`
	nd := parseBytes(t, yamlText, []byte{0x05})
	tree := Dump(kaitaiexpr.Obj(nd)).(map[string]any)
	badVal, ok := tree["bad"].(string)
	require.True(t, ok)
	assert.Contains(t, badVal, "[Error:")
}

// Dumping a child node whose instance resolves to `_root` (an ancestor that
// is still being dumped) breaks the cycle with "[Circular]" instead of
// recursing forever.
func TestDumpBreaksCycleOnRepeatedNode(t *testing.T) {
	yamlText := `
meta:
  id: dump_cycle
  endian: le
seq:
  - id: child
    type: child_type
types:
  child_type:
    seq:
      - id: v
        type: u1
    instances:
      back_to_root:
        value: _root
`
	nd := parseBytes(t, yamlText, []byte{0x09})
	tree := Dump(kaitaiexpr.Obj(nd)).(map[string]any)
	child := tree["child"].(map[string]any)
	assert.Equal(t, "[Circular]", child["back_to_root"])
}

func TestDumpPlainValues(t *testing.T) {
	yamlText := `
meta:
  id: dump_plain
  endian: le
seq:
  - id: flag
    type: u1
    enum: onoff
enums:
  onoff:
    0: off
    1: on
`
	nd := parseBytes(t, yamlText, []byte{0x01})
	tree := Dump(kaitaiexpr.Obj(nd)).(map[string]any)
	assert.Equal(t, "1", tree["flag"])
}
