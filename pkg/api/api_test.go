package api_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbinterp/kbin/pkg/api"
)

const simpleSchema = `
meta:
  id: simple
  endian: le
seq:
  - id: a
    type: u1
  - id: b
    type: u2
`

// §8 property 5: parse_with_schema(compile_schema(S), B) behaves
// identically to parse(S, B).
func TestParseWithSchemaMatchesParse(t *testing.T) {
	data := []byte{0x05, 0x01, 0x02}

	direct, err := api.Parse(context.Background(), []byte(simpleSchema), data, api.Options{})
	require.NoError(t, err)

	compiled, diags, err := api.CompileSchema([]byte(simpleSchema), api.Options{})
	require.NoError(t, err)
	require.Empty(t, diags)

	viaCompiled, err := api.ParseWithSchema(context.Background(), compiled, data, api.Options{})
	require.NoError(t, err)

	assert.Equal(t, api.Dump(direct), api.Dump(viaCompiled))
}

func TestCompileSchemaSucceedsForValidSchema(t *testing.T) {
	_, _, err := api.CompileSchema([]byte(simpleSchema), api.Options{})
	require.NoError(t, err)
}

func TestParseImportResolverIsConsulted(t *testing.T) {
	schemaWithImport := `
meta:
  id: with_import
  endian: le
  imports:
    - common
seq:
  - id: a
    type: common::common_type
`
	commonSchema := `
meta:
  id: common
types:
  common_type:
    seq:
      - id: v
        type: u1
`
	calls := 0
	opts := api.Options{
		ResolveImport: func(path string) ([]byte, error) {
			calls++
			assert.Equal(t, "common", path)
			return []byte(commonSchema), nil
		},
	}
	node, err := api.Parse(context.Background(), []byte(schemaWithImport), []byte{0x07}, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	tree := api.Dump(node).(map[string]any)
	a := tree["a"].(map[string]any)
	assert.Equal(t, int64(7), a["v"])
}
