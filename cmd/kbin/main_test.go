package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dummySchema = `
meta:
  id: my_data_type
  endian: le
seq:
  - id: magic
    contents: [0x4D, 0x5A]
  - id: value
    type: u2
`

func writeTempFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, content, 0o644))
	return p
}

func TestRunSucceedsAndWritesJSONToFile(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeTempFile(t, dir, "schema.ksy", []byte(dummySchema))
	binPath := writeTempFile(t, dir, "data.bin", []byte{0x4D, 0x5A, 0x2A, 0x00})
	outPath := filepath.Join(dir, "out.json")

	flags := &cliFlags{validate: true, output: outPath, format: "json", noPretty: true}
	err := run(schemaPath, binPath, flags)
	require.NoError(t, err)

	out, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"magic":[77,90],"value":42}`, string(out))
}

func TestRunWithFieldExtraction(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeTempFile(t, dir, "schema.ksy", []byte(dummySchema))
	binPath := writeTempFile(t, dir, "data.bin", []byte{0x4D, 0x5A, 0x2A, 0x00})
	outPath := filepath.Join(dir, "out.json")

	flags := &cliFlags{validate: true, output: outPath, format: "json", noPretty: true, field: "value"}
	err := run(schemaPath, binPath, flags)
	require.NoError(t, err)

	out, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "42\n", string(out))
}

func TestRunReturnsExitCode1OnMissingBinaryFile(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeTempFile(t, dir, "schema.ksy", []byte(dummySchema))

	flags := &cliFlags{validate: true}
	err := run(schemaPath, filepath.Join(dir, "missing.bin"), flags)
	require.Error(t, err)
	var ee *exitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 1, ee.code)
}

func TestRunReturnsExitCode1OnContentsMismatch(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeTempFile(t, dir, "schema.ksy", []byte(dummySchema))
	binPath := writeTempFile(t, dir, "data.bin", []byte{0x00, 0x00, 0x2A, 0x00})

	flags := &cliFlags{validate: true}
	err := run(schemaPath, binPath, flags)
	require.Error(t, err)
	var ee *exitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 1, ee.code)
}

func TestRunReturnsExitCode1OnUnknownTypeReference(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeTempFile(t, dir, "schema.ksy", []byte(`
meta:
  id: broken
seq:
  - id: a
    type: nonexistent_type
`))
	binPath := writeTempFile(t, dir, "data.bin", []byte{0x00})

	flags := &cliFlags{validate: true}
	err := run(schemaPath, binPath, flags)
	require.Error(t, err)
	var ee *exitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 1, ee.code)
}

func TestRunReturnsExitCode3OnSchemaValidationFailure(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeTempFile(t, dir, "schema.ksy", []byte(`
meta:
  id: broken
seq:
  - id: a
    type: u1
    contents: [0x01]
`))
	binPath := writeTempFile(t, dir, "data.bin", []byte{0x01})

	flags := &cliFlags{validate: true}
	err := run(schemaPath, binPath, flags)
	require.Error(t, err)
	var ee *exitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 3, ee.code)
}

func TestRunEmitsYAMLWhenFormatIsYAML(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeTempFile(t, dir, "schema.ksy", []byte(dummySchema))
	binPath := writeTempFile(t, dir, "data.bin", []byte{0x4D, 0x5A, 0x2A, 0x00})
	outPath := filepath.Join(dir, "out.yaml")

	flags := &cliFlags{validate: true, output: outPath, format: "yaml"}
	err := run(schemaPath, binPath, flags)
	require.NoError(t, err)

	out, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(out), "value: 42")
}

func TestSchemaDirHandlesNoSlash(t *testing.T) {
	assert.Equal(t, ".", schemaDir("schema.ksy"))
	assert.Equal(t, "/a/b", schemaDir("/a/b/schema.ksy"))
}
