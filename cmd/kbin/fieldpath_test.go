package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFieldDottedAndBracket(t *testing.T) {
	tree := map[string]any{
		"a": map[string]any{
			"b": []any{
				map[string]any{"c": int64(1)},
				map[string]any{"c": int64(2)},
			},
		},
	}
	v, err := extractField(tree, "a.b[1].c")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

func TestExtractFieldMissingFieldErrors(t *testing.T) {
	tree := map[string]any{"a": int64(1)}
	_, err := extractField(tree, "missing")
	require.Error(t, err)
}

func TestExtractFieldIndexOutOfRangeErrors(t *testing.T) {
	tree := map[string]any{"a": []any{int64(1)}}
	_, err := extractField(tree, "a[5]")
	require.Error(t, err)
}

func TestSplitFieldPathBareSegment(t *testing.T) {
	segs := splitFieldPath("a")
	require.Len(t, segs, 1)
	assert.Equal(t, "a", segs[0].name)
	assert.False(t, segs[0].isIndex)
}
