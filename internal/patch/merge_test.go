package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	dst := map[string]any{
		"headline": "old",
		"story":    "keep",
		"nested":   map[string]any{"a": 1.0, "b": 2.0},
		"gallery":  []any{"x", "y"},
	}
	src := map[string]any{
		"headline": "new",
		"nested":   map[string]any{"b": 3.0},
		"gallery":  []any{"z"},
		"story":    nil,
	}
	out := Merge(dst, src)

	assert.Equal(t, "new", out["headline"])
	assert.NotContains(t, out, "story")
	assert.Equal(t, map[string]any{"a": 1.0, "b": 3.0}, out["nested"])
	assert.Equal(t, []any{"z"}, out["gallery"])

	// исходник не тронут
	assert.Equal(t, "old", dst["headline"])
	assert.Equal(t, map[string]any{"a": 1.0, "b": 2.0}, dst["nested"])
}

func TestMergeJSON(t *testing.T) {
	out, err := MergeJSON([]byte(`{"business_name":"A","headline":"h"}`), []byte(`{"headline":"H2"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"business_name":"A","headline":"H2"}`, string(out))

	out, err = MergeJSON(nil, []byte(`{"story":"s"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"story":"s"}`, string(out))

	_, err = MergeJSON([]byte(`{}`), []byte(`[1,2]`))
	assert.Error(t, err)
}
