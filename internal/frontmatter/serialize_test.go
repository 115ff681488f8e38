package frontmatter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSerializeYAML_EmptyMap_ReturnsEmpty(t *testing.T) {
	out, err := SerializeYAML(map[string]any{})
	require.NoError(t, err)
	require.Equal(t, "", string(out))
}

func TestSerializeYAML_DeterministicOrder(t *testing.T) {
	fields := map[string]any{
		"b": "two",
		"a": "one",
		"c": 3,
	}

	out1, err := SerializeYAML(fields)
	require.NoError(t, err)
	out2, err := SerializeYAML(fields)
	require.NoError(t, err)
	require.Equal(t, string(out1), string(out2))
	require.Equal(t, "a: one\nb: two\nc: 3\n", string(out1))
}

func TestSerializeYAML_NestedAndLists(t *testing.T) {
	fields := map[string]any{
		"outer": map[string]any{"b": 2, "a": 1},
		"tags":  []any{"x", "y"},
		"files": []string{"a.css"},
	}

	out, err := SerializeYAML(fields)
	require.NoError(t, err)
	require.Equal(t, "files:\n  - a.css\nouter:\n  a: 1\n  b: 2\ntags:\n  - x\n  - y\n", string(out))
}

func TestSerializeYAML_Time(t *testing.T) {
	out, err := SerializeYAML(map[string]any{"date": time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)})
	require.NoError(t, err)
	require.Equal(t, "date: 2024-01-02T03:04:05Z\n", string(out))
}
