package env

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	t.Setenv("WEDPLAN_ENV_TEST", "  ")
	require.Equal(t, "json", Get("WEDPLAN_ENV_TEST", "json"))
	t.Setenv("WEDPLAN_ENV_TEST", " console ")
	require.Equal(t, "console", Get("WEDPLAN_ENV_TEST", "json"))
}

func TestBool(t *testing.T) {
	for raw, want := range map[string]bool{"true": true, "1": true, "T": true, "on": true, "off": false, "no": false, "FALSE": false} {
		t.Setenv("WEDPLAN_BOOL_TEST", raw)
		require.Equal(t, want, Bool("WEDPLAN_BOOL_TEST", !want), raw)
	}
	t.Setenv("WEDPLAN_BOOL_TEST", "maybe")
	require.True(t, Bool("WEDPLAN_BOOL_TEST", true))
}
