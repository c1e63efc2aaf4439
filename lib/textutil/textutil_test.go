package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	require.Equal(t, "zoeoconnor", NormalizeName(" Zoë  O'Connor "))
	require.Equal(t, "bondi icebergs sc", NormalizeWords("Bondi Icebergs S.C."))
	require.Equal(t, NormalizeWords("Bondi Icebergs SC"), NormalizeWords("Bondi Icebergs S.C."))
	require.Equal(t, "st kilda sea swim club", NormalizeWords("St. Kilda Sea-Swim  Club"))
}

func TestMatchName(t *testing.T) {
	require.True(t, MatchName("Zoë O'Connor", "oconnor"))
	require.True(t, MatchName("Zoë O'Connor", "ZOE"))
	require.False(t, MatchName("Zoë O'Connor", "smith"))
	require.False(t, MatchName("Zoë O'Connor", "  "))
}
