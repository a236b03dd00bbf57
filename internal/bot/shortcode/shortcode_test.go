package shortcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerate_Length(t *testing.T) {
	for _, n := range []int{1, 4, 10, 32} {
		code, err := Generate(n)
		require.NoError(t, err)
		require.Len(t, code, n)
	}
}

func TestGenerate_InvalidLength(t *testing.T) {
	_, err := Generate(0)
	require.Error(t, err)

	_, err = Generate(-5)
	require.Error(t, err)
}

func TestGenerate_AlphabetOnly(t *testing.T) {
	code, err := Generate(200)
	require.NoError(t, err)
	for _, r := range code {
		require.True(t, strings.ContainsRune(Alphabet, r), "unexpected character %q", r)
	}
}

func TestGenerate_NoConfusableCharacters(t *testing.T) {
	for _, r := range "0O1Il" {
		require.False(t, strings.ContainsRune(Alphabet, r), "alphabet contains confusable %q", r)
	}
}

func TestGenerate_Distinct(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		code, err := Generate(10)
		require.NoError(t, err)
		_, dup := seen[code]
		require.False(t, dup, "duplicate code %q after %d generations", code, i)
		seen[code] = struct{}{}
	}
}
