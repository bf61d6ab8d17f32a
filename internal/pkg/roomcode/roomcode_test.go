package roomcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_LengthAndAlphabet(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := New()
		require.NoError(t, err)
		assert.Len(t, code, Length, "код должен иметь фиксированную длину")
		for _, r := range code {
			assert.True(t, strings.ContainsRune(alphabet, r),
				"код должен состоять только из символов алфавита, получили %q", r)
		}
	}
}

func TestNew_UpperCase(t *testing.T) {
	code, err := New()
	require.NoError(t, err)
	assert.Equal(t, strings.ToUpper(code), code, "код должен быть в верхнем регистре")
}

func TestNew_NotConstant(t *testing.T) {
	// Совпадение двух кодов подряд теоретически возможно, но 31^6 вариантов
	// делают его пренебрежимо маловероятным для теста.
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := New()
		require.NoError(t, err)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1, "генератор не должен возвращать один и тот же код")
}
