package randompkg

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-petr/ledger/internal/domain"
)

func TestAccountNumber(t *testing.T) {
	t.Parallel()

	for i := 0; i < 1_000; i++ {
		got := AccountNumber()
		require.Len(t, got, 10)

		n, err := strconv.ParseInt(got, 10, 64)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, int64(minAccountNumber))
		require.LessOrEqual(t, n, int64(maxAccountNumber))
	}
}

func TestPassword(t *testing.T) {
	t.Parallel()

	for i := 0; i < 1_000; i++ {
		got := Password()
		require.Len(t, got, 4)

		n, err := strconv.Atoi(got)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, minPassword)
		require.LessOrEqual(t, n, maxPassword)
	}
}

func TestIntBetween(t *testing.T) {
	t.Parallel()

	seen := map[int64]bool{}

	for i := 0; i < 1_000; i++ {
		n := IntBetween(1, 3)
		require.GreaterOrEqual(t, n, int64(1))
		require.LessOrEqual(t, n, int64(3))

		seen[n] = true
	}

	require.Len(t, seen, 3)
}

func TestCategory(t *testing.T) {
	t.Parallel()

	for i := 0; i < 100; i++ {
		require.True(t, Category().IsValid())
	}

	require.Contains(t, domain.Categories, Category())
}

func TestString(t *testing.T) {
	t.Parallel()

	got := String(32)
	require.Len(t, got, 32)

	for _, c := range got {
		require.True(t, strings.ContainsRune(alphabet, c), "unexpected rune %q", c)
	}

	require.Empty(t, String(0))
}
