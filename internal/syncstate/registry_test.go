package syncstate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_OneHookPerKey(t *testing.T) {
	store := newFakeStore()
	reg := NewRegistry(store, WithLogger(quietLogger()))
	ctx := context.Background()

	first, err := Bind(ctx, reg, "snippets", []string{})
	require.NoError(t, err)
	second, err := Bind(ctx, reg, "snippets", []string{"ignored"})
	require.NoError(t, err)
	require.Same(t, first, second)

	_, err = Bind(ctx, reg, "snippets", 0)
	require.ErrorIs(t, err, ErrKeyTypeMismatch)

	other, err := Bind(ctx, reg, "prefs", map[string]string{})
	require.NoError(t, err)

	first.Set([]string{"x"})
	other.Set(map[string]string{"lang": "fr"})
	require.NoError(t, reg.Close(ctx))
	require.NoError(t, reg.Close(ctx))

	raw, _ := store.raw("snippets")
	require.Equal(t, `["x"]`, raw)
	raw, _ = store.raw("prefs")
	require.Equal(t, `{"lang":"fr"}`, raw)

	_, err = Bind(ctx, reg, "late", 1)
	require.ErrorIs(t, err, ErrRegistryClosed)
}
