package sessionstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PutOverwrites(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.PutRefresh(ctx, "u1", "first", time.Minute))
	require.NoError(t, store.PutRefresh(ctx, "u1", "second", time.Minute))

	got, err := store.GetRefresh(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "second", got)
}

func TestMemoryStore_GetAbsent(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()

	got, err := store.GetRefresh(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.PutRefresh(ctx, "u1", "tok", -time.Second))

	got, err := store.GetRefresh(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryStore_CompareAndDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	tests := []struct {
		name      string
		stored    string
		presented string
		want      bool
	}{
		{name: "match", stored: "tok", presented: "tok", want: true},
		{name: "mismatch", stored: "tok", presented: "rotated", want: false},
		{name: "absent", stored: "", presented: "tok", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := NewMemoryStore()
			if tt.stored != "" {
				require.NoError(t, store.PutRefresh(ctx, "u1", tt.stored, time.Minute))
			}

			ok, err := store.CompareAndDelete(ctx, "u1", tt.presented)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestMemoryStore_CompareAndDelete_OnlyOneWinner(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.PutRefresh(ctx, "u1", "tok", time.Minute))

	first, err := store.CompareAndDelete(ctx, "u1", "tok")
	require.NoError(t, err)
	second, err := store.CompareAndDelete(ctx, "u1", "tok")
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
}

func TestMemoryStore_DeleteIdempotent(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.PutRefresh(ctx, "u1", "tok", time.Minute))

	require.NoError(t, store.DeleteRefresh(ctx, "u1"))
	require.NoError(t, store.DeleteRefresh(ctx, "u1"))

	got, err := store.GetRefresh(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got)
}
