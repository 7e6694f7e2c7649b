package revocation_test

import (
	"context"
	"testing"
	"time"

	"github.com/Kyz7/formbuilder/internal/revocation"
	"github.com/Kyz7/formbuilder/internal/testutils"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDBRevoker(t *testing.T) {
	ctx := context.Background()
	r := revocation.NewDBRevoker(testutils.TestDB(t))

	t.Run("Success - revoke is idempotent", func(t *testing.T) {
		require.NoError(t, r.Revoke(ctx, "jti-1", 1, time.Now().Add(time.Hour)))
		require.NoError(t, r.Revoke(ctx, "jti-1", 1, time.Now().Add(time.Hour)))

		revoked, err := r.IsRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, revoked)

		revoked, err = r.IsRevoked(ctx, "jti-2")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("Success - prune drops expired entries", func(t *testing.T) {
		require.NoError(t, r.Revoke(ctx, "old", 1, time.Now().Add(-time.Minute)))

		removed, err := r.Prune(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)

		revoked, _ := r.IsRevoked(ctx, "jti-1")
		assert.True(t, revoked)
	})
}

func TestRedisRevoker(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	r := revocation.NewRedisRevoker(client, "formbuilder:")

	t.Run("Success - key lives as long as the token", func(t *testing.T) {
		require.NoError(t, r.Revoke(ctx, "jti-1", 7, time.Now().Add(time.Hour)))

		revoked, err := r.IsRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, revoked)
		stored, err := mr.Get("formbuilder:revoked:jti-1")
		require.NoError(t, err)
		assert.Equal(t, "7", stored)

		mr.FastForward(2 * time.Hour)
		revoked, err = r.IsRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("Success - already expired tokens are not stored", func(t *testing.T) {
		require.NoError(t, r.Revoke(ctx, "jti-2", 7, time.Now().Add(-time.Second)))
		assert.False(t, mr.Exists("formbuilder:revoked:jti-2"))
	})
}
