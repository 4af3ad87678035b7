package database

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aigenthix/cms-backend/errs"
)

func TestPoolGetAndHealthCheck(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()

	db, err := pool.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, db)

	assert.True(t, pool.HealthCheck(ctx))
}

func TestPoolUnreachableStoreIsNonFatal(t *testing.T) {
	// A refused connection must not prevent construction; acquisition reports
	// the unavailability instead.
	pool := NewPool(PoolConfig{
		DSN: "host=127.0.0.1 port=1 user=cms dbname=cms sslmode=disable connect_timeout=1",
	}, zerolog.Nop())
	require.NotNil(t, pool)
	defer pool.Close()

	_, err := pool.Get(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsPoolUnavailable(err))

	assert.False(t, pool.HealthCheck(context.Background()))
}

func TestPoolCloseIsIdempotent(t *testing.T) {
	pool := newTestPool(t)

	pool.Close()
	pool.Close()

	// A closed pool with no DSN cannot re-open.
	_, err := pool.Get(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsPoolUnavailable(err))
}
