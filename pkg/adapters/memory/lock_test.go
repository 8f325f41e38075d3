package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/scout/pkg/adapters/memory"
)

func TestLocker(t *testing.T) {
	locker := memory.NewLocker()
	ctx := context.Background()

	// 1. First holder
	unlock, err := locker.Lock(ctx, "acme", time.Minute)
	require.NoError(t, err)

	// 2. Other keys are independent
	other, err := locker.Lock(ctx, "globex", time.Minute)
	require.NoError(t, err)
	require.NoError(t, other(ctx))

	// 3. Same key blocks until the deadline
	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(short, "acme", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// 4. Release is idempotent and frees the key
	require.NoError(t, unlock(ctx))
	require.NoError(t, unlock(ctx))
	again, err := locker.Lock(ctx, "acme", time.Minute)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}
