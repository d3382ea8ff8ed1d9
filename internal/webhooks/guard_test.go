package webhooks

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeIdempotencyStore struct {
	keys map[string]bool
	err  error
}

func (f *fakeIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	if f.keys[key] {
		return "1", nil
	}
	return "", fmt.Errorf("key not found")
}

func (f *fakeIdempotencyStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.keys == nil {
		f.keys = map[string]bool{}
	}
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "gtc:idempotency:" + scope + ":" + id
}

func (f *fakeIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.keys, key)
	}
	return nil
}

func TestIdempotencyGuardMarksFirstDelivery(t *testing.T) {
	store := &fakeIdempotencyStore{}
	guard, err := NewIdempotencyGuard(store, time.Hour, "stripe")
	require.NoError(t, err)
	ctx := context.Background()

	seen, err := guard.CheckAndMark(ctx, "evt_1")
	require.NoError(t, err)
	require.False(t, seen)

	seen, err = guard.CheckAndMark(ctx, "evt_1")
	require.NoError(t, err)
	require.True(t, seen)

	require.NoError(t, guard.Delete(ctx, "evt_1"))
	seen, err = guard.CheckAndMark(ctx, "evt_1")
	require.NoError(t, err)
	require.False(t, seen)
}

func TestIdempotencyGuardScopesKeys(t *testing.T) {
	store := &fakeIdempotencyStore{}
	stripeGuard, err := NewIdempotencyGuard(store, time.Hour, "stripe")
	require.NoError(t, err)
	mpGuard, err := NewIdempotencyGuard(store, time.Hour, "mercadopago")
	require.NoError(t, err)
	ctx := context.Background()

	seen, err := stripeGuard.CheckAndMark(ctx, "123")
	require.NoError(t, err)
	require.False(t, seen)

	seen, err = mpGuard.CheckAndMark(ctx, "123")
	require.NoError(t, err)
	require.False(t, seen)
}

func TestIdempotencyGuardValidation(t *testing.T) {
	_, err := NewIdempotencyGuard(nil, time.Hour, "stripe")
	require.Error(t, err)

	_, err = NewIdempotencyGuard(&fakeIdempotencyStore{}, -time.Second, "stripe")
	require.Error(t, err)

	_, err = NewIdempotencyGuard(&fakeIdempotencyStore{}, time.Hour, "")
	require.Error(t, err)

	guard, err := NewIdempotencyGuard(&fakeIdempotencyStore{}, time.Hour, "stripe")
	require.NoError(t, err)
	_, err = guard.CheckAndMark(context.Background(), "")
	require.Error(t, err)
}
