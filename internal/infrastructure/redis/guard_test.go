package redis_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ErlanBelekov/bloodbank/internal/domain"
	"github.com/ErlanBelekov/bloodbank/internal/infrastructure/redis"
	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCounter_FixedWindow(t *testing.T) {
	mr, client := setupTestRedis(t)
	c := redis.NewCounter(client, "rl")
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		ok, err := c.Allow(ctx, "1.2.3.4:/auth/login", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "hit %d should be allowed", i)
	}
	ok, err := c.Allow(ctx, "1.2.3.4:/auth/login", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "fourth hit should be rejected")

	assert.Greater(t, mr.TTL("rl:1.2.3.4:/auth/login"), time.Duration(0))

	mr.FastForward(time.Minute + time.Second)
	ok, err = c.Allow(ctx, "1.2.3.4:/auth/login", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "new window should allow")
}

func TestCounter_LaterHitsKeepWindowStart(t *testing.T) {
	mr, client := setupTestRedis(t)
	c := redis.NewCounter(client, "rl")
	ctx := context.Background()

	_, err := c.Hit(ctx, "k", time.Minute)
	require.NoError(t, err)
	mr.FastForward(40 * time.Second)

	n, err := c.Hit(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	ttl := mr.TTL("rl:k")
	assert.Greater(t, ttl, time.Duration(0), "key must always carry an expiry")
	assert.LessOrEqual(t, ttl, 20*time.Second, "second hit must not extend the window")
}

func TestCounter_KeysAreIndependent(t *testing.T) {
	_, client := setupTestRedis(t)
	c := redis.NewCounter(client, "rl")
	ctx := context.Background()

	n, err := c.Hit(ctx, "a", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = c.Hit(ctx, "b", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestOTPGuard_Cooldown(t *testing.T) {
	mr, client := setupTestRedis(t)
	g := redis.NewOTPGuard(client, redis.OTPGuardConfig{Cooldown: time.Minute}, discardLogger())
	ctx := context.Background()

	require.NoError(t, g.BeforeIssue(ctx, "identity-1", domain.PurposeRegistration))
	assert.ErrorIs(t, g.BeforeIssue(ctx, "identity-1", domain.PurposeRegistration), domain.ErrTooManyRequests)

	// Other purposes and identities have their own cooldown.
	assert.NoError(t, g.BeforeIssue(ctx, "identity-1", domain.PurposePasswordReset))
	assert.NoError(t, g.BeforeIssue(ctx, "identity-2", domain.PurposeRegistration))

	mr.FastForward(time.Minute)
	assert.NoError(t, g.BeforeIssue(ctx, "identity-1", domain.PurposeRegistration))
}

func TestOTPGuard_MaxAttempts(t *testing.T) {
	_, client := setupTestRedis(t)
	g := redis.NewOTPGuard(client, redis.OTPGuardConfig{MaxAttempts: 2, AttemptWindow: 10 * time.Minute}, discardLogger())
	ctx := context.Background()

	require.NoError(t, g.BeforeAttempt(ctx, "identity-1", domain.PurposeRegistration))
	require.NoError(t, g.BeforeAttempt(ctx, "identity-1", domain.PurposeRegistration))
	assert.ErrorIs(t, g.BeforeAttempt(ctx, "identity-1", domain.PurposeRegistration), domain.ErrTooManyRequests)

	g.Reset(ctx, "identity-1", domain.PurposeRegistration)
	assert.NoError(t, g.BeforeAttempt(ctx, "identity-1", domain.PurposeRegistration))
}

func TestOTPGuard_FailsOpen(t *testing.T) {
	mr, client := setupTestRedis(t)
	g := redis.NewOTPGuard(client, redis.OTPGuardConfig{
		Cooldown:      time.Minute,
		MaxAttempts:   1,
		AttemptWindow: time.Minute,
	}, discardLogger())
	ctx := context.Background()

	mr.Close()

	assert.NoError(t, g.BeforeIssue(ctx, "identity-1", domain.PurposeRegistration))
	assert.NoError(t, g.BeforeAttempt(ctx, "identity-1", domain.PurposeRegistration))
	assert.NoError(t, g.BeforeAttempt(ctx, "identity-1", domain.PurposeRegistration))
	g.Reset(ctx, "identity-1", domain.PurposeRegistration)
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := redis.NewClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer client.Close()
	assert.NoError(t, client.Ping(context.Background()).Err())

	_, err = redis.NewClient(context.Background(), "not a url")
	assert.Error(t, err)
}
