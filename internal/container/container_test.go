package container

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zamstay-be/internal/config"
	"zamstay-be/internal/domain"
	"zamstay-be/pkg/database"
	"zamstay-be/pkg/logger"
	"zamstay-be/pkg/redis"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Bangkok")
	require.NoError(t, err)
	return &config.Config{
		Environment:      "test",
		JWTSecret:        "container-secret",
		StatsTimezone:    loc,
		StatsAdminTTL:    2 * time.Minute,
		StatsBusinessTTL: 30 * time.Second,
	}
}

func buildTestContainer(t *testing.T, cfg *config.Config) (*Container, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redis.NewClient("redis://"+mr.Addr(), cfg.Environment, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC))
	return Build(cfg, logger.NewNop(), &database.PostgresDB{}, client, clock), mr
}

func TestBuild(t *testing.T) {
	cfg := newTestConfig(t)
	c, _ := buildTestContainer(t, cfg)

	assert.Equal(t, cfg, c.GetConfig())
	assert.NotNil(t, c.GetLogger())
	assert.NotNil(t, c.GetRedisClient())

	require.NotNil(t, c.Repositories)
	assert.NotNil(t, c.Repositories.Stats)
	assert.NotNil(t, c.Repositories.Promotion)
	assert.NotNil(t, c.Repositories.Engagement)
	assert.NotNil(t, c.Repositories.Analytics)

	require.NotNil(t, c.Services)
	assert.NotNil(t, c.Services.Dashboard)
	assert.NotNil(t, c.Services.Promotion)
	assert.NotNil(t, c.Services.Engagement)
	assert.NotNil(t, c.Services.Requests)
	assert.Same(t, c.Stats, c.Services.Dashboard)

	assert.Equal(t, "Asia/Bangkok", c.Stats.Location().String())
}

func TestBuild_RequestCounterUsesStatsTimezone(t *testing.T) {
	c, mr := buildTestContainer(t, newTestConfig(t))

	require.NoError(t, c.Services.Requests.Increment(context.Background()))

	// 20:00 UTC is already the next day in Bangkok
	assert.True(t, mr.Exists("staging:requests:daily:2024-03-16"))
}

func TestBuild_AuthUsesConfiguredSecret(t *testing.T) {
	c, _ := buildTestContainer(t, newTestConfig(t))

	token, err := c.Auth.IssueToken(domain.AuthClaims{UserID: 10, Role: domain.RoleOwner})
	require.NoError(t, err)

	claims, err := c.Auth.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, int64(10), claims.UserID)
}

func TestBuild_InvalidateScopeReachesRedis(t *testing.T) {
	c, mr := buildTestContainer(t, newTestConfig(t))
	require.NoError(t, mr.Set("staging:stats:dashboard:owner:10:2024-03-16", "{}"))
	require.NoError(t, mr.Set("staging:stats:dashboard:owner:11:2024-03-16", "{}"))

	require.NoError(t, c.Services.Dashboard.InvalidateScope(context.Background(), domain.BusinessScope(10)))

	assert.False(t, mr.Exists("staging:stats:dashboard:owner:10:2024-03-16"))
	assert.True(t, mr.Exists("staging:stats:dashboard:owner:11:2024-03-16"))
}

func TestNew_InvalidDatabaseURL(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.DatabaseURL = "postgres://%zz"

	c, err := New(context.Background(), cfg, logger.NewNop())
	assert.Error(t, err)
	assert.Nil(t, c)
}
