package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
	"github.com/undesputed/senior-care-central-sub001/internal/store"
)

func publishedFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.SetServiceAreas(ctx, f.agency.AgencyID, []string{"Austin", "Round Rock"}))
	require.NoError(t, f.store.ReplaceServices(ctx, f.agency.AgencyID, []domain.AgencyService{
		{ServiceID: "a", ServiceName: "Nursing"},
		{ServiceID: "b", ServiceName: "Companionship"},
		{ServiceID: "c", ServiceName: "Meals"},
		{ServiceID: "d", ServiceName: "Transport"},
	}))
	require.NoError(t, f.store.SetStatus(ctx, f.agency.AgencyID, domain.AgencyStatusPublished))
	return f
}

func TestAgencyDirectory_ListsPublishedWithPriceRange(t *testing.T) {
	f := publishedFixture(t)
	svc := NewAgencyDirectoryService(f.store, nil, time.Minute, f.logger).
		WithRand(func(n int) int { return n - 1 })

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	got := list[0]
	assert.Equal(t, "Sunrise Care", got.BusinessName)
	assert.Len(t, got.Specialties, 3)
	assert.Equal(t, []string{"Austin", "Round Rock"}, got.ServiceAreas)
	// low = 20+14, high = low+5+19
	assert.Equal(t, "$34-$58/hr", got.PriceRange)
}

func TestAgencyDirectory_PriceRangeBounds(t *testing.T) {
	f := publishedFixture(t)
	svc := NewAgencyDirectoryService(f.store, nil, time.Minute, f.logger).
		WithRand(func(int) int { return 0 })

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "$20-$25/hr", list[0].PriceRange)
}

func TestAgencyDirectory_CachesInRedisUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	kv := store.NewRedisKV(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	f := publishedFixture(t)
	svc := NewAgencyDirectoryService(f.store, kv, time.Minute, f.logger)

	first, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, mr.Exists(directoryCacheKey))

	// served from cache while the row is unpublished underneath
	require.NoError(t, f.store.SetStatus(ctx, f.agency.AgencyID, domain.AgencyStatusDraft))
	cached, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	svc.Invalidate(ctx)
	assert.False(t, mr.Exists(directoryCacheKey))
	fresh, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, fresh)
}

func TestAgencyDirectory_CacheExpires(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	kv := store.NewRedisKV(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	f := publishedFixture(t)
	svc := NewAgencyDirectoryService(f.store, kv, 30*time.Second, f.logger)

	_, err := svc.List(ctx)
	require.NoError(t, err)
	mr.FastForward(31 * time.Second)
	assert.False(t, mr.Exists(directoryCacheKey))
}

func TestAgencyDirectory_RedisDownFallsBackToDB(t *testing.T) {
	mr := miniredis.RunT(t)
	kv := store.NewRedisKV(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	mr.Close()

	f := publishedFixture(t)
	svc := NewAgencyDirectoryService(f.store, kv, time.Minute, f.logger)
	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
