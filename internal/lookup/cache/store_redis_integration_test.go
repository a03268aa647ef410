//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"aidgate/internal/lookup/cache"
	"aidgate/internal/lookup/models"
	"aidgate/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *cache.RedisCache
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.cache = cache.NewRedisCache(s.redis.Client, 5*time.Minute)
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func cachedResult(nationalID string) *models.MinimalResult {
	return &models.MinimalResult{
		BeneficiaryID: "ben-1",
		Name:          "Amal Haddad",
		NationalID:    nationalID,
		Status:        "active",
		HasPin:        true,
		InDelivery: &models.PackageSummary{
			Name:   "Food parcel March",
			Status: "in_delivery",
		},
	}
}

func (s *RedisCacheSuite) TestRoundTrip() {
	ctx := context.Background()
	key := cache.Key("123456789", 1, 20)

	_, ok, err := s.cache.Get(ctx, key)
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.cache.Set(ctx, key, cachedResult("123456789")))

	got, ok, err := s.cache.Get(ctx, key)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal("ben-1", got.BeneficiaryID)
	s.Require().NotNil(got.InDelivery)
	s.Equal("Food parcel March", got.InDelivery.Name)
	s.True(got.HasPin)
}

func (s *RedisCacheSuite) TestExpiry() {
	shortLived := cache.NewRedisCache(s.redis.Client, time.Second)
	ctx := context.Background()
	key := cache.Key("123456789", 1, 20)

	s.Require().NoError(shortLived.Set(ctx, key, cachedResult("123456789")))

	s.Require().Eventually(func() bool {
		_, ok, err := shortLived.Get(ctx, key)
		s.Require().NoError(err)
		return !ok
	}, 3*time.Second, 100*time.Millisecond)
}

func (s *RedisCacheSuite) TestInvalidatePurgesAllPages() {
	ctx := context.Background()

	s.Require().NoError(s.cache.Set(ctx, cache.Key("123456789", 1, 20), cachedResult("123456789")))
	s.Require().NoError(s.cache.Set(ctx, cache.Key("123456789", 2, 20), cachedResult("123456789")))
	s.Require().NoError(s.cache.Set(ctx, cache.Key("987654321", 1, 20), cachedResult("987654321")))

	s.Require().NoError(s.cache.Invalidate(ctx, "123456789"))

	_, ok, err := s.cache.Get(ctx, cache.Key("123456789", 1, 20))
	s.Require().NoError(err)
	s.False(ok)

	_, ok, err = s.cache.Get(ctx, cache.Key("123456789", 2, 20))
	s.Require().NoError(err)
	s.False(ok)

	_, ok, err = s.cache.Get(ctx, cache.Key("987654321", 1, 20))
	s.Require().NoError(err)
	s.True(ok, "other identifiers must survive invalidation")
}
