package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"aidgate/internal/lookup/models"
	"aidgate/pkg/requestcontext"
)

type InMemoryCacheSuite struct {
	suite.Suite
	cache *InMemoryCache
	now   time.Time
}

func TestInMemoryCacheSuite(t *testing.T) {
	suite.Run(t, new(InMemoryCacheSuite))
}

func (s *InMemoryCacheSuite) SetupTest() {
	s.cache = NewInMemoryCache(5 * time.Minute)
	s.now = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
}

func (s *InMemoryCacheSuite) at(offset time.Duration) context.Context {
	return requestcontext.WithTime(context.Background(), s.now.Add(offset))
}

func (s *InMemoryCacheSuite) result(id string) *models.MinimalResult {
	return &models.MinimalResult{BeneficiaryID: id, Name: "Amal Haddad", NationalID: "123456789"}
}

func (s *InMemoryCacheSuite) TestGetSet() {
	key := Key("123456789", 1, 20)
	s.Require().NoError(s.cache.Set(s.at(0), key, s.result("ben-1")))

	s.Run("hit just inside the TTL", func() {
		got, ok, err := s.cache.Get(s.at(4*time.Minute+59*time.Second), key)
		s.NoError(err)
		s.True(ok)
		s.Equal("ben-1", got.BeneficiaryID)
	})

	s.Run("miss at exactly the TTL", func() {
		_, ok, err := s.cache.Get(s.at(5*time.Minute), key)
		s.NoError(err)
		s.False(ok)
	})

	s.Run("expired entry is evicted on read", func() {
		s.Require().NoError(s.cache.Set(s.at(0), key, s.result("ben-1")))
		_, ok, _ := s.cache.Get(s.at(6*time.Minute), key)
		s.False(ok)

		// A later read inside a hypothetical window still misses: the
		// entry is gone, not merely hidden.
		_, ok, _ = s.cache.Get(s.at(0), key)
		s.False(ok)
	})

	s.Run("returned value is a copy", func() {
		s.Require().NoError(s.cache.Set(s.at(0), key, s.result("ben-1")))
		got, ok, _ := s.cache.Get(s.at(time.Minute), key)
		s.Require().True(ok)
		got.Name = "mutated"

		again, ok, _ := s.cache.Get(s.at(time.Minute), key)
		s.Require().True(ok)
		s.Equal("Amal Haddad", again.Name)
	})
}

func (s *InMemoryCacheSuite) TestInvalidate() {
	ctx := s.at(0)
	s.Require().NoError(s.cache.Set(ctx, Key("123456789", 1, 20), s.result("ben-1")))
	s.Require().NoError(s.cache.Set(ctx, Key("123456789", 2, 20), s.result("ben-1")))
	s.Require().NoError(s.cache.Set(ctx, Key("987654321", 1, 20), s.result("ben-2")))

	s.Require().NoError(s.cache.Invalidate(ctx, "123456789"))

	_, ok, _ := s.cache.Get(ctx, Key("123456789", 1, 20))
	s.False(ok, "page 1 should be invalidated")
	_, ok, _ = s.cache.Get(ctx, Key("123456789", 2, 20))
	s.False(ok, "page 2 should be invalidated")
	_, ok, _ = s.cache.Get(ctx, Key("987654321", 1, 20))
	s.True(ok, "other identifiers stay cached")
}

func TestKey(t *testing.T) {
	if got := Key("123456789", 2, 20); got != "search:123456789:2:20" {
		t.Fatalf("unexpected key: %s", got)
	}
}
