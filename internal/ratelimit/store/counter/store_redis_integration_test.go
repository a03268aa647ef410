//go:build integration

package counter_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"aidgate/internal/ratelimit/store/counter"
	"aidgate/pkg/requestcontext"
	"aidgate/pkg/testutil/containers"
)

type RedisCounterSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *counter.RedisCounterStore
}

func TestRedisCounterSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCounterSuite))
}

func (s *RedisCounterSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = counter.NewRedisCounterStore(s.redis.Client)
}

func (s *RedisCounterSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisCounterSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), time.Now().UTC())
}

func (s *RedisCounterSuite) TestAdmitUpToLimit() {
	ctx := s.ctx()

	for i := 1; i <= 10; i++ {
		state, admitted, err := s.store.Admit(ctx, "203.0.113.7", 10, 50)
		s.Require().NoError(err)
		s.Require().True(admitted)
		s.Equal(i, state.CountHourly)
		s.Equal(i, state.CountDaily)
	}

	state, admitted, err := s.store.Admit(ctx, "203.0.113.7", 10, 50)
	s.Require().NoError(err)
	s.False(admitted)
	s.Equal(10, state.CountHourly, "denied calls must not push counters past the limit")
}

// TestConcurrentAdmits verifies the Lua script is atomic: out of 50
// concurrent calls against a limit of 10, exactly 10 may be admitted.
func (s *RedisCounterSuite) TestConcurrentAdmits() {
	ctx := s.ctx()

	var admittedCount atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, admitted, err := s.store.Admit(ctx, "203.0.113.7", 10, 50)
			s.NoError(err)
			if admitted {
				admittedCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int64(10), admittedCount.Load())
}

func (s *RedisCounterSuite) TestBlockLifecycle() {
	ctx := s.ctx()

	until, err := s.store.BlockedUntil(ctx, "203.0.113.7")
	s.Require().NoError(err)
	s.Nil(until)

	blockUntil := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	s.Require().NoError(s.store.Block(ctx, "203.0.113.7", blockUntil))

	until, err = s.store.BlockedUntil(ctx, "203.0.113.7")
	s.Require().NoError(err)
	s.Require().NotNil(until)
	s.True(until.Equal(blockUntil))

	s.Require().NoError(s.store.Reset(ctx, "203.0.113.7"))

	until, err = s.store.BlockedUntil(ctx, "203.0.113.7")
	s.Require().NoError(err)
	s.Nil(until)
}

func (s *RedisCounterSuite) TestSourcesAreIndependent() {
	ctx := s.ctx()

	for i := 0; i < 10; i++ {
		_, admitted, err := s.store.Admit(ctx, "203.0.113.7", 10, 50)
		s.Require().NoError(err)
		s.Require().True(admitted)
	}

	_, admitted, err := s.store.Admit(ctx, "198.51.100.9", 10, 50)
	s.Require().NoError(err)
	s.True(admitted)
}
