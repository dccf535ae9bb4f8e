/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package throttle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/acronis/go-throttlekit/log"
	"github.com/acronis/go-throttlekit/log/logtest"
	"github.com/acronis/go-throttlekit/testutil"
)

type storedHistory struct {
	h     History
	ttl   time.Duration
	setAt int // sequence number of the Set call that wrote it
}

// mapStore is a plain WindowStore without expiration that counts its calls.
type mapStore struct {
	mu      sync.Mutex
	entries map[string]storedHistory
	gets    int
	sets    int
	err     error
}

func newMapStore() *mapStore {
	return &mapStore{entries: make(map[string]storedHistory)}
}

func (s *mapStore) Get(_ context.Context, key string) (History, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.err != nil {
		return nil, false, s.err
	}
	e, ok := s.entries[key]
	return e.h.Clone(), ok, nil
}

func (s *mapStore) Set(_ context.Context, key string, h History, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	if s.err != nil {
		return s.err
	}
	s.entries[key] = storedHistory{h: h.Clone(), ttl: ttl, setAt: s.sets}
	return nil
}

func (s *mapStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets + s.sets
}

func (s *mapStore) entry(key string) (storedHistory, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return e, ok
}

// atomicMapStore adds a serialized Update to mapStore.
type atomicMapStore struct {
	*mapStore
	updateMu sync.Mutex
	updates  int
}

func (s *atomicMapStore) Update(ctx context.Context, key string, ttl time.Duration, fn UpdateFunc) error {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()
	s.updates++
	h, _, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	next, write := fn(h)
	if !write {
		return nil
	}
	return s.Set(ctx, key, next, ttl)
}

type EngineTestSuite struct {
	suite.Suite
	atomic bool

	store   *mapStore
	engine  *Engine
	logger  *logtest.Recorder
	metrics *PrometheusMetrics
	base    time.Time
}

func TestEngine(t *testing.T) {
	suite.Run(t, &EngineTestSuite{atomic: false})
}

func TestEngineWithAtomicStore(t *testing.T) {
	suite.Run(t, &EngineTestSuite{atomic: true})
}

func (s *EngineTestSuite) SetupTest() {
	s.store = newMapStore()
	var ws WindowStore = s.store
	if s.atomic {
		ws = &atomicMapStore{mapStore: s.store}
	}
	s.logger = logtest.NewRecorder()
	s.metrics = NewPrometheusMetrics()
	s.base = time.Unix(1_700_000_000, 0)
	var err error
	s.engine, err = NewEngine(ws, WithLogger(s.logger), WithMetrics(s.metrics), WithClock(func() time.Time { return s.base }))
	s.Require().NoError(err)
}

func (s *EngineTestSuite) at(offset time.Duration) time.Time {
	return s.base.Add(offset)
}

func (s *EngineTestSuite) admit(cfg *Config, identity string, offset time.Duration) AdmitResult {
	res, err := s.engine.Admit(context.Background(), cfg, identity, s.at(offset))
	s.Require().NoError(err)
	return res
}

func (s *EngineTestSuite) TestNoConfigAdmitsWithoutStoreCalls() {
	for i := 0; i < 100; i++ {
		res := s.admit(nil, "42", 0)
		s.Require().True(res.Allowed)
		s.Require().NoError(s.engine.Check(context.Background(), nil, "42"))
	}
	s.Require().Zero(s.store.calls())
}

func (s *EngineTestSuite) TestSlidingWindowScenario() {
	cfg := &Config{Rate: MustParseRate("5/s"), Scope: "orders.List"}

	for i := 0; i < 5; i++ {
		res := s.admit(cfg, "42", time.Duration(i)*10*time.Millisecond)
		s.Require().True(res.Allowed, "request %d", i)
		s.Require().Equal(4-i, res.Remaining)
		s.Require().Equal("throttle:orders.List:42", res.Key)
	}

	res := s.admit(cfg, "42", 50*time.Millisecond)
	s.Require().False(res.Allowed)
	s.Require().Equal(5, res.Limit)
	s.Require().Zero(res.Remaining)
	s.Require().InDelta(float64(950*time.Millisecond), float64(res.RetryAfter), float64(time.Millisecond))

	res = s.admit(cfg, "42", 1010*time.Millisecond)
	s.Require().True(res.Allowed)

	testutil.RequireLabeledCounterValue(s.T(), s.metrics.Admitted, 6, "orders.List")
	testutil.RequireLabeledCounterValue(s.T(), s.metrics.Rejected, 1, "orders.List")

	entry, found := s.logger.FindEntry("request throttled")
	s.Require().True(found)
	s.Require().Equal(log.LevelDebug, entry.Level)
}

func (s *EngineTestSuite) TestTimestampExactlyWindowAgoIsExpired() {
	cfg := &Config{Rate: MustParseRate("1/s"), Scope: "scope"}
	s.Require().True(s.admit(cfg, "42", 0).Allowed)
	s.Require().False(s.admit(cfg, "42", 999*time.Millisecond).Allowed)
	s.Require().True(s.admit(cfg, "42", time.Second).Allowed)
}

func (s *EngineTestSuite) TestRejectionDoesNotWrite() {
	cfg := &Config{Rate: MustParseRate("1/m"), Scope: "scope"}
	s.Require().True(s.admit(cfg, "42", 0).Allowed)
	before, found := s.store.entry("throttle:scope:42")
	s.Require().True(found)
	s.Require().Equal(time.Minute, before.ttl)

	for i := 1; i <= 10; i++ {
		s.Require().False(s.admit(cfg, "42", time.Duration(i)*time.Second).Allowed)
	}
	after, _ := s.store.entry("throttle:scope:42")
	s.Require().Equal(before, after)
}

func (s *EngineTestSuite) TestAdmitRefreshesTTL() {
	cfg := &Config{Rate: MustParseRate("3/h"), Scope: "scope"}
	s.Require().True(s.admit(cfg, "42", 0).Allowed)
	s.Require().True(s.admit(cfg, "42", time.Minute).Allowed)
	entry, _ := s.store.entry("throttle:scope:42")
	s.Require().Equal(time.Hour, entry.ttl)
	s.Require().Equal(2, entry.setAt)
	s.Require().Len(entry.h, 2)
	s.Require().Greater(entry.h[0], entry.h[1])
}

func (s *EngineTestSuite) TestBudgetsAreIndependent() {
	cfgA := &Config{Rate: MustParseRate("1/s"), Scope: "a"}
	cfgB := &Config{Rate: MustParseRate("1/s"), Scope: "b"}
	s.Require().True(s.admit(cfgA, "42", 0).Allowed)
	s.Require().True(s.admit(cfgB, "42", 0).Allowed)
	s.Require().True(s.admit(cfgA, "43", 0).Allowed)
	s.Require().False(s.admit(cfgA, "42", 0).Allowed)
}

func (s *EngineTestSuite) TestSharedScopeSharesBudget() {
	first := MustBind(Declaration{Rate: MustParseRate("2/s"), Scope: "shared"}, "h1")
	second := MustBind(Declaration{Rate: MustParseRate("2/s"), Scope: "shared"}, "h2")
	s.Require().True(s.admit(first, "42", 0).Allowed)
	s.Require().True(s.admit(second, "42", 0).Allowed)
	s.Require().False(s.admit(first, "42", 0).Allowed)
}

func (s *EngineTestSuite) TestZeroLimitAlwaysRejects() {
	cfg := &Config{Rate: MustParseRate("0/m"), Scope: "closed"}
	for i := 0; i < 3; i++ {
		res := s.admit(cfg, "42", time.Duration(i)*time.Hour)
		s.Require().False(res.Allowed)
		s.Require().Equal(time.Minute, res.RetryAfter)
	}
	_, found := s.store.entry("throttle:closed:42")
	s.Require().False(found)
}

func (s *EngineTestSuite) TestInvalidRateIsNotStoreFailure() {
	for _, rate := range []RateSpec{{Limit: -1, Window: time.Second}, {Limit: 5}, {Limit: 5, Window: -time.Second}} {
		cfg := &Config{Rate: rate, Scope: "broken"}
		s.Require().NotPanics(func() {
			err := s.engine.Check(context.Background(), cfg, "42")
			s.Require().ErrorIs(err, ErrInvalidRateFormat)
			s.Require().NotErrorIs(err, ErrStoreUnavailable)
			_, throttled := IsThrottled(err)
			s.Require().False(throttled)
		})
	}
	_, found := s.store.entry("throttle:broken:42")
	s.Require().False(found)
}

func (s *EngineTestSuite) TestCheck() {
	cfg := &Config{Rate: MustParseRate("1/s"), Scope: "scope"}
	s.Require().NoError(s.engine.Check(context.Background(), cfg, "42"))

	err := s.engine.Check(context.Background(), cfg, "42")
	throttledErr, ok := IsThrottled(err)
	s.Require().True(ok)
	s.Require().Equal("scope", throttledErr.Scope)
	s.Require().Equal(time.Second, throttledErr.RetryAfter)
}

func (s *EngineTestSuite) TestStoreFailure() {
	storeErr := errors.New("connection refused")
	s.store.err = storeErr
	cfg := &Config{Rate: MustParseRate("5/s"), Scope: "scope"}

	err := s.engine.Check(context.Background(), cfg, "42")
	s.Require().ErrorIs(err, ErrStoreUnavailable)
	s.Require().ErrorIs(err, storeErr)
	_, throttled := IsThrottled(err)
	s.Require().False(throttled)

	var unavailableErr *StoreUnavailableError
	s.Require().ErrorAs(err, &unavailableErr)
	s.Require().Equal("throttle:scope:42", unavailableErr.Key)
	wantOp := StoreOpGet
	if s.atomic {
		wantOp = StoreOpUpdate
	}
	s.Require().Equal(wantOp, unavailableErr.Op)
	testutil.RequireLabeledCounterValue(s.T(), s.metrics.StoreErrors, 1, wantOp)

	entry, found := s.logger.FindEntry("throttling window store operation failed")
	s.Require().True(found)
	s.Require().Equal(log.LevelError, entry.Level)
}

func TestNewEngine_RequiresStore(t *testing.T) {
	_, err := NewEngine(nil)
	require.Error(t, err)
}

func TestEngine_UsesAtomicUpdate(t *testing.T) {
	store := &atomicMapStore{mapStore: newMapStore()}
	engine, err := NewEngine(store)
	require.NoError(t, err)
	cfg := &Config{Rate: MustParseRate("1/s"), Scope: "scope"}
	require.NoError(t, engine.Check(context.Background(), cfg, "42"))
	require.Error(t, engine.Check(context.Background(), cfg, "42"))
	require.Equal(t, 2, store.updates)
}
