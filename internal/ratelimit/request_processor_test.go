/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/acronis/go-throttlekit/log/logtest"
	"github.com/acronis/go-throttlekit/throttle"
	"github.com/acronis/go-throttlekit/windowstore/memstore"
)

type checkerFunc func(ctx context.Context, cfg *throttle.Config, identity string) error

func (f checkerFunc) Check(ctx context.Context, cfg *throttle.Config, identity string) error {
	return f(ctx, cfg, identity)
}

type mockRequestHandler struct {
	identity   string
	executed   int
	rejected   []*throttle.ThrottledError
	errs       []error
	executeErr error
}

func (h *mockRequestHandler) GetContext() context.Context { return context.Background() }

func (h *mockRequestHandler) GetIdentity() string { return h.identity }

func (h *mockRequestHandler) Execute() error {
	h.executed++
	return h.executeErr
}

func (h *mockRequestHandler) OnReject(err *throttle.ThrottledError) error {
	h.rejected = append(h.rejected, err)
	return err
}

func (h *mockRequestHandler) OnError(err error) error {
	h.errs = append(h.errs, err)
	return err
}

type RequestProcessorTestSuite struct {
	suite.Suite
	cfg *throttle.Config
}

func TestRequestProcessor(t *testing.T) {
	suite.Run(t, new(RequestProcessorTestSuite))
}

func (s *RequestProcessorTestSuite) SetupTest() {
	s.cfg = throttle.MustBind(throttle.Declaration{Rate: throttle.MustParseRate("2/m")}, "pkg.Handler")
}

func (s *RequestProcessorTestSuite) newEngineProcessor(policy StoreFailurePolicy) *RequestProcessor {
	store, err := memstore.New(memstore.Config{MaxKeys: 100}, nil)
	s.Require().NoError(err)
	engine, err := throttle.NewEngine(store)
	s.Require().NoError(err)
	p, err := NewRequestProcessor(engine, policy, nil)
	s.Require().NoError(err)
	return p
}

func (s *RequestProcessorTestSuite) TestNewRequestProcessor_PolicyRequired() {
	checker := checkerFunc(func(context.Context, *throttle.Config, string) error { return nil })

	_, err := NewRequestProcessor(checker, "", nil)
	s.Require().EqualError(err, `unknown store failure policy "", should be one of [fail_open fail_closed]`)

	_, err = NewRequestProcessor(checker, "fail_sometimes", nil)
	s.Require().Error(err)

	_, err = NewRequestProcessor(nil, StoreFailurePolicyFailOpen, nil)
	s.Require().EqualError(err, "checker is required")
}

func (s *RequestProcessorTestSuite) TestNilConfigSkipsChecker() {
	checker := checkerFunc(func(context.Context, *throttle.Config, string) error {
		s.FailNow("checker must not be called")
		return nil
	})
	p, err := NewRequestProcessor(checker, StoreFailurePolicyFailClosed, nil)
	s.Require().NoError(err)

	rh := &mockRequestHandler{identity: "1.2.3.4"}
	s.Require().NoError(p.ProcessRequest(nil, rh))
	s.Require().Equal(1, rh.executed)
}

func (s *RequestProcessorTestSuite) TestAdmitThenReject() {
	p := s.newEngineProcessor(StoreFailurePolicyFailClosed)
	rh := &mockRequestHandler{identity: "1.2.3.4"}

	s.Require().NoError(p.ProcessRequest(s.cfg, rh))
	s.Require().NoError(p.ProcessRequest(s.cfg, rh))
	err := p.ProcessRequest(s.cfg, rh)

	s.Require().Equal(2, rh.executed)
	s.Require().Len(rh.rejected, 1)
	s.Require().Equal("pkg.Handler", rh.rejected[0].Scope)
	s.Require().Greater(rh.rejected[0].RetryAfter, 59*time.Second)
	throttledErr, ok := throttle.IsThrottled(err)
	s.Require().True(ok)
	s.Require().Same(rh.rejected[0], throttledErr)
	s.Require().Empty(rh.errs)

	other := &mockRequestHandler{identity: "5.6.7.8"}
	s.Require().NoError(p.ProcessRequest(s.cfg, other))
	s.Require().Equal(1, other.executed)
}

func (s *RequestProcessorTestSuite) TestExecuteErrorIsReturned() {
	p := s.newEngineProcessor(StoreFailurePolicyFailClosed)
	execErr := errors.New("handler failed")
	rh := &mockRequestHandler{identity: "1.2.3.4", executeErr: execErr}
	s.Require().ErrorIs(p.ProcessRequest(s.cfg, rh), execErr)
	s.Require().Empty(rh.errs)
}

func (s *RequestProcessorTestSuite) TestStoreUnavailable() {
	storeErr := &throttle.StoreUnavailableError{Op: throttle.StoreOpGet, Key: "k", Err: errors.New("connection refused")}
	failingChecker := checkerFunc(func(context.Context, *throttle.Config, string) error { return storeErr })

	s.Run("fail closed", func() {
		p, err := NewRequestProcessor(failingChecker, StoreFailurePolicyFailClosed, nil)
		s.Require().NoError(err)
		rh := &mockRequestHandler{identity: "1.2.3.4"}
		s.Require().ErrorIs(p.ProcessRequest(s.cfg, rh), throttle.ErrStoreUnavailable)
		s.Require().Zero(rh.executed)
		s.Require().Empty(rh.rejected)
		s.Require().Equal([]error{storeErr}, rh.errs)
	})

	s.Run("fail open", func() {
		logger := logtest.NewRecorder()
		p, err := NewRequestProcessor(failingChecker, StoreFailurePolicyFailOpen, logger)
		s.Require().NoError(err)
		rh := &mockRequestHandler{identity: "1.2.3.4"}
		s.Require().NoError(p.ProcessRequest(s.cfg, rh))
		s.Require().Equal(1, rh.executed)
		s.Require().Empty(rh.errs)

		entry, found := logger.FindEntry("window store is unavailable, request is executed without throttling")
		s.Require().True(found)
		field, found := entry.FindField("scope")
		s.Require().True(found)
		s.Require().Equal("pkg.Handler", string(field.Bytes))
	})

	s.Run("policy in any case", func() {
		for _, policy := range []StoreFailurePolicy{"FAIL_OPEN", "Fail_Open", " fail_open "} {
			p, err := NewRequestProcessor(failingChecker, policy, nil)
			s.Require().NoError(err)
			rh := &mockRequestHandler{identity: "1.2.3.4"}
			s.Require().NoError(p.ProcessRequest(s.cfg, rh), policy)
			s.Require().Equal(1, rh.executed, policy)
			s.Require().Empty(rh.errs, policy)
		}

		p, err := NewRequestProcessor(failingChecker, "FAIL_CLOSED", nil)
		s.Require().NoError(err)
		rh := &mockRequestHandler{identity: "1.2.3.4"}
		s.Require().ErrorIs(p.ProcessRequest(s.cfg, rh), throttle.ErrStoreUnavailable)
		s.Require().Zero(rh.executed)
	})
}

func (s *RequestProcessorTestSuite) TestUnexpectedErrorAlwaysGoesToOnError() {
	unexpected := errors.New("boom")
	checker := checkerFunc(func(context.Context, *throttle.Config, string) error { return unexpected })
	p, err := NewRequestProcessor(checker, StoreFailurePolicyFailOpen, nil)
	s.Require().NoError(err)
	rh := &mockRequestHandler{identity: "1.2.3.4"}
	s.Require().ErrorIs(p.ProcessRequest(s.cfg, rh), unexpected)
	s.Require().Zero(rh.executed)
}

func TestParseStoreFailurePolicy(t *testing.T) {
	p, err := ParseStoreFailurePolicy(" FAIL_OPEN ")
	require.NoError(t, err)
	require.Equal(t, StoreFailurePolicyFailOpen, p)

	p, err = ParseStoreFailurePolicy("fail_closed")
	require.NoError(t, err)
	require.Equal(t, StoreFailurePolicyFailClosed, p)

	_, err = ParseStoreFailurePolicy("open")
	require.Error(t, err)
}
