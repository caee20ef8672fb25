package browser

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"kigaroo/pkg/errors"
)

// ErrExpectationPending is returned when a second expectation is registered
// while one is still outstanding
var ErrExpectationPending = stderrors.New("another response expectation is still pending")

// Result is what an expectation resolves to
type Result struct {
	Response *Response
	Err      error
}

// Correlator owns the single in-flight expectation slot. The network
// observer calls Match and Resolve from its own goroutine; the driving
// goroutine registers and waits.
type Correlator struct {
	mu      sync.Mutex
	current *Expectation
}

// NewCorrelator returns an empty correlator
func NewCorrelator() *Correlator {
	return &Correlator{}
}

// Expectation is a registered interest in one URL's response
type Expectation struct {
	URL string

	c        *Correlator
	ch       chan Result
	resolved bool
}

// Expect registers url as the pending expectation
func (c *Correlator) Expect(url string) (*Expectation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		return nil, fmt.Errorf("%w: %s", ErrExpectationPending, c.current.URL)
	}
	e := &Expectation{URL: url, c: c, ch: make(chan Result, 1)}
	c.current = e
	return e, nil
}

// Match reports whether url is the pending, unresolved expectation
func (c *Correlator) Match(url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil && !c.current.resolved && c.current.URL == url
}

// Resolve delivers res to the expectation for url. Responses for any other
// URL are ignored and false is returned. An expectation resolves once.
func (c *Correlator) Resolve(url string, res Result) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.current
	if e == nil || e.resolved || e.URL != url {
		return false
	}
	e.resolved = true
	e.ch <- res
	return true
}

func (c *Correlator) release(e *Expectation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == e {
		c.current = nil
	}
}

// Wait blocks until the expectation resolves, ctx is done or timeout
// elapses. The slot is released in every case.
func (e *Expectation) Wait(ctx context.Context, timeout time.Duration) (*Response, error) {
	defer e.c.release(e)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-e.ch:
		return res.Response, res.Err
	case <-timer.C:
		return nil, errors.Download(e.URL, 0, fmt.Errorf("no response observed within %s", timeout))
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
