package browser

import (
	"context"
	stderrors "errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kigaroo/pkg/config"
	"kigaroo/pkg/errors"
	"kigaroo/pkg/logger"
)

func TestCorrelatorResolvesOnlyMatchingURL(t *testing.T) {
	c := NewCorrelator()
	exp, err := c.Expect("https://kita.example.com/media/1")
	require.NoError(t, err)

	assert.False(t, c.Resolve("https://kita.example.com/favicon.ico", Result{Response: &Response{Status: 200}}))
	assert.True(t, c.Match("https://kita.example.com/media/1"))

	assert.True(t, c.Resolve("https://kita.example.com/media/1", Result{Response: &Response{Status: 200, Body: []byte("jpeg")}}))
	assert.False(t, c.Match("https://kita.example.com/media/1"), "resolved expectation no longer matches")
	assert.False(t, c.Resolve("https://kita.example.com/media/1", Result{}), "resolves once")

	resp, err := exp.Wait(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), resp.Body)
}

func TestCorrelatorSingleSlot(t *testing.T) {
	c := NewCorrelator()
	first, err := c.Expect("a")
	require.NoError(t, err)

	_, err = c.Expect("b")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ErrExpectationPending))

	c.Resolve("a", Result{})
	_, err = first.Wait(context.Background(), time.Second)
	require.NoError(t, err)
	_, err = c.Expect("b")
	assert.NoError(t, err)
}

func TestExpectationWaitReleasesSlot(t *testing.T) {
	c := NewCorrelator()
	exp, err := c.Expect("a")
	require.NoError(t, err)

	c.Resolve("a", Result{Err: errors.Download("a", 404, nil)})
	_, err = exp.Wait(context.Background(), time.Second)
	assert.True(t, errors.IsKind(err, errors.KindDownload))

	_, err = c.Expect("next")
	assert.NoError(t, err)
}

func TestExpectationTimeout(t *testing.T) {
	c := NewCorrelator()
	exp, err := c.Expect("https://kita.example.com/media/9")
	require.NoError(t, err)

	_, err = exp.Wait(context.Background(), 20*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindDownload))
	assert.Contains(t, err.Error(), "no response observed")

	assert.False(t, c.Match("https://kita.example.com/media/9"))
}

func TestExpectationContextCancel(t *testing.T) {
	c := NewCorrelator()
	exp, err := c.Expect("a")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = exp.Wait(ctx, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveFromAnotherGoroutine(t *testing.T) {
	c := NewCorrelator()
	exp, err := c.Expect("a")
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.Resolve("other", Result{})
		c.Resolve("a", Result{Response: &Response{URL: "a", Status: 200}})
	}()

	resp, err := exp.Wait(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "a", resp.URL)
	wg.Wait()
}

func TestResolveURL(t *testing.T) {
	base, err := url.Parse("https://kita.example.com/backend/gallery/")
	require.NoError(t, err)

	tests := []struct {
		href string
		want string
	}{
		{"/backend/gallery/42", "https://kita.example.com/backend/gallery/42"},
		{"42", "https://kita.example.com/backend/gallery/42"},
		{"https://cdn.example.com/img/1.jpg", "https://cdn.example.com/img/1.jpg"},
	}
	for _, tt := range tests {
		got, err := ResolveURL(base, tt.href)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err = ResolveURL(base, "http://[::1")
	assert.Error(t, err)
}

// newObserver builds a Chrome without launching a browser so the event
// handling can be driven directly
func newObserver(t *testing.T) *Chrome {
	t.Helper()
	base, _ := url.Parse("https://kita.example.com")
	return &Chrome{
		base:         base,
		cfg:          config.DefaultConfig().Browser,
		logger:       logger.NewNopLogger(),
		correlator:   NewCorrelator(),
		requests:     make(map[network.RequestID]string),
		awaitingBody: make(map[network.RequestID]int),
	}
}

func sendRequest(c *Chrome, id, u string) {
	c.onEvent(&network.EventRequestWillBeSent{RequestID: network.RequestID(id), Request: &network.Request{URL: u}})
}

func sendResponse(c *Chrome, id, u string, status int64) {
	c.onEvent(&network.EventResponseReceived{RequestID: network.RequestID(id), Response: &network.Response{URL: u, Status: status}})
}

func TestObserverNonSuccessResolvesWithDownloadError(t *testing.T) {
	c := newObserver(t)
	exp, err := c.Expect("/media/1")
	require.NoError(t, err)
	assert.Equal(t, "https://kita.example.com/media/1", exp.URL)

	sendRequest(c, "1", "https://kita.example.com/media/1")
	sendResponse(c, "1", "https://kita.example.com/media/1", 404)

	resp, err := exp.Wait(context.Background(), time.Second)
	require.Error(t, err)
	assert.Equal(t, 404, resp.Status)

	var e *errors.Error
	require.True(t, stderrors.As(err, &e))
	assert.Equal(t, errors.KindDownload, e.Kind)
	assert.Equal(t, 404, e.Code)
}

func TestObserverIgnoresUnrelatedResponses(t *testing.T) {
	c := newObserver(t)
	exp, err := c.Expect("/media/1")
	require.NoError(t, err)

	sendRequest(c, "2", "https://kita.example.com/app.js")
	sendResponse(c, "2", "https://kita.example.com/app.js", 500)
	c.onEvent(&network.EventLoadingFinished{RequestID: "2"})

	_, err = exp.Wait(context.Background(), 20*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no response observed")
}

func TestObserverTracksMatchedSuccess(t *testing.T) {
	c := newObserver(t)
	_, err := c.Expect("/media/1")
	require.NoError(t, err)

	sendRequest(c, "3", "https://kita.example.com/media/1")
	sendResponse(c, "3", "https://kita.example.com/media/1", 200)

	c.mu.Lock()
	status, ok := c.awaitingBody["3"]
	c.mu.Unlock()
	assert.True(t, ok)
	assert.Equal(t, 200, status)
}

func TestObserverLoadingFailed(t *testing.T) {
	c := newObserver(t)
	exp, err := c.Expect("/media/1")
	require.NoError(t, err)

	sendRequest(c, "4", "https://kita.example.com/media/1")
	c.onEvent(&network.EventLoadingFailed{RequestID: "4", ErrorText: "net::ERR_CONNECTION_RESET"})

	_, err = exp.Wait(context.Background(), time.Second)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindDownload))
	assert.Contains(t, err.Error(), "ERR_CONNECTION_RESET")

	c.mu.Lock()
	assert.Empty(t, c.requests)
	c.mu.Unlock()
}

func TestObserverKeepsOriginalURLAcrossRedirect(t *testing.T) {
	c := newObserver(t)
	sendRequest(c, "5", "https://kita.example.com/media/1")
	c.onEvent(&network.EventRequestWillBeSent{
		RequestID:        "5",
		Request:          &network.Request{URL: "https://cdn.example.com/1.jpg"},
		RedirectResponse: &network.Response{Status: 302},
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Equal(t, "https://kita.example.com/media/1", c.requests["5"])
	assert.Len(t, c.requests, 1)
}
