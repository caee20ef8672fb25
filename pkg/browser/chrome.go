package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"kigaroo/pkg/config"
	"kigaroo/pkg/errors"
	"kigaroo/pkg/logger"
)

const idlePollInterval = 50 * time.Millisecond

var keyNames = map[string]string{
	"Enter":     kb.Enter,
	"Tab":       kb.Tab,
	"Escape":    kb.Escape,
	"Backspace": kb.Backspace,
}

// Chrome is a Page backed by a headless Chrome tab
type Chrome struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc

	base       *url.URL
	cfg        config.BrowserConfig
	logger     logger.Logger
	correlator *Correlator

	mu sync.Mutex
	// requests maps live request ids to the URL they were first sent to
	requests map[network.RequestID]string
	// awaitingBody holds matched 2xx responses until their body is complete
	awaitingBody map[network.RequestID]int
	lastActivity time.Time
}

// NewChrome launches Chrome and enables network observation
func NewChrome(ctx context.Context, baseURL string, cfg config.BrowserConfig, log logger.Logger) (*Chrome, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Config("parse base URL", err)
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.DisableGPU,
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			log.Debug("chromedp: " + fmt.Sprintf(format, args...))
		}),
	)

	c := &Chrome{
		ctx:          tabCtx,
		cancel:       cancel,
		allocCancel:  allocCancel,
		base:         base,
		cfg:          cfg,
		logger:       log.WithField("component", "browser"),
		correlator:   NewCorrelator(),
		requests:     make(map[network.RequestID]string),
		awaitingBody: make(map[network.RequestID]int),
		lastActivity: time.Now(),
	}

	chromedp.ListenTarget(tabCtx, c.onEvent)

	if err := chromedp.Run(tabCtx, network.Enable()); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return c, nil
}

// onEvent runs on chromedp's event goroutine and must not block
func (c *Chrome) onEvent(ev any) {
	switch ev := ev.(type) {
	case *network.EventRequestWillBeSent:
		c.mu.Lock()
		c.lastActivity = time.Now()
		// Redirects reuse the request id; keep the URL the page asked for
		if _, ok := c.requests[ev.RequestID]; !ok {
			c.requests[ev.RequestID] = ev.Request.URL
		}
		c.mu.Unlock()

	case *network.EventResponseReceived:
		c.mu.Lock()
		c.lastActivity = time.Now()
		reqURL, ok := c.requests[ev.RequestID]
		c.mu.Unlock()
		if !ok || !c.correlator.Match(reqURL) {
			return
		}

		status := int(ev.Response.Status)
		if !errors.IsSuccessStatus(status) {
			c.correlator.Resolve(reqURL, Result{
				Response: &Response{URL: reqURL, Status: status},
				Err:      errors.Download(reqURL, status, nil),
			})
			return
		}
		c.mu.Lock()
		c.awaitingBody[ev.RequestID] = status
		c.mu.Unlock()

	case *network.EventLoadingFinished:
		reqURL, status, tracked := c.finish(ev.RequestID)
		if tracked {
			go c.fetchBody(ev.RequestID, reqURL, status)
		}

	case *network.EventLoadingFailed:
		reqURL, _, _ := c.finish(ev.RequestID)
		if reqURL != "" && c.correlator.Match(reqURL) {
			c.correlator.Resolve(reqURL, Result{
				Err: errors.Download(reqURL, 0, fmt.Errorf("loading failed: %s", ev.ErrorText)),
			})
		}
	}
}

// finish retires a request and reports whether its body is awaited
func (c *Chrome) finish(id network.RequestID) (reqURL string, status int, tracked bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastActivity = time.Now()
	reqURL = c.requests[id]
	delete(c.requests, id)
	status, tracked = c.awaitingBody[id]
	delete(c.awaitingBody, id)
	return reqURL, status, tracked
}

func (c *Chrome) fetchBody(id network.RequestID, reqURL string, status int) {
	ctx := cdp.WithExecutor(c.ctx, chromedp.FromContext(c.ctx).Target)
	body, err := network.GetResponseBody(id).Do(ctx)
	if err != nil {
		c.correlator.Resolve(reqURL, Result{Err: errors.Download(reqURL, status, fmt.Errorf("read response body: %w", err))})
		return
	}
	c.correlator.Resolve(reqURL, Result{Response: &Response{URL: reqURL, Status: status, Body: body}})
}

// run executes actions on the tab, bounded by the navigation timeout and
// the caller's context
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(c.ctx, c.cfg.NavigationTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (c *Chrome) resolve(href string) (string, error) {
	return ResolveURL(c.base, href)
}

// Navigate loads href, relative to the base URL
func (c *Chrome) Navigate(ctx context.Context, href string) error {
	full, err := c.resolve(href)
	if err != nil {
		return err
	}
	c.logger.WithField("url", full).Debug("navigating")
	if err := c.run(ctx, chromedp.Navigate(full)); err != nil {
		return fmt.Errorf("navigate to %s: %w", full, err)
	}
	return nil
}

// Fill sets an input's value
func (c *Chrome) Fill(ctx context.Context, selector, value string) error {
	return c.run(ctx,
		chromedp.WaitReady(selector, chromedp.ByQuery),
		chromedp.SetValue(selector, value, chromedp.ByQuery),
	)
}

// Press sends a key to an element
func (c *Chrome) Press(ctx context.Context, selector, key string) error {
	if k, ok := keyNames[key]; ok {
		key = k
	}
	return c.run(ctx, chromedp.SendKeys(selector, key, chromedp.ByQuery))
}

// WaitIdle waits for network quiescence
func (c *Chrome) WaitIdle(ctx context.Context) error {
	deadline := time.Now().Add(c.cfg.NavigationTimeout)
	ticker := time.NewTicker(idlePollInterval)
	defer ticker.Stop()

	for {
		c.mu.Lock()
		idle := len(c.requests) == 0 && time.Since(c.lastActivity) >= c.cfg.IdleWindow
		inflight := len(c.requests)
		c.mu.Unlock()

		if idle {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("page not idle after %s (%d requests in flight)", c.cfg.NavigationTimeout, inflight)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.ctx.Done():
			return c.ctx.Err()
		case <-ticker.C:
		}
	}
}

// Location returns the current URL
func (c *Chrome) Location(ctx context.Context) (string, error) {
	var loc string
	if err := c.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

// Document returns the rendered DOM
func (c *Chrome) Document(ctx context.Context) (*goquery.Document, error) {
	var html string
	if err := c.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("read page HTML: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page HTML: %w", err)
	}
	return doc, nil
}

// Expect registers the pending expectation for href
func (c *Chrome) Expect(href string) (*Expectation, error) {
	full, err := c.resolve(href)
	if err != nil {
		return nil, err
	}
	return c.correlator.Expect(full)
}

// Close shuts down the tab and the browser process
func (c *Chrome) Close() error {
	c.cancel()
	c.allocCancel()
	return nil
}
