package offline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const defaultBackgroundTimeout = 30 * time.Second

const (
	kindNavigation  = "navigation"
	kindSubresource = "subresource"
)

// IsNavigation reports whether req is a top-level document load.
func IsNavigation(req *http.Request) bool {
	if mode := req.Header.Get("Sec-Fetch-Mode"); mode != "" {
		return strings.EqualFold(mode, "navigate")
	}
	if dest := req.Header.Get("Sec-Fetch-Dest"); dest != "" {
		return strings.EqualFold(dest, "document")
	}
	return strings.Contains(req.Header.Get("Accept"), "text/html")
}

// Interceptor is an http.RoundTripper that serves GET requests from the
// worker's bucket or the network. Navigations are network-first with a
// cached document fallback; subresources are stale-while-revalidate.
// Every other method goes to the next transport untouched.
type Interceptor struct {
	cache             *CacheManager
	next              http.RoundTripper
	classify          func(*http.Request) bool
	logger            *zap.Logger
	metrics           *interceptorMetrics
	meterProvider     metric.MeterProvider
	backgroundTimeout time.Duration
	maxCacheableBytes int64

	pending sync.WaitGroup
}

// InterceptorOption configures an Interceptor
type InterceptorOption func(*Interceptor)

// WithInterceptorLogger sets the logger
func WithInterceptorLogger(logger *zap.Logger) InterceptorOption {
	return func(i *Interceptor) {
		i.logger = logger
	}
}

// WithNavigationClassifier replaces IsNavigation
func WithNavigationClassifier(fn func(*http.Request) bool) InterceptorOption {
	return func(i *Interceptor) {
		i.classify = fn
	}
}

// WithBackgroundTimeout bounds background refreshes and cache writes
func WithBackgroundTimeout(d time.Duration) InterceptorOption {
	return func(i *Interceptor) {
		if d > 0 {
			i.backgroundTimeout = d
		}
	}
}

// WithMaxCacheableBytes sets the largest body that gets stored
func WithMaxCacheableBytes(n int64) InterceptorOption {
	return func(i *Interceptor) {
		if n > 0 {
			i.maxCacheableBytes = n
		}
	}
}

// WithMeterProvider sets the otel meter provider used for counters
func WithMeterProvider(provider metric.MeterProvider) InterceptorOption {
	return func(i *Interceptor) {
		i.meterProvider = provider
	}
}

// NewInterceptor creates an interceptor over cache. A nil next means
// http.DefaultTransport.
func NewInterceptor(cache *CacheManager, next http.RoundTripper, opts ...InterceptorOption) *Interceptor {
	if next == nil {
		next = http.DefaultTransport
	}
	i := &Interceptor{
		cache:             cache,
		next:              next,
		classify:          IsNavigation,
		logger:            zap.NewNop(),
		backgroundTimeout: defaultBackgroundTimeout,
		maxCacheableBytes: defaultMaxCacheableBytes,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.metrics = newInterceptorMetrics(i.meterProvider)
	return i
}

// RoundTrip implements http.RoundTripper.
func (i *Interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return i.next.RoundTrip(req)
	}
	if i.classify(req) {
		return i.navigate(req)
	}
	return i.subresource(req)
}

// Wait blocks until every background refresh and cache write has finished.
func (i *Interceptor) Wait() {
	i.pending.Wait()
}

func (i *Interceptor) navigate(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	resp, err := i.next.RoundTrip(req)
	if err == nil {
		stored, live, readErr := i.snapshot(resp)
		if readErr == nil {
			if stored != nil && stored.OK() {
				i.persist(ctx, offline.KeyForPath(offline.DocumentKey), stored)
			}
			i.metrics.recordServed(ctx, kindNavigation, "network")
			return live, nil
		}
		err = readErr
	}

	if cached, ok := i.cache.GetKey(ctx, offline.KeyForPath(offline.DocumentKey)); ok {
		i.logger.Debug("navigation served from cache",
			zap.String("url", req.URL.String()),
			zap.Error(err))
		i.metrics.recordServed(ctx, kindNavigation, "cache")
		return cached.Response(req), nil
	}

	i.metrics.recordServed(ctx, kindNavigation, "unavailable")
	return nil, fmt.Errorf("%w: %w", offline.ErrNavigationUnavailable, err)
}

func (i *Interceptor) subresource(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	key := offline.KeyFor(req)

	if cached, ok := i.cache.GetKey(ctx, key); ok {
		i.revalidate(req, key)
		i.metrics.recordServed(ctx, kindSubresource, "cache")
		return cached.Response(req), nil
	}

	resp, err := i.next.RoundTrip(req)
	if err != nil {
		i.metrics.recordServed(ctx, kindSubresource, "unavailable")
		return nil, err
	}
	stored, live, err := i.snapshot(resp)
	if err != nil {
		i.metrics.recordServed(ctx, kindSubresource, "unavailable")
		return nil, err
	}
	if stored != nil && stored.OK() {
		i.persist(ctx, key, stored)
	}
	i.metrics.recordServed(ctx, kindSubresource, "network")
	return live, nil
}

// revalidate refreshes key from the network without holding up the caller.
func (i *Interceptor) revalidate(req *http.Request, key offline.RequestKey) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(req.Context()), i.backgroundTimeout)
	bgReq := req.Clone(ctx)

	i.pending.Add(1)
	go func() {
		defer i.pending.Done()
		defer cancel()

		resp, err := i.next.RoundTrip(bgReq)
		if err != nil {
			i.metrics.recordRefresh(ctx, "network_error")
			return
		}
		stored, live, err := i.snapshot(resp)
		if err != nil {
			i.metrics.recordRefresh(ctx, "network_error")
			return
		}
		_ = live.Body.Close()
		if stored == nil || !stored.OK() {
			i.metrics.recordRefresh(ctx, "skipped")
			return
		}
		i.cache.PutKey(ctx, key, stored)
		i.metrics.recordRefresh(ctx, "updated")
	}()
}

// persist writes stored under key in the background.
func (i *Interceptor) persist(parent context.Context, key offline.RequestKey, stored *offline.StoredResponse) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), i.backgroundTimeout)

	i.pending.Add(1)
	go func() {
		defer i.pending.Done()
		defer cancel()
		i.cache.PutKey(ctx, key, stored)
	}()
}

// snapshot reads resp into memory and returns the stored copy together with
// a response the caller can still consume. Bodies larger than the cacheable
// limit are streamed through and yield a nil snapshot.
func (i *Interceptor) snapshot(resp *http.Response) (*offline.StoredResponse, *http.Response, error) {
	head, err := io.ReadAll(io.LimitReader(resp.Body, i.maxCacheableBytes+1))
	if err != nil {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("read response body: %w", err)
	}

	if int64(len(head)) > i.maxCacheableBytes {
		resp.Body = readCloser{
			Reader: io.MultiReader(bytes.NewReader(head), resp.Body),
			Closer: resp.Body,
		}
		return nil, resp, nil
	}

	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(head))
	resp.ContentLength = int64(len(head))

	stored := &offline.StoredResponse{
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     head,
		StoredAt: time.Now(),
	}
	return stored, resp, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}
