package offline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultFetchConcurrency  = 4
	defaultPurgeConcurrency  = 4
	defaultMaxCacheableBytes = 8 << 20 // 8MB
)

// Fetcher retrieves manifest assets from the network during install.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (*offline.StoredResponse, error)
}

// TransportFetcher fetches paths relative to an origin through a RoundTripper.
type TransportFetcher struct {
	Origin    *url.URL
	Transport http.RoundTripper
	MaxBytes  int64
}

// NewTransportFetcher creates a fetcher for origin. A nil transport means
// http.DefaultTransport.
func NewTransportFetcher(origin *url.URL, transport http.RoundTripper) *TransportFetcher {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &TransportFetcher{Origin: origin, Transport: transport, MaxBytes: defaultMaxCacheableBytes}
}

// Fetch performs a GET for path. Non-2xx answers are errors, like a
// precache that only accepts ok responses.
func (f *TransportFetcher) Fetch(ctx context.Context, path string) (*offline.StoredResponse, error) {
	target := f.Origin.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", path, err)
	}
	resp, err := f.Transport.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", path, resp.StatusCode)
	}
	limit := f.MaxBytes
	if limit <= 0 {
		limit = defaultMaxCacheableBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("fetch %s: body exceeds %d bytes", path, limit)
	}
	return &offline.StoredResponse{
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     body,
		StoredAt: time.Now(),
	}, nil
}

// CacheManager owns one versioned bucket inside a shared CacheStorage.
type CacheManager struct {
	storage          offline.CacheStorage
	prefix           string
	bucketID         string
	fetcher          Fetcher
	logger           *zap.Logger
	fetchConcurrency int
	purgeConcurrency int
}

// CacheManagerOption configures a CacheManager
type CacheManagerOption func(*CacheManager)

// WithCacheLogger sets the logger
func WithCacheLogger(logger *zap.Logger) CacheManagerOption {
	return func(m *CacheManager) {
		m.logger = logger
	}
}

// WithFetchConcurrency bounds parallel manifest fetches
func WithFetchConcurrency(n int) CacheManagerOption {
	return func(m *CacheManager) {
		if n > 0 {
			m.fetchConcurrency = n
		}
	}
}

// NewCacheManager creates a manager for bucket {prefix}-{version}.
func NewCacheManager(storage offline.CacheStorage, prefix string, version offline.VersionTag, fetcher Fetcher, opts ...CacheManagerOption) *CacheManager {
	m := &CacheManager{
		storage:          storage,
		prefix:           prefix,
		bucketID:         offline.BucketName(prefix, version),
		fetcher:          fetcher,
		logger:           zap.NewNop(),
		fetchConcurrency: defaultFetchConcurrency,
		purgeConcurrency: defaultPurgeConcurrency,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// BucketID returns the name of the managed bucket
func (m *CacheManager) BucketID() string {
	return m.bucketID
}

// Prefix returns the deployment cache prefix
func (m *CacheManager) Prefix() string {
	return m.prefix
}

// EnsureCore opens the bucket and stores every manifest entry. Assets are
// fetched concurrently; nothing is written unless every fetch succeeded, so a
// partially fetched manifest never looks ready. Failures come back as a
// *offline.CacheWriteError.
func (m *CacheManager) EnsureCore(ctx context.Context, manifest offline.Manifest) error {
	bucket, err := m.storage.Open(ctx, m.bucketID)
	if err != nil {
		return &offline.CacheWriteError{Bucket: m.bucketID, Failed: map[string]error{"*": err}}
	}

	results := make([]*offline.StoredResponse, len(manifest))
	var (
		mu     sync.Mutex
		failed = make(map[string]error)
	)

	var g errgroup.Group
	g.SetLimit(m.fetchConcurrency)
	for idx, path := range manifest {
		g.Go(func() error {
			resp, err := m.fetcher.Fetch(ctx, path)
			if err != nil {
				mu.Lock()
				failed[path] = err
				mu.Unlock()
				return nil
			}
			results[idx] = resp
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) > 0 {
		return &offline.CacheWriteError{Bucket: m.bucketID, Failed: failed}
	}

	for idx, path := range manifest {
		if err := bucket.Put(ctx, offline.KeyForPath(path), results[idx]); err != nil {
			failed[path] = err
		}
	}
	if len(failed) > 0 {
		return &offline.CacheWriteError{Bucket: m.bucketID, Failed: failed}
	}

	m.logger.Debug("core assets cached",
		zap.String("bucket", m.bucketID),
		zap.Int("assets", len(manifest)),
	)
	return nil
}

// PurgeStale deletes every bucket named with prefix except currentBucketID
// and returns the deleted names in order. Calling it with nothing to delete
// is a no-op.
func (m *CacheManager) PurgeStale(ctx context.Context, prefix, currentBucketID string) ([]string, error) {
	return purgeBuckets(ctx, m.storage, prefix, currentBucketID, m.purgeConcurrency)
}

// PurgePrefix deletes every bucket under prefix, including the current one.
func PurgePrefix(ctx context.Context, storage offline.CacheStorage, prefix string) ([]string, error) {
	return purgeBuckets(ctx, storage, prefix, "", defaultPurgeConcurrency)
}

func purgeBuckets(ctx context.Context, storage offline.CacheStorage, prefix, current string, concurrency int) ([]string, error) {
	names, err := storage.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}

	var (
		mu      sync.Mutex
		deleted []string
		errs    []error
	)
	var g errgroup.Group
	g.SetLimit(concurrency)
	for _, name := range names {
		if !offline.IsStaleBucket(name, prefix, current) {
			continue
		}
		g.Go(func() error {
			removed, err := storage.Delete(ctx, name)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("delete bucket %s: %w", name, err))
				return nil
			}
			if removed {
				deleted = append(deleted, name)
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(deleted)
	return deleted, errors.Join(errs...)
}

// Get looks req up in the managed bucket only.
func (m *CacheManager) Get(ctx context.Context, req *http.Request) (*offline.StoredResponse, bool) {
	if req.Method != http.MethodGet {
		return nil, false
	}
	return m.GetKey(ctx, offline.KeyFor(req))
}

// GetKey looks key up in the managed bucket. Storage errors count as a miss.
func (m *CacheManager) GetKey(ctx context.Context, key offline.RequestKey) (*offline.StoredResponse, bool) {
	bucket, err := m.storage.Open(ctx, m.bucketID)
	if err != nil {
		m.logger.Debug("cache open failed", zap.String("bucket", m.bucketID), zap.Error(err))
		return nil, false
	}
	resp, ok, err := bucket.Match(ctx, key)
	if err != nil {
		m.logger.Debug("cache lookup failed",
			zap.String("bucket", m.bucketID),
			zap.String("key", key.String()),
			zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return resp.Clone(), true
}

// Put stores resp for req. Write failures are swallowed.
func (m *CacheManager) Put(ctx context.Context, req *http.Request, resp *offline.StoredResponse) {
	if req.Method != http.MethodGet {
		return
	}
	m.PutKey(ctx, offline.KeyFor(req), resp)
}

// PutKey stores resp under key. Write failures are swallowed.
func (m *CacheManager) PutKey(ctx context.Context, key offline.RequestKey, resp *offline.StoredResponse) {
	bucket, err := m.storage.Open(ctx, m.bucketID)
	if err == nil {
		err = bucket.Put(ctx, key, resp.Clone())
	}
	if err != nil {
		m.logger.Debug("cache write dropped",
			zap.String("bucket", m.bucketID),
			zap.String("key", key.String()),
			zap.Error(err))
	}
}
