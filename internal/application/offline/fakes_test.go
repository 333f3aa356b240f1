package offline

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
)

// fakeStorage is an in-memory CacheStorage with error injection
type fakeStorage struct {
	mu      sync.Mutex
	buckets map[string]*fakeBucket

	openErr   error
	keysErr   error
	deleteErr map[string]error
	putErr    error
}

func newFakeStorage(names ...string) *fakeStorage {
	s := &fakeStorage{
		buckets:   make(map[string]*fakeBucket),
		deleteErr: make(map[string]error),
	}
	for _, name := range names {
		s.buckets[name] = newFakeBucket(s)
	}
	return s
}

func (s *fakeStorage) Open(_ context.Context, name string) (offline.Bucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return nil, s.openErr
	}
	b, ok := s.buckets[name]
	if !ok {
		b = newFakeBucket(s)
		s.buckets[name] = b
	}
	return b, nil
}

func (s *fakeStorage) Keys(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keysErr != nil {
		return nil, s.keysErr
	}
	names := make([]string, 0, len(s.buckets))
	for name := range s.buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *fakeStorage) Delete(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.deleteErr[name]; err != nil {
		return false, err
	}
	if _, ok := s.buckets[name]; !ok {
		return false, nil
	}
	delete(s.buckets, name)
	return true, nil
}

func (s *fakeStorage) names() []string {
	names, _ := s.Keys(context.Background())
	return names
}

func (s *fakeStorage) entry(bucket, url string) (*offline.StoredResponse, bool) {
	s.mu.Lock()
	b, ok := s.buckets[bucket]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	resp, ok, _ := b.Match(context.Background(), offline.KeyForPath(url))
	return resp, ok
}

type fakeBucket struct {
	owner   *fakeStorage
	mu      sync.Mutex
	entries map[offline.RequestKey]*offline.StoredResponse
}

func newFakeBucket(owner *fakeStorage) *fakeBucket {
	return &fakeBucket{owner: owner, entries: make(map[offline.RequestKey]*offline.StoredResponse)}
}

func (b *fakeBucket) Match(_ context.Context, key offline.RequestKey) (*offline.StoredResponse, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	resp, ok := b.entries[key]
	if !ok {
		return nil, false, nil
	}
	return resp.Clone(), true, nil
}

func (b *fakeBucket) Put(_ context.Context, key offline.RequestKey, resp *offline.StoredResponse) error {
	b.owner.mu.Lock()
	err := b.owner.putErr
	b.owner.mu.Unlock()
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[key] = resp.Clone()
	return nil
}

func (b *fakeBucket) Delete(_ context.Context, key offline.RequestKey) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.entries[key]
	delete(b.entries, key)
	return ok, nil
}

func (b *fakeBucket) Keys(context.Context) ([]offline.RequestKey, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]offline.RequestKey, 0, len(b.entries))
	for k := range b.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].URL < keys[j].URL })
	return keys, nil
}

// fakeFetcher serves manifest paths from a map
type fakeFetcher struct {
	bodies map[string]string
	fail   map[string]error
	gate   chan struct{}
	calls  atomic.Int32
}

func newFakeFetcher(paths ...string) *fakeFetcher {
	f := &fakeFetcher{bodies: make(map[string]string), fail: make(map[string]error)}
	for _, p := range paths {
		f.bodies[p] = "asset " + p
	}
	return f
}

func (f *fakeFetcher) Fetch(ctx context.Context, path string) (*offline.StoredResponse, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.fail[path]; err != nil {
		return nil, err
	}
	body, ok := f.bodies[path]
	if !ok {
		return nil, errors.New("not found: " + path)
	}
	return &offline.StoredResponse{
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": {"text/plain"}},
		Body:   []byte(body),
	}, nil
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func textResponse(req *http.Request, status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{"Content-Type": {"text/plain"}},
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}
}

func readBody(resp *http.Response) string {
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}

var errOffline = errors.New("dial tcp: network is unreachable")

// messageLog records messages delivered to in-process clients
type messageLog struct {
	mu   sync.Mutex
	msgs map[string][]offline.Message
}

func newMessageLog() *messageLog {
	return &messageLog{msgs: make(map[string][]offline.Message)}
}

func (l *messageLog) client(id string) *ClientFunc {
	return NewClientFunc(id, func(_ context.Context, msg offline.Message) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.msgs[id] = append(l.msgs[id], msg)
		return nil
	})
}

func (l *messageLog) received(id string) []offline.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]offline.Message(nil), l.msgs[id]...)
}
