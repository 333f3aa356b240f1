package offline

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"
)

// RequestKey identifies a stored response inside a bucket.
// Only GET requests are ever stored.
type RequestKey struct {
	Method string `json:"method"`
	URL    string `json:"url"`
}

// KeyFor derives the key for an outgoing request. The URL part is the
// origin-relative request URI so that precached paths and intercepted
// requests share keys.
func KeyFor(r *http.Request) RequestKey {
	return RequestKey{Method: http.MethodGet, URL: r.URL.RequestURI()}
}

// KeyForPath builds the key for a root-relative path
func KeyForPath(path string) RequestKey {
	return RequestKey{Method: http.MethodGet, URL: path}
}

// String returns "METHOD url"
func (k RequestKey) String() string {
	return k.Method + " " + k.URL
}

// StoredResponse is a response snapshot held in a bucket.
type StoredResponse struct {
	Status   int         `json:"status"`
	Header   http.Header `json:"header,omitempty"`
	Body     []byte      `json:"body,omitempty"`
	StoredAt time.Time   `json:"stored_at"`
}

// OK reports a 2xx status
func (s *StoredResponse) OK() bool {
	return s.Status >= 200 && s.Status < 300
}

// Clone returns a deep copy so callers never share mutable state with a bucket.
func (s *StoredResponse) Clone() *StoredResponse {
	if s == nil {
		return nil
	}
	out := &StoredResponse{
		Status:   s.Status,
		Header:   s.Header.Clone(),
		StoredAt: s.StoredAt,
	}
	if s.Body != nil {
		out.Body = append([]byte(nil), s.Body...)
	}
	return out
}

// Response materializes the snapshot as a fresh *http.Response for req.
func (s *StoredResponse) Response(req *http.Request) *http.Response {
	header := s.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	header.Set("Content-Length", strconv.Itoa(len(s.Body)))
	return &http.Response{
		Status:        strconv.Itoa(s.Status) + " " + http.StatusText(s.Status),
		StatusCode:    s.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(s.Body)),
		ContentLength: int64(len(s.Body)),
		Request:       req,
	}
}

// Bucket is one named collection of stored request/response pairs.
// Match returns (nil, false, nil) on a miss. Writes are last-write-wins per key.
type Bucket interface {
	Match(ctx context.Context, key RequestKey) (*StoredResponse, bool, error)
	Put(ctx context.Context, key RequestKey, resp *StoredResponse) error
	Delete(ctx context.Context, key RequestKey) (bool, error)
	Keys(ctx context.Context) ([]RequestKey, error)
}

// CacheStorage is the registry of named buckets shared by every worker.
// Open creates the bucket when it does not exist. Delete reports whether a
// bucket was removed.
type CacheStorage interface {
	Open(ctx context.Context, name string) (Bucket, error)
	Keys(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) (bool, error)
}
