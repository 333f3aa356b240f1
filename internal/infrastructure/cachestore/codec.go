// Package cachestore provides CacheStorage backends for the offline cache:
// in-process memory, a gorm table, Redis hashes, S3 objects and a locked
// directory tree.
package cachestore

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
)

// record is the serialized form of a stored response. The key travels
// with the payload so a listing never has to trust an encoded name alone.
type record struct {
	Key      offline.RequestKey      `json:"key"`
	Response *offline.StoredResponse `json:"response"`
}

func encodeRecord(key offline.RequestKey, resp *offline.StoredResponse) ([]byte, error) {
	data, err := json.Marshal(record{Key: key, Response: resp})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}
	return data, nil
}

func decodeRecord(data []byte) (offline.RequestKey, *offline.StoredResponse, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return offline.RequestKey{}, nil, fmt.Errorf("decode cache record: %w", err)
	}
	if r.Response == nil {
		return r.Key, nil, fmt.Errorf("decode cache record %s: missing response", r.Key)
	}
	return r.Key, r.Response, nil
}

// encodeKey maps a request key to a name safe for file names and object keys.
func encodeKey(key offline.RequestKey) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key.String()))
}

func decodeKey(name string) (offline.RequestKey, error) {
	raw, err := base64.RawURLEncoding.DecodeString(name)
	if err != nil {
		return offline.RequestKey{}, fmt.Errorf("decode key %q: %w", name, err)
	}
	return parseKey(string(raw))
}

// parseKey reverses RequestKey.String
func parseKey(s string) (offline.RequestKey, error) {
	method, url, ok := strings.Cut(s, " ")
	if !ok || method == "" || url == "" {
		return offline.RequestKey{}, fmt.Errorf("malformed request key %q", s)
	}
	return offline.RequestKey{Method: method, URL: url}, nil
}

// validBucketName rejects names that would escape a directory or object prefix.
func validBucketName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("invalid bucket name %q", name)
	}
	return nil
}
