package cachestore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisNamespace prefixes every key written by RedisStorage
const DefaultRedisNamespace = "ventas:offline"

// putIfRegistered writes a hash field only while the bucket is still listed.
var putIfRegistered = redis.NewScript(`
if redis.call('SISMEMBER', KEYS[1], ARGV[1]) == 1 then
	return redis.call('HSET', KEYS[2], ARGV[2], ARGV[3])
end
return -1
`)

// RedisStorage keeps buckets as Redis hashes so that every gateway
// instance sharing the Redis server sees the same caches.
//
// Layout: <ns>:buckets is a set of names, <ns>:bucket:<name> a hash from
// "METHOD url" to the encoded record.
type RedisStorage struct {
	client    redis.UniversalClient
	namespace string
}

var _ offline.CacheStorage = (*RedisStorage)(nil)

// NewRedisStorage creates a storage using an existing client
func NewRedisStorage(client redis.UniversalClient, namespace string) *RedisStorage {
	if namespace == "" {
		namespace = DefaultRedisNamespace
	}
	return &RedisStorage{client: client, namespace: namespace}
}

func (s *RedisStorage) setKey() string {
	return s.namespace + ":buckets"
}

func (s *RedisStorage) hashKey(name string) string {
	return s.namespace + ":bucket:" + name
}

// Open implements offline.CacheStorage
func (s *RedisStorage) Open(ctx context.Context, name string) (offline.Bucket, error) {
	if err := validBucketName(name); err != nil {
		return nil, err
	}
	if err := s.client.SAdd(ctx, s.setKey(), name).Err(); err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", name, err)
	}
	return &redisBucket{storage: s, name: name, hash: s.hashKey(name)}, nil
}

// Keys implements offline.CacheStorage
func (s *RedisStorage) Keys(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, s.setKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Delete implements offline.CacheStorage
func (s *RedisStorage) Delete(ctx context.Context, name string) (bool, error) {
	var removed *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		removed = p.SRem(ctx, s.setKey(), name)
		p.Del(ctx, s.hashKey(name))
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete bucket %s: %w", name, err)
	}
	return removed.Val() > 0, nil
}

type redisBucket struct {
	storage *RedisStorage
	name    string
	hash    string
}

func (b *redisBucket) Match(ctx context.Context, key offline.RequestKey) (*offline.StoredResponse, bool, error) {
	data, err := b.storage.client.HGet(ctx, b.hash, key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("match %s in %s: %w", key, b.name, err)
	}
	_, resp, err := decodeRecord(data)
	if err != nil {
		return nil, false, err
	}
	return resp, true, nil
}

func (b *redisBucket) Put(ctx context.Context, key offline.RequestKey, resp *offline.StoredResponse) error {
	data, err := encodeRecord(key, resp)
	if err != nil {
		return err
	}
	err = putIfRegistered.Run(ctx, b.storage.client,
		[]string{b.storage.setKey(), b.hash},
		b.name, key.String(), data,
	).Err()
	if err != nil {
		return fmt.Errorf("put %s in %s: %w", key, b.name, err)
	}
	return nil
}

func (b *redisBucket) Delete(ctx context.Context, key offline.RequestKey) (bool, error) {
	n, err := b.storage.client.HDel(ctx, b.hash, key.String()).Result()
	if err != nil {
		return false, fmt.Errorf("delete %s from %s: %w", key, b.name, err)
	}
	return n > 0, nil
}

func (b *redisBucket) Keys(ctx context.Context) ([]offline.RequestKey, error) {
	fields, err := b.storage.client.HKeys(ctx, b.hash).Result()
	if err != nil {
		return nil, fmt.Errorf("list keys of %s: %w", b.name, err)
	}
	keys := make([]offline.RequestKey, 0, len(fields))
	for _, f := range fields {
		k, err := parseKey(f)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys, nil
}
