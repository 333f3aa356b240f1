package cachestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/filelock"
	"go.uber.org/zap"
)

const (
	lockFileName = ".lock"
	recordExt    = ".json"
)

// FileStorage keeps one directory per bucket and one file per entry under
// root. A lock file guards the tree so several processes (the gateway and
// ventasctl) can share it.
type FileStorage struct {
	root   string
	logger *zap.Logger
}

var _ offline.CacheStorage = (*FileStorage)(nil)

// NewFileStorage creates root when needed
func NewFileStorage(root string, logger *zap.Logger) (*FileStorage, error) {
	if root == "" {
		return nil, errors.New("cache directory is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory %s: %w", root, err)
	}
	return &FileStorage{root: root, logger: logger}, nil
}

func (s *FileStorage) lockPath() string {
	return filepath.Join(s.root, lockFileName)
}

func (s *FileStorage) withLock(ctx context.Context, fn func() error) error {
	fl, err := filelock.Lock(ctx, s.lockPath())
	if err != nil {
		return err
	}
	defer filelock.Release(s.logger, fl)
	return fn()
}

func (s *FileStorage) withRLock(ctx context.Context, fn func() error) error {
	fl, err := filelock.RLock(ctx, s.lockPath())
	if err != nil {
		return err
	}
	defer filelock.Release(s.logger, fl)
	return fn()
}

// Open implements offline.CacheStorage
func (s *FileStorage) Open(ctx context.Context, name string) (offline.Bucket, error) {
	if err := validBucketName(name); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.root, name)
	err := s.withLock(ctx, func() error {
		return os.MkdirAll(dir, 0o755)
	})
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", name, err)
	}
	return &fileBucket{storage: s, name: name, dir: dir}, nil
}

// Keys implements offline.CacheStorage
func (s *FileStorage) Keys(ctx context.Context) ([]string, error) {
	var names []string
	err := s.withRLock(ctx, func() error {
		entries, err := os.ReadDir(s.root)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.IsDir() {
				names = append(names, e.Name())
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Delete implements offline.CacheStorage
func (s *FileStorage) Delete(ctx context.Context, name string) (bool, error) {
	if validBucketName(name) != nil {
		return false, nil
	}
	dir := filepath.Join(s.root, name)
	var existed bool
	err := s.withLock(ctx, func() error {
		if _, err := os.Stat(dir); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		existed = true
		return os.RemoveAll(dir)
	})
	if err != nil {
		return false, fmt.Errorf("delete bucket %s: %w", name, err)
	}
	return existed, nil
}

type fileBucket struct {
	storage *FileStorage
	name    string
	dir     string
}

// entryPath hashes the key so long URLs stay within file name limits.
func (b *fileBucket) entryPath(key offline.RequestKey) string {
	sum := sha256.Sum256([]byte(key.String()))
	return filepath.Join(b.dir, hex.EncodeToString(sum[:])+recordExt)
}

func (b *fileBucket) Match(ctx context.Context, key offline.RequestKey) (*offline.StoredResponse, bool, error) {
	var data []byte
	err := b.storage.withRLock(ctx, func() error {
		var err error
		data, err = os.ReadFile(b.entryPath(key))
		return err
	})
	if errors.Is(err, fs.ErrNotExist) {
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

// Put writes through a temporary file and rename. Writes to a bucket whose
// directory was removed are dropped.
func (b *fileBucket) Put(ctx context.Context, key offline.RequestKey, resp *offline.StoredResponse) error {
	data, err := encodeRecord(key, resp)
	if err != nil {
		return err
	}
	err = b.storage.withLock(ctx, func() error {
		if _, err := os.Stat(b.dir); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		tmp, err := os.CreateTemp(b.dir, ".put-*")
		if err != nil {
			return err
		}
		if _, err := tmp.Write(data); err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
			return err
		}
		if err := tmp.Close(); err != nil {
			_ = os.Remove(tmp.Name())
			return err
		}
		return os.Rename(tmp.Name(), b.entryPath(key))
	})
	if err != nil {
		return fmt.Errorf("put %s in %s: %w", key, b.name, err)
	}
	return nil
}

func (b *fileBucket) Delete(ctx context.Context, key offline.RequestKey) (bool, error) {
	var removed bool
	err := b.storage.withLock(ctx, func() error {
		err := os.Remove(b.entryPath(key))
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		removed = err == nil
		return err
	})
	if err != nil {
		return false, fmt.Errorf("delete %s from %s: %w", key, b.name, err)
	}
	return removed, nil
}

func (b *fileBucket) Keys(ctx context.Context) ([]offline.RequestKey, error) {
	var keys []offline.RequestKey
	err := b.storage.withRLock(ctx, func() error {
		entries, err := os.ReadDir(b.dir)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || !strings.HasSuffix(name, recordExt) {
				continue
			}
			k, err := b.readKey(name)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				b.storage.logger.Warn("skipping unreadable cache entry",
					zap.String("bucket", b.name),
					zap.String("file", name),
					zap.Error(err))
				continue
			}
			keys = append(keys, k)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list keys of %s: %w", b.name, err)
	}
	sortKeys(keys)
	return keys, nil
}

func (b *fileBucket) readKey(file string) (offline.RequestKey, error) {
	data, err := os.ReadFile(filepath.Join(b.dir, file))
	if err != nil {
		return offline.RequestKey{}, err
	}
	k, _, err := decodeRecord(data)
	return k, err
}
