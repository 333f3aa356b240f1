// Package version resolves the build's VersionTag: the short git hash and
// a UTC build timestamp, optionally prefixed by the release semver.
//
// Release builds inject the value once:
//
//	go build -ldflags "-X github.com/Erickgiber/debts-my-clients/internal/infrastructure/version.Tag=$(ventasctl version)"
//
// Without injection the tag is computed on first use and stays fixed for the
// life of the process.
package version

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
)

// Tag and Semver are set with -ldflags -X
var (
	Tag    string
	Semver string
)

// NoGit replaces the hash outside a git checkout
const NoGit = "nogit"

// TimestampLayout is YYYYMMDDHHMMSS
const TimestampLayout = "20060102150405"

const gitTimeout = 5 * time.Second

// HashFunc returns the abbreviated commit hash of dir
type HashFunc func(ctx context.Context, dir string) (string, error)

// Resolver computes a VersionTag once
type Resolver struct {
	dir    string
	semver string
	now    func() time.Time
	hash   HashFunc

	once sync.Once
	tag  offline.VersionTag
}

// Option configures a Resolver
type Option func(*Resolver)

// WithDir sets the working tree to read the commit from
func WithDir(dir string) Option {
	return func(r *Resolver) {
		r.dir = dir
	}
}

// WithSemver prefixes the tag with a release version
func WithSemver(v string) Option {
	return func(r *Resolver) {
		r.semver = strings.TrimPrefix(strings.TrimSpace(v), "v")
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// WithHashFunc replaces the git invocation
func WithHashFunc(fn HashFunc) Option {
	return func(r *Resolver) {
		r.hash = fn
	}
}

// NewResolver creates a Resolver for the current directory
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		semver: strings.TrimPrefix(Semver, "v"),
		now:    time.Now,
		hash:   GitShortHash,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the tag, computing it on the first call
func (r *Resolver) Resolve(ctx context.Context) offline.VersionTag {
	r.once.Do(func() {
		hash, err := r.hash(ctx, r.dir)
		if err != nil || hash == "" {
			hash = NoGit
		}
		r.tag = Compose(r.semver, hash, r.now())
	})
	return r.tag
}

// Compose builds {hash}-{timestamp} or {semver}-{hash}-{timestamp}
func Compose(semver, hash string, at time.Time) offline.VersionTag {
	parts := make([]string, 0, 3)
	if semver != "" {
		parts = append(parts, semver)
	}
	parts = append(parts, hash, at.UTC().Format(TimestampLayout))
	return offline.VersionTag(strings.Join(parts, "-"))
}

// GitShortHash runs git rev-parse --short HEAD in dir
func GitShortHash(ctx context.Context, dir string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, gitTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--short", "HEAD")
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.String()), nil
}

var (
	defaultOnce     sync.Once
	defaultResolver *Resolver
)

// Current returns the injected Tag, or the tag resolved for this process
func Current() offline.VersionTag {
	if Tag != "" {
		return offline.VersionTag(Tag)
	}
	defaultOnce.Do(func() {
		defaultResolver = NewResolver()
	})
	return defaultResolver.Resolve(context.Background())
}
