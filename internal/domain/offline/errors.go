package offline

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNavigationUnavailable is returned when a navigation fails on the
	// network and no cached document exists.
	ErrNavigationUnavailable = errors.New("offline: network unavailable and no cached document")
	// ErrInvalidTransition is returned for an illegal lifecycle move.
	ErrInvalidTransition = errors.New("offline: invalid lifecycle transition")
	// ErrNoWaitingWorker is returned when a promotion has nothing to promote.
	ErrNoWaitingWorker = errors.New("offline: no waiting worker")
	// ErrBucketNotFound is returned by backends asked about a missing bucket.
	ErrBucketNotFound = errors.New("offline: bucket not found")
)

// CacheWriteError reports the manifest paths that could not be precached.
type CacheWriteError struct {
	Bucket string
	Failed map[string]error
}

// Error implements the error interface
func (e *CacheWriteError) Error() string {
	paths := make([]string, 0, len(e.Failed))
	for p := range e.Failed {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return fmt.Sprintf("precache into %s failed for %d path(s): %s", e.Bucket, len(paths), strings.Join(paths, ", "))
}

// Unwrap exposes the individual failures to errors.Is / errors.As
func (e *CacheWriteError) Unwrap() []error {
	out := make([]error, 0, len(e.Failed))
	for _, err := range e.Failed {
		out = append(out, err)
	}
	return out
}

// TransitionError describes a rejected state change.
type TransitionError struct {
	Version VersionTag
	From    LifecycleState
	To      LifecycleState
}

// Error implements the error interface
func (e *TransitionError) Error() string {
	return fmt.Sprintf("worker %s cannot move from %s to %s", e.Version, e.From, e.To)
}

// Is matches ErrInvalidTransition
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
