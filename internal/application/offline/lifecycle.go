package offline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
	"go.uber.org/zap"
)

// workerHost is the runtime side a Worker reports to. The Registry is the
// production host.
type workerHost interface {
	// installed moves w into the waiting slot; false means w was superseded.
	installed(w *Worker) bool
	// promote hands control to w if it is still the waiting worker.
	promote(ctx context.Context, w *Worker) error
}

// StateChange is emitted on every lifecycle transition.
type StateChange struct {
	Version offline.VersionTag
	From    offline.LifecycleState
	To      offline.LifecycleState
	At      time.Time
}

// Worker is one versioned instance of the background worker. It owns a
// bucket and an interceptor and walks installing → installed → activating →
// activated, ending as redundant once superseded.
type Worker struct {
	version     offline.VersionTag
	policy      offline.UpdatePolicy
	manifest    offline.Manifest
	cache       *CacheManager
	interceptor *Interceptor
	clients     *ClientSet
	host        workerHost
	logger      *zap.Logger
	onChange    func(StateChange)

	mu            sync.RWMutex
	state         offline.LifecycleState
	skipRequested atomic.Bool
	settled       chan struct{}
	settleOnce    sync.Once
}

type workerConfig struct {
	version     offline.VersionTag
	policy      offline.UpdatePolicy
	manifest    offline.Manifest
	cache       *CacheManager
	interceptor *Interceptor
	clients     *ClientSet
	logger      *zap.Logger
	onChange    func(StateChange)
}

func newWorker(cfg workerConfig, host workerHost) *Worker {
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		version:     cfg.version,
		policy:      cfg.policy,
		manifest:    cfg.manifest,
		cache:       cfg.cache,
		interceptor: cfg.interceptor,
		clients:     cfg.clients,
		host:        host,
		logger:      logger.With(zap.String("version", string(cfg.version))),
		onChange:    cfg.onChange,
		state:       offline.StateInstalling,
		settled:     make(chan struct{}),
	}
}

// Version returns the worker's build tag
func (w *Worker) Version() offline.VersionTag {
	return w.version
}

// State returns the current lifecycle state
func (w *Worker) State() offline.LifecycleState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// BucketID returns the worker's cache bucket
func (w *Worker) BucketID() string {
	return w.cache.BucketID()
}

// Interceptor returns the request interceptor bound to the worker's bucket
func (w *Worker) Interceptor() *Interceptor {
	return w.interceptor
}

// Settled is closed once the worker is activated or redundant.
func (w *Worker) Settled() <-chan struct{} {
	return w.settled
}

// Install precaches the manifest and moves to waiting. A failed precache is
// logged and does not stop the worker from reaching waiting.
func (w *Worker) Install(ctx context.Context) error {
	if err := w.cache.EnsureCore(ctx, w.manifest); err != nil {
		w.logger.Warn("precache failed", zap.String("bucket", w.cache.BucketID()), zap.Error(err))
	}

	if !w.host.installed(w) {
		w.logger.Debug("install superseded")
		return nil
	}
	if err := w.transition(offline.StateInstalled); err != nil {
		if w.State().IsTerminal() {
			return nil
		}
		return err
	}
	w.logger.Info("worker waiting", zap.String("policy", string(w.policy)))

	if w.policy == offline.PolicyEager || w.skipRequested.Load() {
		return w.PostMessage(ctx, offline.SkipWaiting())
	}
	return nil
}

// PostMessage delivers a message from a foreground context or from the
// worker itself. Unknown types are ignored.
func (w *Worker) PostMessage(ctx context.Context, msg offline.Message) error {
	switch msg.Type {
	case offline.MessageSkipWaiting:
		return w.skipWaiting(ctx)
	default:
		w.logger.Debug("message ignored", zap.String("type", string(msg.Type)))
		return nil
	}
}

func (w *Worker) skipWaiting(ctx context.Context) error {
	// Install checks the flag after reaching installed; promote is a no-op
	// for a worker that already left the waiting slot.
	w.skipRequested.Store(true)
	if w.State() == offline.StateInstalled {
		return w.host.promote(ctx, w)
	}
	return nil
}

// activate runs the activation steps. The host calls it during hand-off,
// after w took the active slot.
func (w *Worker) activate(ctx context.Context) error {
	if err := w.transition(offline.StateActivating); err != nil {
		return err
	}

	deleted, err := w.cache.PurgeStale(ctx, w.cache.Prefix(), w.cache.BucketID())
	if err != nil {
		w.logger.Warn("purge of stale caches failed", zap.String("bucket", w.cache.BucketID()), zap.Error(err))
	}
	if len(deleted) > 0 {
		w.logger.Info("stale caches deleted", zap.Strings("buckets", deleted))
	}

	claimed := w.clients.Claim(ctx, w.version)
	delivered := w.clients.Broadcast(ctx, offline.Activated(w.version))

	if err := w.transition(offline.StateActivated); err != nil {
		return err
	}
	w.logger.Info("worker activated",
		zap.Int("claimed", claimed),
		zap.Int("notified", delivered))
	return nil
}

// retire moves the worker to redundant. Safe to call more than once.
func (w *Worker) retire() {
	if w.State().IsTerminal() {
		return
	}
	_ = w.transition(offline.StateRedundant)
}

func (w *Worker) transition(to offline.LifecycleState) error {
	w.mu.Lock()
	from := w.state
	if !from.CanTransitionTo(to) {
		w.mu.Unlock()
		return &offline.TransitionError{Version: w.version, From: from, To: to}
	}
	w.state = to
	w.mu.Unlock()

	if to == offline.StateActivated || to == offline.StateRedundant {
		w.settleOnce.Do(func() { close(w.settled) })
	}
	w.logger.Debug("lifecycle transition", zap.String("from", string(from)), zap.String("to", string(to)))
	if w.onChange != nil {
		w.onChange(StateChange{Version: w.version, From: from, To: to, At: time.Now()})
	}
	return nil
}
