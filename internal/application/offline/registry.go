package offline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
	"go.uber.org/zap"
)

// RegistryConfig describes the workers a Registry creates.
type RegistryConfig struct {
	Prefix             string
	Manifest           offline.Manifest
	Policy             offline.UpdatePolicy
	Fetcher            Fetcher
	Network            http.RoundTripper
	InterceptorOptions []InterceptorOption
}

// WorkerStatus summarizes one worker
type WorkerStatus struct {
	Version offline.VersionTag     `json:"version"`
	State   offline.LifecycleState `json:"state"`
	Bucket  string                 `json:"bucket"`
}

// Status is a snapshot of the registration slots
type Status struct {
	Active     *WorkerStatus `json:"active,omitempty"`
	Waiting    *WorkerStatus `json:"waiting,omitempty"`
	Installing *WorkerStatus `json:"installing,omitempty"`
	Clients    int           `json:"clients"`
}

// Registry plays the hosting runtime: it installs workers per version, keeps
// at most one installing, one waiting and one active, and serializes the
// hand-off of control. It is also an http.RoundTripper that routes requests
// through the active worker.
type Registry struct {
	storage   offline.CacheStorage
	cfg       RegistryConfig
	clients   *ClientSet
	logger    *zap.Logger
	listeners []func(StateChange)

	mu         sync.RWMutex
	installing *Worker
	waiting    *Worker
	active     *Worker

	handoff sync.Mutex
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger
func WithRegistryLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithClientSet shares an existing client set
func WithClientSet(clients *ClientSet) RegistryOption {
	return func(r *Registry) {
		r.clients = clients
	}
}

// WithStateListener observes every worker transition
func WithStateListener(fn func(StateChange)) RegistryOption {
	return func(r *Registry) {
		r.listeners = append(r.listeners, fn)
	}
}

// NewRegistry creates a registry over storage
func NewRegistry(storage offline.CacheStorage, cfg RegistryConfig, opts ...RegistryOption) (*Registry, error) {
	if cfg.Prefix == "" {
		return nil, fmt.Errorf("cache prefix is required")
	}
	if cfg.Manifest == nil {
		cfg.Manifest = offline.DefaultManifest()
	}
	if err := cfg.Manifest.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	if cfg.Policy == "" {
		cfg.Policy = offline.PolicyEager
	}
	if !cfg.Policy.IsValid() {
		return nil, fmt.Errorf("unknown update policy %q", cfg.Policy)
	}
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.Network == nil {
		cfg.Network = http.DefaultTransport
	}

	r := &Registry{
		storage: storage,
		cfg:     cfg,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.clients == nil {
		r.clients = NewClientSet(r.logger)
	}
	return r, nil
}

// Prefix returns the cache prefix
func (r *Registry) Prefix() string {
	return r.cfg.Prefix
}

// Storage returns the shared cache storage
func (r *Registry) Storage() offline.CacheStorage {
	return r.storage
}

// Clients returns the foreground contexts known to the registry
func (r *Registry) Clients() *ClientSet {
	return r.clients
}

// Register installs a worker for version unless one already exists for it.
// A newer registration supersedes any worker still installing. The call
// returns once the new worker reached waiting (and, under the eager policy,
// took control).
func (r *Registry) Register(ctx context.Context, version offline.VersionTag) (*Worker, error) {
	if version.IsZero() {
		version = offline.DevVersion
	}

	r.mu.Lock()
	for _, w := range []*Worker{r.active, r.waiting, r.installing} {
		if w != nil && w.Version() == version {
			r.mu.Unlock()
			return w, nil
		}
	}
	w := r.newWorker(version)
	if r.installing != nil {
		r.installing.retire()
	}
	r.installing = w
	r.mu.Unlock()

	r.logger.Info("worker registered", zap.String("version", string(version)))
	if err := w.Install(ctx); err != nil {
		return w, fmt.Errorf("install worker %s: %w", version, err)
	}
	return w, nil
}

func (r *Registry) newWorker(version offline.VersionTag) *Worker {
	logger := r.logger.Named("worker")
	cache := NewCacheManager(r.storage, r.cfg.Prefix, version, r.cfg.Fetcher, WithCacheLogger(logger))
	opts := append([]InterceptorOption{WithInterceptorLogger(logger)}, r.cfg.InterceptorOptions...)
	return newWorker(workerConfig{
		version:     version,
		policy:      r.cfg.Policy,
		manifest:    r.cfg.Manifest,
		cache:       cache,
		interceptor: NewInterceptor(cache, r.cfg.Network, opts...),
		clients:     r.clients,
		logger:      logger,
		onChange:    r.notifyListeners,
	}, r)
}

func (r *Registry) notifyListeners(change StateChange) {
	for _, fn := range r.listeners {
		fn(change)
	}
}

// installed implements workerHost
func (r *Registry) installed(w *Worker) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.installing != w {
		return false
	}
	r.installing = nil
	if r.waiting != nil {
		r.waiting.retire()
	}
	r.waiting = w
	return true
}

// promote implements workerHost. The previous active worker becomes
// redundant as soon as w takes the active slot; requests arriving while w is
// activating wait for it to settle.
func (r *Registry) promote(ctx context.Context, w *Worker) error {
	r.handoff.Lock()
	defer r.handoff.Unlock()

	r.mu.Lock()
	if r.waiting != w || !w.State().IsWaiting() {
		r.mu.Unlock()
		return nil
	}
	previous := r.active
	r.waiting = nil
	r.active = w
	r.mu.Unlock()

	if previous != nil {
		previous.retire()
	}
	if err := w.activate(ctx); err != nil {
		return fmt.Errorf("activate worker %s: %w", w.Version(), err)
	}
	return nil
}

// Active returns the worker in control, or nil
func (r *Registry) Active() *Worker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Waiting returns the installed worker awaiting promotion, or nil
func (r *Registry) Waiting() *Worker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.waiting
}

// Installing returns the worker currently installing, or nil
func (r *Registry) Installing() *Worker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.installing
}

// PostMessage delivers a foreground message to every live worker, even
// when an earlier one fails.
func (r *Registry) PostMessage(ctx context.Context, msg offline.Message) error {
	r.mu.RLock()
	targets := make([]messageReceiver, 0, 3)
	for _, w := range []*Worker{r.installing, r.waiting, r.active} {
		if w != nil {
			targets = append(targets, w)
		}
	}
	r.mu.RUnlock()

	return deliver(ctx, targets, msg)
}

type messageReceiver interface {
	PostMessage(ctx context.Context, msg offline.Message) error
}

// deliver posts msg to every target; a failing target does not stop the
// rest and all failures are joined
func deliver(ctx context.Context, targets []messageReceiver, msg offline.Message) error {
	var errs []error
	for _, target := range targets {
		if err := target.PostMessage(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Promote sends SKIP_WAITING to the waiting worker.
func (r *Registry) Promote(ctx context.Context) error {
	w := r.Waiting()
	if w == nil {
		return offline.ErrNoWaitingWorker
	}
	return w.PostMessage(ctx, offline.SkipWaiting())
}

// Connect registers a foreground context. It is controlled by the active
// worker when one is activated.
func (r *Registry) Connect(c Client) offline.VersionTag {
	var controller offline.VersionTag
	if w := r.Active(); w != nil && w.State() == offline.StateActivated {
		controller = w.Version()
	}
	r.clients.Add(c, controller)
	return controller
}

// Disconnect forgets a foreground context
func (r *Registry) Disconnect(id string) {
	r.clients.Remove(id)
}

// Unregister retires every worker and releases all clients. It returns the
// versions that were retired.
func (r *Registry) Unregister(ctx context.Context) []offline.VersionTag {
	r.handoff.Lock()
	defer r.handoff.Unlock()

	r.mu.Lock()
	workers := []*Worker{r.installing, r.waiting, r.active}
	r.installing, r.waiting, r.active = nil, nil, nil
	r.mu.Unlock()

	var retired []offline.VersionTag
	for _, w := range workers {
		if w == nil {
			continue
		}
		w.retire()
		retired = append(retired, w.Version())
	}
	r.clients.Release()
	r.logger.Info("workers unregistered", zap.Int("count", len(retired)))
	return retired
}

// Status returns a snapshot of the slots
func (r *Registry) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Status{
		Active:     workerStatus(r.active),
		Waiting:    workerStatus(r.waiting),
		Installing: workerStatus(r.installing),
		Clients:    r.clients.Len(),
	}
}

func workerStatus(w *Worker) *WorkerStatus {
	if w == nil {
		return nil
	}
	return &WorkerStatus{Version: w.Version(), State: w.State(), Bucket: w.BucketID()}
}

// RoundTrip implements http.RoundTripper. Without an activated worker the
// request goes straight to the network.
func (r *Registry) RoundTrip(req *http.Request) (*http.Response, error) {
	w := r.Active()
	if w == nil {
		return r.cfg.Network.RoundTrip(req)
	}
	select {
	case <-w.Settled():
	case <-req.Context().Done():
		return nil, req.Context().Err()
	}
	if w.State() != offline.StateActivated {
		return r.cfg.Network.RoundTrip(req)
	}
	return w.Interceptor().RoundTrip(req)
}

// Wait blocks until background cache work of the live workers has finished.
func (r *Registry) Wait() {
	r.mu.RLock()
	workers := []*Worker{r.installing, r.waiting, r.active}
	r.mu.RUnlock()
	for _, w := range workers {
		if w != nil {
			w.Interceptor().Wait()
		}
	}
}
