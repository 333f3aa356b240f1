package offline

import (
	"context"
	"sort"
	"sync"

	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
	"go.uber.org/zap"
)

// Client is a foreground context a worker can message.
type Client interface {
	ID() string
	PostMessage(ctx context.Context, msg offline.Message) error
}

// ControllerObserver is implemented by clients that want to know when a
// different worker takes control of them.
type ControllerObserver interface {
	ControllerChanged(ctx context.Context, version offline.VersionTag)
}

type clientEntry struct {
	client     Client
	controller offline.VersionTag
}

// ClientSet tracks the open foreground contexts and which worker version
// controls each of them.
type ClientSet struct {
	mu      sync.RWMutex
	clients map[string]*clientEntry
	logger  *zap.Logger
}

// NewClientSet creates an empty client set
func NewClientSet(logger *zap.Logger) *ClientSet {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientSet{
		clients: make(map[string]*clientEntry),
		logger:  logger,
	}
}

// Add registers c, controlled by controller (empty for uncontrolled).
func (s *ClientSet) Add(c Client, controller offline.VersionTag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ID()] = &clientEntry{client: c, controller: controller}
}

// Remove forgets the client with id
func (s *ClientSet) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, id)
}

// Len returns the number of open clients
func (s *ClientSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Controller returns the version controlling client id
func (s *ClientSet) Controller(id string) (offline.VersionTag, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.clients[id]
	if !ok {
		return "", false
	}
	return e.controller, true
}

// MatchAll returns the clients ordered by id. Uncontrolled clients are
// included only when includeUncontrolled is set.
func (s *ClientSet) MatchAll(includeUncontrolled bool) []Client {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Client, 0, len(s.clients))
	for _, e := range s.clients {
		if e.controller.IsZero() && !includeUncontrolled {
			continue
		}
		out = append(out, e.client)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID() < out[b].ID() })
	return out
}

// Claim makes version the controller of every open client and returns how
// many changed hands. Observers are notified outside the lock.
func (s *ClientSet) Claim(ctx context.Context, version offline.VersionTag) int {
	var changed []Client

	s.mu.Lock()
	for _, e := range s.clients {
		if e.controller == version {
			continue
		}
		e.controller = version
		changed = append(changed, e.client)
	}
	s.mu.Unlock()

	for _, c := range changed {
		if obs, ok := c.(ControllerObserver); ok {
			s.safeCall(c.ID(), func() { obs.ControllerChanged(ctx, version) })
		}
	}
	return len(changed)
}

// Release marks every client uncontrolled
func (s *ClientSet) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.clients {
		e.controller = ""
	}
}

// Broadcast posts msg to every client, controlled or not, and returns how
// many deliveries succeeded. Per-recipient failures are dropped.
func (s *ClientSet) Broadcast(ctx context.Context, msg offline.Message) int {
	delivered := 0
	for _, c := range s.MatchAll(true) {
		var err error
		s.safeCall(c.ID(), func() { err = c.PostMessage(ctx, msg) })
		if err != nil {
			s.logger.Debug("message dropped",
				zap.String("client_id", c.ID()),
				zap.String("type", string(msg.Type)),
				zap.Error(err))
			continue
		}
		delivered++
	}
	return delivered
}

func (s *ClientSet) safeCall(clientID string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Debug("client panicked",
				zap.String("client_id", clientID),
				zap.Any("panic", r))
		}
	}()
	fn()
}

// ClientFunc adapts a function into an in-process Client.
type ClientFunc struct {
	id string
	fn func(ctx context.Context, msg offline.Message) error
}

// NewClientFunc creates an in-process client
func NewClientFunc(id string, fn func(ctx context.Context, msg offline.Message) error) *ClientFunc {
	return &ClientFunc{id: id, fn: fn}
}

// ID implements Client
func (c *ClientFunc) ID() string { return c.id }

// PostMessage implements Client
func (c *ClientFunc) PostMessage(ctx context.Context, msg offline.Message) error {
	return c.fn(ctx, msg)
}
