package offline

import (
	"context"
	"fmt"
	"sync"

	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
	"go.uber.org/zap"
)

// UpdatePromptID is the fixed identity of the update prompt.
const UpdatePromptID = "sw-update-banner"

// Prompt is the update banner shown to the user.
type Prompt struct {
	ID             string             `json:"id"`
	Previous       offline.VersionTag `json:"previous"`
	Next           offline.VersionTag `json:"next"`
	ReloadDisabled bool               `json:"reload_disabled"`
}

// Text renders the prompt message
func (p Prompt) Text() string {
	return fmt.Sprintf("New version available: %s → %s", p.Previous, p.Next)
}

// PromptBoard is the foreground surface prompts are mounted on.
type PromptBoard interface {
	// Has reports whether an element with id is mounted.
	Has(id string) bool
	// Show mounts p, replacing any element with the same id.
	Show(p Prompt)
	// Remove unmounts the element with id.
	Remove(id string)
	// Announce shows a transient informational line.
	Announce(text string)
}

// VersionRecordStore persists the last version seen by a foreground context.
// Load returns an empty tag when nothing was stored yet.
type VersionRecordStore interface {
	Load(ctx context.Context) (offline.VersionTag, error)
	Save(ctx context.Context, v offline.VersionTag) error
}

// Reloader performs a full reload of the foreground context.
type Reloader func(ctx context.Context) error

// UpdateNotifier turns activation broadcasts into a single update prompt.
// It is itself a Client, so a Registry or relay can deliver to it directly.
type UpdateNotifier struct {
	id     string
	record VersionRecordStore
	board  PromptBoard
	reload Reloader
	logger *zap.Logger

	mu     sync.Mutex
	prompt *Prompt
}

// NotifierOption configures an UpdateNotifier
type NotifierOption func(*UpdateNotifier)

// WithNotifierLogger sets the logger
func WithNotifierLogger(logger *zap.Logger) NotifierOption {
	return func(n *UpdateNotifier) {
		n.logger = logger
	}
}

// WithNotifierID sets the client id used when registered as a Client
func WithNotifierID(id string) NotifierOption {
	return func(n *UpdateNotifier) {
		n.id = id
	}
}

// NewUpdateNotifier creates a notifier. A nil reload is a no-op.
func NewUpdateNotifier(record VersionRecordStore, board PromptBoard, reload Reloader, opts ...NotifierOption) *UpdateNotifier {
	if reload == nil {
		reload = func(context.Context) error { return nil }
	}
	n := &UpdateNotifier{
		id:     "update-notifier",
		record: record,
		board:  board,
		reload: reload,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// ID implements Client
func (n *UpdateNotifier) ID() string {
	return n.id
}

// PostMessage implements Client
func (n *UpdateNotifier) PostMessage(ctx context.Context, msg offline.Message) error {
	return n.HandleMessage(ctx, msg)
}

// HandleMessage reacts to SW_ACTIVATED; other messages are ignored.
func (n *UpdateNotifier) HandleMessage(ctx context.Context, msg offline.Message) error {
	if msg.Type != offline.MessageActivated {
		return nil
	}
	return n.consider(ctx, msg.Version)
}

// ControllerChanged implements ControllerObserver
func (n *UpdateNotifier) ControllerChanged(ctx context.Context, version offline.VersionTag) {
	if err := n.consider(ctx, version); err != nil {
		n.logger.Warn("controller change not handled", zap.String("version", string(version)), zap.Error(err))
	}
}

func (n *UpdateNotifier) consider(ctx context.Context, version offline.VersionTag) error {
	if version.IsZero() {
		return nil
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.board.Has(UpdatePromptID) {
		return nil
	}

	previous, err := n.record.Load(ctx)
	if err != nil {
		return fmt.Errorf("load version record: %w", err)
	}
	if previous.IsZero() {
		// Nothing to compare against yet.
		if err := n.record.Save(ctx, version); err != nil {
			return fmt.Errorf("save version record: %w", err)
		}
		return nil
	}
	if previous == version {
		return nil
	}

	p := Prompt{ID: UpdatePromptID, Previous: previous, Next: version}
	n.board.Show(p)
	n.prompt = &p
	n.logger.Info("update prompt shown",
		zap.String("previous", string(previous)),
		zap.String("next", string(version)))
	return nil
}

// Prompt returns the mounted prompt, if any
func (n *UpdateNotifier) Prompt() (Prompt, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.prompt == nil {
		return Prompt{}, false
	}
	return *n.prompt, true
}

// Later dismisses the prompt. The version record is left untouched, so the
// next activation notice prompts again.
func (n *UpdateNotifier) Later() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.board.Remove(UpdatePromptID)
	n.prompt = nil
}

// ReloadNow disables the reload action and triggers the reload. Repeated
// calls while a reload is underway do nothing.
func (n *UpdateNotifier) ReloadNow(ctx context.Context) error {
	n.mu.Lock()
	if n.prompt == nil || n.prompt.ReloadDisabled {
		n.mu.Unlock()
		return nil
	}
	n.prompt.ReloadDisabled = true
	n.board.Show(*n.prompt)
	n.mu.Unlock()

	if err := n.reload(ctx); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	return nil
}

// MemoryBoard is an in-memory PromptBoard.
type MemoryBoard struct {
	mu            sync.RWMutex
	elements      map[string]Prompt
	order         []string
	announcements []string
}

// NewMemoryBoard creates an empty board
func NewMemoryBoard() *MemoryBoard {
	return &MemoryBoard{elements: make(map[string]Prompt)}
}

// Has implements PromptBoard
func (b *MemoryBoard) Has(id string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.elements[id]
	return ok
}

// Show implements PromptBoard
func (b *MemoryBoard) Show(p Prompt) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.elements[p.ID]; !ok {
		b.order = append(b.order, p.ID)
	}
	b.elements[p.ID] = p
}

// Remove implements PromptBoard
func (b *MemoryBoard) Remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.elements[id]; !ok {
		return
	}
	delete(b.elements, id)
	for i, existing := range b.order {
		if existing == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Announce implements PromptBoard
func (b *MemoryBoard) Announce(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.announcements = append(b.announcements, text)
}

// Elements returns the mounted prompts in mount order
func (b *MemoryBoard) Elements() []Prompt {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Prompt, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.elements[id])
	}
	return out
}

// Announcements returns every announced line
func (b *MemoryBoard) Announcements() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.announcements...)
}

// MemoryVersionRecord keeps the version record in memory.
type MemoryVersionRecord struct {
	mu      sync.Mutex
	version offline.VersionTag
}

// Load implements VersionRecordStore
func (r *MemoryVersionRecord) Load(context.Context) (offline.VersionTag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.version, nil
}

// Save implements VersionRecordStore
func (r *MemoryVersionRecord) Save(_ context.Context, v offline.VersionTag) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.version = v
	return nil
}
