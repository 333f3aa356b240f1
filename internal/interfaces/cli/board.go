package cli

import (
	"fmt"
	"io"
	"sync"

	appoffline "github.com/Erickgiber/debts-my-clients/internal/application/offline"
)

// TerminalBoard is a PromptBoard that prints prompts as lines. Showing the
// same prompt again only prints when it changed.
type TerminalBoard struct {
	mu      sync.Mutex
	w       io.Writer
	mounted map[string]appoffline.Prompt
}

// NewTerminalBoard creates a board writing to w
func NewTerminalBoard(w io.Writer) *TerminalBoard {
	return &TerminalBoard{w: w, mounted: make(map[string]appoffline.Prompt)}
}

// Has implements PromptBoard
func (b *TerminalBoard) Has(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.mounted[id]
	return ok
}

// Show implements PromptBoard
func (b *TerminalBoard) Show(p appoffline.Prompt) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if prev, ok := b.mounted[p.ID]; ok && prev == p {
		return
	}
	b.mounted[p.ID] = p
	if p.ReloadDisabled {
		_, _ = fmt.Fprintln(b.w, "Reloading...")
		return
	}
	_, _ = fmt.Fprintf(b.w, "%s  [r] reload  [l] later\n", p.Text())
}

// Remove implements PromptBoard
func (b *TerminalBoard) Remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.mounted, id)
}

// Announce implements PromptBoard
func (b *TerminalBoard) Announce(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, _ = fmt.Fprintln(b.w, text)
}
