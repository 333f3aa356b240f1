package offline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotifier(t *testing.T, recorded offline.VersionTag) (*UpdateNotifier, *MemoryBoard, *MemoryVersionRecord, *atomic.Int32) {
	t.Helper()
	record := &MemoryVersionRecord{}
	require.NoError(t, record.Save(context.Background(), recorded))
	board := NewMemoryBoard()
	var reloads atomic.Int32
	n := NewUpdateNotifier(record, board, func(context.Context) error {
		reloads.Add(1)
		return nil
	})
	return n, board, record, &reloads
}

func TestUpdateNotifier_ShowsPrompt(t *testing.T) {
	n, board, _, _ := newTestNotifier(t, "v1")

	require.NoError(t, n.HandleMessage(context.Background(), offline.Activated("v2")))

	elements := board.Elements()
	require.Len(t, elements, 1)
	assert.Equal(t, UpdatePromptID, elements[0].ID)
	assert.Equal(t, "New version available: v1 → v2", elements[0].Text())
	assert.False(t, elements[0].ReloadDisabled)
}

func TestUpdateNotifier_Idempotent(t *testing.T) {
	ctx := context.Background()
	n, board, _, _ := newTestNotifier(t, "v1")

	require.NoError(t, n.HandleMessage(ctx, offline.Activated("v2")))
	require.NoError(t, n.HandleMessage(ctx, offline.Activated("v2")))
	n.ControllerChanged(ctx, "v3")

	elements := board.Elements()
	require.Len(t, elements, 1)
	assert.Equal(t, offline.VersionTag("v2"), elements[0].Next)
}

func TestUpdateNotifier_SameVersionIsQuiet(t *testing.T) {
	n, board, _, _ := newTestNotifier(t, "v1")

	require.NoError(t, n.HandleMessage(context.Background(), offline.Activated("v1")))

	assert.Empty(t, board.Elements())
}

func TestUpdateNotifier_EmptyRecord(t *testing.T) {
	ctx := context.Background()
	n, board, record, _ := newTestNotifier(t, "")

	require.NoError(t, n.HandleMessage(ctx, offline.Activated("v1")))

	assert.Empty(t, board.Elements())
	got, _ := record.Load(ctx)
	assert.Equal(t, offline.VersionTag("v1"), got)
}

func TestUpdateNotifier_IgnoresOtherMessages(t *testing.T) {
	n, board, _, _ := newTestNotifier(t, "v1")

	require.NoError(t, n.PostMessage(context.Background(), offline.SkipWaiting()))
	require.NoError(t, n.PostMessage(context.Background(), offline.Message{Type: "PING", Version: "v9"}))

	assert.Empty(t, board.Elements())
}

func TestUpdateNotifier_Later(t *testing.T) {
	ctx := context.Background()
	n, board, record, reloads := newTestNotifier(t, "v1")
	require.NoError(t, n.HandleMessage(ctx, offline.Activated("v2")))

	n.Later()

	assert.Empty(t, board.Elements())
	_, ok := n.Prompt()
	assert.False(t, ok)
	got, _ := record.Load(ctx)
	assert.Equal(t, offline.VersionTag("v1"), got, "record untouched")
	assert.Zero(t, reloads.Load())

	require.NoError(t, n.HandleMessage(ctx, offline.Activated("v2")))
	assert.Len(t, board.Elements(), 1, "prompts again after dismissal")
}

func TestUpdateNotifier_ReloadNow(t *testing.T) {
	ctx := context.Background()
	n, board, _, reloads := newTestNotifier(t, "v1")
	require.NoError(t, n.HandleMessage(ctx, offline.Activated("v2")))

	require.NoError(t, n.ReloadNow(ctx))
	require.NoError(t, n.ReloadNow(ctx))

	assert.Equal(t, int32(1), reloads.Load())
	elements := board.Elements()
	require.Len(t, elements, 1)
	assert.True(t, elements[0].ReloadDisabled)
}

func TestUpdateNotifier_ReloadWithoutPrompt(t *testing.T) {
	n, _, _, reloads := newTestNotifier(t, "v1")

	require.NoError(t, n.ReloadNow(context.Background()))
	assert.Zero(t, reloads.Load())
}

func TestUpdateNotifier_ReloadError(t *testing.T) {
	record := &MemoryVersionRecord{}
	require.NoError(t, record.Save(context.Background(), "v1"))
	n := NewUpdateNotifier(record, NewMemoryBoard(), func(context.Context) error {
		return errors.New("window closed")
	})
	require.NoError(t, n.HandleMessage(context.Background(), offline.Activated("v2")))

	assert.ErrorContains(t, n.ReloadNow(context.Background()), "window closed")
}

func TestUpdateNotifier_AsRegistryClient(t *testing.T) {
	ctx := context.Background()
	n, board, _, _ := newTestNotifier(t, "v1")
	r := newTestRegistry(t, newFakeStorage(), newFakeFetcher(offline.DefaultManifest()...), offline.PolicyEager)
	r.Connect(n)

	_, err := r.Register(ctx, "v2")
	require.NoError(t, err)

	// Both the controller change and the broadcast reach the notifier.
	elements := board.Elements()
	require.Len(t, elements, 1)
	assert.Equal(t, "New version available: v1 → v2", elements[0].Text())
}
