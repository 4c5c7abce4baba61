package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faturroziq/bot-atechh/internal/domain/notification"
)

func TestReminderLedger_MarkSent(t *testing.T) {
	ledger := NewReminderLedger()
	ctx := context.Background()

	key := notification.LedgerKey(notification.KindClassAlert, "Kalkulus@08:00", time.Now())

	first, err := ledger.MarkSent(ctx, key)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := ledger.MarkSent(ctx, key)
	require.NoError(t, err)
	assert.False(t, second, "same key must only fire once")

	other, err := ledger.MarkSent(ctx, key+"x")
	require.NoError(t, err)
	assert.True(t, other)
}

func TestReminderLedger_ExpiresOldMarks(t *testing.T) {
	ledger := NewReminderLedger()
	ctx := context.Background()

	now := time.Now()
	ledger.nowFunc = func() time.Time { return now }

	first, err := ledger.MarkSent(ctx, "k")
	require.NoError(t, err)
	assert.True(t, first)

	// Day rolls over: the same key fires again.
	ledger.nowFunc = func() time.Time { return now.Add(26 * time.Hour) }

	again, err := ledger.MarkSent(ctx, "k")
	require.NoError(t, err)
	assert.True(t, again)
}

func TestChatDirectory(t *testing.T) {
	dir := NewChatDirectory()
	ctx := context.Background()

	require.NoError(t, dir.Register(ctx, "b@g.us"))
	require.NoError(t, dir.Register(ctx, "a@g.us"))
	require.NoError(t, dir.Register(ctx, "b@g.us")) // duplicate
	require.NoError(t, dir.Register(ctx, ""))       // ignored

	chats, err := dir.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@g.us", "b@g.us"}, chats)

	// Snapshot is a copy: mutating it does not affect the directory.
	chats[0] = "mutated"
	again, err := dir.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@g.us", "b@g.us"}, again)
}
