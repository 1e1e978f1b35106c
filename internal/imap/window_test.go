package imap

import (
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackfillSince(t *testing.T) {
	now := time.Date(2025, 7, 31, 12, 0, 0, 0, time.UTC)

	since := backfillSince(now, 30*24*time.Hour)
	assert.Equal(t, time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC), since)

	// Every requested message is dated on or after the cutoff, never before
	assert.False(t, since.Before(now.Add(-30*24*time.Hour)))

	since = backfillSince(now, 24*time.Hour)
	assert.Equal(t, now.Add(-24*time.Hour), since)
}

func TestFetchWindow(t *testing.T) {
	tests := []struct {
		name     string
		total    uint32
		n        uint32
		wantFrom uint32
		wantTo   uint32
	}{
		{"one new message", 100, 1, 100, 100},
		{"several new messages", 10, 3, 8, 10},
		{"count equals total", 5, 5, 1, 5},
		{"count exceeds total clamps to 1", 5, 10, 1, 5},
		{"single message mailbox", 1, 1, 1, 1},
		{"empty mailbox", 0, 1, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := fetchWindow(tt.total, tt.n)
			assert.Equal(t, tt.wantFrom, from)
			assert.Equal(t, tt.wantTo, to)
		})
	}
}

func mailboxUpdate(total uint32) *client.MailboxUpdate {
	return &client.MailboxUpdate{Mailbox: &imap.MailboxStatus{Messages: total}}
}

func TestPendingTotalNewMail(t *testing.T) {
	c := &Client{updates: make(chan client.Update, 4), lastTotal: 10}

	c.updates <- mailboxUpdate(12)
	total, ok := c.pendingTotal()
	require.True(t, ok)
	assert.Equal(t, uint32(12), total)
}

func TestPendingTotalEmpty(t *testing.T) {
	c := &Client{updates: make(chan client.Update, 4), lastTotal: 10}

	_, ok := c.pendingTotal()
	assert.False(t, ok)
	assert.Equal(t, uint32(10), c.lastTotal)
}

func TestPendingTotalExpungeLowersBaseline(t *testing.T) {
	// An expunge drained during a fetch must lower the baseline, or the
	// next arrival looks like churn and its message is never fetched.
	c := &Client{updates: make(chan client.Update, 4), lastTotal: 10}

	c.updates <- mailboxUpdate(8)
	_, ok := c.pendingTotal()
	assert.False(t, ok)
	assert.Equal(t, uint32(8), c.lastTotal)

	// The message that arrives after the expunge is new mail
	c.updates <- mailboxUpdate(9)
	total, ok := c.pendingTotal()
	require.True(t, ok)
	assert.Equal(t, uint32(9), total)
}

func TestPendingTotalExpungeThenArrivalInOneDrain(t *testing.T) {
	c := &Client{updates: make(chan client.Update, 4), lastTotal: 10}

	c.updates <- mailboxUpdate(8)
	c.updates <- mailboxUpdate(9)
	total, ok := c.pendingTotal()
	require.True(t, ok)
	assert.Equal(t, uint32(9), total)
	assert.Equal(t, uint32(8), c.lastTotal)
}
