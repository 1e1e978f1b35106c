// Package pipeline owns the global ordered ingestion queue and its single
// worker. Every mailbox connection feeds the same queue; the worker drains it
// in strict FIFO order, classifying, indexing and (for high-value hits)
// notifying, one entry at a time.
package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oneboxhq/onebox/internal/classifier"
	"github.com/oneboxhq/onebox/internal/index"
	"github.com/oneboxhq/onebox/internal/notify"
	"github.com/oneboxhq/onebox/pkg/models"
)

// itemTimeout bounds the index and notification calls for one entry.
const itemTimeout = 30 * time.Second

// Entry is one queued unit of work.
type Entry struct {
	Message   *models.Message
	AccountID string
}

// Queue is an unbounded FIFO buffer with exactly one active worker.
// Producers never block and never fail; enqueueing while no worker runs
// starts one.
type Queue struct {
	store     index.Store
	notifiers []notify.Notifier
	pacer     Pacer
	logger    *slog.Logger

	mu      sync.Mutex
	entries []Entry
	running bool
}

// NewQueue creates the ingestion queue.
func NewQueue(store index.Store, notifiers []notify.Notifier, pacer Pacer, logger *slog.Logger) *Queue {
	return &Queue{
		store:     store,
		notifiers: notifiers,
		pacer:     pacer,
		logger:    logger.With("component", "pipeline"),
	}
}

// Enqueue appends a message to the tail and starts the worker if none is
// active. It never blocks and never fails.
func (q *Queue) Enqueue(msg *models.Message, accountID string) {
	q.mu.Lock()
	q.entries = append(q.entries, Entry{Message: msg, AccountID: accountID})
	start := !q.running
	if start {
		q.running = true
	}
	q.mu.Unlock()

	if start {
		go q.drain()
	}
}

// Len returns the number of entries waiting in the queue.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// drain is the single worker loop. At most one instance runs at a time,
// guarded by the running flag.
func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if len(q.entries) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		entry := q.entries[0]
		q.entries = q.entries[1:]
		q.mu.Unlock()

		q.process(entry)

		// Conservative pacing for the rate-limited classification step.
		if err := q.pacer.Wait(context.Background()); err != nil {
			q.logger.Warn("pacer interrupted", "error", err)
		}
	}
}

// process classifies, indexes and (for Interested messages) notifies. A
// failure for one entry is logged and never stops the queue.
func (q *Queue) process(entry Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), itemTimeout)
	defer cancel()

	msg := entry.Message
	category := classifier.Classify(msg.Subject, msg.BodyText)

	doc := &models.Document{
		MessageID: msg.MessageID,
		AccountID: entry.AccountID,
		Category:  category,
		Subject:   msg.Subject,
		FromName:  msg.From.Name,
		FromAddr:  msg.From.Address,
		ToAddrs:   joinAddresses(msg.To),
		Date:      msg.Date,
		BodyText:  msg.BodyText,
		BodyHTML:  msg.BodyHTML,
	}

	log := q.logger.With("account", entry.AccountID, "message_id", msg.MessageID)

	if err := q.store.Upsert(ctx, doc); err != nil {
		log.Error("failed to index message", "error", err)
		return
	}
	log.Info("indexed message", "subject", msg.Subject, "category", category)

	if category != models.CategoryInterested {
		return
	}
	for _, n := range q.notifiers {
		if err := n.Notify(ctx, doc); err != nil {
			log.Warn("notification failed", "error", err)
		}
	}
}

// Drain blocks until the queue is empty and the worker has stopped, or the
// context expires. Used for graceful shutdown after producers have stopped.
func (q *Queue) Drain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		q.mu.Lock()
		idle := !q.running && len(q.entries) == 0
		q.mu.Unlock()
		if idle {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func joinAddresses(addrs []models.Address) string {
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		parts = append(parts, a.Address)
	}
	return strings.Join(parts, ", ")
}
