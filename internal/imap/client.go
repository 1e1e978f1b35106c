// Package imap maintains one live IMAP session per configured account. Each
// client connects, backfills the recent history of its INBOX, then listens
// for new mail and pushes every parsed message into the shared ingestion
// queue.
package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"sync/atomic"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"github.com/oneboxhq/onebox/internal/mailparse"
	"github.com/oneboxhq/onebox/pkg/models"
)

// State is the lifecycle phase of one mailbox connection.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateBackfilling
	StateListening
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateBackfilling:
		return "backfilling"
	case StateListening:
		return "listening"
	default:
		return "disconnected"
	}
}

// Sink receives parsed messages. The ingestion queue implements it; Enqueue
// never blocks, so a slow pipeline can never stall a mailbox connection.
type Sink interface {
	Enqueue(msg *models.Message, accountID string)
}

// ClientConfig configures one mailbox connection.
type ClientConfig struct {
	Account           models.Account
	BackfillWindow    time.Duration // how far back the initial fetch reaches
	DialTimeout       time.Duration
	ReconnectAttempts int // 0 leaves the account un-ingested after a failure
}

// Client owns the IMAP session for a single account.
type Client struct {
	cfg    ClientConfig
	sink   Sink
	logger *slog.Logger

	cli       *client.Client
	updates   chan client.Update
	state     atomic.Int32
	lastTotal uint32 // message count in INBOX as of the last fetch
}

// NewClient creates a mailbox connection that pushes parsed messages into
// sink under the account's identifier.
func NewClient(cfg ClientConfig, sink Sink, logger *slog.Logger) *Client {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 30 * time.Second
	}
	if cfg.BackfillWindow == 0 {
		cfg.BackfillWindow = 30 * 24 * time.Hour
	}
	return &Client{
		cfg:    cfg,
		sink:   sink,
		logger: logger.With("account", cfg.Account.ID),
	}
}

// State returns the connection's current lifecycle phase.
func (c *Client) State() State {
	return State(c.state.Load())
}

// Run drives the connection through connect, backfill and listen. It returns
// when the context is cancelled or the reconnect budget is exhausted; a
// failed account is logged and stays un-ingested for the rest of the run.
func (c *Client) Run(ctx context.Context) {
	defer c.state.Store(int32(StateDisconnected))

	backoff := 5 * time.Second
	for attempt := 0; ; attempt++ {
		err := c.session(ctx)
		if err == nil || ctx.Err() != nil {
			return
		}

		if attempt >= c.cfg.ReconnectAttempts {
			c.logger.Error("mailbox connection failed permanently", "error", err, "attempts", attempt+1)
			return
		}

		c.logger.Warn("mailbox connection lost, reconnecting", "error", err, "backoff", backoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 2*time.Minute {
			backoff *= 2
		}
	}
}

// session runs one full connect → backfill → listen cycle.
func (c *Client) session(ctx context.Context) error {
	c.state.Store(int32(StateConnecting))
	if err := c.connect(); err != nil {
		return err
	}
	defer c.disconnect()

	mbox, err := c.cli.Select("INBOX", false)
	if err != nil {
		return fmt.Errorf("failed to select INBOX: %w", err)
	}
	c.lastTotal = mbox.Messages
	c.logger.Info("INBOX selected", "total", mbox.Messages)

	c.state.Store(int32(StateBackfilling))
	if err := c.backfill(ctx); err != nil {
		return err
	}

	c.state.Store(int32(StateListening))
	return c.listen(ctx)
}

func (c *Client) connect() error {
	addr := fmt.Sprintf("%s:%d", c.cfg.Account.Host, c.cfg.Account.Port)
	c.logger.Info("connecting to IMAP server", "server", addr)

	var (
		cli *client.Client
		err error
	)
	dialer := &net.Dialer{Timeout: c.cfg.DialTimeout}
	if c.cfg.Account.TLS {
		var conn *tls.Conn
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, nil)
		if err == nil {
			cli, err = client.New(conn)
		}
	} else {
		cli, err = client.Dial(addr)
	}
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	if err := cli.Login(c.cfg.Account.User, c.cfg.Account.Password); err != nil {
		cli.Logout()
		return fmt.Errorf("failed to login: %w", err)
	}

	// Buffered so unilateral updates arriving outside IDLE don't block
	// the connection's reader goroutine.
	c.updates = make(chan client.Update, 64)
	cli.Updates = c.updates
	c.cli = cli
	c.logger.Info("connected to IMAP server")
	return nil
}

func (c *Client) disconnect() {
	if c.cli == nil {
		return
	}
	cli := c.cli
	c.cli = nil

	done := make(chan struct{})
	go func() {
		cli.Logout()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		cli.Terminate()
	}
}

// backfill fetches every message dated on or after now minus the backfill
// window and forwards them in ascending sequence order.
func (c *Client) backfill(ctx context.Context) error {
	cutoff := backfillSince(time.Now(), c.cfg.BackfillWindow)

	criteria := imap.NewSearchCriteria()
	criteria.Since = cutoff
	seqnums, err := c.cli.Search(criteria)
	if err != nil {
		return fmt.Errorf("failed to search INBOX: %w", err)
	}

	if len(seqnums) == 0 {
		c.logger.Info("no messages within backfill window")
		return nil
	}
	sort.Slice(seqnums, func(i, j int) bool { return seqnums[i] < seqnums[j] })

	c.logger.Info("backfilling messages", "count", len(seqnums), "since", cutoff.Format(time.DateOnly))

	seqset := new(imap.SeqSet)
	seqset.AddNum(seqnums...)
	if err := c.fetchAndEnqueue(ctx, seqset); err != nil {
		return fmt.Errorf("backfill fetch failed: %w", err)
	}

	c.logger.Info("backfill complete")
	return nil
}

// listen idles on the mailbox and fetches exactly the new messages each
// EXISTS notification announces.
func (c *Client) listen(ctx context.Context) error {
	c.logger.Info("listening for new mail")

	for {
		total, err := c.awaitNewMail(ctx)
		if err != nil || ctx.Err() != nil {
			return err
		}

		// The count of new messages follows from the total reported by
		// the notification itself, never from a cached status; reading
		// it late would miss messages under concurrent arrivals.
		n := total - c.lastTotal
		from, to := fetchWindow(total, n)

		c.logger.Info("new mail notification", "new", n, "total", total, "range_from", from, "range_to", to)

		seqset := new(imap.SeqSet)
		seqset.AddRange(from, to)
		if err := c.fetchAndEnqueue(ctx, seqset); err != nil {
			c.logger.Error("failed to fetch new messages", "error", err)
		}
		c.lastTotal = total
	}
}

// awaitNewMail blocks in IDLE until the mailbox grows, returning the new
// total message count.
func (c *Client) awaitNewMail(ctx context.Context) (uint32, error) {
	// A notification may already have arrived while a fetch was running.
	if total, ok := c.pendingTotal(); ok {
		return total, nil
	}

	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- c.cli.Idle(stop, nil)
	}()

	for {
		select {
		case <-ctx.Done():
			close(stop)
			<-done
			return 0, nil
		case err := <-done:
			if err == nil {
				err = fmt.Errorf("idle terminated")
			}
			return 0, fmt.Errorf("idle failed: %w", err)
		case upd := <-c.updates:
			mbox, ok := upd.(*client.MailboxUpdate)
			if !ok {
				continue
			}
			total := mbox.Mailbox.Messages
			if total <= c.lastTotal {
				// Expunge or flag churn, not new mail.
				c.lastTotal = total
				continue
			}
			close(stop)
			<-done
			return total, nil
		}
	}
}

// pendingTotal drains buffered updates and reports the highest message count
// seen, if any exceeded the last known total.
func (c *Client) pendingTotal() (uint32, bool) {
	var total uint32
	for {
		select {
		case upd := <-c.updates:
			mbox, ok := upd.(*client.MailboxUpdate)
			if !ok {
				continue
			}
			t := mbox.Mailbox.Messages
			if t < c.lastTotal {
				// Mailbox shrank while a fetch was running; without
				// lowering the baseline the next arrival would look
				// like churn and its message would never be fetched.
				c.lastTotal = t
			}
			if t > total {
				total = t
			}
		default:
			if total > c.lastTotal {
				return total, true
			}
			return 0, false
		}
	}
}

// fetchAndEnqueue fetches full raw messages for seqset, parses each and
// pushes it into the sink. Unparseable messages are logged and dropped.
func (c *Client) fetchAndEnqueue(ctx context.Context, seqset *imap.SeqSet) error {
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem()}

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.cli.Fetch(seqset, items, messages)
	}()

	for raw := range messages {
		if ctx.Err() != nil {
			continue // drain the channel so the fetch goroutine exits
		}

		body := raw.GetBody(section)
		if body == nil {
			c.logger.Warn("message has no body section", "seqnum", raw.SeqNum)
			continue
		}

		msg, err := mailparse.Parse(body)
		if err != nil {
			c.logger.Warn("failed to parse message, dropping", "seqnum", raw.SeqNum, "error", err)
			continue
		}
		msg.AccountID = c.cfg.Account.ID
		msg.SeqNum = raw.SeqNum

		c.sink.Enqueue(msg, c.cfg.Account.ID)
	}

	if err := <-done; err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}
	return ctx.Err()
}
