package imap

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oneboxhq/onebox/pkg/models"
)

// ManagerConfig holds the settings shared by every mailbox connection.
type ManagerConfig struct {
	BackfillWindow    time.Duration
	DialTimeout       time.Duration
	ReconnectAttempts int
}

// Manager owns one Client per configured account. All clients run
// concurrently and feed the same sink.
type Manager struct {
	cfg    ManagerConfig
	sink   Sink
	logger *slog.Logger

	mu      sync.Mutex
	clients map[string]*Client
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager creates a manager for the given shared settings.
func NewManager(cfg ManagerConfig, sink Sink, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:     cfg,
		sink:    sink,
		logger:  logger.With("component", "imap_manager"),
		clients: make(map[string]*Client),
	}
}

// Start launches one connection per account. Each runs independently; a
// failing account never affects the others.
func (m *Manager) Start(ctx context.Context, accounts []models.Account) {
	ctx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	m.cancel = cancel
	for _, account := range accounts {
		if _, exists := m.clients[account.ID]; exists {
			continue
		}

		c := NewClient(ClientConfig{
			Account:           account,
			BackfillWindow:    m.cfg.BackfillWindow,
			DialTimeout:       m.cfg.DialTimeout,
			ReconnectAttempts: m.cfg.ReconnectAttempts,
		}, m.sink, m.logger)
		m.clients[account.ID] = c

		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			c.Run(ctx)
		}()
	}
	count := len(m.clients)
	m.mu.Unlock()

	m.logger.Info("started mailbox connections", "count", count)
}

// Status reports the lifecycle phase of every account's connection.
func (m *Manager) Status() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := make(map[string]string, len(m.clients))
	for id, c := range m.clients {
		status[id] = c.State().String()
	}
	return status
}

// Stop closes every session and waits for the connection goroutines to
// finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
	m.logger.Info("all mailbox connections stopped")
}
