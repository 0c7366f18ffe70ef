// Package hub fans stored notifications out to live-inbox connections,
// optionally relaying them through Redis so every API instance delivers
// the same stream.
package hub

import (
	"context"
	"sync"
	"sync/atomic"

	"complaints/backend/internal/logging"
	"complaints/backend/internal/metrics"
	"complaints/backend/internal/models"

	"github.com/sirupsen/logrus"
)

// Relay distributes notifications between instances.
type Relay interface {
	Publish(ctx context.Context, n models.Notification) error
	// Subscribe streams every published notification until ctx ends.
	Subscribe(ctx context.Context) (<-chan models.Notification, error)
}

// Manager owns the set of connected clients. All membership changes and
// deliveries happen on the Run goroutine.
type Manager struct {
	RegisterCh   chan Client
	UnregisterCh chan Client

	broadcastCh chan models.Notification
	done        chan struct{}
	relay       Relay
	relayed     atomic.Bool
	log         *logrus.Entry

	mu      sync.RWMutex
	clients map[Client]bool
}

func NewManager(relay Relay, logger *logrus.Logger) *Manager {
	return &Manager{
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		broadcastCh:  make(chan models.Notification, 256),
		done:         make(chan struct{}),
		relay:        relay,
		log:          logging.Component(logger, "hub"),
		clients:      make(map[Client]bool),
	}
}

// Publish hands n to the relay, or straight to local clients when no relay
// is configured or the relay fails.
func (m *Manager) Publish(n models.Notification) {
	if m.relayed.Load() {
		err := m.relay.Publish(context.Background(), n)
		if err == nil {
			return
		}
		m.log.WithError(err).WithField("notification_id", n.ID).Warn("Relay publish failed, delivering locally")
	}
	m.enqueue(n)
}

func (m *Manager) enqueue(n models.Notification) {
	select {
	case m.broadcastCh <- n:
	default:
		m.log.WithField("notification_id", n.ID).Warn("Broadcast queue full, dropping notification")
	}
}

// Register adds c once Run picks it up.
func (m *Manager) Register(c Client) {
	select {
	case m.RegisterCh <- c:
	case <-m.done:
		c.Close()
	}
}

// Unregister removes c. It never blocks after Run has returned.
func (m *Manager) Unregister(c Client) {
	select {
	case m.UnregisterCh <- c:
	case <-m.done:
	}
}

// ClientCount returns the number of connected clients.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// Run processes registrations and deliveries until ctx ends.
func (m *Manager) Run(ctx context.Context) {
	defer close(m.done)
	if m.relay != nil {
		m.startRelayListener(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			m.mu.Lock()
			for c := range m.clients {
				c.Close()
				delete(m.clients, c)
			}
			m.mu.Unlock()
			metrics.SetLiveClients(0)
			return

		case c := <-m.RegisterCh:
			m.mu.Lock()
			m.clients[c] = true
			n := len(m.clients)
			m.mu.Unlock()
			metrics.SetLiveClients(n)
			m.log.WithField("user_id", c.GetUserID()).Debug("Client registered")

		case c := <-m.UnregisterCh:
			m.remove(c)

		case n := <-m.broadcastCh:
			m.deliver(n)
		}
	}
}

func (m *Manager) deliver(n models.Notification) {
	m.mu.RLock()
	var slow []Client
	for c := range m.clients {
		select {
		case c.GetSendChannel() <- n:
		default:
			slow = append(slow, c)
		}
	}
	m.mu.RUnlock()

	for _, c := range slow {
		m.log.WithField("user_id", c.GetUserID()).Warn("Dropping slow client")
		m.remove(c)
	}
}

func (m *Manager) remove(c Client) {
	m.mu.Lock()
	_, ok := m.clients[c]
	if ok {
		delete(m.clients, c)
	}
	n := len(m.clients)
	m.mu.Unlock()

	if ok {
		c.Close()
		metrics.SetLiveClients(n)
		m.log.WithField("user_id", c.GetUserID()).Debug("Client unregistered")
	}
}

func (m *Manager) startRelayListener(ctx context.Context) {
	ch, err := m.relay.Subscribe(ctx)
	if err != nil {
		m.log.WithError(err).Error("Failed to subscribe to relay, delivering locally only")
		return
	}
	m.relayed.Store(true)
	go func() {
		for n := range ch {
			m.enqueue(n)
		}
	}()
}
