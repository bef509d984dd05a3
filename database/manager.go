package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tripmind/config"

	"github.com/cenkalti/backoff/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// State is the lifecycle of the MongoDB connection.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
	Failed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

const pingTimeout = 5 * time.Second

// RetryPolicy bounds the connection attempts made by Run. MaxRetries counts
// retries after the first attempt.
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialDelay
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.MaxInterval = p.MaxDelay
	if b.MaxInterval <= 0 {
		b.MaxInterval = backoff.DefaultMaxInterval
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.MaxRetries)), ctx)
}

// Status is a point-in-time snapshot of the manager.
type Status struct {
	State     State
	Attempts  int
	LastError error
}

// Hook runs once the connection is established.
type Hook func(ctx context.Context, db *mongo.Database) error

// Manager owns the client and drives it from Disconnected to Connected or
// Failed. Requests never wait on it; they check State and bail out.
type Manager struct {
	client *mongo.Client
	db     *mongo.Database
	policy RetryPolicy
	log    *slog.Logger
	ping   func(ctx context.Context) error

	mu       sync.RWMutex
	state    State
	attempts int
	lastErr  error
	hooks    []Hook
}

// NewManager builds the client without touching the network. Only a
// malformed URI fails here.
func NewManager(cfg config.MongoConfig, log *slog.Logger) (*Manager, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(pingTimeout)
	client, err := mongo.Connect(context.Background(), opts)
	if err != nil {
		return nil, fmt.Errorf("mongo client: %w", err)
	}

	m := newManager(client.Database(cfg.Database), RetryPolicy{
		MaxRetries:   cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		Multiplier:   cfg.RetryMultiplier,
		MaxDelay:     cfg.RetryMaxDelay,
	}, log)
	m.client = client
	m.ping = func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	}
	return m, nil
}

func newManager(db *mongo.Database, policy RetryPolicy, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{db: db, policy: policy, log: log, state: Disconnected}
}

// OnConnected registers a hook. Hook errors are logged, not fatal.
func (m *Manager) OnConnected(h Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, h)
}

// Database returns the handle repositories are built on. It is usable
// before the connection is up; callers gate on State.
func (m *Manager) Database() *mongo.Database { return m.db }

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Ready reports whether requests may use the database.
func (m *Manager) Ready() bool { return m.State() == Connected }

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Status{State: m.state, Attempts: m.attempts, LastError: m.lastErr}
}

// Run pings until the server answers or the retry budget is spent. It
// blocks, so callers usually start it in a goroutine.
func (m *Manager) Run(ctx context.Context) error {
	m.mu.Lock()
	if m.state == Connecting || m.state == Connected {
		m.mu.Unlock()
		return errors.New("database: already running")
	}
	m.state = Connecting
	m.attempts = 0
	m.lastErr = nil
	m.mu.Unlock()

	m.log.Info("connecting to MongoDB", "max_retries", m.policy.MaxRetries)

	op := func() error {
		m.mu.Lock()
		m.attempts++
		m.mu.Unlock()

		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		err := m.ping(pctx)

		m.mu.Lock()
		m.lastErr = err
		m.mu.Unlock()
		return err
	}
	notify := func(err error, wait time.Duration) {
		m.log.Warn("MongoDB connection attempt failed", "err", err, "retry_in", wait)
	}

	if err := backoff.RetryNotify(op, m.policy.backOff(ctx), notify); err != nil {
		m.mu.Lock()
		m.state = Failed
		m.lastErr = err
		attempts := m.attempts
		m.mu.Unlock()
		m.log.Error("could not connect to MongoDB, continuing without database", "attempts", attempts, "err", err)
		return err
	}

	m.mu.Lock()
	m.state = Connected
	hooks := append([]Hook(nil), m.hooks...)
	m.mu.Unlock()
	m.log.Info("MongoDB connected")

	for _, h := range hooks {
		if err := h(ctx, m.db); err != nil {
			m.log.Error("post-connect hook failed", "err", err)
		}
	}
	return nil
}

// Disconnect closes the client and returns to Disconnected.
func (m *Manager) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	m.state = Disconnected
	m.mu.Unlock()

	if m.client == nil {
		return nil
	}
	if err := m.client.Disconnect(ctx); err != nil {
		return err
	}
	m.log.Info("disconnected from MongoDB")
	return nil
}
