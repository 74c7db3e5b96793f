// Package account is the host-side registry of bridged accounts. It keeps
// exactly one Session per connection context, runs each session's login
// and event pump on its own goroutine, and routes outgoing lines.
package account

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/soyeahso/imbridge/internal/bridge"
	"github.com/soyeahso/imbridge/internal/config"
	"github.com/soyeahso/imbridge/internal/domain"
	"github.com/soyeahso/imbridge/internal/hooks"
	"github.com/soyeahso/imbridge/internal/logging"
	"github.com/soyeahso/imbridge/internal/remote"
)

var (
	ErrDuplicateAccount = errors.New("account already registered")
	ErrUnknownAccount   = errors.New("unknown account")
	ErrAlreadyStarted   = errors.New("account already started")
)

// Account is one registered account and its session.
type Account struct {
	Config  config.AccountConfig
	Session *bridge.Session

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	lastErr error
}

// LastError returns the error that ended the account's login or pump, if any.
func (a *Account) LastError() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

func (a *Account) setErr(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastErr = err
}

// Option configures a Manager.
type Option func(*Manager)

// WithHooks emits message_sending events before each outgoing line.
func WithHooks(h *hooks.Manager) Option {
	return func(m *Manager) { m.hooks = h }
}

// WithSessionOptions sets the options every new session is built with.
func WithSessionOptions(opts bridge.Options) Option {
	return func(m *Manager) { m.opts = opts }
}

// Manager owns the registered accounts.
type Manager struct {
	mu       sync.RWMutex
	accounts map[string]*Account
	order    []string

	notify domain.Notifier
	opts   bridge.Options
	hooks  *hooks.Manager
	log    *logging.Logger
	wg     sync.WaitGroup
}

// NewManager creates a manager whose sessions report to notify.
func NewManager(notify domain.Notifier, log *logging.Logger, opts ...Option) *Manager {
	m := &Manager{
		accounts: make(map[string]*Account),
		notify:   notify,
		log:      log,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.Sub("accounts")
	return m
}

// Register binds client to a new session for acc.
func (m *Manager) Register(acc config.AccountConfig, client remote.Client) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[acc.ID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateAccount, acc.ID)
	}
	ic := &domain.ConnectionContext{AccountID: acc.ID, Protocol: acc.Protocol}
	a := &Account{
		Config:  acc,
		Session: bridge.New(ic, client, m.notify, m.opts, m.log),
	}
	m.accounts[acc.ID] = a
	m.order = append(m.order, acc.ID)
	m.log.Info().Str("account", acc.ID).Str("protocol", acc.Protocol).Msg("account registered")
	return a, nil
}

// Get returns an account by ID.
func (m *Manager) Get(id string) (*Account, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	return a, ok
}

// List returns account IDs in registration order.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...)
}

// Count returns the number of registered accounts.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.accounts)
}

// Start logs the account in and pumps its events on a background goroutine.
// Login failures are already reported through the notifier; they are also
// kept as the account's LastError.
func (m *Manager) Start(ctx context.Context, id string) error {
	a, ok := m.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, id)
	}

	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyStarted, id)
	}
	runCtx, cancel := context.WithCancel(ctx)
	a.started = true
	a.cancel = cancel
	a.mu.Unlock()

	m.log.Info().Str("account", id).Msg("starting account")
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancel()

		cfg := a.Config
		if err := a.Session.Login(runCtx, cfg.Username, cfg.Password, cfg.AuthCode); err != nil {
			if errors.Is(err, context.Canceled) {
				m.log.Info().Str("account", id).Msg("login abandoned")
				return
			}
			a.setErr(err)
			m.log.Warn().Err(err).Str("account", id).Msg("login failed")
			return
		}
		if err := a.Session.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			a.setErr(err)
			m.log.Error().Err(err).Str("account", id).Msg("event pump stopped")
		}
	}()
	return nil
}

// StartAll starts every registered account that is not disabled.
func (m *Manager) StartAll(ctx context.Context) error {
	var errs []error
	for _, id := range m.List() {
		a, _ := m.Get(id)
		if a.Config.Disabled {
			m.log.Info().Str("account", id).Msg("account disabled, not starting")
			continue
		}
		if err := m.Start(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SendMessage relays text to name through one account.
func (m *Manager) SendMessage(ctx context.Context, id, name, text string) error {
	a, ok := m.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, id)
	}
	if m.hooks != nil {
		m.hooks.Emit(ctx, hooks.Payload{
			Event:   hooks.EventMessageSending,
			Account: id,
			Data:    map[string]any{"to": name, "body": text},
		})
	}
	return a.Session.SendMessage(name, text)
}

// Route sends text through every connected account that has a buddy shown
// as name and returns how many accounts it went out on.
func (m *Manager) Route(ctx context.Context, name, text string) (int, error) {
	sent := 0
	var errs []error
	for _, id := range m.List() {
		a, _ := m.Get(id)
		if !a.Session.HasBuddy(name) {
			continue
		}
		if err := m.SendMessage(ctx, id, name, text); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}

// Logout ends the account's session and stops its pump.
func (m *Manager) Logout(id string) error {
	a, ok := m.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, id)
	}
	// Cancel first so a login stuck waiting on the network gives up the
	// session lock.
	a.mu.Lock()
	cancel := a.cancel
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	a.Session.Logout()
	return nil
}

// StopAll logs every account out and waits for the pumps to exit.
func (m *Manager) StopAll() {
	for _, id := range m.List() {
		m.log.Info().Str("account", id).Msg("stopping account")
		if err := m.Logout(id); err != nil {
			m.log.Error().Err(err).Str("account", id).Msg("failed to stop account")
		}
	}
	m.wg.Wait()
}

// Wait blocks until every started account's goroutine has exited.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Status reports every account in registration order.
func (m *Manager) Status() []domain.AccountStatus {
	ids := m.List()
	statuses := make([]domain.AccountStatus, 0, len(ids))
	for _, id := range ids {
		a, _ := m.Get(id)
		state := a.Session.State()
		statuses = append(statuses, domain.AccountStatus{
			AccountID: id,
			Protocol:  a.Config.Protocol,
			State:     state.String(),
			Connected: state == bridge.Connected,
			Buddies:   len(a.Session.Roster()),
		})
	}
	return statuses
}
