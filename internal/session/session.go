// Package session owns the bearer-token lifecycle: restoring a persisted
// credential, validating a new one at login, and clearing it at logout.
// Exactly one Manager exists per process; the API client reads the current
// token from it on every call.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/buzzheavier/buzzheavier-go/internal/api"
)

// TokenKey is the single key under which the credential is persisted.
const TokenKey = "auth_token"

// ErrInvalidCredential is returned by Login for a blank credential or one
// the server rejects.
var ErrInvalidCredential = errors.New("session: invalid credential")

// Store is durable key-value persistence for the credential. Get returns
// an empty string when the key is absent; Remove of an absent key is a
// no-op.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}

// AccountFetcher validates a credential by fetching the account it
// belongs to. Implemented by *api.Client.
type AccountFetcher interface {
	Account(ctx context.Context) (*api.Account, error)
}

// Manager owns the current bearer token. The token is only ever read or
// replaced under the mutex, so readers never observe a half-written value.
// Manager implements api.TokenSource.
type Manager struct {
	store  Store
	logger *slog.Logger

	mu       sync.RWMutex
	token    string
	accounts AccountFetcher
}

// New creates a Manager with no active session.
func New(store Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		store:  store,
		logger: logger,
	}
}

// SetAccountFetcher wires the API client used to validate credentials
// during Login. Called once at startup, after the client (which reads
// tokens from this manager) has been constructed.
func (m *Manager) SetAccountFetcher(accounts AccountFetcher) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.accounts = accounts
}

// Token returns the active bearer token, or an empty string when no
// session is active. Pure accessor, no I/O.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.token
}

// Restore activates a previously persisted token, if any, and reports
// whether a session was restored. The token is not validated against the
// server.
func (m *Manager) Restore() (bool, error) {
	tok, err := m.store.Get(TokenKey)
	if err != nil {
		return false, fmt.Errorf("session: restoring token: %w", err)
	}

	if tok == "" {
		m.logger.Debug("no persisted session")

		return false, nil
	}

	m.setToken(tok)
	m.logger.Info("session restored")

	return true, nil
}

// Login activates credential as the bearer token and validates it by
// fetching the account. The token is persisted before validation so a
// retried account fetch can reuse it; on any failure it is erased from
// both memory and the Store — a known-invalid token is never left active.
//
// Rejected credentials wrap ErrInvalidCredential; transport failures pass
// the api error through (check with errors.Is(err, api.ErrNetwork)).
func (m *Manager) Login(ctx context.Context, credential string) (*api.Account, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, fmt.Errorf("%w: credential is blank", ErrInvalidCredential)
	}

	m.mu.RLock()
	accounts := m.accounts
	m.mu.RUnlock()

	// Wiring error, not a credential problem: nothing has been persisted
	// yet, so fail before touching any state.
	if accounts == nil {
		return nil, errors.New("session: account fetcher not configured")
	}

	m.setToken(credential)

	if err := m.store.Set(TokenKey, credential); err != nil {
		m.setToken("")

		return nil, fmt.Errorf("session: persisting token: %w", err)
	}

	acct, err := accounts.Account(ctx)
	if err != nil {
		if clearErr := m.clear(); clearErr != nil {
			m.logger.Warn("clearing token after failed login",
				slog.String("error", clearErr.Error()),
			)
		}

		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			m.logger.Info("login rejected",
				slog.Int("status", apiErr.StatusCode),
			)

			return nil, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
		}

		m.logger.Warn("login failed",
			slog.String("error", err.Error()),
		)

		return nil, fmt.Errorf("session: validating credential: %w", err)
	}

	m.logger.Info("login successful",
		slog.String("account_id", acct.ID),
	)

	return acct, nil
}

// Logout clears the in-memory token and deletes it from the Store.
// Idempotent.
func (m *Manager) Logout() error {
	if err := m.clear(); err != nil {
		return err
	}

	m.logger.Info("logged out")

	return nil
}

func (m *Manager) setToken(tok string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = tok
}

func (m *Manager) clear() error {
	m.setToken("")

	if err := m.store.Remove(TokenKey); err != nil {
		return fmt.Errorf("session: removing persisted token: %w", err)
	}

	return nil
}
