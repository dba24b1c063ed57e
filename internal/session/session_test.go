package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buzzheavier/buzzheavier-go/internal/api"
)

// fakeStore is an in-memory Store that records the order of operations.
type fakeStore struct {
	values map[string]string
	ops    []string

	setErr    error
	removeErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}}
}

func (s *fakeStore) Get(key string) (string, error) {
	s.ops = append(s.ops, "get")

	return s.values[key], nil
}

func (s *fakeStore) Set(key, value string) error {
	s.ops = append(s.ops, "set")

	if s.setErr != nil {
		return s.setErr
	}

	s.values[key] = value

	return nil
}

func (s *fakeStore) Remove(key string) error {
	s.ops = append(s.ops, "remove")

	if s.removeErr != nil {
		return s.removeErr
	}

	delete(s.values, key)

	return nil
}

// fakeAccounts validates credentials by consulting the manager's current
// token, like the real API client does.
type fakeAccounts struct {
	mgr  *Manager
	ops  *[]string
	err  error
	seen []string
}

func (f *fakeAccounts) Account(_ context.Context) (*api.Account, error) {
	if f.ops != nil {
		*f.ops = append(*f.ops, "account")
	}

	f.seen = append(f.seen, f.mgr.Token())

	if f.err != nil {
		return nil, f.err
	}

	return &api.Account{ID: "acct-1"}, nil
}

func newTestManager(t *testing.T, store *fakeStore, fetchErr error) (*Manager, *fakeAccounts) {
	t.Helper()

	mgr := New(store, nil)
	accounts := &fakeAccounts{mgr: mgr, ops: &store.ops, err: fetchErr}
	mgr.SetAccountFetcher(accounts)

	return mgr, accounts
}

func TestLogin_Success(t *testing.T) {
	store := newFakeStore()
	mgr, accounts := newTestManager(t, store, nil)

	acct, err := mgr.Login(context.Background(), "cred-123")
	require.NoError(t, err)
	assert.Equal(t, "acct-1", acct.ID)

	// The credential stays active and persisted.
	assert.Equal(t, "cred-123", mgr.Token())
	assert.Equal(t, "cred-123", store.values[TokenKey])

	// The token was active when the validating fetch ran.
	require.Len(t, accounts.seen, 1)
	assert.Equal(t, "cred-123", accounts.seen[0])
}

func TestLogin_PersistsBeforeValidating(t *testing.T) {
	store := newFakeStore()
	mgr, _ := newTestManager(t, store, nil)

	_, err := mgr.Login(context.Background(), "cred-123")
	require.NoError(t, err)

	// Set must precede the account fetch so a retried fetch can reuse
	// the persisted token.
	assert.Equal(t, []string{"set", "account"}, store.ops)
}

func TestLogin_BlankCredential(t *testing.T) {
	store := newFakeStore()
	mgr, _ := newTestManager(t, store, nil)

	for _, cred := range []string{"", "   ", "\t\n"} {
		_, err := mgr.Login(context.Background(), cred)
		assert.ErrorIs(t, err, ErrInvalidCredential)
	}

	assert.Empty(t, mgr.Token())
	assert.Empty(t, store.ops)
}

func TestLogin_RejectedCredentialCleansUp(t *testing.T) {
	store := newFakeStore()
	rejection := &api.Error{StatusCode: 401, Err: api.ErrUnauthorized}
	mgr, _ := newTestManager(t, store, rejection)

	_, err := mgr.Login(context.Background(), "bad-cred")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCredential)
	assert.ErrorIs(t, err, api.ErrUnauthorized)

	// No dangling invalid token, in memory or in the store.
	assert.Empty(t, mgr.Token())
	assert.NotContains(t, store.values, TokenKey)
}

func TestLogin_NetworkFailureCleansUp(t *testing.T) {
	store := newFakeStore()
	netErr := api.ErrNetwork
	mgr, _ := newTestManager(t, store, netErr)

	_, err := mgr.Login(context.Background(), "cred-123")
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrNetwork)
	assert.NotErrorIs(t, err, ErrInvalidCredential)

	assert.Empty(t, mgr.Token())
	assert.NotContains(t, store.values, TokenKey)
}

func TestLogin_NoAccountFetcher(t *testing.T) {
	store := newFakeStore()
	mgr := New(store, nil)

	_, err := mgr.Login(context.Background(), "cred-123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredential)

	// Nothing was activated or persisted.
	assert.Empty(t, mgr.Token())
	assert.Empty(t, store.ops)
}

func TestLogin_PersistFailureClearsMemory(t *testing.T) {
	store := newFakeStore()
	store.setErr = errors.New("disk full")
	mgr, _ := newTestManager(t, store, nil)

	_, err := mgr.Login(context.Background(), "cred-123")
	require.Error(t, err)
	assert.Empty(t, mgr.Token())
}

func TestRestore(t *testing.T) {
	store := newFakeStore()
	store.values[TokenKey] = "saved-cred"
	mgr, _ := newTestManager(t, store, nil)

	ok, err := mgr.Restore()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "saved-cred", mgr.Token())
}

func TestRestore_NoPersistedToken(t *testing.T) {
	store := newFakeStore()
	mgr, _ := newTestManager(t, store, nil)

	ok, err := mgr.Restore()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, mgr.Token())
}

func TestRestoreThenLogout(t *testing.T) {
	store := newFakeStore()
	store.values[TokenKey] = "saved-cred"
	mgr, _ := newTestManager(t, store, nil)

	_, err := mgr.Restore()
	require.NoError(t, err)

	require.NoError(t, mgr.Logout())
	assert.Empty(t, mgr.Token())
	assert.NotContains(t, store.values, TokenKey)
}

func TestLogout_Idempotent(t *testing.T) {
	store := newFakeStore()
	mgr, _ := newTestManager(t, store, nil)

	require.NoError(t, mgr.Logout())
	require.NoError(t, mgr.Logout())
	assert.Empty(t, mgr.Token())
}

func TestToken_ConcurrentReads(t *testing.T) {
	store := newFakeStore()
	mgr, _ := newTestManager(t, store, nil)

	done := make(chan struct{})

	go func() {
		defer close(done)

		for range 1000 {
			// Readers must only ever observe a complete value.
			tok := mgr.Token()
			if tok != "" && tok != "cred-123" {
				t.Errorf("observed partial token %q", tok)

				return
			}
		}
	}()

	for range 100 {
		mgr.setToken("cred-123")
		mgr.setToken("")
	}

	<-done
}
