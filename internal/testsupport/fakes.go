// Package testsupport provides in-memory fakes for the repository
// interfaces and helpers for spinning up ephemeral Docker containers for
// integration testing.
package testsupport

import (
	"context"
	"sort"
	"sync"

	"github.com/garyfan1/timegate/internal/store"
)

// Compile-time interface checks.
var (
	_ store.AccountRepository   = (*FakeAccounts)(nil)
	_ store.OwnershipRepository = (*FakeOwnerships)(nil)
)

// FakeAccounts is an in-memory AccountRepository.
type FakeAccounts struct {
	mu       sync.Mutex
	accounts map[string]store.Account
}

// NewFakeAccounts creates an empty in-memory account repository.
func NewFakeAccounts() *FakeAccounts {
	return &FakeAccounts{accounts: make(map[string]store.Account)}
}

func (f *FakeAccounts) CreateAccount(_ context.Context, a *store.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.accounts[a.ID]; ok {
		return store.ErrAccountExists
	}
	f.accounts[a.ID] = *a
	return nil
}

func (f *FakeAccounts) GetAccount(_ context.Context, id string) (*store.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.accounts[id]
	if !ok {
		return nil, store.ErrAccountNotFound
	}
	return &a, nil
}

// FakeOwnerships is an in-memory OwnershipRepository.
type FakeOwnerships struct {
	mu    sync.Mutex
	pairs map[[2]string]bool

	// FailRecord forces the next Record call to return this error,
	// simulating a crash in the last step of the creation sequence.
	FailRecord error
}

// NewFakeOwnerships creates an empty in-memory ownership index.
func NewFakeOwnerships() *FakeOwnerships {
	return &FakeOwnerships{pairs: make(map[[2]string]bool)}
}

func (f *FakeOwnerships) Record(_ context.Context, accountID, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailRecord != nil {
		err := f.FailRecord
		f.FailRecord = nil
		return err
	}
	f.pairs[[2]string{accountID, eventID}] = true
	return nil
}

func (f *FakeOwnerships) Owns(_ context.Context, accountID, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.pairs[[2]string{accountID, eventID}] {
		return store.ErrNotOwned
	}
	return nil
}

func (f *FakeOwnerships) Delete(_ context.Context, accountID, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.pairs, [2]string{accountID, eventID})
	return nil
}

func (f *FakeOwnerships) ListByAccount(_ context.Context, accountID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var events []string
	for pair := range f.pairs {
		if pair[0] == accountID {
			events = append(events, pair[1])
		}
	}
	sort.Strings(events)
	return events, nil
}
