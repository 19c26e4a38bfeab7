package secrets

import (
	"sort"

	"github.com/99designs/keyring"
)

// MockKeyring is an in-memory KeyringProvider for tests.
type MockKeyring struct {
	items map[string]keyring.Item
}

// NewMockKeyringProvider creates an empty mock keyring.
func NewMockKeyringProvider() *MockKeyring {
	return &MockKeyring{items: make(map[string]keyring.Item)}
}

// Get retrieves an item from the mock keyring
func (m *MockKeyring) Get(key string) (keyring.Item, error) {
	item, ok := m.items[key]
	if !ok {
		return keyring.Item{}, keyring.ErrKeyNotFound
	}
	return item, nil
}

// Set stores an item in the mock keyring
func (m *MockKeyring) Set(item keyring.Item) error {
	m.items[item.Key] = item
	return nil
}

// Remove deletes an item from the mock keyring
func (m *MockKeyring) Remove(key string) error {
	if _, ok := m.items[key]; !ok {
		return keyring.ErrKeyNotFound
	}
	delete(m.items, key)
	return nil
}

// Keys lists stored keys in sorted order.
func (m *MockKeyring) Keys() ([]string, error) {
	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// SetProviderFunc injects a provider; nil restores the OS keyring.
func SetProviderFunc(fn func() (KeyringProvider, error)) {
	if fn == nil {
		defaultProvider = newOSKeyring
		return
	}
	defaultProvider = fn
}

// UseMock installs a fresh MockKeyring and returns it with a restore func.
func UseMock() (*MockKeyring, func()) {
	mock := NewMockKeyringProvider()
	SetProviderFunc(func() (KeyringProvider, error) { return mock, nil })
	return mock, func() { SetProviderFunc(nil) }
}
