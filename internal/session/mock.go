package session

import (
	"context"
	"fmt"
	"sync"
)

// MockBus implements Bus for testing.
type MockBus struct {
	mu sync.Mutex

	// Unavailable makes Available report false.
	Unavailable bool

	// Owners maps well-known names to unique connection names.
	Owners map[string]string

	// A11y is the accessibility bus address; empty means unavailable.
	A11y string

	// QuitErr is returned by Quit.
	QuitErr error

	// OnQuit, if set, is called when Quit succeeds.
	OnQuit func(busID, appID string)

	// Quits records the bus ids quit was activated on.
	Quits []string
}

// NewMockBus creates an available bus with no owned names.
func NewMockBus() *MockBus {
	return &MockBus{Owners: make(map[string]string)}
}

// SetOwner makes name owned by busID; an empty busID releases it.
func (m *MockBus) SetOwner(name, busID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if busID == "" {
		delete(m.Owners, name)
		return
	}
	m.Owners[name] = busID
}

func (m *MockBus) Available() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.Unavailable
}

func (m *MockBus) NameOwner(ctx context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if owner, ok := m.Owners[name]; ok {
		return owner, nil
	}
	return "", fmt.Errorf("no owner for %s", name)
}

func (m *MockBus) NameHasOwner(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Owners[name]; ok {
		return true, nil
	}
	for _, owner := range m.Owners {
		if owner == name {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockBus) Quit(ctx context.Context, busID, appID string) error {
	m.mu.Lock()
	if m.QuitErr != nil {
		err := m.QuitErr
		m.mu.Unlock()
		return err
	}
	m.Quits = append(m.Quits, busID)
	onQuit := m.OnQuit
	m.mu.Unlock()

	if onQuit != nil {
		onQuit(busID, appID)
	}
	return nil
}

func (m *MockBus) A11yAddress(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.A11y == "" {
		return "", fmt.Errorf("accessibility bus not running")
	}
	return m.A11y, nil
}
