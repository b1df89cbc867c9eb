package services

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Cyvadra/tv-relay/internal/config"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSender is a mock implementation of the Sender interface
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, channelID string, msg Message) error {
	args := m.Called(ctx, channelID, msg)
	return args.Error(0)
}

// recordingSender captures every message it is asked to send
type recordingSender struct {
	mu   sync.Mutex
	sent map[string][]Message
	fail map[string]error
}

func newRecordingSender() *recordingSender {
	return &recordingSender{
		sent: make(map[string][]Message),
		fail: make(map[string]error),
	}
}

func (r *recordingSender) Send(_ context.Context, channelID string, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent[channelID] = append(r.sent[channelID], msg)
	return r.fail[channelID]
}

func (r *recordingSender) messages(channelID string) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.sent[channelID]...)
}

func (r *recordingSender) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, msgs := range r.sent {
		n += len(msgs)
	}
	return n
}

func newSettingsStore(t *testing.T, settings config.Settings) *config.SettingsStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	data, err := json.Marshal(settings)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return config.NewSettingsStore(path)
}
