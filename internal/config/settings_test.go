package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettingsFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestSettingsStoreLoad(t *testing.T) {
	t.Run("JSON document", func(t *testing.T) {
		path := writeSettingsFile(t, "settings.json", `{"enabled": true, "channels": ["-1001", "-1002"]}`)

		settings, err := NewSettingsStore(path).Load()
		require.NoError(t, err)
		assert.True(t, settings.Enabled)
		assert.Equal(t, []string{"-1001", "-1002"}, settings.Channels)
	})

	t.Run("YAML document", func(t *testing.T) {
		path := writeSettingsFile(t, "settings.yaml", "enabled: false\nchannels:\n  - \"-1003\"\n")

		settings, err := NewSettingsStore(path).Load()
		require.NoError(t, err)
		assert.False(t, settings.Enabled)
		assert.Equal(t, []string{"-1003"}, settings.Channels)
	})

	t.Run("Null channels become empty list", func(t *testing.T) {
		path := writeSettingsFile(t, "settings.json", `{"enabled": true, "channels": null}`)

		settings, err := NewSettingsStore(path).Load()
		require.NoError(t, err)
		assert.NotNil(t, settings.Channels)
		assert.Empty(t, settings.Channels)
	})

	t.Run("Duplicates are collapsed in order", func(t *testing.T) {
		path := writeSettingsFile(t, "settings.json", `{"enabled": true, "channels": ["b", "a", "b"]}`)

		settings, err := NewSettingsStore(path).Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a"}, settings.Channels)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := NewSettingsStore(filepath.Join(t.TempDir(), "nope.json")).Load()
		assert.ErrorIs(t, err, ErrSettingsUnreadable)
	})

	t.Run("Invalid document", func(t *testing.T) {
		path := writeSettingsFile(t, "settings.json", `{"enabled": tru`)

		_, err := NewSettingsStore(path).Load()
		assert.ErrorIs(t, err, ErrSettingsUnreadable)
	})
}

func TestSettingsStoreSave(t *testing.T) {
	t.Run("Round trip replaces whole document", func(t *testing.T) {
		path := writeSettingsFile(t, "settings.json", `{"enabled": false, "channels": ["old"]}`)
		store := NewSettingsStore(path)

		require.NoError(t, store.Save(&Settings{Enabled: true, Channels: []string{"new"}}))

		settings, err := store.Load()
		require.NoError(t, err)
		assert.True(t, settings.Enabled)
		assert.Equal(t, []string{"new"}, settings.Channels)

		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		assert.Len(t, entries, 1, "temporary files must not be left behind")
	})

	t.Run("Unwritable directory", func(t *testing.T) {
		store := NewSettingsStore(filepath.Join(t.TempDir(), "missing", "settings.json"))

		err := store.Save(&Settings{Enabled: true})
		assert.ErrorIs(t, err, ErrSettingsUnwritable)
	})
}

func TestSettingsStoreUpdate(t *testing.T) {
	t.Run("Failed mutation writes nothing", func(t *testing.T) {
		path := writeSettingsFile(t, "settings.json", `{"enabled": false, "channels": []}`)
		store := NewSettingsStore(path)

		_, err := store.Update(func(s *Settings) error {
			s.Enabled = true
			return errors.New("boom")
		})
		require.Error(t, err)

		settings, err := store.Load()
		require.NoError(t, err)
		assert.False(t, settings.Enabled)
	})

	t.Run("Concurrent adds are not lost", func(t *testing.T) {
		path := writeSettingsFile(t, "settings.json", `{"enabled": true, "channels": []}`)
		store := NewSettingsStore(path)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				_, err := store.Update(func(s *Settings) error {
					s.AddChannel(fmt.Sprintf("-100%d", n))
					return nil
				})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		settings, err := store.Load()
		require.NoError(t, err)
		assert.Len(t, settings.Channels, 20)
	})
}

func TestSettingsChannels(t *testing.T) {
	s := &Settings{Channels: []string{}}

	assert.True(t, s.AddChannel("-1001234567890"))
	assert.False(t, s.AddChannel("-1001234567890"))
	assert.Equal(t, []string{"-1001234567890"}, s.Channels)

	s.Channels = append(s.Channels, "x", "-1001234567890")
	assert.True(t, s.RemoveChannel("-1001234567890"))
	assert.Equal(t, []string{"x"}, s.Channels)
	assert.False(t, s.RemoveChannel("absent"))
	assert.Equal(t, []string{"x"}, s.Channels)
}
