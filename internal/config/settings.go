package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

var (
	// ErrSettingsUnreadable is returned when the settings document is missing or cannot be decoded.
	ErrSettingsUnreadable = errors.New("settings unreadable")
	// ErrSettingsUnwritable is returned when the settings document cannot be persisted.
	ErrSettingsUnwritable = errors.New("settings unwritable")
)

// Settings is the runtime relay state operators change through bot commands
type Settings struct {
	Enabled  bool     `json:"enabled" yaml:"enabled"`
	Channels []string `json:"channels" yaml:"channels"`
}

// HasChannel reports whether id is in the channel list
func (s *Settings) HasChannel(id string) bool {
	return lo.Contains(s.Channels, id)
}

// AddChannel appends id unless it is already present. It reports whether the list changed.
func (s *Settings) AddChannel(id string) bool {
	if s.HasChannel(id) {
		return false
	}
	s.Channels = append(s.Channels, id)
	return true
}

// RemoveChannel drops every occurrence of id. It reports whether the list changed.
func (s *Settings) RemoveChannel(id string) bool {
	if !s.HasChannel(id) {
		return false
	}
	s.Channels = lo.Without(s.Channels, id)
	return true
}

// Normalize removes duplicate channels while keeping first-seen order.
func (s *Settings) Normalize() {
	if s.Channels == nil {
		s.Channels = []string{}
		return
	}
	s.Channels = lo.Uniq(s.Channels)
}

// Clone returns a copy that shares no memory with s
func (s *Settings) Clone() *Settings {
	return &Settings{
		Enabled:  s.Enabled,
		Channels: append([]string{}, s.Channels...),
	}
}

// SettingsStore persists Settings as a single document. JSON is used for *.json files,
// YAML otherwise. Every Load reads the file again; every Save replaces it atomically.
//
// Update serializes read-modify-write cycles inside the process, so two concurrent
// mutations never lose each other's change. Another process editing the same file can
// still race with it.
type SettingsStore struct {
	path string
	mu   sync.Mutex
}

// NewSettingsStore creates a store backed by the file at path
func NewSettingsStore(path string) *SettingsStore {
	return &SettingsStore{path: path}
}

// Path returns the backing file
func (s *SettingsStore) Path() string {
	return s.path
}

// Load reads the current settings
func (s *SettingsStore) Load() (*Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Save overwrites the stored settings with settings
func (s *SettingsStore) Save(settings *Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(settings)
}

// Update loads the settings, applies fn and saves the result. Nothing is written when fn fails.
func (s *SettingsStore) Update(fn func(*Settings) error) (*Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.load()
	if err != nil {
		return nil, err
	}
	if err := fn(settings); err != nil {
		return nil, err
	}
	if err := s.save(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *SettingsStore) load() (*Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrSettingsUnreadable, s.path, err)
	}

	var settings Settings
	if s.isJSON() {
		err = json.Unmarshal(data, &settings)
	} else {
		err = yaml.Unmarshal(data, &settings)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrSettingsUnreadable, s.path, err)
	}

	settings.Normalize()
	return &settings, nil
}

func (s *SettingsStore) save(settings *Settings) error {
	out := settings.Clone()
	out.Normalize()

	var (
		data []byte
		err  error
	)
	if s.isJSON() {
		data, err = json.MarshalIndent(out, "", "  ")
	} else {
		data, err = yaml.Marshal(out)
	}
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrSettingsUnwritable, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSettingsUnwritable, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %v", ErrSettingsUnwritable, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrSettingsUnwritable, tmpName, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("%w: chmod %s: %v", ErrSettingsUnwritable, tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("%w: replace %s: %v", ErrSettingsUnwritable, s.path, err)
	}
	return nil
}

func (s *SettingsStore) isJSON() bool {
	return strings.EqualFold(filepath.Ext(s.path), ".json")
}
