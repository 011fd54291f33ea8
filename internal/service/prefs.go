package service

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// PrefsService persists UI preferences to disk so they survive across
// sessions. Load at startup, save on every change; the file is the
// only state, there is no teardown.
type PrefsService struct {
	dataDir string
	mu      sync.RWMutex
	prefs   Prefs
}

// NewPrefsService creates a prefs service rooted at dataDir.
func NewPrefsService(dataDir string) *PrefsService {
	s := &PrefsService{dataDir: dataDir}
	s.loadFromDisk()
	return s
}

// Get returns the current preferences.
func (s *PrefsService) Get() Prefs {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// Put replaces the preferences and persists them.
func (s *PrefsService) Put(p Prefs) (Prefs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs = p
	if err := s.saveToDisk(); err != nil {
		return Prefs{}, err
	}
	return s.prefs, nil
}

func (s *PrefsService) prefsFile() string {
	return filepath.Join(s.dataDir, "prefs.json")
}

// loadFromDisk loads preferences from disk.
func (s *PrefsService) loadFromDisk() {
	data, err := os.ReadFile(s.prefsFile())
	if err != nil {
		return // File doesn't exist yet, start with defaults
	}
	var p Prefs
	if err := json.Unmarshal(data, &p); err != nil {
		return // Invalid JSON, start with defaults
	}
	s.prefs = p
}

// saveToDisk persists preferences to disk.
func (s *PrefsService) saveToDisk() error {
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s.prefs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.prefsFile(), data, 0644)
}
