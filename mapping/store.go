package mapping

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Store loads and holds mapping profiles from a directory of YAML or JSON
// documents, one profile per file. The profile name defaults to the file
// name without its extension; the file's modification time feeds the
// selector's recency tie-break.
type Store struct {
	mu       sync.RWMutex
	dir      string
	profiles []*Profile
	logger   *zap.SugaredLogger
}

func NewStore(dir string, logger *zap.SugaredLogger) *Store {
	return &Store{dir: dir, logger: logger}
}

// Load reads every profile document under the store directory. Any invalid
// document aborts the load and the previously loaded set stays active.
func (s *Store) Load() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("reading mappings dir: %w", err)
	}

	var profiles []*Profile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml", ".json":
		default:
			continue
		}
		p, err := loadProfileFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return err
		}
		profiles = append(profiles, p)
	}

	s.warnDuplicatePriorities(profiles)

	s.mu.Lock()
	s.profiles = profiles
	s.mu.Unlock()

	s.logger.Infow("mapping profiles loaded", "dir", s.dir, "count", len(profiles))
	return nil
}

func loadProfileFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if err := ValidateProfileDocument(data); err != nil {
		return nil, &ConfigurationError{Profile: name, Reason: err.Error()}
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, &ConfigurationError{Profile: name, Reason: fmt.Sprintf("invalid document: %v", err)}
	}
	if strings.TrimSpace(p.Name) == "" {
		p.Name = name
	}
	if info, err := os.Stat(path); err == nil {
		p.Modified = info.ModTime()
	}

	if err := p.Normalize(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Two active profiles sharing a supplier and priority are allowed but make
// selection order depend on recency alone, so flag them.
func (s *Store) warnDuplicatePriorities(profiles []*Profile) {
	type key struct {
		supplier string
		priority FlexInt
	}
	seen := make(map[key]string)
	for _, p := range profiles {
		if !p.IsActive() {
			continue
		}
		k := key{supplier: strings.ToLower(p.Supplier), priority: p.Priority}
		if other, ok := seen[k]; ok {
			s.logger.Warnw("duplicate active mapping priority",
				"supplier", p.Supplier, "priority", int(p.Priority), "profiles", []string{other, p.Name})
			continue
		}
		seen[k] = p.Name
	}
}

// All returns every loaded profile.
func (s *Store) All() []*Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Profile, len(s.profiles))
	copy(out, s.profiles)
	return out
}

// Active returns the profiles that participate in selection.
func (s *Store) Active() []*Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Profile
	for _, p := range s.profiles {
		if p.IsActive() {
			out = append(out, p)
		}
	}
	return out
}

// ActiveBySupplier returns the active profiles whose supplier equals the
// given one, ignoring case.
func (s *Store) ActiveBySupplier(supplier string) []*Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Profile
	for _, p := range s.profiles {
		if p.IsActive() && strings.EqualFold(p.Supplier, supplier) {
			out = append(out, p)
		}
	}
	return out
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}
