// Package planstore keeps named board plans as files in one directory.
package planstore

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/Faultbox/nongrid/pkg/tiling"
)

var (
	ErrInvalidName = errors.New("invalid plan name")
	ErrExists      = errors.New("plan already exists")
	ErrNotFound    = errors.New("plan not found")
)

const maxNameLen = 64

// extensions in lookup order; the first is used for new JSON plans.
var extensions = []string{".json", ".yaml", ".yml"}

// Store is a directory of plan files named <name>.json or <name>.yaml.
// It is safe for concurrent use.
type Store struct {
	dir  string
	log  *zap.Logger
	fold cases.Caser

	mu sync.Mutex
}

// Open returns a store over dir, creating the directory if needed.
func Open(dir string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating plan directory: %w", err)
	}
	return &Store{dir: dir, log: log, fold: cases.Fold()}, nil
}

// Dir returns the directory backing the store.
func (s *Store) Dir() string {
	return s.dir
}

// CleanName returns the canonical form of a plan name.
func CleanName(name string) (string, error) {
	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if len(name) > maxNameLen {
		return "", fmt.Errorf("%w: longer than %d bytes", ErrInvalidName, maxNameLen)
	}
	if name[0] == '.' {
		return "", fmt.Errorf("%w: %q starts with a dot", ErrInvalidName, name)
	}
	for _, r := range name {
		if r == '/' || r == '\\' || !unicode.IsPrint(r) {
			return "", fmt.Errorf("%w: %q contains %q", ErrInvalidName, name, r)
		}
	}
	return name, nil
}

// List returns the plan names in the store, sorted.
func (s *Store) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.names()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(names))
	for name := range names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// names maps every stored plan name to its file name.
func (s *Store) names() (map[string]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	names := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if !knownExt(ext) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ext)
		if _, dup := names[name]; !dup {
			names[name] = e.Name()
		}
	}
	return names, nil
}

func knownExt(ext string) bool {
	for _, e := range extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// lookup finds the stored name matching name case-insensitively.
func (s *Store) lookup(name string) (string, string, error) {
	names, err := s.names()
	if err != nil {
		return "", "", err
	}
	if file, ok := names[name]; ok {
		return name, file, nil
	}
	key := s.fold.String(name)
	for stored, file := range names {
		if s.fold.String(stored) == key {
			return stored, file, nil
		}
	}
	return "", "", nil
}

// Load reads and validates the named plan.
func (s *Store) Load(name string) (tiling.Plan, error) {
	name, err := CleanName(name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, file, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	if file == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return tiling.LoadPlanFile(filepath.Join(s.dir, file))
}

// Save stores plan under name in the given format. It refuses names that are
// already taken, ignoring case, and plans that do not build.
func (s *Store) Save(name string, plan tiling.Plan, format tiling.Format) error {
	name, err := CleanName(name)
	if err != nil {
		return err
	}
	if _, err := plan.Build(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := tiling.EncodePlan(&buf, plan, format); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, _, err := s.lookup(name)
	if err != nil {
		return err
	}
	if stored != "" {
		return fmt.Errorf("%w: %s", ErrExists, stored)
	}

	ext := extensions[0]
	if format == tiling.YAML {
		ext = ".yaml"
	}
	path := filepath.Join(s.dir, name+ext)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrExists, name)
		}
		return err
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	s.log.Info("plan saved", zap.String("name", name), zap.String("path", path), zap.Int("rounds", len(plan)))
	return nil
}

// Delete removes the named plan.
func (s *Store) Delete(name string) error {
	name, err := CleanName(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, file, err := s.lookup(name)
	if err != nil {
		return err
	}
	if file == "" {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err := os.Remove(filepath.Join(s.dir, file)); err != nil {
		return err
	}
	s.log.Info("plan deleted", zap.String("name", stored))
	return nil
}
