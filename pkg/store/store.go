// Package store manages the detector's reference knowledge base: the brand
// to domain map and the co-indexed logo feature cache.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	bwerrors "brandwatch/pkg/errors"
)

const (
	domainMapFile = "domain_map.yaml"
	featsFile     = "logo_feats.json"
	filesFile     = "logo_files.json"
	logoDirName   = "expand_targetlist"
)

// LogoEncoder produces an L2-normalized embedding for a logo image.
type LogoEncoder interface {
	Encode(ctx context.Context, image []byte) ([]float64, error)
}

// Store is the persistent reference knowledge base. Admissions are
// sequential by construction, but the server mode reloads the store from a
// watcher goroutine while evaluations read and admit, so in-memory state is
// guarded by a mutex. File-level consistency still assumes a single writing
// process.
type Store struct {
	dir     string
	encoder LogoEncoder

	mu      sync.RWMutex
	domains map[string][]string
	feats   [][]float64
	files   []string
}

// Open loads the reference store from dir, creating empty state when no
// files exist yet. The feature cache arrays must be index-aligned; a length
// mismatch means the store is corrupted.
func Open(dir string, encoder LogoEncoder) (*Store, error) {
	s := &Store{
		dir:     dir,
		encoder: encoder,
		domains: make(map[string][]string),
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	if len(s.feats) != len(s.files) {
		return nil, fmt.Errorf("%w: %d feature vectors but %d file paths",
			bwerrors.ErrStoreCorrupted, len(s.feats), len(s.files))
	}

	return s, nil
}

func (s *Store) load() error {
	raw, err := os.ReadFile(filepath.Join(s.dir, domainMapFile))
	if err == nil {
		if err := yaml.Unmarshal(raw, &s.domains); err != nil {
			return fmt.Errorf("%w: domain map: %v", bwerrors.ErrStoreCorrupted, err)
		}
	} else if !os.IsNotExist(err) {
		return err
	}
	if s.domains == nil {
		s.domains = make(map[string][]string)
	}

	if err := readJSON(filepath.Join(s.dir, featsFile), &s.feats); err != nil {
		return err
	}
	if err := readJSON(filepath.Join(s.dir, filesFile), &s.files); err != nil {
		return err
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %s: %v", bwerrors.ErrStoreCorrupted, filepath.Base(path), err)
	}
	return nil
}

// Reload re-reads the store files from disk, picking up external writes.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.domains = make(map[string][]string)
	s.feats = nil
	s.files = nil
	if err := s.load(); err != nil {
		return err
	}
	if len(s.feats) != len(s.files) {
		return fmt.Errorf("%w: feature cache arrays misaligned (%d vectors, %d files)",
			bwerrors.ErrStoreCorrupted, len(s.feats), len(s.files))
	}
	return nil
}

// HasBrand reports whether a brand is already in the target list.
func (s *Store) HasBrand(brand string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.domains[brand]
	return ok
}

// Domains returns the known domains for a brand.
func (s *Store) Domains(brand string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.domains[brand]
}

// Brands returns all known brand names, sorted.
func (s *Store) Brands() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	brands := make([]string, 0, len(s.domains))
	for b := range s.domains {
		brands = append(brands, b)
	}
	sort.Strings(brands)
	return brands
}

// Features returns the co-indexed feature cache.
func (s *Store) Features() ([][]float64, []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.feats, s.files
}

// BrandOfLogoFile recovers the brand a cached logo belongs to from the
// parent-folder convention of its path.
func BrandOfLogoFile(path string) string {
	return filepath.Base(filepath.Dir(path))
}

// Admit adds newly discovered knowledge for a brand.
//
// Domains: a brand not yet in the map is inserted with the deduplicated
// union of newDomains. A brand already present keeps its existing entry
// untouched; later lower-confidence discoveries never overwrite admitted
// knowledge.
//
// Logos: nil entries are skipped. Remaining images are written into a
// brand-named folder with sequential file names (an "_expand" suffix avoids
// collisions), encoded, and appended to the feature cache arrays in
// lockstep. With no usable logos the feature cache is left untouched.
//
// The domain-map write and the feature-cache write are two separate
// persists; a crash between them can leave the halves inconsistent.
func (s *Store) Admit(ctx context.Context, brand string, newDomains []string, newLogos [][]byte) error {
	if brand == "" {
		return bwerrors.NewConfigError("brand", brand, "empty brand name")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.domains[brand]; !ok {
		s.domains[brand] = dedup(newDomains)
		if err := s.persistDomainMap(); err != nil {
			return err
		}
		log.Infof("store: admitted brand %q with domains %v", brand, s.domains[brand])
	} else {
		log.Debugf("store: brand %q already present, domains not merged", brand)
	}

	valid := make([][]byte, 0, len(newLogos))
	for _, logo := range newLogos {
		if logo != nil {
			valid = append(valid, logo)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	folder := filepath.Join(s.dir, logoDirName, brand)
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return fmt.Errorf("create logo folder: %w", err)
	}

	existing, err := os.ReadDir(folder)
	if err != nil {
		return err
	}
	base := len(existing)

	for i, logo := range valid {
		path := filepath.Join(folder, fmt.Sprintf("%d.png", base+i))
		if _, err := os.Stat(path); err == nil {
			path = filepath.Join(folder, fmt.Sprintf("%d_expand.png", base+i))
		}
		if err := os.WriteFile(path, logo, 0o644); err != nil {
			return fmt.Errorf("save logo: %w", err)
		}

		feat, err := s.encoder.Encode(ctx, logo)
		if err != nil {
			return fmt.Errorf("encode logo: %w", err)
		}

		s.feats = append(s.feats, feat)
		s.files = append(s.files, path)
	}

	return s.persistFeatureCache()
}

func (s *Store) persistDomainMap() error {
	raw, err := yaml.Marshal(s.domains)
	if err != nil {
		return err
	}
	return writeAtomic(filepath.Join(s.dir, domainMapFile), raw)
}

func (s *Store) persistFeatureCache() error {
	rawFeats, err := json.Marshal(s.feats)
	if err != nil {
		return err
	}
	rawFiles, err := json.Marshal(s.files)
	if err != nil {
		return err
	}
	if err := writeAtomic(filepath.Join(s.dir, featsFile), rawFeats); err != nil {
		return err
	}
	return writeAtomic(filepath.Join(s.dir, filesFile), rawFiles)
}

// writeAtomic keeps any single file from being torn; the cross-file
// inconsistency window between the domain map and the feature cache remains.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func dedup(list []string) []string {
	out := make([]string, 0, len(list))
	seen := make(map[string]bool, len(list))
	for _, s := range list {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}
