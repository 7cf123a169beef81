package artifacts

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common/lru"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
)

const cacheSize = 64

// Store indexes the artifacts below a directory by contract name.
type Store struct {
	root   string
	byName map[string][]string // contract name -> fully qualified names
	byFQN  map[string]string   // fully qualified name -> file
	cache  *lru.Cache[string, *Artifact]
}

// header is the part of an artifact needed to index it.
type header struct {
	Format       string `json:"_format"`
	ContractName string `json:"contractName"`
	SourceName   string `json:"sourceName"`
}

// NewStore walks root and indexes every artifact file found.
func NewStore(root string) (*Store, error) {
	s := &Store{
		root:   root,
		byName: make(map[string][]string),
		byFQN:  make(map[string]string),
		cache:  lru.NewCache[string, *Artifact](cacheSize),
	}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "build-info" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".json") || strings.HasSuffix(path, ".dbg.json") {
			return nil
		}
		return s.index(path)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "reading artifacts from %s", root)
	}
	log.Debug("Indexed contract artifacts", "dir", root, "count", len(s.byFQN))
	return s, nil
}

func (s *Store) index(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var h header
	if err := json.Unmarshal(data, &h); err != nil || !strings.HasPrefix(h.Format, formatPrefix) {
		log.Trace("Skipping non-artifact file", "path", path)
		return nil
	}
	fqn := h.SourceName + ":" + h.ContractName
	if _, ok := s.byFQN[fqn]; !ok {
		s.byName[h.ContractName] = append(s.byName[h.ContractName], fqn)
	}
	s.byFQN[fqn] = path
	return nil
}

// Names returns the fully qualified names of all indexed contracts, sorted.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.byFQN))
	for fqn := range s.byFQN {
		names = append(names, fqn)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves a bare contract name or a fully qualified "source:Name".
func (s *Store) Lookup(name string) (*Artifact, error) {
	fqn := name
	if !strings.Contains(name, ":") {
		candidates := s.byName[name]
		switch len(candidates) {
		case 0:
			return nil, errors.Wrapf(ErrNotFound, "%q in %s", name, s.root)
		case 1:
			fqn = candidates[0]
		default:
			sorted := append([]string(nil), candidates...)
			sort.Strings(sorted)
			return nil, errors.Wrapf(ErrAmbiguous, "%q, use one of %s", name, strings.Join(sorted, ", "))
		}
	}
	if a, ok := s.cache.Get(fqn); ok {
		return a, nil
	}
	path, ok := s.byFQN[fqn]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "%q in %s", name, s.root)
	}
	a, err := Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	s.cache.Add(fqn, a)
	return a, nil
}
