package table

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dhamidi/forkparse/grammar"
)

// LoadOrBuild returns the table cached at path if it was built from a
// grammar with g's fingerprint. Otherwise it builds the table and
// replaces the cache file. A cache that cannot be written is logged and
// otherwise ignored.
func LoadOrBuild(path string, g *grammar.Grammar, opts ...Option) (*Table, error) {
	if t, err := load(path); err == nil {
		if t.Fingerprint == g.Fingerprint() {
			log.Debugf("table cache hit: %s", path)
			return t, nil
		}
		log.Infof("table cache stale: %s", path)
	} else if !os.IsNotExist(err) {
		log.Warningf("table cache unreadable: %s", err)
	}

	t, err := Build(g, opts...)
	if err != nil {
		return nil, err
	}
	if err := Save(path, t); err != nil {
		log.Warningf("table cache not written: %s", err)
	}
	return t, nil
}

func load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Save encodes t to path, replacing it atomically.
func Save(path string, t *Table) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".table-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, t); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
