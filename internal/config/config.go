// Package config loads forkparse settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/dhamidi/forkparse/parser"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "FORKPARSE_CONFIG"

// DefaultFile is read from the working directory when present.
const DefaultFile = "forkparse.toml"

// Config holds settings shared by the forkparse commands. Command-line
// flags override them.
type Config struct {
	Start     string   `toml:"start"`
	AcceptStr string   `toml:"accept"`
	Skip      []string `toml:"skip"`
	CacheDir  string   `toml:"cache_dir"`
	Verbosity int      `toml:"verbosity"`
}

// Accept returns the configured accept mode.
func (c *Config) Accept() (parser.AcceptMode, error) {
	return parser.ParseAcceptMode(c.AcceptStr)
}

// CachePath returns the table cache file for a grammar, or "" when no
// cache directory is configured.
func (c *Config) CachePath(grammarFile string) string {
	if c.CacheDir == "" {
		return ""
	}
	base := filepath.Base(grammarFile)
	return filepath.Join(c.CacheDir, base+".fpt")
}

// Load reads the config file at path. An empty path falls back to
// $FORKPARSE_CONFIG and then to DefaultFile; only the latter may be
// absent.
func Load(path string) (*Config, error) {
	c := &Config{}
	explicit := true
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		path = DefaultFile
		explicit = false
	}

	if _, err := toml.DecodeFile(path, c); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	if _, err := c.Accept(); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return c, nil
}
