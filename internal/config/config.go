// Package config loads the optional .litertlmrc.toml file that seeds
// default flag values for the litertlm-writer binary, the same way the
// teacher tool reads a dotfile before parsing flags. The writer takes its
// output, author and section-metadata defaults from it; max-threads is
// parsed but no binary reads it.
package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config holds the subset of writer/inspect behavior that's worth
// defaulting from a project-local dotfile instead of always being typed on
// the command line.
type Config struct {
	OutputPath      string `toml:"output"`
	MaxThreads      int    `toml:"max-threads"`
	AuthorName      string `toml:"author"`
	SectionMetadata string `toml:"section-metadata"`
}

// Default returns the zero-value config used when no dotfile is present.
func Default() Config {
	return Config{MaxThreads: 0}
}

// Load reads path (".litertlmrc.toml" in the common case) and overlays it
// onto Default(). A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := toml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
