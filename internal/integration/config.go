package integration

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/calnotes/internal/vfs"
)

// DefaultConfigPath is the vault path of the integrations file.
const DefaultConfigPath = ".calnotes/integrations.toml"

// Config describes one integration as the host loaded it.
//
//	[templates]
//	enabled = true
//	folder = "Templates"
type Config struct {
	Enabled bool   `toml:"enabled"`
	Folder  string `toml:"folder"`

	// Settings holds any other integration settings.
	Settings map[string]string `toml:"settings,omitempty"`
}

// LoadConfig reads the integrations file. A missing file yields an empty map.
func LoadConfig(fsys vfs.FS, path string) (map[string]Config, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]Config{}, nil
		}
		return nil, fmt.Errorf("reading integrations %s: %w", path, err)
	}

	var cfg map[string]Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing integrations %s: %w", path, err)
	}
	if cfg == nil {
		cfg = map[string]Config{}
	}
	return cfg, nil
}

// Apply registers every configured integration and activates the enabled
// ones. Names already registered have their whole settings map replaced and
// their state updated. A non-empty Folder takes precedence over a folder key
// under Settings.
func (r *Registry) Apply(cfg map[string]Config) error {
	names := make([]string, 0, len(cfg))
	for name := range cfg {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		c := cfg[name]
		settings := copySettings(c.Settings)
		if c.Folder != "" {
			settings[FolderSetting] = c.Folder
		}

		if err := r.Register(name, settings); err != nil {
			if !errors.Is(err, ErrAlreadyRegistered) {
				return err
			}
			if err := r.ReplaceSettings(name, settings); err != nil {
				return err
			}
		}

		var err error
		if c.Enabled {
			err = r.Activate(name)
		} else {
			err = r.Deactivate(name)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
