package settings

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/calnotes/internal/vfs"
)

// DefaultPath is the vault path of the settings file.
const DefaultPath = ".calnotes.toml"

// Load reads settings from a TOML file in the vault.
// A missing file yields Default() and no error. Keys absent from the file
// keep their default values.
func Load(fsys vfs.FS, path string) (Settings, error) {
	s := Default()

	data, err := fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("reading settings %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &s); err != nil {
		perr := &ParseError{Path: path, Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			perr.Line, perr.Column = derr.Position()
		}
		return Default(), perr
	}
	return s, nil
}

// Save writes settings as TOML, creating the parent folder if needed.
func Save(fsys vfs.FS, path string, s Settings) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if dir := vfs.Dir(path); dir != "" {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating settings folder %s: %w", dir, err)
		}
	}
	if err := fsys.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing settings %s: %w", path, err)
	}
	return nil
}
