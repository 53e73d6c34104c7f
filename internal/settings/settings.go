// Package settings holds the user configuration that drives template lookup:
// which templating integration is active and the template filename of each
// note category.
package settings

import (
	"fmt"
	"strings"

	"github.com/dshills/calnotes/internal/notes"
)

// TemplatePlugin selects the templating integration that expands and
// inserts templates.
type TemplatePlugin int

const (
	// PluginNone disables template insertion.
	PluginNone TemplatePlugin = iota
	// PluginBuiltin inserts template files verbatim.
	PluginBuiltin
	// PluginCore delegates to the host's core templates integration.
	PluginCore
	// PluginScript delegates to the host's scripted templates integration.
	PluginScript
)

var pluginNames = [...]string{
	PluginNone:    "none",
	PluginBuiltin: "builtin",
	PluginCore:    "core",
	PluginScript:  "script",
}

// String returns the configuration name of the plugin.
func (p TemplatePlugin) String() string {
	if p < PluginNone || p > PluginScript {
		return "unknown"
	}
	return pluginNames[p]
}

// ParsePlugin parses a configuration name.
func ParsePlugin(s string) (TemplatePlugin, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range pluginNames {
		if n == name {
			return TemplatePlugin(i), nil
		}
	}
	return PluginNone, fmt.Errorf("%w: %q", ErrUnknownPlugin, s)
}

// MarshalText implements encoding.TextMarshaler.
func (p TemplatePlugin) MarshalText() ([]byte, error) {
	if p < PluginNone || p > PluginScript {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPlugin, int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *TemplatePlugin) UnmarshalText(text []byte) error {
	parsed, err := ParsePlugin(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Settings is the persisted user configuration.
// An empty filename means the category has no template.
type Settings struct {
	TemplatePlugin TemplatePlugin `toml:"template_plugin"`

	// TemplateFolder is the vault folder searched by the built-in integration.
	// Host integrations report their own folder.
	TemplateFolder string `toml:"template_folder"`

	DailyTemplateFilename     string `toml:"daily_template_filename"`
	WeeklyTemplateFilename    string `toml:"weekly_template_filename"`
	MonthlyTemplateFilename   string `toml:"monthly_template_filename"`
	QuarterlyTemplateFilename string `toml:"quarterly_template_filename"`
	YearlyTemplateFilename    string `toml:"yearly_template_filename"`
}

// Default returns the settings used when no file exists.
func Default() Settings {
	return Settings{
		TemplatePlugin: PluginNone,
		TemplateFolder: "Templates",
	}
}

func (s *Settings) filenameField(t notes.Type) *string {
	switch t {
	case notes.Daily:
		return &s.DailyTemplateFilename
	case notes.Weekly:
		return &s.WeeklyTemplateFilename
	case notes.Monthly:
		return &s.MonthlyTemplateFilename
	case notes.Quarterly:
		return &s.QuarterlyTemplateFilename
	case notes.Yearly:
		return &s.YearlyTemplateFilename
	default:
		return nil
	}
}

// TemplateFilename returns the configured template filename for t.
// ok is false only when t is not a valid category; the name may be empty.
func (s Settings) TemplateFilename(t notes.Type) (name string, ok bool) {
	field := s.filenameField(t)
	if field == nil {
		return "", false
	}
	return *field, true
}

// SetTemplateFilename sets the template filename for t and reports whether
// t was a valid category.
func (s *Settings) SetTemplateFilename(t notes.Type, name string) bool {
	field := s.filenameField(t)
	if field == nil {
		return false
	}
	*field = name
	return true
}
