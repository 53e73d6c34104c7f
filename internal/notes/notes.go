// Package notes defines the calendar granularities periodic notes are kept at.
package notes

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/calnotes/internal/datefmt"
)

// Type is a note category.
type Type int

// Note categories, finest first.
const (
	Daily Type = iota
	Weekly
	Monthly
	Quarterly
	Yearly
)

// ErrUnknownType is returned when a category name is not recognized.
var ErrUnknownType = errors.New("unknown note type")

var typeNames = [...]string{
	Daily:     "daily",
	Weekly:    "weekly",
	Monthly:   "monthly",
	Quarterly: "quarterly",
	Yearly:    "yearly",
}

// String returns the lower-case category name.
func (t Type) String() string {
	if !t.Valid() {
		return "unknown"
	}
	return typeNames[t]
}

// Valid reports whether t is one of the defined categories.
func (t Type) Valid() bool {
	return t >= Daily && t <= Yearly
}

var filenameFormats = [...]string{
	Daily:     "YYYY-MM-DD",
	Weekly:    "GGGG-[W]WW",
	Monthly:   "YYYY-MM",
	Quarterly: "YYYY-[Q]Q",
	Yearly:    "YYYY",
}

// FilenameFormat returns the default date format naming notes of type t.
func (t Type) FilenameFormat() string {
	if !t.Valid() {
		return ""
	}
	return filenameFormats[t]
}

// Filename returns the default note name, without extension, of the note
// of type t covering at.
func Filename(t Type, at time.Time) string {
	return datefmt.Format(at, t.FilenameFormat())
}

// Types returns every category, finest first.
func Types() []Type {
	return []Type{Daily, Weekly, Monthly, Quarterly, Yearly}
}

// ParseType parses a category name, ignoring case and surrounding space.
func ParseType(s string) (Type, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range typeNames {
		if n == name {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
