// Package placeholder expands the {{title}}, {{date}} and {{time}}
// variables understood by the core templates integration.
//
// {{date}} and {{time}} take an optional format after a colon, as in
// {{date:dddd, MMMM Do}}. Unknown variables are left untouched.
package placeholder

import (
	"regexp"
	"strings"
	"time"

	"github.com/dshills/calnotes/internal/datefmt"
)

var pattern = regexp.MustCompile(`(?i)\{\{\s*(title|date|time)\s*(?::([^}]*))?\}\}`)

// Context supplies the values substituted into a template.
type Context struct {
	// Title is the name of the note being written, without extension.
	Title string
	// Now is the time used for date and time variables.
	Now time.Time
	// DateFormat and TimeFormat are used when a variable names no format.
	DateFormat string
	TimeFormat string
}

// Expand substitutes every known variable in src.
func Expand(src string, ctx Context) string {
	dateFormat := ctx.DateFormat
	if dateFormat == "" {
		dateFormat = datefmt.DefaultDate
	}
	timeFormat := ctx.TimeFormat
	if timeFormat == "" {
		timeFormat = datefmt.DefaultTime
	}

	return pattern.ReplaceAllStringFunc(src, func(match string) string {
		groups := pattern.FindStringSubmatch(match)
		name := strings.ToLower(groups[1])
		format := strings.TrimSpace(groups[2])

		switch name {
		case "title":
			return ctx.Title
		case "date":
			if format == "" {
				format = dateFormat
			}
			return datefmt.Format(ctx.Now, format)
		case "time":
			if format == "" {
				format = timeFormat
			}
			return datefmt.Format(ctx.Now, format)
		}
		return match
	})
}
