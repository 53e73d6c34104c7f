// Package datefmt formats times with the moment-style tokens note templates
// use ("YYYY-MM-DD", "[Week] WW", "dddd, MMMM Do").
//
// Supported tokens: YYYY YY Q MMMM MMM MM M DDDD DDD DD Do D dddd ddd d
// GGGG WW W ww w HH H hh h mm m ss s A a. Text inside square brackets is
// copied literally. WW and W are ISO-8601 weeks (Monday start, GGGG is the
// matching week year); ww and w are English locale weeks, which start on
// Sunday with week 1 being the week that contains January 1.
package datefmt

import (
	"strconv"
	"strings"
	"time"
)

// Default formats used when a template does not name one.
const (
	DefaultDate = "YYYY-MM-DD"
	DefaultTime = "HH:mm"
)

// tokens is ordered so that longer tokens win over their prefixes.
var tokens = []string{
	"YYYY", "GGGG", "MMMM", "DDDD", "dddd",
	"MMM", "DDD", "ddd",
	"YY", "MM", "DD", "Do", "WW", "ww", "HH", "hh", "mm", "ss",
	"Q", "M", "D", "d", "W", "w", "H", "h", "m", "s", "A", "a",
}

// Format renders t according to layout.
func Format(t time.Time, layout string) string {
	var b strings.Builder
	for i := 0; i < len(layout); {
		if layout[i] == '[' {
			end := strings.IndexByte(layout[i+1:], ']')
			if end >= 0 {
				b.WriteString(layout[i+1 : i+1+end])
				i += end + 2
				continue
			}
		}

		matched := false
		for _, tok := range tokens {
			if strings.HasPrefix(layout[i:], tok) {
				b.WriteString(render(t, tok))
				i += len(tok)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(layout[i])
			i++
		}
	}
	return b.String()
}

func render(t time.Time, tok string) string {
	isoYear, isoWeek := t.ISOWeek()
	switch tok {
	case "YYYY":
		return pad(t.Year(), 4)
	case "YY":
		return pad(t.Year()%100, 2)
	case "GGGG":
		return pad(isoYear, 4)
	case "Q":
		return strconv.Itoa(Quarter(t))
	case "MMMM":
		return t.Month().String()
	case "MMM":
		return t.Month().String()[:3]
	case "MM":
		return pad(int(t.Month()), 2)
	case "M":
		return strconv.Itoa(int(t.Month()))
	case "DDDD":
		return pad(t.YearDay(), 3)
	case "DDD":
		return strconv.Itoa(t.YearDay())
	case "DD":
		return pad(t.Day(), 2)
	case "Do":
		return ordinal(t.Day())
	case "D":
		return strconv.Itoa(t.Day())
	case "dddd":
		return t.Weekday().String()
	case "ddd":
		return t.Weekday().String()[:3]
	case "d":
		return strconv.Itoa(int(t.Weekday()))
	case "WW":
		return pad(isoWeek, 2)
	case "W":
		return strconv.Itoa(isoWeek)
	case "ww":
		return pad(LocaleWeek(t), 2)
	case "w":
		return strconv.Itoa(LocaleWeek(t))
	case "HH":
		return pad(t.Hour(), 2)
	case "H":
		return strconv.Itoa(t.Hour())
	case "hh":
		return pad(hour12(t), 2)
	case "h":
		return strconv.Itoa(hour12(t))
	case "mm":
		return pad(t.Minute(), 2)
	case "m":
		return strconv.Itoa(t.Minute())
	case "ss":
		return pad(t.Second(), 2)
	case "s":
		return strconv.Itoa(t.Second())
	case "A":
		if t.Hour() < 12 {
			return "AM"
		}
		return "PM"
	case "a":
		if t.Hour() < 12 {
			return "am"
		}
		return "pm"
	}
	return tok
}

// LocaleWeek returns the Sunday-start week of t. A week belongs to the year
// of its Saturday, so the days before January 1 in week 1 report week 1.
func LocaleWeek(t time.Time) int {
	sat := t.AddDate(0, 0, int(time.Saturday-t.Weekday()))
	return (sat.YearDay()-1)/7 + 1
}

// Quarter returns the calendar quarter of t, 1 through 4.
func Quarter(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

func hour12(t time.Time) int {
	h := t.Hour() % 12
	if h == 0 {
		return 12
	}
	return h
}

func pad(n, width int) string {
	s := strconv.Itoa(n)
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

func ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}
