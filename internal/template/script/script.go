// Package script expands templates that embed Lua between <% and %> tags.
//
// <% expr %> is replaced by the value of the Lua expression. <%* stmts %>
// runs statements for their effect; the variable tR holds the output
// rendered so far and whatever it holds afterwards becomes the output.
// Templates reach note and date information through the tp table:
//
//	tp.date.now([format [, offsetDays]])
//	tp.date.tomorrow([format]), tp.date.yesterday([format])
//	tp.file.title, tp.file.path, tp.file.folder
//
// Each expansion runs in a fresh sandboxed state without io, os, debug or
// module loading.
package script

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/calnotes/internal/datefmt"
	"github.com/dshills/calnotes/internal/vfs"
)

// DefaultTimeout bounds one expansion.
const DefaultTimeout = 2 * time.Second

// ErrUnterminatedTag indicates a <% without a closing %>.
var ErrUnterminatedTag = errors.New("unterminated template tag")

// Error reports a failure inside one tag.
type Error struct {
	// Line is the template line the tag starts on, 1-based.
	Line int
	// Code is the tag body.
	Code string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("template line %d: %v", e.Line, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Context supplies the note the template is rendered for.
type Context struct {
	// Path is the vault path of the note.
	Path string
	// Now is the reference time for tp.date.
	Now time.Time
}

// Engine expands scripted templates.
type Engine struct {
	timeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout bounds each expansion. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type segment struct {
	text string
	code bool
	exec bool
	line int
}

// parse splits src into literal text and tag segments.
func parse(src string) ([]segment, error) {
	var segs []segment
	rest := src
	offset := 0
	for {
		start := strings.Index(rest, "<%")
		if start < 0 {
			if rest != "" {
				segs = append(segs, segment{text: rest})
			}
			return segs, nil
		}
		if start > 0 {
			segs = append(segs, segment{text: rest[:start]})
		}

		body := rest[start+2:]
		end := strings.Index(body, "%>")
		tagOffset := offset + start
		line := strings.Count(src[:tagOffset], "\n") + 1
		if end < 0 {
			return nil, &Error{Line: line, Err: ErrUnterminatedTag}
		}

		code := body[:end]
		exec := strings.HasPrefix(code, "*")
		if exec {
			code = code[1:]
		}
		segs = append(segs, segment{
			text: strings.TrimSpace(code),
			code: true,
			exec: exec,
			line: line,
		})

		consumed := start + 2 + end + 2
		rest = rest[consumed:]
		offset += consumed
	}
}

// Expand renders src for the note described by tc.
func (e *Engine) Expand(ctx context.Context, src string, tc Context) (string, error) {
	segs, err := parse(src)
	if err != nil {
		return "", err
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	L := newSandbox()
	defer L.Close()
	L.SetContext(ctx)
	installTP(L, tc)

	var out strings.Builder
	for _, seg := range segs {
		if !seg.code {
			out.WriteString(seg.text)
			continue
		}

		if seg.exec {
			L.SetGlobal("tR", lua.LString(out.String()))
			if err := run(L, seg.text, 0); err != nil {
				return "", &Error{Line: seg.line, Code: seg.text, Err: err}
			}
			out.Reset()
			out.WriteString(luaString(L.GetGlobal("tR")))
			continue
		}

		if seg.text == "" {
			continue
		}
		if err := run(L, "return "+seg.text, 1); err != nil {
			return "", &Error{Line: seg.line, Code: seg.text, Err: err}
		}
		out.WriteString(luaString(L.Get(-1)))
		L.Pop(1)
	}
	return out.String(), nil
}

// run compiles and calls chunk, leaving nret results on the stack.
func run(L *lua.LState, chunk string, nret int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()

	fn, err := L.LoadString(chunk)
	if err != nil {
		return err
	}
	L.Push(fn)
	return L.PCall(0, nret, nil)
}

func luaString(v lua.LValue) string {
	if v == lua.LNil {
		return ""
	}
	return v.String()
}

// newSandbox opens only the base, table, string and math libraries.
func newSandbox() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
	L.SetTop(0)
	return L
}

func installTP(L *lua.LState, tc Context) {
	dateFn := func(days int) lua.LGFunction {
		return func(L *lua.LState) int {
			format := L.OptString(1, datefmt.DefaultDate)
			offset := days
			if days == 0 {
				offset = L.OptInt(2, 0)
			}
			L.Push(lua.LString(datefmt.Format(tc.Now.AddDate(0, 0, offset), format)))
			return 1
		}
	}

	date := L.NewTable()
	L.SetField(date, "now", L.NewFunction(dateFn(0)))
	L.SetField(date, "tomorrow", L.NewFunction(dateFn(1)))
	L.SetField(date, "yesterday", L.NewFunction(dateFn(-1)))

	name := vfs.Base(tc.Path)
	file := L.NewTable()
	L.SetField(file, "title", lua.LString(strings.TrimSuffix(name, vfs.Ext(name))))
	L.SetField(file, "path", lua.LString(vfs.Clean(tc.Path)))
	L.SetField(file, "folder", lua.LString(vfs.Dir(tc.Path)))

	tp := L.NewTable()
	L.SetField(tp, "date", date)
	L.SetField(tp, "file", file)
	L.SetGlobal("tp", tp)
}
