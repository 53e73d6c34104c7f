package script

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

var testContext = Context{
	Path: "Daily/2024-01-15.md",
	Now:  time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC),
}

func TestExpand(t *testing.T) {
	e := New()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"plain", "no tags", "no tags"},
		{"title", "# <% tp.file.title %>", "# 2024-01-15"},
		{"path and folder", "<% tp.file.path %> in <% tp.file.folder %>", "Daily/2024-01-15.md in Daily"},
		{"date default", "<% tp.date.now() %>", "2024-01-15"},
		{"date format and offset", `<% tp.date.now("dddd", 1) %>`, "Tuesday"},
		{"yesterday", `<% tp.date.yesterday("MM-DD") %>`, "01-14"},
		{"tomorrow", `<% tp.date.tomorrow() %>`, "2024-01-16"},
		{"arithmetic", "<% 6 * 7 %>", "42"},
		{"string functions", `<% string.upper("done") %>`, "DONE"},
		{"nil renders empty", "[<% nil %>]", "[]"},
		{"empty tag", "[<% %>]", "[]"},
		{"exec appends", `a<%* tR = tR .. "b" %>c`, "abc"},
		{"exec loop", `<%* for i = 1, 3 do tR = tR .. "- [ ] task " .. i .. "\n" end %>`, "- [ ] task 1\n- [ ] task 2\n- [ ] task 3\n"},
		{"exec replaces", `draft<%* tR = "final" %>!`, "final!"},
		{"globals persist across tags", `<%* greeting = "hi" %><% greeting %>`, "hi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Expand(context.Background(), tt.src, testContext)
			if err != nil {
				t.Fatalf("Expand failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expand(%q) = %q, want %q", tt.src, got, tt.want)
			}
		})
	}
}

func TestExpand_Unterminated(t *testing.T) {
	_, err := New().Expand(context.Background(), "line one\n<% tp.file.title", testContext)
	if !errors.Is(err, ErrUnterminatedTag) {
		t.Fatalf("expected ErrUnterminatedTag, got %v", err)
	}
	var serr *Error
	if !errors.As(err, &serr) || serr.Line != 2 {
		t.Errorf("expected error on line 2, got %v", err)
	}
}

func TestExpand_LuaError(t *testing.T) {
	_, err := New().Expand(context.Background(), "ok\n\n<% undefined_fn() %>", testContext)
	var serr *Error
	if !errors.As(err, &serr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if serr.Line != 3 || serr.Code != "undefined_fn()" {
		t.Errorf("error location: line %d code %q", serr.Line, serr.Code)
	}
}

func TestExpand_Sandboxed(t *testing.T) {
	e := New()
	for _, src := range []string{
		`<% io.open("/etc/passwd") %>`,
		`<% os.execute("true") %>`,
		`<% dofile("x.lua") %>`,
		`<% require("os") %>`,
		`<% load("return 1")() %>`,
	} {
		if _, err := e.Expand(context.Background(), src, testContext); err == nil {
			t.Errorf("Expand(%q) should fail in the sandbox", src)
		}
	}
}

func TestExpand_Timeout(t *testing.T) {
	e := New(WithTimeout(50 * time.Millisecond))

	start := time.Now()
	_, err := e.Expand(context.Background(), "<%* while true do end %>", testContext)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 5*time.Second {
		t.Errorf("expansion not interrupted promptly: %v", time.Since(start))
	}
}

func TestExpand_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(WithTimeout(0)).Expand(ctx, "<%* while true do end %>", testContext)
	if err == nil || !strings.Contains(err.Error(), "template line 1") {
		t.Errorf("expected canceled expansion error, got %v", err)
	}
}
