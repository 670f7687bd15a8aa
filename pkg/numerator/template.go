package numerator

import (
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultFormat renders the bare counter value.
const DefaultFormat = "%%no%%"

const (
	delimiter   = "%%"
	modifierSep = "#"

	// maxPadWidth bounds padding so a hostile template cannot allocate unbounded memory.
	maxPadWidth = 64
)

// Context carries the values a format template can reference.
type Context struct {
	No         int64
	Codes      [5]string
	FiscalYear int
	Date       time.Time
}

type resolver func(c *Context) string

// placeholders is the closed set of names Render understands.
var placeholders = map[string]resolver{
	"no":          func(c *Context) string { return strconv.FormatInt(c.No, 10) },
	"code1":       func(c *Context) string { return c.Codes[0] },
	"code2":       func(c *Context) string { return c.Codes[1] },
	"code3":       func(c *Context) string { return c.Codes[2] },
	"code4":       func(c *Context) string { return c.Codes[3] },
	"code5":       func(c *Context) string { return c.Codes[4] },
	"fiscal_year": func(c *Context) string { return strconv.Itoa(c.FiscalYear) },
	"year":        func(c *Context) string { return strconv.Itoa(c.Date.Year()) },
	"month":       func(c *Context) string { return strconv.Itoa(int(c.Date.Month())) },
	"day":         func(c *Context) string { return strconv.Itoa(c.Date.Day()) },
}

// Placeholders returns the supported placeholder names in sorted order.
func Placeholders() []string {
	names := make([]string, 0, len(placeholders))
	for name := range placeholders {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Render substitutes every %%name%% token in format with its value from ctx.
// Text outside tokens is copied verbatim and an unterminated %% is literal.
//
// A token may carry a padding modifier, %%name#:C>W%%, which left-pads the
// value with rune C up to W runes: %%no#:0>5%% renders 42 as "00042".
//
// Unknown names render as "" and are returned in the second result, as are
// tokens with a malformed modifier (those render unpadded). Render never fails.
// An empty format means DefaultFormat.
func Render(format string, ctx Context) (string, []string) {
	if format == "" {
		format = DefaultFormat
	}

	var (
		b          strings.Builder
		unresolved []string
		rest       = format
	)
	b.Grow(len(format))

	for {
		start := strings.Index(rest, delimiter)
		if start < 0 {
			b.WriteString(rest)
			break
		}
		open := start + len(delimiter)
		end := strings.Index(rest[open:], delimiter)
		if end < 0 {
			b.WriteString(rest)
			break
		}

		b.WriteString(rest[:start])
		token := rest[open : open+end]
		value, ok := resolve(token, &ctx)
		if !ok {
			unresolved = append(unresolved, token)
		}
		b.WriteString(value)
		rest = rest[open+end+len(delimiter):]
	}

	return b.String(), unresolved
}

func resolve(token string, ctx *Context) (string, bool) {
	name, modifier, hasModifier := strings.Cut(token, modifierSep)
	fn, ok := placeholders[name]
	if !ok {
		return "", false
	}

	value := fn(ctx)
	if !hasModifier {
		return value, true
	}

	pad, width, ok := parsePadding(modifier)
	if !ok {
		return value, false
	}
	return padLeft(value, pad, width), true
}

// parsePadding parses ":C>W" where C is a single rune and W a positive width.
func parsePadding(modifier string) (rune, int, bool) {
	spec, found := strings.CutPrefix(modifier, ":")
	if !found || spec == "" {
		return 0, 0, false
	}

	pad, size := utf8.DecodeRuneInString(spec)
	if pad == utf8.RuneError {
		return 0, 0, false
	}

	widthStr, found := strings.CutPrefix(spec[size:], ">")
	if !found {
		return 0, 0, false
	}

	width, err := strconv.Atoi(widthStr)
	if err != nil || width < 1 || width > maxPadWidth {
		return 0, 0, false
	}
	return pad, width, true
}

func padLeft(value string, pad rune, width int) string {
	missing := width - utf8.RuneCountInString(value)
	if missing <= 0 {
		return value
	}
	return strings.Repeat(string(pad), missing) + value
}
