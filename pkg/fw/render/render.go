// Package render writes watchlist rows, index quotes and sector boards.
package render

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/komsit37/fundwl/pkg/fw/types"
)

// Section is one titled table of rows.
type Section struct {
	Name    string
	Columns []string
	Rows    []types.Row
}

// Renderer renders sections to an output writer.
type Renderer interface {
	Render(w io.Writer, sections []Section, opts RenderOptions) error
}

type RenderOptions struct {
	Color       bool
	PrettyJSON  bool
	MaxColWidth int
}

// ForFormat returns the renderer for table, json or codes.
func ForFormat(format string) (Renderer, bool) {
	switch format {
	case "", "table":
		return NewTableRenderer(), true
	case "json":
		return NewJSONRenderer(), true
	case "codes":
		return NewCodesRenderer(), true
	}
	return nil, false
}

// colorize follows the mainland convention: red is up, green is down.
func colorize(s string, sign int, on bool) string {
	if !on || s == "" {
		return s
	}
	switch {
	case sign > 0:
		return text.Colors{text.FgRed}.Sprint(s)
	case sign < 0:
		return text.Colors{text.FgGreen}.Sprint(s)
	}
	return s
}
