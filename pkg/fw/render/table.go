package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/komsit37/fundwl/pkg/fw/columns"
)

const defaultMaxColWidth = 40

// numeric columns are right aligned
var numeric = map[string]bool{
	"nav": true, "est": true, "chg%": true, "shares": true, "cost": true, "amount": true,
	"value": true, "today": true, "profit": true, "return%": true,
}

type TableRenderer struct{}

func NewTableRenderer() *TableRenderer { return &TableRenderer{} }

func (r *TableRenderer) Render(w io.Writer, sections []Section, opts RenderOptions) error {
	multi := len(sections) > 1
	for si, sec := range sections {
		cols := sec.Columns

		if multi && strings.TrimSpace(sec.Name) != "" {
			fmt.Fprintln(w, text.Bold.Sprint(sec.Name))
		}

		tw := newWriter(w)
		hdr := make(table.Row, len(cols))
		for i, c := range cols {
			hdr[i] = columns.Header(c)
		}
		tw.AppendHeader(hdr)
		tw.SetColumnConfigs(columnConfigs(cols, opts.MaxColWidth))

		for _, row := range sec.Rows {
			out := make(table.Row, len(cols))
			for i, c := range cols {
				cell := columns.RenderValue(c, row)
				switch c {
				case "est", "chg%", "today", "profit", "return%":
					out[i] = colorize(cell.Text, cell.Sign, opts.Color)
				default:
					out[i] = cell.Text
				}
			}
			tw.AppendRow(out)
		}

		tw.Render()
		if si < len(sections)-1 {
			fmt.Fprintln(w)
		}
	}
	return nil
}

func newWriter(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleColoredDark)
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateRows = false
	tw.Style().Options.SeparateColumns = false
	tw.Style().Format.Header = text.FormatDefault
	return tw
}

func columnConfigs(cols []string, maxWidth int) []table.ColumnConfig {
	if maxWidth <= 0 {
		maxWidth = defaultMaxColWidth
	}
	cfgs := make([]table.ColumnConfig, 0, len(cols))
	for i, c := range cols {
		cfg := table.ColumnConfig{Number: i + 1, WidthMax: maxWidth}
		if numeric[c] {
			cfg.Align = text.AlignRight
			cfg.AlignHeader = text.AlignRight
		}
		cfgs = append(cfgs, cfg)
	}
	return cfgs
}
