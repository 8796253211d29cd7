package render

import (
	"encoding/json"
	"io"

	"github.com/komsit37/fundwl/pkg/fw/columns"
	"github.com/komsit37/fundwl/pkg/fw/types"
)

// jsonModel is the output shape for JSONRenderer.
type jsonModel struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Items   []jsonItem `json:"items"`
}

type jsonItem struct {
	Code   string               `json:"code"`
	Name   string               `json:"name"`
	Fields map[string]any       `json:"fields"`
	Entry  types.WatchlistEntry `json:"entry"`
	// Display is absent when the fund has never had a value.
	Display *types.DisplayRecord `json:"display,omitempty"`
	Error   string               `json:"error,omitempty"`
}

type JSONRenderer struct{}

func NewJSONRenderer() *JSONRenderer { return &JSONRenderer{} }

func (r *JSONRenderer) Render(w io.Writer, sections []Section, opts RenderOptions) error {
	out := make([]jsonModel, 0, len(sections))
	for _, s := range sections {
		items := make([]jsonItem, 0, len(s.Rows))
		for _, row := range s.Rows {
			fields := make(map[string]any, len(s.Columns))
			for _, c := range s.Columns {
				if v := columns.RenderValue(c, row).Value; v != nil {
					fields[c] = v
				}
			}
			items = append(items, jsonItem{
				Code:    row.Entry.FundCode,
				Name:    row.Entry.Name,
				Fields:  fields,
				Entry:   row.Entry,
				Display: row.Display,
				Error:   row.Err,
			})
		}
		out = append(out, jsonModel{Name: s.Name, Columns: s.Columns, Items: items})
	}
	return encode(w, out, opts.PrettyJSON)
}

func encode(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
