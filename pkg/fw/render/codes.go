package render

import (
	"fmt"
	"io"
	"strings"
)

// codesRenderer prints all fund codes in a single comma-separated line.
type codesRenderer struct{}

func NewCodesRenderer() Renderer {
	return codesRenderer{}
}

func (codesRenderer) Render(w io.Writer, sections []Section, _ RenderOptions) error {
	codes := make([]string, 0)
	seen := map[string]bool{}
	for _, s := range sections {
		for _, row := range s.Rows {
			c := strings.TrimSpace(row.Entry.FundCode)
			if c == "" || seen[c] {
				continue
			}
			seen[c] = true
			codes = append(codes, c)
		}
	}
	_, err := fmt.Fprintln(w, strings.Join(codes, ","))
	return err
}
