package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/komsit37/fundwl/pkg/fw/filter"
	"github.com/komsit37/fundwl/pkg/fw/render"
	"github.com/komsit37/fundwl/pkg/fw/source"
	"github.com/komsit37/fundwl/pkg/fw/types"
)

type staticSource []source.Group

func (s staticSource) Load(context.Context, any) ([]source.Group, error) { return s, nil }

type failingSource struct{}

func (failingSource) Load(context.Context, any) ([]source.Group, error) {
	return nil, errors.New("db locked")
}

// tick refreshes successfully on the first call and fails afterwards,
// keeping whatever prev says.
type tick struct {
	calls int
	prevs [][]types.Row
}

func (t *tick) Refresh(_ context.Context, entries []types.WatchlistEntry, prev []types.Row) []types.Row {
	t.calls++
	t.prevs = append(t.prevs, prev)
	byCode := map[string]types.Row{}
	for _, p := range prev {
		byCode[p.Entry.FundCode] = p
	}
	out := make([]types.Row, len(entries))
	for i, e := range entries {
		if t.calls == 1 {
			out[i] = types.Row{Entry: e, Display: &types.DisplayRecord{NetValue: 1.1}}
			continue
		}
		row := byCode[e.FundCode]
		row.Entry = e
		row.Err = "timeout"
		out[i] = row
	}
	return out
}

type capture struct{ sections []render.Section }

func (c *capture) Render(_ io.Writer, s []render.Section, _ render.RenderOptions) error {
	c.sections = s
	return nil
}

func groups() staticSource {
	return staticSource{
		{Name: "混合型", Entries: []types.WatchlistEntry{{FundCode: "000001", Name: "华夏成长混合"}, {FundCode: "000003"}}},
		{Name: "指数型", Columns: []string{"code", "est"}, Entries: []types.WatchlistEntry{{FundCode: "161725", Name: "招商中证白酒指数"}}},
	}
}

func TestExecuteSections(t *testing.T) {
	c := &capture{}
	r := &Runner{Source: groups(), Refresher: &tick{}, Renderer: c, Writer: io.Discard}
	if err := r.Execute(context.Background(), nil, ExecuteOptions{}); err != nil {
		t.Fatal(err)
	}
	if len(c.sections) != 2 {
		t.Fatalf("len(sections) = %d, want 2", len(c.sections))
	}
	if got := c.sections[0].Rows; len(got) != 2 || got[1].Entry.FundCode != "000003" {
		t.Errorf("section 0 rows = %+v", got)
	}
	if diff := cmp.Diff([]string{"code", "est"}, c.sections[1].Columns); diff != "" {
		t.Errorf("group columns mismatch (-want +got):\n%s", diff)
	}
	if c.sections[1].Rows[0].Display == nil {
		t.Error("row not refreshed")
	}
}

func TestExecuteFilterAndColumns(t *testing.T) {
	c := &capture{}
	r := &Runner{Source: groups(), Refresher: &tick{}, Renderer: c, Writer: io.Discard}
	f, _ := filter.Parse("白酒")
	if err := r.Execute(context.Background(), nil, ExecuteOptions{Filter: f, Columns: []string{"name"}}); err != nil {
		t.Fatal(err)
	}
	if len(c.sections) != 1 || c.sections[0].Name != "指数型" {
		t.Fatalf("sections = %+v", c.sections)
	}
	if diff := cmp.Diff([]string{"name"}, c.sections[0].Columns); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
}

func TestExecuteKeepsPreviousRows(t *testing.T) {
	c := &capture{}
	ref := &tick{}
	r := &Runner{Source: groups(), Refresher: ref, Renderer: c, Writer: io.Discard}
	ctx := context.Background()
	if err := r.Execute(ctx, nil, ExecuteOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := r.Execute(ctx, nil, ExecuteOptions{}); err != nil {
		t.Fatal(err)
	}
	if len(ref.prevs[1]) != 3 {
		t.Errorf("second refresh got %d previous rows, want 3", len(ref.prevs[1]))
	}
	row := c.sections[0].Rows[0]
	if row.Err == "" || row.Display == nil || row.Display.NetValue != 1.1 {
		t.Errorf("row after failed refresh = %+v", row)
	}
	if got := r.Rows()["161725"]; got.Err != "timeout" {
		t.Errorf("Rows()[161725] = %+v", got)
	}
}

func TestExecuteSourceError(t *testing.T) {
	r := &Runner{Source: failingSource{}, Renderer: render.NewCodesRenderer(), Writer: &bytes.Buffer{}}
	if err := r.Execute(context.Background(), nil, ExecuteOptions{}); err == nil {
		t.Error("Execute() error = nil")
	}
}

func TestExecuteWithoutRefresher(t *testing.T) {
	var buf bytes.Buffer
	r := &Runner{Source: groups(), Renderer: render.NewCodesRenderer(), Writer: &buf}
	if err := r.Execute(context.Background(), nil, ExecuteOptions{}); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "000001,000003,161725\n" {
		t.Errorf("output = %q", got)
	}
}
