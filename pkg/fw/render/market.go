package render

import (
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/komsit37/fundwl/pkg/fw/columns"
	"github.com/komsit37/fundwl/pkg/fw/types"
)

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func rightAligned(from, to int) []table.ColumnConfig {
	var cfgs []table.ColumnConfig
	for n := from; n <= to; n++ {
		cfgs = append(cfgs, table.ColumnConfig{Number: n, Align: text.AlignRight, AlignHeader: text.AlignRight})
	}
	return cfgs
}

// Indices writes index quotes as a table, or as JSON when asJSON is set.
func Indices(w io.Writer, qs []types.Quote, asJSON bool, opts RenderOptions) error {
	if asJSON {
		return encode(w, qs, opts.PrettyJSON)
	}
	tw := newWriter(w)
	tw.AppendHeader(table.Row{"代码", "名称", "最新", "涨跌", "涨跌幅", "更新"})
	tw.SetColumnConfigs(rightAligned(3, 5))
	for _, q := range qs {
		s := sign(q.Change)
		tw.AppendRow(table.Row{
			q.CanonicalCode,
			q.Name,
			colorize(strconv.FormatFloat(q.Price, 'f', 2, 64), s, opts.Color),
			colorize(strconv.FormatFloat(q.Change, 'f', 2, 64), s, opts.Color),
			colorize(columns.FormatPct(q.ChangePercent), s, opts.Color),
			q.UpdateTime,
		})
	}
	tw.Render()
	return nil
}

// Sectors writes a sector ranking board.
func Sectors(w io.Writer, ss []types.Sector, asJSON bool, opts RenderOptions) error {
	if asJSON {
		return encode(w, ss, opts.PrettyJSON)
	}
	tw := newWriter(w)
	tw.AppendHeader(table.Row{"板块", "涨跌幅", "换手率", "上涨/下跌", "领涨", "领跌"})
	tw.SetColumnConfigs(rightAligned(2, 3))
	for _, s := range ss {
		tw.AppendRow(table.Row{
			s.Name,
			colorize(columns.FormatPct(s.ChangePercent), sign(s.ChangePercent), opts.Color),
			strconv.FormatFloat(s.TurnoverRate, 'f', 2, 64) + "%",
			strconv.Itoa(s.UpCount) + "/" + strconv.Itoa(s.DownCount),
			mover(s.Leader, opts.Color),
			mover(s.Laggard, opts.Color),
		})
	}
	tw.Render()
	return nil
}

func mover(m types.Mover, color bool) string {
	if m.Name == "" {
		return ""
	}
	return m.Name + " " + colorize(columns.FormatPct(m.ChangePercent), sign(m.ChangePercent), color)
}

// History writes NAV points, newest first.
func History(w io.Writer, pts []types.NavPoint, asJSON bool, opts RenderOptions) error {
	if asJSON {
		return encode(w, pts, opts.PrettyJSON)
	}
	tw := newWriter(w)
	tw.AppendHeader(table.Row{"日期", "单位净值", "累计净值", "日增长率"})
	tw.SetColumnConfigs(rightAligned(2, 4))
	for i := len(pts) - 1; i >= 0; i-- {
		p := pts[i]
		acc := ""
		if p.AccNav > 0 {
			acc = strconv.FormatFloat(p.AccNav, 'f', 4, 64)
		}
		tw.AppendRow(table.Row{
			p.Date,
			strconv.FormatFloat(p.Nav, 'f', 4, 64),
			acc,
			colorize(columns.FormatPct(p.DailyGrowthPct), sign(p.DailyGrowthPct), opts.Color),
		})
	}
	tw.Render()
	return nil
}
