package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/komsit37/fundwl/pkg/fw/columns"
	"github.com/komsit37/fundwl/pkg/fw/config"
	"github.com/komsit37/fundwl/pkg/fw/filter"
	"github.com/komsit37/fundwl/pkg/fw/pipeline"
	"github.com/komsit37/fundwl/pkg/fw/render"
	"github.com/komsit37/fundwl/pkg/fw/schedule"
	"github.com/komsit37/fundwl/pkg/fw/source"
)

type showFlags struct {
	format      string
	columns     string
	sets        string
	filter      string
	group       string
	noColor     bool
	pretty      bool
	maxColWidth int
}

func (f *showFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "format", "o", "table", "output format: table, json, codes")
	cmd.Flags().StringVarP(&f.columns, "columns", "c", "", "comma-separated columns, e.g. code,name,est,chg%")
	cmd.Flags().StringVar(&f.sets, "set", "", "comma-separated column sets: default, holding, detail")
	cmd.Flags().StringVarP(&f.filter, "filter", "f", "", "filter funds by code, name or category (a,b | glob* | /regex/ | substring)")
	cmd.Flags().StringVar(&f.group, "group", "", "group the watchlist: category")
	cmd.Flags().BoolVar(&f.noColor, "no-color", false, "disable colors")
	cmd.Flags().BoolVar(&f.pretty, "pretty", false, "indent JSON output")
	cmd.Flags().IntVar(&f.maxColWidth, "max-col-width", 0, "wrap columns wider than this (default from terminal width)")
}

// runner builds the pipeline and options from flags. An argument names a
// YAML file or directory to show instead of the stored watchlist.
func (f *showFlags) runner(a *app, args []string) (*pipeline.Runner, any, pipeline.ExecuteOptions, error) {
	var opts pipeline.ExecuteOptions
	renderer, ok := render.ForFormat(f.format)
	if !ok {
		return nil, nil, opts, fmt.Errorf("unknown format %q", f.format)
	}

	cols := splitList(f.columns)
	if f.sets != "" {
		expanded, err := columns.ExpandSets(splitList(f.sets))
		if err != nil {
			return nil, nil, opts, err
		}
		cols = append(cols, expanded...)
	}
	if bad := columns.Unknown(cols); len(bad) > 0 {
		return nil, nil, opts, fmt.Errorf("unknown columns: %s", strings.Join(bad, ", "))
	}
	filt, err := filter.Parse(f.filter)
	if err != nil {
		return nil, nil, opts, err
	}

	width := detectTerminalWidth()
	maxCol := f.maxColWidth
	if maxCol <= 0 && width > 0 {
		maxCol = width / 3
	}
	opts = pipeline.ExecuteOptions{
		Columns:     cols,
		Filter:      filt,
		Color:       !f.noColor && width > 0,
		PrettyJSON:  f.pretty,
		MaxColWidth: maxCol,
	}

	r := &pipeline.Runner{Refresher: a.refresher, Renderer: renderer, Writer: os.Stdout}
	var spec any = source.GroupBy(f.group)
	r.Source = source.StoreSource{Store: a.store}
	if len(args) == 1 {
		r.Source = source.YAMLSource{}
		spec = args[0]
	}
	return r, spec, opts, nil
}

func showCmd(g *globals) *cobra.Command {
	f := &showFlags{}
	cmd := &cobra.Command{
		Use:   "show [file.yaml|dir]",
		Short: "Show the watchlist with current values",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(a *app) error {
				r, spec, opts, err := f.runner(a, args)
				if err != nil {
					return err
				}
				return r.Execute(cmd.Context(), spec, opts)
			})
		},
	}
	f.register(cmd)
	return cmd
}

func watchCmd(g *globals) *cobra.Command {
	f := &showFlags{}
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch [file.yaml|dir]",
		Short: "Show the watchlist and refresh it periodically",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(a *app) error {
				r, spec, opts, err := f.runner(a, args)
				if err != nil {
					return err
				}
				every := a.cfg.Refresh.Interval
				if interval > 0 {
					every = config.NormalizeInterval(interval)
				}
				return schedule.Run(cmd.Context(), every, func(ctx context.Context) error {
					if opts.Color {
						fmt.Fprint(os.Stdout, "\033[H\033[2J")
					}
					fmt.Fprintf(os.Stdout, "%s  (every %s)\n", time.Now().Format("2006-01-02 15:04:05"), every)
					return r.Execute(ctx, spec, opts)
				})
			})
		},
	}
	f.register(cmd)
	cmd.Flags().DurationVar(&interval, "interval", 0, "refresh interval: 30s, 1m or 5m (default from config)")
	return cmd
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
