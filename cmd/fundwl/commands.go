package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/komsit37/fundwl/pkg/fw/render"
	"github.com/komsit37/fundwl/pkg/fw/source"
	"github.com/komsit37/fundwl/pkg/fw/types"
	"github.com/komsit37/fundwl/pkg/fw/watchlist"
)

func addCmd(g *globals) *cobra.Command {
	var amount, cost float64
	cmd := &cobra.Command{
		Use:   "add <code>",
		Short: "Add a fund by its 6-digit code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(a *app) error {
				r := a.watchlist.Add(cmd.Context(), args[0], watchlist.AddOptions{Amount: amount, Cost: cost})
				if !r.Success {
					return errors.New(r.Message)
				}
				fmt.Println(r.Message)
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&amount, "amount", 0, "invested amount")
	cmd.Flags().Float64Var(&cost, "cost", 0, "cost per share (default latest NAV)")
	return cmd
}

func rmCmd(g *globals) *cobra.Command {
	var purge bool
	cmd := &cobra.Command{
		Use:   "rm <code>",
		Short: "Remove a fund from the watchlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(a *app) error {
				if err := a.watchlist.Remove(cmd.Context(), args[0], purge); err != nil {
					return err
				}
				if err := a.history.Invalidate(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Println("已删除", args[0])
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&purge, "purge", false, "also delete stored NAV history")
	return cmd
}

func holdingCmd(g *globals) *cobra.Command {
	var amount, cost float64
	cmd := &cobra.Command{
		Use:   "holding <code>",
		Short: "Set or clear (amount 0) the holding of a fund",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(a *app) error {
				e, err := a.watchlist.UpdateHolding(cmd.Context(), args[0], amount, cost)
				if err != nil {
					return err
				}
				if e.Amount == 0 {
					fmt.Printf("%s 持仓已清空\n", e.FundCode)
					return nil
				}
				fmt.Printf("%s 投入 %.2f 成本 %.4f 份额 %.2f\n", e.FundCode, e.Amount, e.Cost, e.Shares)
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&amount, "amount", 0, "invested amount; 0 clears the holding")
	cmd.Flags().Float64Var(&cost, "cost", 0, "cost per share (default latest NAV)")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func reorderCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <code>...",
		Short: "Move funds to the top in the given order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(a *app) error {
				return a.watchlist.Reorder(cmd.Context(), args)
			})
		},
	}
}

func typesCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "Look up fund types again and update categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(a *app) error {
				n, err := a.watchlist.RefreshTypes(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("已更新 %d 只基金类型\n", n)
				return nil
			})
		},
	}
}

func refreshCmd(g *globals) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "refresh <code>",
		Short: "Drop cached history for one fund and show it fresh",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(a *app) error {
				e, err := a.store.GetEntry(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("%s: %w", args[0], err)
				}
				row := a.refresher.RefreshOne(cmd.Context(), e, types.Row{})
				var r render.Renderer = render.NewTableRenderer()
				if asJSON {
					r = render.NewJSONRenderer()
				}
				sec := render.Section{Columns: []string{"code", "name", "nav", "est", "chg%", "status", "source", "error"}, Rows: []types.Row{row}}
				return r.Render(os.Stdout, []render.Section{sec}, render.RenderOptions{Color: detectTerminalWidth() > 0})
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "JSON output")
	return cmd
}

func historyCmd(g *globals) *cobra.Command {
	var from, to string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "history <code>",
		Short: "Show official NAV history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(a *app) error {
				ctx := cmd.Context()
				// loading through the cache persists the latest series
				if _, err := a.history.FetchHistory(ctx, args[0]); err != nil {
					return err
				}
				pts, err := a.store.NavRange(ctx, args[0], from, to)
				if err != nil {
					return err
				}
				return render.History(os.Stdout, pts, asJSON, render.RenderOptions{Color: detectTerminalWidth() > 0})
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last date, YYYY-MM-DD")
	cmd.Flags().BoolVar(&asJSON, "json", false, "JSON output")
	return cmd
}

func indicesCmd(g *globals) *cobra.Command {
	var asJSON, pretty bool
	cmd := &cobra.Command{
		Use:   "indices",
		Short: "Show major market indices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(a *app) error {
				qs, err := a.indices.Fetch(cmd.Context(), a.cfg.Indices.Codes)
				if err != nil {
					return err
				}
				return render.Indices(os.Stdout, qs, asJSON, render.RenderOptions{Color: detectTerminalWidth() > 0, PrettyJSON: pretty})
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "JSON output")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent JSON output")
	return cmd
}

func sectorsCmd(g *globals) *cobra.Command {
	var down, asJSON bool
	cmd := &cobra.Command{
		Use:   "sectors",
		Short: "Show the industry sector ranking",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(a *app) error {
				ss, err := a.funds.FetchSectors(cmd.Context(), !down)
				if err != nil {
					return err
				}
				return render.Sectors(os.Stdout, ss, asJSON, render.RenderOptions{Color: detectTerminalWidth() > 0})
			})
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "rank decliners first")
	cmd.Flags().BoolVar(&asJSON, "json", false, "JSON output")
	return cmd
}

func importCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml|dir>",
		Short: "Add every fund listed in YAML watchlist files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(a *app) error {
				groups, err := source.YAMLSource{}.Load(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				added := 0
				for _, r := range source.Import(cmd.Context(), a.watchlist, groups) {
					if r.Success {
						added++
					}
					fmt.Println(r.Message)
				}
				fmt.Printf("共导入 %d 只基金\n", added)
				return nil
			})
		},
	}
}
