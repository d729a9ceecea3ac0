package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/gridwalk/app"
	"github.com/kilianp07/gridwalk/core/grid"
	"github.com/kilianp07/gridwalk/core/model"
	"github.com/kilianp07/gridwalk/pkg/export"
)

type walkFlags struct {
	input    string
	row, col int
	budget   int
	rate     int64
	timeout  time.Duration
	format   string
}

func (f *walkFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.input, "input", "I", "", "grid file, one row of integers per line")
	fl.IntVarP(&f.row, "row", "x", 0, "start row")
	fl.IntVarP(&f.col, "col", "y", 0, "start column")
	fl.IntVarP(&f.budget, "steps", "T", 0, "step budget (configured value when 0)")
	fl.Int64VarP(&f.rate, "rate", "R", -1, "recovery rate (configured value when negative)")
	fl.DurationVar(&f.timeout, "timeout", 0, "planning timeout (configured value when 0)")
	fl.StringVarP(&f.format, "format", "f", export.FormatText, "output format: text, json or csv")
	_ = cmd.MarkFlagRequired("input")
}

// load reads the grid and merges the flags over the configured request.
func (f *walkFlags) load(svc *app.Service) (*grid.Grid, model.Request, error) {
	g, err := grid.Load(f.input)
	if err != nil {
		return nil, model.Request{}, err
	}
	req := svc.Config().Planner.Request()
	req.Start = grid.Cell{Row: f.row, Col: f.col}
	if f.budget > 0 {
		req.StepBudget = f.budget
	}
	if f.rate >= 0 {
		req.RecoveryRate = f.rate
	}
	if f.timeout > 0 {
		svc.Config().Planner.TimeoutMS = int(f.timeout / time.Millisecond)
	}
	return g, req, nil
}

var (
	planFlags    walkFlags
	planStrategy string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan a walk on a grid file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *app.Service) error {
			g, req, err := planFlags.load(svc)
			if err != nil {
				return err
			}
			rep, err := svc.Plan(ctx, g, req, planStrategy)
			if err != nil {
				return fmt.Errorf("run %s: %w", rep.RunID, err)
			}
			return export.Write(cmd.OutOrStdout(), planFlags.format, rep.Result)
		})
	},
}

func init() {
	planFlags.register(planCmd)
	planCmd.Flags().StringVarP(&planStrategy, "strategy", "s", "", "greedy, edge_flow or time_indexed (configured value when empty)")
}
