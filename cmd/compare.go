package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/gridwalk/app"
	"github.com/kilianp07/gridwalk/core/runner"
	"github.com/kilianp07/gridwalk/pkg/export"
)

var (
	compareFlags      walkFlags
	compareStrategies []string
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run several strategies on the same grid and compare their scores",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *app.Service) error {
			g, req, err := compareFlags.load(svc)
			if err != nil {
				return err
			}
			reports, best, err := svc.Compare(ctx, g, req, compareStrategies)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if compareFlags.format != export.FormatText {
				for _, rep := range reports {
					if rep.Err != nil {
						continue
					}
					if err := export.Write(out, compareFlags.format, rep.Result); err != nil {
						return err
					}
				}
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "strategy\tscore\tsteps\tduration\toutcome")
			for _, rep := range reports {
				score, steps := "-", "-"
				if rep.Err == nil {
					score = fmt.Sprint(rep.Result.Score())
					steps = fmt.Sprint(rep.Result.Len())
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", rep.Strategy, score, steps,
					rep.Duration.Round(time.Microsecond), runner.Classify(rep.Err))
			}
			if best != "" {
				fmt.Fprintf(tw, "best\t%s\t\t\t\n", best)
			}
			return tw.Flush()
		})
	},
}

func init() {
	compareFlags.register(compareCmd)
	compareCmd.Flags().StringSliceVarP(&compareStrategies, "strategies", "s", nil, "strategies to compare (all registered when empty)")
}
