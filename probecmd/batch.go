package probecmd

import (
	"bufio"
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/streamkit/errors"
)

func newBatchCmd(ctx context.Context, configPath *string) *cobra.Command {
	var (
		flags      probeFlags
		thresholds []int
	)
	c := &cobra.Command{
		Use:   "batch",
		Short: "probes several thresholds concurrently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := setup(ctx, cmd, *configPath, &flags, func(cfg *Config) {
				if cmd.Flags().Changed("thresholds") {
					cfg.Probe.Thresholds = thresholds
				}
			})
			if err != nil {
				return err
			}
			defer s.close()

			if len(s.cfg.Probe.Thresholds) == 0 {
				return errors.MissingField("thresholds")
			}
			results, err := s.prober.RunBatch(ctx, s.cfg.Probe.Thresholds)
			if err != nil {
				return err
			}

			bw := bufio.NewWriter(cmd.OutOrStdout())
			fmtStr := "%-10v %-6v %v\n"
			fmt.Fprintf(bw, fmtStr, "ABOVE", "FOUND", "ELAPSED")
			for _, r := range results {
				fmt.Fprintf(bw, fmtStr, r.Above, r.Found, r.Elapsed)
			}
			return bw.Flush()
		},
	}
	flags.register(c)
	c.Flags().IntSliceVar(&thresholds, "thresholds", nil, "comma-separated thresholds to probe")
	c.Flags().IntVar(&flags.parallelism, "parallelism", 0, "maximum concurrent probes (0 = unlimited)")
	return c
}
