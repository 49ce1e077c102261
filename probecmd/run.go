package probecmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newRunCmd(ctx context.Context, configPath *string) *cobra.Command {
	var (
		flags probeFlags
		above int
	)
	c := &cobra.Command{
		Use:   "run",
		Short: "probes a single threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := setup(ctx, cmd, *configPath, &flags, func(cfg *Config) {
				if cmd.Flags().Changed("above") {
					cfg.Probe.Above = above
				}
			})
			if err != nil {
				return err
			}
			defer s.close()

			res, err := s.prober.Run(ctx, s.cfg.Probe.Above)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "any n > %d in %s: %t\n",
				res.Above, rangeString(s.cfg.Probe), res.Found)
			return err
		},
	}
	flags.register(c)
	c.Flags().IntVar(&above, "above", 5, "threshold a number must exceed")
	return c
}

func rangeString(p ProbeSettings) string {
	return fmt.Sprintf("[%d, %d)", p.Start, p.Start+p.Count)
}
