package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/penguin/telemetry"
)

// trajectoryStats accumulates per-episode totals from a trajectory file.
type trajectoryStats struct {
	decisions int
	episodes  int
	reward    float64
	reasons   map[string]int
}

func (s *trajectoryStats) add(rec telemetry.TrajectoryRecord) {
	s.reward += rec.Reward
	if rec.Done {
		s.episodes++
		s.reasons[rec.Reason]++
		return
	}
	s.decisions++
}

func newTrajectoryCmd() *cobra.Command {
	var (
		dump  bool
		arena int
	)
	cmd := &cobra.Command{
		Use:   "trajectory FILE",
		Short: "Summarize or dump a zstd JSONL trajectory file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			stats := trajectoryStats{reasons: map[string]int{}}
			enc := json.NewEncoder(out)

			err := telemetry.ReadTrajectory(args[0], func(rec telemetry.TrajectoryRecord) error {
				if arena >= 0 && rec.Arena != arena {
					return nil
				}
				if dump {
					return enc.Encode(rec)
				}
				stats.add(rec)
				return nil
			})
			if err != nil || dump {
				return err
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "decisions\t%d\n", stats.decisions)
			fmt.Fprintf(w, "episodes\t%d\n", stats.episodes)
			fmt.Fprintf(w, "total reward\t%.3f\n", stats.reward)
			if stats.episodes > 0 {
				fmt.Fprintf(w, "mean reward\t%.3f\n", stats.reward/float64(stats.episodes))
			}
			for reason, n := range stats.reasons {
				fmt.Fprintf(w, "ended %s\t%d\n", reason, n)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "print every record as JSON")
	cmd.Flags().IntVar(&arena, "arena", -1, "restrict to one arena (-1 = all)")
	return cmd
}
