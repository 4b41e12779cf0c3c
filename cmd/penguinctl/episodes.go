package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"github.com/pthm-cable/penguin/storage"
	"github.com/pthm-cable/penguin/telemetry"
)

// dbFlags are shared by every command that reads the episode database.
type dbFlags struct {
	path  string
	runID string
}

func (f *dbFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.path, "db", os.Getenv("PENGUIN_DB"), "episode database (default $PENGUIN_DB)")
	cmd.Flags().StringVar(&f.runID, "run", "", "restrict to one run ID")
}

func (f *dbFlags) open() (*storage.EpisodeDB, error) {
	if f.path == "" {
		return nil, errors.New("no database: pass --db or set PENGUIN_DB")
	}
	return storage.Open(f.path)
}

func newEpisodesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "episodes",
		Short: "Query finished episodes",
	}
	cmd.AddCommand(newEpisodesListCmd(), newEpisodesBestCmd(), newEpisodesSummaryCmd(), newEpisodesExportCmd())
	return cmd
}

func newEpisodesListCmd() *cobra.Command {
	var (
		db    dbFlags
		arena int
		limit int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List episodes in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := db.open()
			if err != nil {
				return err
			}
			defer s.Close()

			recs, err := s.List(cmd.Context(), storage.Filter{RunID: db.runID, Arena: arena, Limit: limit})
			if err != nil {
				return err
			}
			return printEpisodes(cmd.OutOrStdout(), recs)
		},
	}
	db.register(cmd)
	cmd.Flags().IntVar(&arena, "arena", -1, "restrict to one arena (-1 = all)")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows (0 = no limit)")
	return cmd
}

func newEpisodesBestCmd() *cobra.Command {
	var (
		db dbFlags
		n  int
	)
	cmd := &cobra.Command{
		Use:   "best",
		Short: "Show the highest-reward episodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := db.open()
			if err != nil {
				return err
			}
			defer s.Close()

			recs, err := s.Best(cmd.Context(), db.runID, n)
			if err != nil {
				return err
			}
			return printEpisodes(cmd.OutOrStdout(), recs)
		},
	}
	db.register(cmd)
	cmd.Flags().IntVarP(&n, "top", "n", 10, "number of episodes")
	return cmd
}

func newEpisodesSummaryCmd() *cobra.Command {
	var db dbFlags
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Aggregate the episodes of a run",
		RunE: func(cmd *cobra.Command, args []string) error {
			if db.runID == "" {
				return errors.New("summary needs --run")
			}
			s, err := db.open()
			if err != nil {
				return err
			}
			defer s.Close()

			sum, err := s.Summary(cmd.Context(), db.runID)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "run\t%s\n", sum.RunID)
			fmt.Fprintf(w, "episodes\t%d\n", sum.Episodes)
			fmt.Fprintf(w, "completed\t%d\n", sum.Completed)
			fmt.Fprintf(w, "mean reward\t%.3f\n", sum.MeanReward)
			fmt.Fprintf(w, "best reward\t%.3f\n", sum.BestReward)
			fmt.Fprintf(w, "mean steps\t%.1f\n", sum.MeanSteps)
			return w.Flush()
		},
	}
	db.register(cmd)
	return cmd
}

func newEpisodesExportCmd() *cobra.Command {
	var (
		db  dbFlags
		out string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export episodes as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := db.open()
			if err != nil {
				return err
			}
			defer s.Close()

			recs, err := s.List(cmd.Context(), storage.Filter{RunID: db.runID, Arena: -1})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return gocsv.Marshal(recs, w)
		},
	}
	db.register(cmd)
	cmd.Flags().StringVarP(&out, "output", "o", "-", "output file (- = stdout)")
	return cmd
}

func newRunsCmd() *cobra.Command {
	var db dbFlags
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := db.open()
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.Runs(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RUN\tSTARTED\tSEED\tPOLICY\tARENAS")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\n", r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Seed, r.Policy, r.Arenas)
			}
			return w.Flush()
		},
	}
	db.register(cmd)
	return cmd
}

func printEpisodes(out io.Writer, recs []telemetry.EpisodeRecord) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tARENA\tEPISODE\tSTEPS\tREWARD\tFED\tLEFT\tREASON")
	for _, r := range recs {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.3f\t%d\t%d\t%s\n",
			shortID(r.RunID), r.Arena, r.Episode, r.Steps, r.Reward, r.BabiesFed, r.FishRemaining, r.Reason)
	}
	return w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
