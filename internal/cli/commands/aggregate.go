package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/viewlint-labs/viewlint/internal/artifact"
	"github.com/viewlint-labs/viewlint/internal/timing"
)

// NewAggregateCommand creates the aggregate command.
func NewAggregateCommand() *cobra.Command {
	var cleanStaleHours int

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Merge partial result artifacts",
		Long: `Merge the partial artifacts left by parallel lint runs into the
final results file. Aggregation is idempotent and safe to run from any
process; "viewlint lint" runs it automatically unless --no-aggregate
was given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := GetConfig(cmd.Context())
			r := GetRenderer(cmd.Context())

			store, err := artifact.NewStore(cfg.ArtifactsDir,
				artifact.WithLockTimeout(time.Duration(cfg.LockTimeoutMS)*time.Millisecond))
			if err != nil {
				return err
			}

			if cleanStaleHours > 0 {
				removed, err := store.CleanStale(time.Duration(cleanStaleHours) * time.Hour)
				if err != nil {
					return err
				}
				if removed > 0 {
					r.Printf("removed %d stale files\n", removed)
				}
			}

			for _, a := range []struct {
				name   string
				merger artifact.Merger
			}{
				{artifact.ResultsName, artifact.ResultsMerger{}},
				{timing.Name, timing.Merger{}},
				{artifact.SnapshotName, artifact.SnapshotMerger{}},
			} {
				_, merged, err := store.Aggregate(a.name, a.merger)
				if err != nil {
					return err
				}
				state, pending, err := store.Status(a.name)
				if err != nil {
					return err
				}
				switch {
				case merged:
					r.Success(fmt.Sprintf("%s: merged, now %s", a.name, state))
				case state == artifact.StateAbsent:
					r.Printf("%s: nothing to merge\n", a.name)
				default:
					r.Printf("%s: %s (%d pending)\n", a.name, state, pending)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&cleanStaleHours, "clean-stale", 0, "Remove partials older than N hours first")
	return cmd
}
