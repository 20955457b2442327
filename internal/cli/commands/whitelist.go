package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/viewlint-labs/viewlint/internal/artifact"
	"github.com/viewlint-labs/viewlint/internal/whitelist"
)

// NewWhitelistCommand creates the whitelist command and its
// subcommands.
func NewWhitelistCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whitelist",
		Short: "Manage the approved-findings whitelist",
	}
	cmd.AddCommand(newWhitelistGenerateCommand())
	cmd.AddCommand(newWhitelistShowCommand())
	return cmd
}

func newWhitelistGenerateCommand() *cobra.Command {
	var appendEntries bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "generate <pattern>...",
		Short: "Generate whitelist entries from glob patterns",
		Long: `Approve every document matching the given glob patterns. With
--append, existing entries are kept; otherwise the whitelist is
replaced. The file is written atomically, so concurrent runs cannot
corrupt it.`,
		Example: `  viewlint whitelist generate 'views/legacy/**/view.json' --append`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetConfig(cmd.Context())
			r := GetRenderer(cmd.Context())

			generated, err := whitelist.Generate(args)
			if err != nil {
				return err
			}
			if dryRun {
				if appendEntries {
					existing, err := whitelist.Load(cfg.Whitelist)
					if err != nil {
						return err
					}
					existing.Merge(generated)
					generated = existing
				}
				r.Printf("%s", generated.Render())
				return nil
			}

			// The whitelist is shared between concurrent runs; the
			// read-modify-write holds the artifact lock.
			store, err := artifact.NewStore(cfg.ArtifactsDir,
				artifact.WithLockTimeout(time.Duration(cfg.LockTimeoutMS)*time.Millisecond))
			if err != nil {
				return err
			}
			err = store.Guard("whitelist", func() error {
				if appendEntries {
					existing, err := whitelist.Load(cfg.Whitelist)
					if err != nil {
						return err
					}
					existing.Merge(generated)
					generated = existing
				}
				return artifact.WriteFileAtomic(cfg.Whitelist, generated.Render(), 0o644)
			})
			if err != nil {
				return err
			}
			r.Success(fmt.Sprintf("wrote %d entries to %s", generated.Len(), cfg.Whitelist))
			return nil
		},
	}

	cmd.Flags().BoolVar(&appendEntries, "append", false, "Keep existing entries")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print entries instead of writing")
	return cmd
}

func newWhitelistShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current whitelist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := GetConfig(cmd.Context())
			r := GetRenderer(cmd.Context())
			wl, err := whitelist.Load(cfg.Whitelist)
			if err != nil {
				return err
			}
			if wl.Len() == 0 {
				r.Println("whitelist is empty")
				return nil
			}
			r.Printf("%s", wl.Render())
			return nil
		},
	}
}
