package commands

import (
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/viewlint-labs/viewlint/pkg/flatten"
	"github.com/viewlint-labs/viewlint/pkg/model"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats [path...]",
		Short: "Show model statistics for view documents",
		Long: `Build the node model for each document and report how many nodes
of each kind it contains, without running any rules.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetConfig(cmd.Context())
			r := GetRenderer(cmd.Context())

			files, err := discoverViews(cfg, args)
			if err != nil {
				return err
			}

			type fileStats struct {
				Path   string         `json:"path"`
				Error  string         `json:"error,omitempty"`
				Nodes  int            `json:"nodes"`
				ByKind map[string]int `json:"by_kind,omitempty"`
			}
			var all []fileStats
			totals := make(map[string]int)

			for _, file := range files {
				docID := documentID(cfg, file)
				raw, err := flatten.ReadFile(file)
				if err != nil {
					all = append(all, fileStats{Path: docID, Error: err.Error()})
					continue
				}
				m, _, err := model.NewBuilder().Build(flatten.Flatten(raw))
				if err != nil {
					all = append(all, fileStats{Path: docID, Error: err.Error()})
					continue
				}
				s := m.Stats()
				all = append(all, fileStats{Path: docID, Nodes: s.Nodes, ByKind: s.ByKind})
				for kind, n := range s.ByKind {
					totals[kind] += n
				}
			}

			if r.IsJSON() {
				return r.JSON(map[string]any{"files": all, "totals": totals})
			}

			t := table.NewWriter()
			t.SetOutputMirror(r.Out())
			t.AppendHeader(table.Row{"File", "Nodes", "Components", "Bindings", "Scripts"})
			for _, fs := range all {
				if fs.Error != "" {
					t.AppendRow(table.Row{fs.Path, "-", "-", "-", "-"})
					continue
				}
				t.AppendRow(table.Row{
					fs.Path, fs.Nodes, fs.ByKind["component"],
					bindingCount(fs.ByKind), scriptCount(fs.ByKind),
				})
			}
			t.Render()

			kinds := make([]string, 0, len(totals))
			for kind := range totals {
				kinds = append(kinds, kind)
			}
			sort.Strings(kinds)
			for _, kind := range kinds {
				r.Printf("%s: %d\n", kind, totals[kind])
			}
			return nil
		},
	}
	return cmd
}

func bindingCount(byKind map[string]int) int {
	return byKind["expression_binding"] + byKind["property_binding"] + byKind["tag_binding"]
}

func scriptCount(byKind map[string]int) int {
	return byKind["message_handler"] + byKind["custom_method"] +
		byKind["transform"] + byKind["event_handler"]
}
