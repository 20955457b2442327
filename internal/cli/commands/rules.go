package commands

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/viewlint-labs/viewlint/pkg/lint"
	_ "github.com/viewlint-labs/viewlint/pkg/lint/rules" // register built-in rules
	"github.com/viewlint-labs/viewlint/pkg/model"
)

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	var group string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List available lint rules",
		Long:  `Display all registered lint rules with their default configuration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := GetRenderer(cmd.Context())

			rules := lint.GetAll()
			if group != "" {
				rules = lint.GetByGroup(group)
			}

			if r.IsJSON() {
				type ruleInfo struct {
					ID          string   `json:"id"`
					Name        string   `json:"name"`
					Group       string   `json:"group"`
					Description string   `json:"description"`
					Severity    string   `json:"severity"`
					Kinds       []string `json:"kinds,omitempty"`
					ConfigKeys  []string `json:"config_keys,omitempty"`
				}
				out := make([]ruleInfo, 0, len(rules))
				for _, def := range rules {
					out = append(out, ruleInfo{
						ID:          def.ID,
						Name:        def.Name,
						Group:       def.Group,
						Description: def.Description,
						Severity:    def.Severity.String(),
						Kinds:       kindNames(def.Kinds),
						ConfigKeys:  def.ConfigKeys,
					})
				}
				return r.JSON(out)
			}

			t := table.NewWriter()
			t.SetOutputMirror(r.Out())
			t.AppendHeader(table.Row{"ID", "Name", "Group", "Severity", "Kinds"})
			for _, def := range rules {
				t.AppendRow(table.Row{
					def.ID, def.Name, def.Group, def.Severity.String(),
					strings.Join(kindNames(def.Kinds), ", "),
				})
			}
			t.Render()

			if verbose {
				for _, def := range rules {
					r.Println()
					r.Println(r.Styles().Bold.Render(def.ID + " " + def.Name))
					r.Println(def.Description)
					if def.Rationale != "" {
						r.Println(r.Styles().Muted.Render(def.Rationale))
					}
					if def.BadExample != "" {
						r.Printf("  bad:  %s\n", def.BadExample)
					}
					if def.GoodExample != "" {
						r.Printf("  good: %s\n", def.GoodExample)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&group, "group", "", "Only show rules in this group")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Show rationale and examples")
	return cmd
}

func kindNames(kinds []model.Kind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = k.String()
	}
	return out
}
