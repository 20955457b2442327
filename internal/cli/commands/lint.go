package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/viewlint-labs/viewlint/internal/artifact"
	"github.com/viewlint-labs/viewlint/internal/cli/output"
	"github.com/viewlint-labs/viewlint/internal/config"
	"github.com/viewlint-labs/viewlint/internal/extcheck"
	"github.com/viewlint-labs/viewlint/internal/timing"
	"github.com/viewlint-labs/viewlint/internal/whitelist"
	"github.com/viewlint-labs/viewlint/pkg/flatten"
	"github.com/viewlint-labs/viewlint/pkg/lint"
	_ "github.com/viewlint-labs/viewlint/pkg/lint/rules" // register built-in rules
	"github.com/viewlint-labs/viewlint/pkg/model"
	"github.com/viewlint-labs/viewlint/pkg/script"
)

// LintOptions holds options for the lint command.
type LintOptions struct {
	Paths       []string // Files or directories to lint
	Format      string   // Output format override: text, json
	Rules       []string // Run only specific rules
	Disable     []string // Rule IDs to disable
	Severity    string   // Minimum severity to display
	NoAggregate bool     // Leave partial artifacts unmerged
	NoWhitelist bool     // Ignore the whitelist
	Fix         bool     // Apply safe fixes and re-lint
	FixDryRun   bool     // Report planned fixes without writing
	FixUnsafe   bool     // Also apply behavior-changing fixes
	FixRules    []string // Only apply fixes from these rules
}

// NewLintCommand creates the lint command.
func NewLintCommand() *cobra.Command {
	opts := &LintOptions{}
	cmd := &cobra.Command{
		Use:   "lint [path...]",
		Short: "Run lint rules on view.json documents",
		Long: `Analyze Perspective view.json documents for potential issues.

Each document is flattened, rebuilt into a typed node model and checked
by the configured rules. Results are written to the shared artifact
directory, so parallel invocations (e.g. one per CI shard) can be merged
afterwards with "viewlint aggregate".`,
		Example: `  # Lint every view under the project root
  viewlint lint

  # Lint specific views
  viewlint lint views/Overview/view.json views/Detail

  # Only report errors
  viewlint lint --severity error

  # Machine-readable output
  viewlint lint --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Paths = args
			return runLint(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json")
	cmd.Flags().StringSliceVar(&opts.Rules, "rule", nil, "Run only specific rules")
	cmd.Flags().StringSliceVar(&opts.Disable, "disable", nil, "Rule IDs to disable")
	cmd.Flags().StringVar(&opts.Severity, "severity", "info", "Minimum severity to display: error, warning, info")
	cmd.Flags().BoolVar(&opts.NoAggregate, "no-aggregate", false, "Skip merging artifacts after the run")
	cmd.Flags().BoolVar(&opts.NoWhitelist, "no-whitelist", false, "Ignore the whitelist")
	cmd.Flags().BoolVar(&opts.Fix, "fix", false, "Apply proposed fixes and re-lint the patched documents")
	cmd.Flags().BoolVar(&opts.FixDryRun, "fix-dry-run", false, "Report planned fixes without changing any file")
	cmd.Flags().BoolVar(&opts.FixUnsafe, "fix-unsafe", false, "Also apply fixes that may change behavior, such as renames")
	cmd.Flags().StringSliceVar(&opts.FixRules, "fix-rules", nil, "Only apply fixes proposed by these rules")

	return cmd
}

func runLint(cmd *cobra.Command, opts *LintOptions) error {
	cfg := GetConfig(cmd.Context())
	r := GetRenderer(cmd.Context())
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	minSev, err := lint.ParseSeverity(opts.Severity)
	if err != nil {
		return err
	}

	files, err := discoverViews(cfg, opts.Paths)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		r.Warningf("no view.json documents found")
		return nil
	}

	wl := whitelist.New()
	if !opts.NoWhitelist {
		if wl, err = whitelist.Load(cfg.Whitelist); err != nil {
			return err
		}
	}

	ruleConfigs := buildRuleConfigs(cfg, opts)
	// Surface configuration errors before touching any document.
	if _, err := lint.NewEngine(ruleConfigs, lint.Options{}); err != nil {
		return err
	}

	var checker script.Checker
	if c := extcheck.New(cfg.ScriptChecker); c != nil {
		checker = c
	}

	store, err := artifact.NewStore(cfg.ArtifactsDir,
		artifact.WithLockTimeout(time.Duration(cfg.LockTimeoutMS)*time.Millisecond))
	if err != nil {
		return err
	}

	var (
		mu        sync.Mutex
		results   []artifact.FileResult
		snapshots []artifact.FileSnapshot
		warnings  []string
		collector timing.Collector
	)

	g := new(errgroup.Group)
	g.SetLimit(cfg.Jobs)
	for _, file := range files {
		file := file
		g.Go(func() error {
			out := lintOne(cfg, opts, ruleConfigs, wl, checker, file)
			mu.Lock()
			defer mu.Unlock()
			results = append(results, out.result)
			snapshots = append(snapshots, out.snapshot)
			warnings = append(warnings, out.warnings...)
			collector.Add(out.timings)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].Path < snapshots[j].Path })

	if err := store.WritePartial(artifact.ResultsName, results); err != nil {
		return err
	}
	if cfg.Timings {
		if err := store.WritePartial(timing.Name, collector.Files()); err != nil {
			return err
		}
	}
	if cfg.Verbose {
		if err := store.WritePartial(artifact.SnapshotName, snapshots); err != nil {
			return err
		}
	}
	if !opts.NoAggregate {
		// A lock timeout is not fatal: the partials stay behind and a
		// later "viewlint aggregate" picks them up.
		if _, _, err := store.Aggregate(artifact.ResultsName, artifact.ResultsMerger{}); err != nil {
			if !errors.Is(err, artifact.ErrLockTimeout) {
				return err
			}
			warnings = append(warnings, "results left unmerged: "+err.Error())
		}
		if cfg.Timings {
			if _, _, err := store.Aggregate(timing.Name, timing.Merger{}); err != nil {
				if !errors.Is(err, artifact.ErrLockTimeout) {
					return err
				}
				warnings = append(warnings, "timings left unmerged: "+err.Error())
			}
		}
		if cfg.Verbose {
			if _, _, err := store.Aggregate(artifact.SnapshotName, artifact.SnapshotMerger{}); err != nil {
				if !errors.Is(err, artifact.ErrLockTimeout) {
					return err
				}
				warnings = append(warnings, "snapshots left unmerged: "+err.Error())
			}
		}
	}

	// Operational warnings go to stderr, apart from the findings.
	for _, w := range warnings {
		r.Warningf("%s", w)
	}

	fixCount := 0
	for _, res := range results {
		fixCount += res.FixesApplied
	}
	if fixCount > 0 && !r.IsJSON() {
		r.Success(fmt.Sprintf("applied %d fixes", fixCount))
	}

	errCount, warnCount := renderResults(r, results, minSev)
	if cfg.Timings && !r.IsJSON() {
		collector.WriteReport(r.Out())
	}

	if errCount > 0 || (warnCount > 0 && !cfg.IgnoreWarnings) {
		return fmt.Errorf("lint issues found")
	}
	return nil
}

// discoverViews expands the given paths into a sorted list of view
// documents. Directories are searched recursively for view.json files;
// explicit file arguments are taken as-is.
func discoverViews(cfg *config.Config, paths []string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{cfg.ProjectRoot}
	}
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if !info.IsDir() {
			add(path)
			continue
		}
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				// Artifact and VCS directories never hold views.
				if name := d.Name(); name == ".git" || strings.HasPrefix(name, ".viewlint") {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Name() == "view.json" {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

// buildRuleConfigs applies the --rule and --disable flags on top of the
// configured rule list.
func buildRuleConfigs(cfg *config.Config, opts *LintOptions) []lint.RuleConfig {
	configs := cfg.RuleConfigs()
	disabled := make(map[string]bool, len(opts.Disable))
	for _, id := range opts.Disable {
		disabled[strings.TrimSpace(id)] = true
	}
	only := make(map[string]bool, len(opts.Rules))
	for _, id := range opts.Rules {
		only[strings.TrimSpace(id)] = true
	}

	var out []lint.RuleConfig
	for _, rc := range configs {
		if disabled[rc.Rule] {
			continue
		}
		if len(only) > 0 && !only[rc.Rule] {
			continue
		}
		out = append(out, rc)
	}
	return out
}

// fileOutcome bundles everything one document contributes to the run.
type fileOutcome struct {
	result   artifact.FileResult
	snapshot artifact.FileSnapshot
	timings  timing.FileTimings
	warnings []string
}

// lintOne processes a single document: read, flatten, build, run, and
// optionally apply fixes. Build problems surface as operational
// warnings; a fatal build error is recorded on the result instead of
// aborting the whole run.
func lintOne(cfg *config.Config, opts *LintOptions, ruleConfigs []lint.RuleConfig,
	wl *whitelist.Whitelist, checker script.Checker, path string) fileOutcome {

	docID := documentID(cfg, path)
	out := fileOutcome{
		snapshot: artifact.FileSnapshot{Path: docID, CapturedAt: time.Now()},
		timings:  timing.FileTimings{Path: docID},
	}
	total := timing.Start()
	defer func() { out.timings.Total = total.Elapsed() }()

	fail := func(err error) fileOutcome {
		out.result = artifact.FileResult{
			Path:      docID,
			StartedAt: time.Now(),
			Error:     err.Error(),
		}
		return out
	}

	t := timing.Start()
	raw, err := flatten.ReadFile(path)
	out.timings.Read = t.Elapsed()
	if err != nil {
		return fail(err)
	}

	t = timing.Start()
	doc := flatten.Flatten(raw)
	out.timings.Flatten = t.Elapsed()

	t = timing.Start()
	m, buildDiags, err := model.NewBuilder().Build(doc)
	out.timings.Build = t.Elapsed()
	for _, d := range buildDiags {
		w := fmt.Sprintf("%s: %s %s: %s", docID, d.Code, d.Path, d.Message)
		out.warnings = append(out.warnings, w)
		out.snapshot.BuildWarnings = append(out.snapshot.BuildWarnings, w)
	}
	if err != nil {
		return fail(err)
	}
	stats := m.Stats()
	out.snapshot.Nodes = stats.Nodes
	out.snapshot.ByKind = stats.ByKind

	eng, err := lint.NewEngine(ruleConfigs, lint.Options{
		Whitelist: wl.Predicate(docID),
		Checker:   checker,
	})
	if err != nil {
		return fail(err)
	}

	t = timing.Start()
	res, err := eng.Run(docID, m, doc)
	out.timings.Lint = t.Elapsed()
	if err != nil {
		return fail(err)
	}

	fixes := 0
	if opts.Fix || opts.FixDryRun {
		res, fixes, err = applyFixes(opts, eng, docID, path, doc, res, &out)
		if err != nil {
			return fail(err)
		}
	}

	out.timings.Rules = res.RuleTimings
	out.result = artifact.NewFileResult(res)
	out.result.FixesApplied = fixes
	return out
}

// applyFixes applies the run's proposed fixes to the document, writes
// the patched file back, and re-lints it so the reported diagnostics
// match the file on disk. A dry run only records what would change.
func applyFixes(opts *LintOptions, eng *lint.Engine, docID, path string,
	doc flatten.Document, res *lint.RunResult, out *fileOutcome) (*lint.RunResult, int, error) {

	filter := make(map[string]bool, len(opts.FixRules))
	for _, id := range opts.FixRules {
		filter[strings.TrimSpace(id)] = true
	}
	fixed, applied := lint.ApplyFixes(doc, res.Diagnostics, opts.FixUnsafe, filter)
	if len(applied) == 0 {
		return res, 0, nil
	}
	if opts.FixDryRun {
		for _, d := range applied {
			out.warnings = append(out.warnings,
				fmt.Sprintf("%s: %s %s: would %s", docID, d.RuleID, d.Path, d.Fix.Description))
		}
		return res, 0, nil
	}
	for _, d := range applied {
		out.warnings = append(out.warnings,
			fmt.Sprintf("%s: %s %s: %s", docID, d.RuleID, d.Path, d.Fix.Description))
	}

	data, err := json.MarshalIndent(flatten.Unflatten(fixed), "", "  ")
	if err != nil {
		return nil, 0, err
	}
	if err := artifact.WriteFileAtomic(path, data, 0o644); err != nil {
		return nil, 0, err
	}

	m, _, err := model.NewBuilder().Build(fixed)
	if err != nil {
		return nil, 0, err
	}
	relint, err := eng.Run(docID, m, fixed)
	if err != nil {
		return nil, 0, err
	}
	return relint, len(applied), nil
}

// documentID is the project-relative, slash-separated identifier used
// in artifacts and the whitelist.
func documentID(cfg *config.Config, path string) string {
	if rel, err := filepath.Rel(cfg.ProjectRoot, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}

// renderResults prints findings at or above the minimum severity and a
// summary, returning the displayed error and warning counts.
func renderResults(r *output.Renderer, results []artifact.FileResult, minSev lint.Severity) (int, int) {
	type jsonFile struct {
		Path        string            `json:"path"`
		Error       string            `json:"error,omitempty"`
		Diagnostics []lint.Diagnostic `json:"diagnostics"`
	}

	var errors, warnings, infos, failed int
	var jsonOut []jsonFile

	for _, res := range results {
		var shown []lint.Diagnostic
		for _, d := range res.Diagnostics {
			if minSev.MoreSevere(d.Severity) {
				continue
			}
			shown = append(shown, d)
			switch d.Severity {
			case lint.SeverityError:
				errors++
			case lint.SeverityWarning:
				warnings++
			case lint.SeverityInfo:
				infos++
			}
		}
		if res.Error != "" {
			failed++
			errors++
		}

		if r.IsJSON() {
			jsonOut = append(jsonOut, jsonFile{Path: res.Path, Error: res.Error, Diagnostics: shown})
			continue
		}
		if res.Error == "" && len(shown) == 0 {
			continue
		}
		styles := r.Styles()
		r.Println(styles.Bold.Render(res.Path))
		if res.Error != "" {
			r.Printf("  %s %s\n", styles.Error.Render("error"), res.Error)
		}
		for _, d := range shown {
			sev := d.Severity.String()
			switch d.Severity {
			case lint.SeverityError:
				sev = styles.Error.Render(sev)
			case lint.SeverityWarning:
				sev = styles.Warning.Render(sev)
			default:
				sev = styles.Info.Render(sev)
			}
			r.Printf("  %s %s %s: %s\n", sev, styles.Muted.Render(d.RuleID), d.Path, d.Message)
		}
	}

	if r.IsJSON() {
		r.JSON(map[string]any{
			"files": jsonOut,
			"summary": map[string]int{
				"documents": len(results),
				"errors":    errors,
				"warnings":  warnings,
				"infos":     infos,
				"failed":    failed,
			},
		})
		return errors, warnings
	}

	if errors == 0 && warnings == 0 && infos == 0 && failed == 0 {
		r.Success(fmt.Sprintf("%d documents clean", len(results)))
	} else {
		r.Printf("%d documents: %d errors, %d warnings, %d infos\n",
			len(results), errors, warnings, infos)
	}
	return errors, warnings
}
