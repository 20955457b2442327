package artifact

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/viewlint-labs/viewlint/pkg/lint"
)

// ResultsName is the artifact name for aggregated lint results.
const ResultsName = "results"

// FileResult is one document's outcome within the aggregate.
type FileResult struct {
	Path        string            `json:"path"`
	RunID       string            `json:"run_id"`
	StartedAt   time.Time         `json:"started_at"`
	Duration    time.Duration     `json:"duration"`
	Diagnostics []lint.Diagnostic `json:"diagnostics"`
	Error       string            `json:"error,omitempty"` // document failed to build
	// FixesApplied counts the fixes written back to the document
	// during this run.
	FixesApplied int `json:"fixes_applied,omitempty"`
}

// Summary tallies the aggregate.
type Summary struct {
	Files    int `json:"files"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Infos    int `json:"infos"`
	Failed   int `json:"failed"`
}

// Results is the final lint artifact: per-file outcomes plus a summary.
type Results struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Files       []FileResult `json:"files"`
	Summary     Summary      `json:"summary"`
}

// NewFileResult converts one lint run into its artifact form.
func NewFileResult(res *lint.RunResult) FileResult {
	return FileResult{
		Path:        res.Document,
		RunID:       res.RunID,
		StartedAt:   res.StartedAt,
		Duration:    res.Duration,
		Diagnostics: res.Diagnostics,
	}
}

// ResultsMerger merges partial result lists into the final artifact.
// Files are keyed by path; when several runs linted the same file, the
// most recently started run wins. Replaying already merged partials
// therefore changes nothing.
type ResultsMerger struct{}

// Merge implements Merger. Each partial payload is a []FileResult.
func (ResultsMerger) Merge(existing []byte, partials [][]byte) ([]byte, error) {
	byPath := make(map[string]FileResult)
	if len(existing) > 0 {
		var prev Results
		if err := json.Unmarshal(existing, &prev); err != nil {
			return nil, err
		}
		for _, f := range prev.Files {
			byPath[f.Path] = f
		}
	}
	for _, payload := range partials {
		var files []FileResult
		if err := json.Unmarshal(payload, &files); err != nil {
			return nil, err
		}
		for _, f := range files {
			if have, ok := byPath[f.Path]; ok && have.StartedAt.After(f.StartedAt) {
				continue
			}
			byPath[f.Path] = f
		}
	}

	merged := Results{GeneratedAt: time.Now().UTC()}
	for _, f := range byPath {
		merged.Files = append(merged.Files, f)
	}
	sort.Slice(merged.Files, func(i, j int) bool {
		return merged.Files[i].Path < merged.Files[j].Path
	})
	for _, f := range merged.Files {
		merged.Summary.Files++
		if f.Error != "" {
			merged.Summary.Failed++
		}
		for _, d := range f.Diagnostics {
			switch d.Severity {
			case lint.SeverityError:
				merged.Summary.Errors++
			case lint.SeverityWarning:
				merged.Summary.Warnings++
			case lint.SeverityInfo:
				merged.Summary.Infos++
			}
		}
	}
	return json.MarshalIndent(merged, "", "  ")
}
