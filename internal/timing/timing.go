// Package timing collects per-file and per-rule performance data for
// the --timings report and the shared timing artifact.
package timing

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Timer measures one phase.
type Timer struct {
	start time.Time
}

// Start begins a measurement.
func Start() Timer { return Timer{start: time.Now()} }

// Elapsed returns the time since Start.
func (t Timer) Elapsed() time.Duration { return time.Since(t.start) }

// FileTimings is the phase breakdown for one document.
type FileTimings struct {
	Path    string                   `json:"path"`
	Total   time.Duration            `json:"total"`
	Read    time.Duration            `json:"read"`
	Flatten time.Duration            `json:"flatten"`
	Build   time.Duration            `json:"build"`
	Lint    time.Duration            `json:"lint"`
	Rules   map[string]time.Duration `json:"rules,omitempty"`
}

// Collector accumulates file timings. Safe for concurrent use.
type Collector struct {
	mu    sync.Mutex
	files []FileTimings
}

// Add records one file's timings.
func (c *Collector) Add(ft FileTimings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = append(c.files, ft)
}

// Files returns the recorded timings sorted by path.
func (c *Collector) Files() []FileTimings {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := append([]FileTimings(nil), c.files...)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Summary aggregates phase totals across files.
type Summary struct {
	Files   int
	Total   time.Duration
	Slowest string
	Rules   map[string]time.Duration
}

// Summarize computes the aggregate over the recorded files.
func (c *Collector) Summarize() Summary {
	files := c.Files()
	s := Summary{Files: len(files), Rules: make(map[string]time.Duration)}
	var slowest time.Duration
	for _, f := range files {
		s.Total += f.Total
		if f.Total > slowest {
			slowest = f.Total
			s.Slowest = f.Path
		}
		for rule, d := range f.Rules {
			s.Rules[rule] += d
		}
	}
	return s
}

// WriteReport renders a per-file table and a per-rule total table.
func (c *Collector) WriteReport(w io.Writer) {
	files := c.Files()
	if len(files) == 0 {
		fmt.Fprintln(w, "no timing data collected")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"File", "Read", "Flatten", "Build", "Lint", "Total"})
	for _, f := range files {
		t.AppendRow(table.Row{
			f.Path, round(f.Read), round(f.Flatten), round(f.Build), round(f.Lint), round(f.Total),
		})
	}
	s := c.Summarize()
	t.AppendFooter(table.Row{"total", "", "", "", "", round(s.Total)})
	t.Render()

	if len(s.Rules) == 0 {
		return
	}
	rules := make([]string, 0, len(s.Rules))
	for rule := range s.Rules {
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool { return s.Rules[rules[i]] > s.Rules[rules[j]] })

	rt := table.NewWriter()
	rt.SetOutputMirror(w)
	rt.AppendHeader(table.Row{"Rule", "Total"})
	for _, rule := range rules {
		rt.AppendRow(table.Row{rule, round(s.Rules[rule])})
	}
	rt.Render()
}

func round(d time.Duration) string {
	return d.Round(10 * time.Microsecond).String()
}

// Name is the artifact name for merged timing data.
const Name = "timings"

// Merger merges partial timing payloads, keyed by path with the larger
// total winning, so replays cannot regress the data.
type Merger struct{}

type document struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Files       []FileTimings `json:"files"`
}

// Merge combines partial []FileTimings payloads with the existing
// artifact.
func (Merger) Merge(existing []byte, partials [][]byte) ([]byte, error) {
	byPath := make(map[string]FileTimings)
	if len(existing) > 0 {
		var prev document
		if err := json.Unmarshal(existing, &prev); err != nil {
			return nil, err
		}
		for _, f := range prev.Files {
			byPath[f.Path] = f
		}
	}
	for _, payload := range partials {
		var files []FileTimings
		if err := json.Unmarshal(payload, &files); err != nil {
			return nil, err
		}
		for _, f := range files {
			if have, ok := byPath[f.Path]; ok && have.Total > f.Total {
				continue
			}
			byPath[f.Path] = f
		}
	}
	doc := document{GeneratedAt: time.Now().UTC()}
	for _, f := range byPath {
		doc.Files = append(doc.Files, f)
	}
	sort.Slice(doc.Files, func(i, j int) bool { return doc.Files[i].Path < doc.Files[j].Path })
	return json.MarshalIndent(doc, "", "  ")
}
