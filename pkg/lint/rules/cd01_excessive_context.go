package rules

import (
	"fmt"
	"sort"

	"github.com/viewlint-labs/viewlint/pkg/lint"
	"github.com/viewlint-labs/viewlint/pkg/model"
	"github.com/viewlint-labs/viewlint/pkg/viewpath"
)

func init() {
	lint.Register(lint.RuleDef{
		ID:          "CD01",
		Name:        "excessive-context-data",
		Group:       "properties",
		Description: "Custom property blocks stay below configured size and depth limits",
		Severity:    lint.SeverityWarning,
		ConfigKeys:  []string{"max_data_points", "max_array_size", "max_nesting_depth"},
		New:         newExcessiveContext,
		Rationale: "Large custom data blocks embedded in a view are usually a " +
			"dataset that belongs in a tag or a query. They bloat the page " +
			"payload and every client session pays for them.",
		BadExample:  `custom.tableData[0..4999] inline in the view`,
		GoodExample: `a query binding that fetches rows on demand`,
		Fix:         "Move the data behind a binding and keep only configuration in custom properties.",
	})
}

// excessiveContext works on the flattened document rather than the node
// graph: raw path shapes carry the size information directly. It visits
// no kinds and does all its work in Finalize.
type excessiveContext struct {
	maxDataPoints int
	maxArraySize  int
	maxDepth      int
}

func newExcessiveContext(cfg lint.RuleConfig) (lint.Visitor, error) {
	return &excessiveContext{
		maxDataPoints: cfg.IntParam("max_data_points", 500),
		maxArraySize:  cfg.IntParam("max_array_size", 100),
		maxDepth:      cfg.IntParam("max_nesting_depth", 8),
	}, nil
}

func (r *excessiveContext) Visit(rc *lint.RuleRun, n *model.Node) {}

func (r *excessiveContext) Finalize(rc *lint.RuleRun) {
	type block struct {
		points   int
		maxDepth int
		arrays   map[string]int // array path -> observed length
	}
	blocks := make(map[string]*block)

	for key := range rc.Doc() {
		p, err := viewpath.Parse(key)
		if err != nil {
			continue
		}
		segs := p.Segments()
		at := -1
		for i, s := range segs {
			if !s.IsIdx && (s.Name == "custom" || s.Name == "params") {
				at = i
				break
			}
		}
		if at < 0 {
			continue
		}
		owner := viewpath.New(segs[:at+1]...).String()
		b := blocks[owner]
		if b == nil {
			b = &block{arrays: make(map[string]int)}
			blocks[owner] = b
		}
		b.points++
		if depth := len(segs) - at - 1; depth > b.maxDepth {
			b.maxDepth = depth
		}
		for i, s := range segs[at:] {
			if !s.IsIdx {
				continue
			}
			parent := viewpath.New(segs[:at+i]...).String()
			if s.Index+1 > b.arrays[parent] {
				b.arrays[parent] = s.Index + 1
			}
		}
	}

	owners := make([]string, 0, len(blocks))
	for owner := range blocks {
		owners = append(owners, owner)
	}
	sort.Strings(owners)

	for _, owner := range owners {
		b := blocks[owner]
		if rc.Whitelisted(viewpath.MustParse(owner)) {
			continue
		}
		if b.points > r.maxDataPoints {
			rc.ReportAt(owner, fmt.Sprintf("holds %d data points (limit %d)", b.points, r.maxDataPoints))
		}
		if b.maxDepth > r.maxDepth {
			rc.ReportAt(owner, fmt.Sprintf("nests %d levels deep (limit %d)", b.maxDepth, r.maxDepth))
		}
		arrays := make([]string, 0, len(b.arrays))
		for path := range b.arrays {
			arrays = append(arrays, path)
		}
		sort.Strings(arrays)
		for _, path := range arrays {
			if n := b.arrays[path]; n > r.maxArraySize {
				rc.ReportAt(path, fmt.Sprintf("array holds %d elements (limit %d)", n, r.maxArraySize))
			}
		}
	}
}
