package artifact

import (
	"encoding/json"
	"sort"
	"time"
)

// SnapshotName is the artifact name for aggregated debug snapshots.
const SnapshotName = "snapshot"

// FileSnapshot captures one document's model shape at lint time, for
// debugging classification and build issues across a batch.
type FileSnapshot struct {
	Path          string         `json:"path"`
	CapturedAt    time.Time      `json:"captured_at"`
	Nodes         int            `json:"nodes"`
	ByKind        map[string]int `json:"by_kind,omitempty"`
	BuildWarnings []string       `json:"build_warnings,omitempty"`
}

// Snapshots is the final debug artifact.
type Snapshots struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Files       []FileSnapshot `json:"files"`
}

// SnapshotMerger merges snapshot partials. Files are keyed by path;
// the latest capture wins, so replaying merged partials is a no-op.
type SnapshotMerger struct{}

// Merge implements Merger. Each partial payload is a []FileSnapshot.
func (SnapshotMerger) Merge(existing []byte, partials [][]byte) ([]byte, error) {
	byPath := make(map[string]FileSnapshot)
	if len(existing) > 0 {
		var prev Snapshots
		if err := json.Unmarshal(existing, &prev); err != nil {
			return nil, err
		}
		for _, f := range prev.Files {
			byPath[f.Path] = f
		}
	}
	for _, payload := range partials {
		var files []FileSnapshot
		if err := json.Unmarshal(payload, &files); err != nil {
			return nil, err
		}
		for _, f := range files {
			if have, ok := byPath[f.Path]; ok && have.CapturedAt.After(f.CapturedAt) {
				continue
			}
			byPath[f.Path] = f
		}
	}

	merged := Snapshots{GeneratedAt: time.Now().UTC()}
	for _, f := range byPath {
		merged.Files = append(merged.Files, f)
	}
	sort.Slice(merged.Files, func(i, j int) bool {
		return merged.Files[i].Path < merged.Files[j].Path
	})
	return json.MarshalIndent(merged, "", "  ")
}
