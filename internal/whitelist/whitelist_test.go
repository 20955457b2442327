package whitelist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viewlint-labs/viewlint/pkg/viewpath"
)

const sample = `# approved findings
views/legacy/Dashboard/view.json

views/Overview/view.json::root.children[3]
views/Overview/view.json::root.custom.staging
`

func TestParse(t *testing.T) {
	w, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	assert.Equal(t, 3, w.Len())
	assert.True(t, w.Approves("views/legacy/Dashboard/view.json"))
	assert.False(t, w.Approves("views/Overview/view.json"))
}

func TestParse_BadNodePath(t *testing.T) {
	_, err := Parse(strings.NewReader("a.json::root.children[x]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestPredicate(t *testing.T) {
	w, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	whole := w.Predicate("views/legacy/Dashboard/view.json")
	require.NotNil(t, whole)
	assert.True(t, whole(viewpath.MustParse("root.children[9]")))

	partial := w.Predicate("views/Overview/view.json")
	require.NotNil(t, partial)
	assert.True(t, partial(viewpath.MustParse("root.children[3]")))
	assert.True(t, partial(viewpath.MustParse("root.children[3].meta.name")))
	assert.False(t, partial(viewpath.MustParse("root.children[4]")))

	assert.Nil(t, w.Predicate("views/other.json"))
}

func TestLoad_Missing(t *testing.T) {
	w, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	require.NoError(t, err)
	assert.Zero(t, w.Len())
}

func TestRender_RoundTrip(t *testing.T) {
	w := New()
	w.AddFile("b.json")
	w.AddFile("a.json")
	w.AddNode("c.json", viewpath.MustParse("root.children[1]"))
	w.AddNode("c.json", viewpath.MustParse("root.children[1]")) // duplicate ignored

	rendered := w.Render()
	again, err := Parse(strings.NewReader(string(rendered)))
	require.NoError(t, err)
	assert.Equal(t, 3, again.Len())
	assert.Equal(t, rendered, again.Render())
}

func TestMerge(t *testing.T) {
	a, err := Parse(strings.NewReader("a.json\n"))
	require.NoError(t, err)
	b, err := Parse(strings.NewReader("a.json\nb.json::root.children[0]\n"))
	require.NoError(t, err)

	a.Merge(b)
	assert.Equal(t, 2, a.Len())
	assert.True(t, a.Approves("a.json"))
	assert.NotNil(t, a.Predicate("b.json"))
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"one.json", "two.json", "skip.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644))
	}
	w, err := Generate([]string{filepath.Join(dir, "*.json")})
	require.NoError(t, err)
	assert.Equal(t, 2, w.Len())
	assert.True(t, w.Approves(filepath.ToSlash(filepath.Join(dir, "one.json"))))
}
