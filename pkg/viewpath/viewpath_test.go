package viewpath

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		want    []Segment
		wantErr bool
	}{
		{
			name: "simple fields",
			key:  "root.meta.name",
			want: []Segment{Field("root"), Field("meta"), Field("name")},
		},
		{
			name: "array index",
			key:  "root.children[0].meta.name",
			want: []Segment{Field("root"), Field("children"), Index(0), Field("meta"), Field("name")},
		},
		{
			name: "nested indices",
			key:  "custom.rows[10][2]",
			want: []Segment{Field("custom"), Field("rows"), Index(10), Index(2)},
		},
		{
			name: "root only",
			key:  "root",
			want: []Segment{Field("root")},
		},
		{name: "empty key is root", key: "", want: nil},
		{name: "unterminated bracket", key: "root.children[0", wantErr: true},
		{name: "non-numeric index", key: "root.children[x]", wantErr: true},
		{name: "negative index", key: "root.children[-1]", wantErr: true},
		{name: "empty segment", key: "root..meta", wantErr: true},
		{name: "trailing dot", key: "root.meta.", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.key)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Segments())
			assert.Equal(t, tt.key, p.String())
		})
	}
}

func TestCompare_TotalOrder(t *testing.T) {
	keys := []string{
		"root.children[1].meta.name",
		"root",
		"root.children[0].props.text",
		"root.children[0].meta.name",
		"root.children[10].meta.name",
		"root.custom.data",
		"root.children[2]",
	}
	paths := make([]Path, len(keys))
	for i, k := range keys {
		paths[i] = MustParse(k)
	}
	sort.Slice(paths, func(i, j int) bool { return Compare(paths[i], paths[j]) < 0 })

	got := make([]string, len(paths))
	for i, p := range paths {
		got[i] = p.String()
	}
	assert.Equal(t, []string{
		"root",
		"root.children[0].meta.name",
		"root.children[0].props.text",
		"root.children[1].meta.name",
		"root.children[2]",
		"root.children[10].meta.name",
		"root.custom.data",
	}, got)
}

func TestCompare_PrefixOrdersFirst(t *testing.T) {
	parent := MustParse("root.children[0]")
	child := MustParse("root.children[0].meta")
	assert.Negative(t, Compare(parent, child))
	assert.Positive(t, Compare(child, parent))
	assert.Zero(t, Compare(child, MustParse("root.children[0].meta")))
}

func TestParentChild(t *testing.T) {
	p := MustParse("root.children[0].meta.name")
	assert.Equal(t, "root.children[0].meta", p.Parent().String())
	assert.Equal(t, "root.children[0].meta.name", p.Parent().Child(Field("name")).String())
	assert.True(t, Root.Parent().IsRoot())
}

func TestHasPrefix(t *testing.T) {
	p := MustParse("root.children[0].propConfig.custom.rows")
	assert.True(t, p.HasPrefix(MustParse("root.children[0]")))
	assert.True(t, p.HasPrefix(Root))
	assert.True(t, p.HasPrefix(p))
	assert.False(t, p.HasPrefix(MustParse("root.children[1]")))
	assert.False(t, MustParse("root").HasPrefix(p))
}
