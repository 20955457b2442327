package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viewlint-labs/viewlint/pkg/flatten"
)

func buttonDoc() flatten.Document {
	return flatten.Document{
		"root.children[0].meta.name":  "Submit",
		"root.children[0].meta.type":  "ia.input.button",
		"root.children[0].props.text": "OK",
	}
}

func viewDoc() flatten.Document {
	return flatten.Document{
		"root.meta.name": "root",
		"root.meta.type": "ia.container.flex",

		"root.children[0].meta.name":  "Header",
		"root.children[0].meta.type":  "ia.display.label",
		"root.children[0].props.text": "Overview",

		"root.children[0].propConfig.props.text.binding.type":              "expr",
		"root.children[0].propConfig.props.text.binding.config.expression": "{view.custom.title}",

		"root.children[2].meta.name": "ValueDisplay",
		"root.children[2].meta.type": "ia.display.numeric",

		"root.children[2].propConfig.props.value.binding.type":                    "tag",
		"root.children[2].propConfig.props.value.binding.config.tagPath":          "[default]Line1/Speed",
		"root.children[2].propConfig.props.value.binding.transforms[0].type":      "script",
		"root.children[2].propConfig.props.value.binding.transforms[0].script":    "\treturn value * 2",
		"root.children[2].propConfig.props.style.binding.type":                    "property",
		"root.children[2].propConfig.props.style.binding.config.path":             "this.custom.styleName",
		"root.children[2].scripts.customMethods[0].name":                          "refresh",
		"root.children[2].scripts.customMethods[0].script":                        "\tself.props.value = 0",
		"root.children[2].scripts.messageHandlers[0].messageType":                 "line-update",
		"root.children[2].scripts.messageHandlers[0].script":                      "\tpass",
		"root.children[2].events.component.onStartup.script":                      "\tsystem.perspective.print('up')",
		"root.custom.title":                                                       "Dashboard",
		"root.custom.styleName":                                                   "bold",
	}
}

func TestBuild_SingleButton(t *testing.T) {
	m, diags, err := NewBuilder().Build(buttonDoc())
	require.NoError(t, err)
	assert.Empty(t, diags)

	comps := m.ByKind(KindComponent)
	require.Len(t, comps, 1)
	assert.Equal(t, "Submit", comps[0].Name())
	assert.Equal(t, "ia.input.button", comps[0].TypeName())
	text, ok := comps[0].Prop("text")
	require.True(t, ok)
	assert.Equal(t, "OK", text)
	assert.Equal(t, "root.children[0]", comps[0].Path.String())
	assert.Equal(t, KindRoot, m.Parent(comps[0]).Kind)
}

func TestBuild_FullView(t *testing.T) {
	m, diags, err := NewBuilder().Build(viewDoc())
	require.NoError(t, err)
	assert.Empty(t, diags)

	assert.Len(t, m.ByKind(KindComponent), 3)
	assert.Len(t, m.ByKind(KindExpressionBinding), 1)
	assert.Len(t, m.ByKind(KindTagBinding), 1)
	assert.Len(t, m.ByKind(KindPropertyBinding), 1)
	assert.Len(t, m.ByKind(KindTransform), 1)
	assert.Len(t, m.ByKind(KindCustomMethod), 1)
	assert.Len(t, m.ByKind(KindMessageHandler), 1)
	assert.Len(t, m.ByKind(KindEventHandler), 1)
	assert.Len(t, m.ByKind(KindProperty), 2)

	expr := m.ByKind(KindExpressionBinding)[0]
	assert.Equal(t, "{view.custom.title}", expr.Expression())
	assert.Equal(t, "Header", m.Parent(expr).Name())

	tag := m.ByKind(KindTagBinding)[0]
	assert.Equal(t, "[default]Line1/Speed", tag.TagPath())

	tr := m.ByKind(KindTransform)[0]
	assert.Equal(t, tag.ID, tr.Parent)
	assert.Equal(t, "\treturn value * 2", tr.Script())

	method := m.ByKind(KindCustomMethod)[0]
	assert.Equal(t, "refresh", method.Name())

	handler := m.ByKind(KindMessageHandler)[0]
	assert.Equal(t, "line-update", handler.Name())

	event := m.ByKind(KindEventHandler)[0]
	assert.Equal(t, "root.events.component.onStartup", event.Path.String())
	assert.Equal(t, "\tsystem.perspective.print('up')", event.Script())

	title, ok := m.ByPath("root.custom.title")
	require.True(t, ok)
	assert.Equal(t, KindProperty, title.Kind)
	assert.Equal(t, "title", title.Name())
	assert.Equal(t, "Dashboard", title.Value)
}

// Array index gaps survive reconstruction: children[2] stays children[2].
func TestBuild_PreservesIndexGaps(t *testing.T) {
	m, _, err := NewBuilder().Build(viewDoc())
	require.NoError(t, err)
	_, ok := m.ByPath("root.children[2]")
	assert.True(t, ok)
	_, ok = m.ByPath("root.children[1]")
	assert.False(t, ok)
}

func TestBuild_ComponentMissingName(t *testing.T) {
	m, diags, err := NewBuilder().Build(flatten.Document{
		"root.children[0].meta.type":  "ia.input.button",
		"root.children[0].props.text": "OK",
	})
	require.NoError(t, err)
	assert.Empty(t, diags)
	comps := m.ByKind(KindComponent)
	require.Len(t, comps, 1)
	assert.Equal(t, "", comps[0].Name())
}

func TestBuild_MalformedPath(t *testing.T) {
	m, diags, err := NewBuilder().Build(flatten.Document{
		"root.children[0].meta.name": "A",
		"root.children[0].meta.type": "ia.display.label",
		"root.children[x].meta.name": "bad",
	})
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, DiagMalformedPath, diags[0].Code)
	assert.Equal(t, "root.children[x].meta.name", diags[0].Path)
	assert.Len(t, m.ByKind(KindComponent), 1)
}

func TestBuildEntries_DuplicatePathLastWins(t *testing.T) {
	m, diags, err := NewBuilder().BuildEntries([]Entry{
		{Key: "root.children[0].meta.name", Value: "First"},
		{Key: "root.children[0].meta.type", Value: "ia.display.label"},
		{Key: "root.children[0].meta.name", Value: "Second"},
	})
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, DiagDuplicatePath, diags[0].Code)
	assert.Equal(t, "root.children[0].meta.name", diags[0].Path)

	comps := m.ByKind(KindComponent)
	require.Len(t, comps, 1)
	assert.Equal(t, "Second", comps[0].Name())
}

func TestBuild_PathConflict(t *testing.T) {
	_, diags, err := NewBuilder().BuildEntries([]Entry{
		{Key: "root.children[0].meta.name", Value: "A"},
		{Key: "root.children[0].meta.name.extra", Value: "B"},
	})
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, DiagPathConflict, diags[0].Code)
}

func TestBuild_EmptyDocumentFatal(t *testing.T) {
	_, _, err := NewBuilder().Build(flatten.Document{})
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, _, err = NewBuilder().Build(flatten.Document{"root.children[0": "bad"})
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

// Rebuilding a flattened model yields the same document and the same
// node graph. Build is also deterministic across runs over the same
// input map.
func TestFlatten_RoundTrip(t *testing.T) {
	doc := viewDoc()
	m1, _, err := NewBuilder().Build(doc)
	require.NoError(t, err)

	flat := m1.Flatten()
	assert.Equal(t, doc, flat)

	m2, diags, err := NewBuilder().Build(flat)
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Equal(t, modelShape(m1), modelShape(m2))
}

func TestBuild_Deterministic(t *testing.T) {
	var shapes []string
	for i := 0; i < 5; i++ {
		m, _, err := NewBuilder().Build(viewDoc())
		require.NoError(t, err)
		shapes = append(shapes, modelShape(m))
	}
	for _, s := range shapes[1:] {
		assert.Equal(t, shapes[0], s)
	}
}

// modelShape renders the pre-order structure for equality checks.
func modelShape(m *Model) string {
	var out string
	m.Walk(func(n *Node) bool {
		out += n.Kind.String() + "@" + n.Path.String() + ";"
		return true
	})
	return out
}

func TestStats(t *testing.T) {
	m, _, err := NewBuilder().Build(buttonDoc())
	require.NoError(t, err)
	s := m.Stats()
	assert.Equal(t, 1, s.Nodes)
	assert.Equal(t, map[string]int{"component": 1}, s.ByKind)
}
