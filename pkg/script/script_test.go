package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnit_Resolve(t *testing.T) {
	u := &Unit{}
	u.Add("root.children[0].scripts.customMethods[0]", "x = 1\nprint(x)")
	u.Add("root.events.component.onStartup", "pass")

	assert.Equal(t, 2, u.Len())
	assert.Equal(t, "x = 1\nprint(x)\npass", u.Source())

	loc, ok := u.Resolve(2)
	require.True(t, ok)
	assert.Equal(t, "root.children[0].scripts.customMethods[0]", loc.Path)
	assert.Equal(t, 2, loc.Line)

	loc, ok = u.Resolve(3)
	require.True(t, ok)
	assert.Equal(t, "root.events.component.onStartup", loc.Path)
	assert.Equal(t, 1, loc.Line)

	_, ok = u.Resolve(4)
	assert.False(t, ok)
	_, ok = u.Resolve(0)
	assert.False(t, ok)
}
