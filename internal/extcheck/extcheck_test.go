package extcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_EmptyDisables(t *testing.T) {
	assert.Nil(t, New(nil))
	assert.NotNil(t, New([]string{"true"}))
}

func TestParseFindings(t *testing.T) {
	out := []byte(`3:warning:unused variable 'x'
not a finding
12:convention:missing docstring
abc:error:bad line number
0:error:bad line number
`)
	findings := parseFindings(out)
	require.Len(t, findings, 2)
	assert.Equal(t, 3, findings[0].Line)
	assert.Equal(t, "warning", findings[0].Category)
	assert.Equal(t, "unused variable 'x'", findings[0].Message)
	assert.Equal(t, 12, findings[1].Line)
}

func TestCheck_CommandNotFound(t *testing.T) {
	c := New([]string{"viewlint-no-such-checker"})
	_, err := c.Check("pass")
	require.Error(t, err)
}

// A linter that found problems exits nonzero; its findings must still
// be parsed.
func TestCheck_NonzeroExitStillParses(t *testing.T) {
	c := New([]string{"sh", "-c", "echo '1:error:boom'; exit 2"})
	findings, err := c.Check("pass")
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "boom", findings[0].Message)
}
