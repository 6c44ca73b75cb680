package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFrontMatter_YAML(t *testing.T) {
	src := "---\ntitle: Getting Started\ntags: [setup]\n---\n# Install\nRun the installer.\n"

	body, meta, err := StripFrontMatter(src)

	require.NoError(t, err)
	assert.Contains(t, body, "# Install\nRun the installer.")
	assert.NotContains(t, body, "title:")
	assert.Equal(t, "Getting Started", FrontMatterTitle(meta))
}

func TestStripFrontMatter_NoFrontMatter(t *testing.T) {
	src := "# Install\n---\nnot front matter\n"

	body, meta, err := StripFrontMatter(src)

	require.NoError(t, err)
	assert.Equal(t, src, body)
	assert.Nil(t, meta)
}

func TestStripFrontMatter_Malformed(t *testing.T) {
	src := "---\ntitle: [unclosed\n---\nbody\n"

	_, _, err := StripFrontMatter(src)

	assert.Error(t, err)
}

func TestFrontMatterTitle(t *testing.T) {
	assert.Equal(t, "", FrontMatterTitle(nil))
	assert.Equal(t, "", FrontMatterTitle(map[string]interface{}{"title": 42}))
	assert.Equal(t, "Ops", FrontMatterTitle(map[string]interface{}{"title": "  Ops "}))
}

func TestNormalizeNewlines(t *testing.T) {
	assert.Equal(t, "a\nb\nc\n", NormalizeNewlines("a\r\nb\rc\r\n"))
	assert.Equal(t, "unchanged\n", NormalizeNewlines("unchanged\n"))
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{""}, SplitLines(""))
	assert.Equal(t, []string{"a", ""}, SplitLines("a\n"))
	assert.Equal(t, []string{"a", "", "b"}, SplitLines("a\n\nb"))
}
