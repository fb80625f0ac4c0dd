package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStackManifestNormalizesID(t *testing.T) {
	data := []byte(`
id: demo
name: Demo
version: "1.0.0"
requires:
  runtime: node
  tools: ripgrep
`)
	m, err := ParseStackManifest(data, "demo/manifest.json")
	require.NoError(t, err)
	assert.Equal(t, "stack:demo", m.ID)
	assert.Contains(t, m.Requires.Runtimes, "node")
	assert.Contains(t, m.Requires.Binaries, "ripgrep")
}

func TestParseStackManifestMissingRequiredField(t *testing.T) {
	data := []byte(`name: Demo`)
	_, err := ParseStackManifest(data, "demo/manifest.json")
	require.Error(t, err)
}

func TestParseStackManifestLegacyMCP(t *testing.T) {
	data := []byte(`
id: demo
name: Demo
version: "1.0.0"
mcp:
  command: node
  args: ["dist/index.js"]
`)
	m, err := ParseStackManifest(data, "demo/manifest.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"node", "dist/index.js"}, m.Command)
}

func TestRenderTemplate(t *testing.T) {
	out := RenderTemplate("hello {{name}}, bring {{item}}", map[string]string{"name": "world"})
	assert.Equal(t, "hello world, bring {{item}}", out)
}

func TestExtractVariablesOrder(t *testing.T) {
	vars := ExtractVariables("{{b}} and {{a}} and {{b}}")
	assert.Equal(t, []string{"b", "a"}, vars)
}
