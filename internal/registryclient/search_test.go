package registryclient

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prompt-stack/rudi/internal/platform"
)

func sampleIndex() *Index {
	return &Index{
		Stacks: KindBucket{
			Official: []PackageDescriptor{
				{ID: "stack:research-agent", Name: "Research Agent", Description: "web research stack", Tags: []string{"search", "browsing"}},
			},
			Community: []PackageDescriptor{
				{ID: "stack:podcast-writer", Name: "Podcast Writer", Description: "drafts podcast scripts"},
			},
		},
		Runtimes: KindBucket{
			Official: []PackageDescriptor{
				{ID: "runtime:node", Name: "Node.js", Description: "JavaScript runtime"},
			},
		},
	}
}

func TestSearchAcrossKinds(t *testing.T) {
	idx := sampleIndex()
	hits := idx.Search("research", "")
	require.Len(t, hits, 1)
	require.Equal(t, platform.KindStack, hits[0].Kind)
	require.Equal(t, "stack:research-agent", hits[0].ID)
}

func TestSearchFiltersByKind(t *testing.T) {
	idx := sampleIndex()
	hits := idx.Search("node", platform.KindRuntime)
	require.Len(t, hits, 1)

	hits = idx.Search("node", platform.KindStack)
	require.Empty(t, hits)
}

func TestSearchMatchesTags(t *testing.T) {
	idx := sampleIndex()
	hits := idx.Search("browsing", "")
	require.Len(t, hits, 1)
	require.Equal(t, "stack:research-agent", hits[0].ID)
}

func TestGetPackageByFullID(t *testing.T) {
	idx := sampleIndex()
	kind, d, ok := idx.GetPackage("stack:podcast-writer")
	require.True(t, ok)
	require.Equal(t, platform.KindStack, kind)
	require.Equal(t, "Podcast Writer", d.Name)
}

func TestGetPackageByBareName(t *testing.T) {
	idx := sampleIndex()
	kind, d, ok := idx.GetPackage("node")
	require.True(t, ok)
	require.Equal(t, platform.KindRuntime, kind)
	require.Equal(t, "Node.js", d.Name)
}

func TestGetPackageNotFound(t *testing.T) {
	idx := sampleIndex()
	_, _, ok := idx.GetPackage("stack:does-not-exist")
	require.False(t, ok)
}
