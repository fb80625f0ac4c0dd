package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePackageID(t *testing.T) {
	cases := []struct {
		id       string
		wantKind Kind
		wantName string
		wantErr  bool
	}{
		{"stack:demo", KindStack, "demo", false},
		{"runtime:node", KindRuntime, "node", false},
		{"demo", KindStack, "demo", false},
		{"bogus:demo", "", "", true},
		{"stack:Bad_Name", "", "", true},
	}
	for _, tc := range cases {
		kind, name, err := ParsePackageID(tc.id)
		if tc.wantErr {
			require.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tc.wantKind, kind)
		assert.Equal(t, tc.wantName, name)
	}
}

func TestParsePackageIDRoundTrip(t *testing.T) {
	for _, k := range []Kind{KindStack, KindPrompt, KindRuntime, KindBinary, KindAgent} {
		id := CreatePackageID(k, "ripgrep")
		kind, name, err := ParsePackageID(id)
		require.NoError(t, err)
		assert.Equal(t, k, kind)
		assert.Equal(t, "ripgrep", name)
	}
}

func TestNormalizeIDDefaultsToDeclaredKindNotStack(t *testing.T) {
	cases := []struct {
		id, want string
		kind     Kind
	}{
		{"node", "runtime:node", KindRuntime},
		{"ripgrep", "binary:ripgrep", KindBinary},
		{"claude-code", "agent:claude-code", KindAgent},
		{"runtime:node", "runtime:node", KindRuntime},
		{"binary:ripgrep", "binary:ripgrep", KindBinary},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeID(tc.id, tc.kind))
	}
}

func TestEnsureDirectoriesIdempotent(t *testing.T) {
	dir := t.TempDir()
	p, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, p.EnsureDirectories())
	require.NoError(t, p.EnsureDirectories())
}

func TestLockFilePluralizesBinary(t *testing.T) {
	p, err := New(t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, p.LockFile("binary", "ffmpeg"), "binaries")
	assert.Contains(t, p.LockFile("stack", "demo"), "stacks")
}

func TestPlatformArchShape(t *testing.T) {
	pa := PlatformArch()
	assert.Regexp(t, `^[a-z0-9]+-[a-z0-9]+$`, pa)
}
