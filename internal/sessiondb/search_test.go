package sessiondb

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSearchFTSRoundTrip mirrors spec scenario S2.
func TestSearchFTSRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	projectID, err := s.UpsertProject(ctx, "claude", "demo", "/tmp/demo", "2026-01-01T00:00:00Z")
	require.NoError(t, err)
	require.NoError(t, s.InsertSession(ctx, Session{
		ID:                "claude:sess-1",
		ProjectID:         &projectID,
		Provider:          "claude",
		ProviderSessionID: "sess-1",
		CreatedAt:         "2026-01-01T00:00:00Z",
		UpdatedAt:         "2026-01-01T00:00:00Z",
	}))

	user := "fix authentication bug in login handler"
	assistant := "patched the session check"
	require.NoError(t, s.InsertTurn(ctx, Turn{
		SessionID:         "claude:sess-1",
		TurnNumber:        1,
		UserMessage:       &user,
		AssistantResponse: &assistant,
		ToolsUsed:         "[]",
		CreatedAt:         "2026-01-01T00:00:01Z",
	}))

	hits, err := s.Search(ctx, "authentication login", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Contains(t, hits[0].UserHighlight, ">>>")
	require.True(t, strings.Contains(hits[0].UserHighlight, "authentication") || strings.Contains(hits[0].UserHighlight, "login"))

	hits, err = s.Search(ctx, "bug", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestSearchRequiresEveryToken(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	projectID, err := s.UpsertProject(ctx, "claude", "demo", "/tmp/demo", "2026-01-01T00:00:00Z")
	require.NoError(t, err)
	require.NoError(t, s.InsertSession(ctx, Session{
		ID:                "claude:sess-1",
		ProjectID:         &projectID,
		Provider:          "claude",
		ProviderSessionID: "sess-1",
		CreatedAt:         "2026-01-01T00:00:00Z",
		UpdatedAt:         "2026-01-01T00:00:00Z",
	}))

	user := "rotate the api key"
	require.NoError(t, s.InsertTurn(ctx, Turn{
		SessionID:   "claude:sess-1",
		TurnNumber:  1,
		UserMessage: &user,
		ToolsUsed:   "[]",
		CreatedAt:   "2026-01-01T00:00:01Z",
	}))

	hits, err := s.Search(ctx, "api database", 10)
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestSanitizeQueryStripsQueryGrammar(t *testing.T) {
	require.Equal(t, []string{"foo", "bar"}, strings.Fields(sanitizeQuery(`"foo" (bar)-*`)))
}

func TestBuildMatchQueryWrapsEachTokenAsPrefix(t *testing.T) {
	require.Equal(t, `"foo"* "bar"*`, buildMatchQuery("foo bar"))
}
