package sessiondb

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// codexEvent is one line of a Provider B transcript: a stream of typed
// events rather than the simpler user/assistant pairing of Provider A
// (spec §4.I Provider B).
type codexEvent struct {
	Type      string          `json:"type"`
	Timestamp string          `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

type codexSessionMeta struct {
	Model string `json:"model"`
	Cwd   string `json:"cwd"`
}

type codexTurnContext struct {
	Model string `json:"model"`
	Cwd   string `json:"cwd"`
}

// codexEventMsg is the payload of an event_msg event; Subtype
// discriminates what the remaining fields mean.
type codexEventMsg struct {
	Subtype        string               `json:"type"`
	Message        string               `json:"message"`
	Text           string               `json:"text"`
	Name           string               `json:"name"`
	LastTokenUsage *codexLastTokenUsage `json:"last_token_usage"`
}

type codexLastTokenUsage struct {
	InputTokens       int64 `json:"input_tokens"`
	OutputTokens      int64 `json:"output_tokens"`
	CachedInputTokens int64 `json:"cached_input_tokens"`
}

// ParseCodexTranscript parses one `<uuid>.jsonl` transcript file under
// `~/.codex/sessions/YYYY/MM/DD/`. session_meta/turn_context establish
// model and cwd; event_msg subtypes carry user text ("user_message"),
// assistant text ("agent_message"), tool invocations ("function_call"),
// and incremental token accounting ("token_count"), whose
// last_token_usage is applied to the turn currently being assembled
// (not accumulated as a running session total, per spec §4.I Provider
// B).
func ParseCodexTranscript(path string, inferTitles bool) (title, cwd, model string, turns []Turn, err error) {
	f, openErr := os.Open(path)
	if openErr != nil {
		return "", "", "", nil, fmt.Errorf("open codex transcript %s: %w", path, openErr)
	}
	defer f.Close()

	var pendingUser *string
	var pendingTools []string
	var pendingUsage codexLastTokenUsage
	turnNumber := 0

	flush := func(assistantText, createdAt string) {
		if pendingUser == nil {
			return
		}
		turnNumber++
		t := Turn{
			TurnNumber:           turnNumber,
			UserMessage:          pendingUser,
			CreatedAt:            createdAt,
			InputTokens:          pendingUsage.InputTokens,
			OutputTokens:         pendingUsage.OutputTokens,
			CacheReadInputTokens: pendingUsage.CachedInputTokens,
			ToolsUsed:            toolsJSON(pendingTools),
		}
		if assistantText != "" {
			a := assistantText
			t.AssistantResponse = &a
		}
		if model != "" {
			m := model
			t.Model = &m
		}
		turns = append(turns, t)
		pendingUser = nil
		pendingTools = nil
		pendingUsage = codexLastTokenUsage{}
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ev codexEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			continue
		}

		switch ev.Type {
		case "session_meta":
			var meta codexSessionMeta
			if json.Unmarshal(ev.Payload, &meta) == nil {
				if meta.Model != "" {
					model = meta.Model
				}
				if meta.Cwd != "" {
					cwd = meta.Cwd
				}
			}
		case "turn_context":
			var tc codexTurnContext
			if json.Unmarshal(ev.Payload, &tc) == nil {
				if tc.Model != "" {
					model = tc.Model
				}
				if tc.Cwd != "" {
					cwd = tc.Cwd
				}
			}
		case "event_msg":
			var msg codexEventMsg
			if json.Unmarshal(ev.Payload, &msg) != nil {
				continue
			}
			switch msg.Subtype {
			case "user_message":
				text := firstNonEmpty(msg.Message, msg.Text)
				if text == "" {
					continue
				}
				// A fresh user message without a prior flush means the
				// previous turn had no recorded assistant reply; flush it
				// bare before starting the new one.
				flush("", ev.Timestamp)
				u := text
				pendingUser = &u
				if title == "" && inferTitles {
					title = truncateTitle(text)
				}
			case "agent_message":
				text := firstNonEmpty(msg.Message, msg.Text)
				flush(text, ev.Timestamp)
			case "function_call":
				if msg.Name != "" {
					pendingTools = append(pendingTools, msg.Name)
				}
			case "token_count":
				if msg.LastTokenUsage != nil {
					pendingUsage = *msg.LastTokenUsage
				}
			}
		}
	}
	flush("", "")
	if err := scanner.Err(); err != nil {
		return "", "", "", nil, fmt.Errorf("scan codex transcript %s: %w", path, err)
	}
	return title, cwd, model, turns, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func toolsJSON(tools []string) string {
	if len(tools) == 0 {
		return "[]"
	}
	b, err := json.Marshal(tools)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// WalkCodexSessions walks `~/.codex/sessions/YYYY/MM/DD/<uuid>.jsonl` and
// invokes fn once per transcript file found.
func WalkCodexSessions(root string, fn func(sessionID, path string) error) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".jsonl") {
			return nil
		}
		sessionID := strings.TrimSuffix(filepath.Base(path), ".jsonl")
		return fn(sessionID, path)
	})
}
