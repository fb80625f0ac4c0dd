package sessiondb

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// claudeEvent is one line of a Provider A transcript. content is left as
// raw JSON since its shape varies between a plain string and an array of
// typed parts (spec §4.I Provider A).
type claudeEvent struct {
	Type      string         `json:"type"`
	Message   *claudeMessage `json:"message"`
	Timestamp string         `json:"timestamp"`
}

type claudeMessage struct {
	Role    string          `json:"role"`
	Model   string          `json:"model"`
	Content json.RawMessage `json:"content"`
	Usage   *claudeUsage    `json:"usage"`
}

type claudeUsage struct {
	InputTokens              int64 `json:"input_tokens"`
	OutputTokens             int64 `json:"output_tokens"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
}

type claudeContentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const maxInferredTitleLen = 100

// ParseClaudeTranscript parses one `<sessionId>.jsonl` transcript file
// under `~/.claude/projects/<projectDir>/`, pairing each user event with
// the assistant event that follows it into a Turn. Tool-result content
// parts are filtered out; only "text" parts contribute to the stored
// message (spec §4.I Provider A).
func ParseClaudeTranscript(path, cwd string, inferTitles bool) (title string, turns []Turn, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("open claude transcript %s: %w", path, err)
	}
	defer f.Close()

	var pendingUser *string
	turnNumber := 0
	model := ""

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ev claudeEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			continue
		}
		if ev.Message == nil {
			continue
		}
		if ev.Message.Model != "" {
			model = ev.Message.Model
		}

		text := extractClaudeText(ev.Message.Content)

		switch ev.Message.Role {
		case "user":
			if text == "" {
				continue
			}
			// A prior user message with no assistant reply is dropped in
			// favor of the one that follows it.
			u := text
			pendingUser = &u
			if title == "" && inferTitles {
				title = truncateTitle(text)
			}
		case "assistant":
			if pendingUser == nil || text == "" {
				continue
			}
			turnNumber++
			t := Turn{
				TurnNumber:        turnNumber,
				UserMessage:       pendingUser,
				AssistantResponse: &text,
				ToolsUsed:         "[]",
			}
			if model != "" {
				m := model
				t.Model = &m
			}
			if ev.Message.Usage != nil {
				t.InputTokens = ev.Message.Usage.InputTokens
				t.OutputTokens = ev.Message.Usage.OutputTokens
				t.CacheReadInputTokens = ev.Message.Usage.CacheReadInputTokens
				t.CacheCreationInputTokens = ev.Message.Usage.CacheCreationInputTokens
			}
			if ev.Timestamp != "" {
				t.CreatedAt = ev.Timestamp
			}
			turns = append(turns, t)
			pendingUser = nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", nil, fmt.Errorf("scan claude transcript %s: %w", path, err)
	}
	return title, turns, nil
}

// extractClaudeText unwraps a claude message's content field, which is
// either a bare string or an array of typed parts. Only "text" parts are
// kept; tool_use/tool_result parts are dropped (spec §4.I Provider A).
func extractClaudeText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}

	var parts []claudeContentPart
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}
	var b strings.Builder
	for _, p := range parts {
		if p.Type != "text" || p.Text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

func truncateTitle(s string) string {
	s = strings.TrimSpace(strings.SplitN(s, "\n", 2)[0])
	r := []rune(s)
	if len(r) <= maxInferredTitleLen {
		return s
	}
	return string(r[:maxInferredTitleLen])
}

// WalkClaudeProjects walks `~/.claude/projects/<projectDir>/*.jsonl` and
// invokes fn once per transcript file found, with the project directory
// name and the session id derived from the file name.
func WalkClaudeProjects(root string, fn func(projectDir, sessionID, path string) error) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".jsonl") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) < 2 {
			return nil
		}
		projectDir := parts[0]
		sessionID := strings.TrimSuffix(filepath.Base(path), ".jsonl")
		return fn(projectDir, sessionID, path)
	})
}
