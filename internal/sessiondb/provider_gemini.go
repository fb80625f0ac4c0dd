package sessiondb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// geminiMessage is one entry of a Provider C transcript. role is
// "user" or "model"; content is plain text (spec §4.I Provider C).
type geminiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Text    string `json:"text"`
}

type geminiDocument struct {
	Messages []geminiMessage `json:"messages"`
}

// ParseGeminiTranscript parses `~/.gemini/tmp/<sessionId>/logs.json`,
// which is either a bare array of messages or a `{messages:[...]}`
// wrapper. Consecutive user/model messages are paired into turns; a
// trailing unanswered user message is dropped.
func ParseGeminiTranscript(path string, inferTitles bool) (title string, turns []Turn, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read gemini transcript %s: %w", path, err)
	}

	messages, err := parseGeminiMessages(data)
	if err != nil {
		return "", nil, fmt.Errorf("parse gemini transcript %s: %w", path, err)
	}

	var pendingUser *string
	turnNumber := 0
	for _, m := range messages {
		text := firstNonEmpty(m.Content, m.Text)
		if text == "" {
			continue
		}
		switch m.Role {
		case "user":
			u := text
			pendingUser = &u
			if title == "" && inferTitles {
				title = truncateTitle(text)
			}
		case "model":
			if pendingUser == nil {
				continue
			}
			turnNumber++
			a := text
			turns = append(turns, Turn{
				TurnNumber:        turnNumber,
				UserMessage:       pendingUser,
				AssistantResponse: &a,
				ToolsUsed:         "[]",
			})
			pendingUser = nil
		}
	}
	return title, turns, nil
}

func parseGeminiMessages(data []byte) ([]geminiMessage, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var messages []geminiMessage
		if err := json.Unmarshal(data, &messages); err != nil {
			return nil, err
		}
		return messages, nil
	}
	var doc geminiDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Messages, nil
}

// WalkGeminiSessions walks `~/.gemini/tmp/<sessionId>/logs.json` and
// invokes fn once per transcript file found.
func WalkGeminiSessions(root string, fn func(sessionID, path string) error) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Base(path) != "logs.json" {
			return nil
		}
		sessionID := filepath.Base(filepath.Dir(path))
		return fn(sessionID, path)
	})
}
