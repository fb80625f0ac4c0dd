package mcpindex

import "github.com/prompt-stack/rudi/internal/configstore"

// StackEntriesFromDocument extracts the indexer's view of every
// configured stack from the central config document.
func StackEntriesFromDocument(doc *configstore.Document) []StackEntry {
	entries := make([]StackEntry, 0, len(doc.Stacks))
	for id, stack := range doc.Stacks {
		entries = append(entries, StackEntry{
			ID:      id,
			Launch:  stack.Launch,
			Secrets: stack.Secrets,
		})
	}
	return entries
}
