package history

import (
	"encoding/json"
	"fmt"
	"os"
)

// loadConversation loads a conversation from a JSON file.
func loadConversation(path string) (*Conversation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}

	var conv Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("failed to parse transcript: %w", err)
	}

	return &conv, nil
}

// saveConversation saves a conversation to a JSON file.
func saveConversation(path string, conv *Conversation) error {
	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize transcript: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}

	return nil
}
