// Package history keeps the conversation of an interactive chat and its JSON transcripts.
package history

import (
	"time"

	"gptkit/internal/openai"
)

// Message represents one turn of a conversation.
type Message struct {
	Role      openai.Role `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at,omitempty"`
}

// ToOpenAI converts a Message to the chat request format.
func (m Message) ToOpenAI() openai.ChatMessage {
	return openai.ChatMessage{
		Role:    m.Role,
		Content: m.Content,
	}
}

// MessageFromOpenAI creates a Message from a chat message.
func MessageFromOpenAI(msg openai.ChatMessage) Message {
	return Message{
		Role:    msg.Role,
		Content: msg.Content,
	}
}

// MessagesToOpenAI converts a slice of Messages to the chat request format.
func MessagesToOpenAI(messages []Message) []openai.ChatMessage {
	result := make([]openai.ChatMessage, len(messages))
	for i, m := range messages {
		result[i] = m.ToOpenAI()
	}
	return result
}
