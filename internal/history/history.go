package history

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"gptkit/internal/openai"
)

// Conversation is the ordered message history of one chat session.
type Conversation struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages"`
}

// New creates an empty conversation with a generated ID.
// A non-empty system prompt becomes the first message.
func New(systemPrompt string) *Conversation {
	now := time.Now()
	conv := &Conversation{
		ID:        uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []Message{},
	}
	if systemPrompt != "" {
		conv.Append(openai.RoleSystem, systemPrompt)
	}
	return conv
}

// Append adds a message to the end of the conversation.
func (c *Conversation) Append(role openai.Role, content string) {
	c.AppendMessage(Message{Role: role, Content: content})
}

// AppendMessage adds m to the end of the conversation, stamping CreatedAt when unset.
func (c *Conversation) AppendMessage(m Message) {
	now := time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	c.Messages = append(c.Messages, m)
	c.UpdatedAt = now

	// Name the conversation after the first user message
	if c.Name == "" && m.Role == openai.RoleUser {
		c.Name = generateName(m.Content)
	}
}

// Rollback removes the last message, e.g. a user turn whose request failed.
// It reports whether a message was removed.
func (c *Conversation) Rollback() bool {
	if len(c.Messages) == 0 {
		return false
	}
	c.Messages = c.Messages[:len(c.Messages)-1]
	return true
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.Messages)
}

// ChatMessages returns the conversation in chat request format.
func (c *Conversation) ChatMessages() []openai.ChatMessage {
	return MessagesToOpenAI(c.Messages)
}

// Save writes the conversation to dir/<id>.json, creating dir if needed,
// and returns the file path.
func (c *Conversation) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create transcript directory: %w", err)
	}

	path := filepath.Join(dir, c.ID+".json")
	if err := saveConversation(path, c); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads a conversation transcript from path.
func Load(path string) (*Conversation, error) {
	conv, err := loadConversation(path)
	if err != nil {
		return nil, err
	}
	if conv.ID == "" {
		return nil, fmt.Errorf("transcript %s has no id", path)
	}
	return conv, nil
}

// LoadByID reads the transcript with the given ID from dir.
func LoadByID(dir, id string) (*Conversation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid conversation id %q: %w", id, err)
	}
	return Load(filepath.Join(dir, id+".json"))
}

// generateName creates a conversation name from the first user message.
// It truncates to a reasonable length and adds ellipsis if needed.
func generateName(content string) string {
	const maxLength = 50

	name := strings.TrimSpace(content)
	name = strings.ReplaceAll(name, "\n", " ")
	name = strings.ReplaceAll(name, "\r", "")

	if len(name) > maxLength {
		name = strings.ToValidUTF8(name[:maxLength-3], "") + "..."
	}

	return name
}
