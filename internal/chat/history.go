package chat

import "github.com/cloudwego/eino/schema"

// History is the conversation transcript, bounded to the most recent max
// messages. When the bound is exceeded the oldest messages are evicted
// first; there is no summarization.
type History struct {
	max      int
	messages []*schema.Message
}

// NewHistory creates a history bounded to max messages.
func NewHistory(max int) *History {
	return &History{max: max}
}

// Append adds a message and trims the oldest entries past the bound.
func (h *History) Append(message *schema.Message) {
	h.messages = append(h.messages, message)
	if h.max > 0 && len(h.messages) > h.max {
		h.messages = h.messages[len(h.messages)-h.max:]
	}
}

// Messages returns a copy of the current transcript, oldest first.
func (h *History) Messages() []*schema.Message {
	out := make([]*schema.Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len returns the number of messages currently held.
func (h *History) Len() int {
	return len(h.messages)
}

// Clear discards the transcript.
func (h *History) Clear() {
	h.messages = nil
}
