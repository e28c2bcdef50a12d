package transcript

import "sync"

// Sink is what the controller writes into.
type Sink interface {
	Append(role Role, content string) ChatMessage
	ScrollToBottom()
}

// Observer is notified of every appended message, in append order.
type Observer func(msg ChatMessage)

// Transcript is an append-only, ordered list of chat messages.
// Safe for concurrent use; appends are serialised and observers run
// under the same lock so they see messages in display order.
type Transcript struct {
	mu        sync.Mutex
	messages  []ChatMessage
	scrollPos int
	observers []Observer
}

func New() *Transcript {
	return &Transcript{}
}

// Observe registers fn for all future appends.
func (t *Transcript) Observe(fn Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, fn)
}

func (t *Transcript) Append(role Role, content string) ChatMessage {
	msg := NewMessage(role, content)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, msg)
	for _, fn := range t.observers {
		fn(msg)
	}
	return msg
}

// ScrollToBottom pins the view to the newest message.
func (t *Transcript) ScrollToBottom() {
	t.mu.Lock()
	t.scrollPos = len(t.messages)
	t.mu.Unlock()
}

// ScrollPos is the number of messages above the current view position.
func (t *Transcript) ScrollPos() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scrollPos
}

// AtBottom reports whether the newest message is in view.
func (t *Transcript) AtBottom() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scrollPos == len(t.messages)
}

// Messages returns a copy of the transcript in display order.
func (t *Transcript) Messages() []ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]ChatMessage, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}
