// File path: internal/convo/log.go
package convo

import "sync"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one conversation entry. Turns are appended in strict user then
// assistant pairs.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Log is an ordered conversation record. All methods are safe for
// concurrent use; appends of a question/answer pair are atomic so the turn
// count always grows by exactly two per exchange.
type Log struct {
	mu    sync.Mutex
	turns []Turn
}

func NewLog() *Log {
	return &Log{}
}

// Append adds a single turn.
func (l *Log) Append(role, content string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.turns = append(l.turns, Turn{Role: role, Content: content})
}

// AppendExchange records a user question and its assistant answer as one
// atomic pair and returns the conversation id, the number of completed
// exchanges after the append.
func (l *Log) AppendExchange(question, answer string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.turns = append(l.turns,
		Turn{Role: RoleUser, Content: question},
		Turn{Role: RoleAssistant, Content: answer},
	)
	return len(l.turns) / 2
}

// History returns a copy of the turns in order, never a live view.
func (l *Log) History() []Turn {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

// Len returns the current turn count.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.turns)
}

// Clear empties the log.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.turns = nil
}
