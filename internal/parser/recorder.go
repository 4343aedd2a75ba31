package parser

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/strrl/polar-persona/internal/conversation"
)

// Recorder appends conversation turns to a JSONL transcript in the format
// Parser reads back.
type Recorder struct {
	mu      sync.Mutex
	path    string
	session string
}

func NewRecorder(path, session string) *Recorder {
	return &Recorder{path: path, session: session}
}

func (r *Recorder) Path() string {
	return r.path
}

func (r *Recorder) Append(messages ...conversation.Message) error {
	if len(messages) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create transcript directory: %w", err)
	}

	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open transcript: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, msg := range messages {
		if err := enc.Encode(FromMessage(msg, r.session)); err != nil {
			return fmt.Errorf("failed to write transcript entry: %w", err)
		}
	}

	return nil
}
