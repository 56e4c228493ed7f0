package backend

import (
	"context"
	"sync"

	"github.com/chapterwise/chapterwise"
)

// MockBackend is a scripted prompt-driven backend for testing. Responses are
// returned in order; when the script runs out the last response repeats.
type MockBackend struct {
	mu        sync.Mutex
	responses []string
	calls     int
	requests  []chapterwise.GenerateRequest
	err       error

	// ChunkSize splits streamed responses into deltas of this many bytes
	// (default: 8).
	ChunkSize int
}

// NewMockBackend creates a mock backend with scripted responses.
func NewMockBackend(responses ...string) *MockBackend {
	return &MockBackend{responses: responses}
}

// Fail makes every subsequent call return err.
func (m *MockBackend) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Name implements Backend.
func (m *MockBackend) Name() string {
	return "mock"
}

// Calls returns how many generate calls were made.
func (m *MockBackend) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Requests returns a copy of every request received.
func (m *MockBackend) Requests() []chapterwise.GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]chapterwise.GenerateRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

func (m *MockBackend) next(req chapterwise.GenerateRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if m.err != nil {
		return "", m.err
	}

	idx := m.calls
	m.calls++
	if len(m.responses) == 0 {
		return "", nil
	}
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return m.responses[idx], nil
}

// Generate implements Generator.
func (m *MockBackend) Generate(ctx context.Context, req chapterwise.GenerateRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return m.next(req)
}

// GenerateStream implements StreamingGenerator by chunking the scripted
// response.
func (m *MockBackend) GenerateStream(ctx context.Context, req chapterwise.GenerateRequest, onDelta func(delta string) error) (string, error) {
	full, err := m.next(req)
	if err != nil {
		return "", err
	}

	size := m.ChunkSize
	if size <= 0 {
		size = 8
	}

	for i := 0; i < len(full); i += size {
		if err := ctx.Err(); err != nil {
			return full[:i], err
		}
		end := i + size
		if end > len(full) {
			end = len(full)
		}
		if onDelta != nil {
			if err := onDelta(full[i:end]); err != nil {
				return full[:end], err
			}
		}
	}
	return full, nil
}

// MockDirect is a scripted sentence-at-a-time backend for testing.
type MockDirect struct {
	mu sync.Mutex

	// Translate maps input sentences to outputs. Unmapped sentences echo
	// back prefixed with the target language.
	Translate map[string]string

	calls []string
	err   error
}

// NewMockDirect creates a mock direct translator.
func NewMockDirect() *MockDirect {
	return &MockDirect{Translate: make(map[string]string)}
}

// Fail makes every subsequent call return err.
func (m *MockDirect) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the sentences received so far.
func (m *MockDirect) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// Name implements Backend.
func (m *MockDirect) Name() string {
	return "mock-direct"
}

// TranslateSentence implements DirectTranslator.
func (m *MockDirect) TranslateSentence(ctx context.Context, sentence, model, targetLang string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, sentence)
	if m.err != nil {
		return "", m.err
	}
	if out, ok := m.Translate[sentence]; ok {
		return out, nil
	}
	return "[" + targetLang + "] " + sentence, nil
}

var (
	_ chapterwise.StreamingGenerator = (*MockBackend)(nil)
	_ chapterwise.DirectTranslator   = (*MockDirect)(nil)
)
