package records

import (
	"context"
	"sync"
)

// MemoryBackend keeps sheets in process memory. It backs local development
// and tests; contents are lost on restart.
type MemoryBackend struct {
	mu     sync.RWMutex
	sheets map[string]memorySheet
}

type memorySheet struct {
	header []string
	cells  [][]string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{sheets: make(map[string]memorySheet)}
}

func (m *MemoryBackend) ReadTable(ctx context.Context, sheet string) ([]string, [][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sheets[sheet]
	if !ok {
		return nil, nil, nil
	}
	return copyLine(s.header), copyGrid(s.cells), nil
}

func (m *MemoryBackend) WriteTable(ctx context.Context, sheet string, header []string, cells [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.sheets[sheet] = memorySheet{header: copyLine(header), cells: copyGrid(cells)}
	m.mu.Unlock()
	return nil
}

func copyLine(line []string) []string {
	if line == nil {
		return nil
	}
	out := make([]string, len(line))
	copy(out, line)
	return out
}

func copyGrid(grid [][]string) [][]string {
	out := make([][]string, 0, len(grid))
	for _, line := range grid {
		out = append(out, copyLine(line))
	}
	return out
}
