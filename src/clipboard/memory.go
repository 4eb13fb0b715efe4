package clipboard

import "sync"

// Memory is an in-process Board with the same single-slot semantics as the
// system clipboard: writing any format replaces the previous content.
type Memory struct {
	mu      sync.Mutex
	format  Format
	data    []byte
	changed chan struct{}
	writes  int
}

func NewMemory() *Memory {
	return &Memory{changed: make(chan struct{})}
}

func (m *Memory) Read(f Format) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f != m.format || len(m.data) == 0 {
		return nil
	}
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out
}

func (m *Memory) Write(f Format, buf []byte) <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	close(m.changed)
	m.changed = make(chan struct{})
	m.format = f
	m.data = append([]byte(nil), buf...)
	m.writes++
	return m.changed
}

// Text returns the current text content, or "" when the board holds another format.
func (m *Memory) Text() string {
	return string(m.Read(FmtText))
}

// Writes counts every Write call.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
