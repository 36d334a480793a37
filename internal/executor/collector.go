package executor

import (
	"bytes"
	"sync"
)

// DefaultMaxOutputBytes caps how much of each stream is retained
const DefaultMaxOutputBytes = 4 << 20

// collector accumulates a stream while the process is still running. Reads
// may happen concurrently with writes when a timeout snapshots the output.
type collector struct {
	mu        sync.Mutex
	buffer    bytes.Buffer
	maxBytes  int
	truncated bool
}

func newCollector(maxBytes int) *collector {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxOutputBytes
	}
	return &collector{maxBytes: maxBytes}
}

func (c *collector) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	remaining := c.maxBytes - c.buffer.Len()
	if remaining <= 0 {
		c.truncated = true
		return len(p), nil
	}

	toWrite := p
	if len(toWrite) > remaining {
		toWrite = toWrite[:remaining]
		c.truncated = true
	}

	if _, err := c.buffer.Write(toWrite); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *collector) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffer.String()
}

func (c *collector) Truncated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.truncated
}
