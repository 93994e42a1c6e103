package chat

import (
	"os"
	"sync"
)

// ReferenceCorpus lazily loads the fixed legal-text corpus used to ground
// chat answers. It is an explicitly owned singleton passed by reference to
// whoever needs it; the file is read at most once per process.
type ReferenceCorpus struct {
	path string

	mu     sync.Mutex
	loaded bool
	text   string
	err    error
}

func NewReferenceCorpus(path string) *ReferenceCorpus {
	return &ReferenceCorpus{path: path}
}

// Load returns the corpus text, reading the file on first use. A read
// failure is cached like a successful read; the corpus is fixed for the
// process lifetime either way.
func (c *ReferenceCorpus) Load() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		data, err := os.ReadFile(c.path)
		c.text, c.err = string(data), err
		c.loaded = true
	}
	return c.text, c.err
}

// Loaded reports whether the corpus has been read already.
func (c *ReferenceCorpus) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}
