// Package cache provides the process-wide response cache used by the AI gateway.
//
// Entries are keyed by a truncated prompt and are never evicted or expired.
// Two prompts that share their first KeyLength characters map to the same
// entry and will return the same completion.
package cache

import "sync"

// KeyLength is the number of leading characters of a prompt used as the key.
const KeyLength = 100

// Key returns the cache key for a prompt: its first KeyLength characters.
func Key(prompt string) string {
	n := 0
	for i := range prompt {
		if n == KeyLength {
			return prompt[:i]
		}
		n++
	}
	return prompt
}

// ResponseCache maps truncated prompts to completion text.
// Each Get and Set is atomic; a Get followed by a Set is not.
type ResponseCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// New creates an empty ResponseCache.
func New() *ResponseCache {
	return &ResponseCache{entries: make(map[string]string)}
}

// Get returns the cached completion for prompt, if any.
func (c *ResponseCache) Get(prompt string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	text, ok := c.entries[Key(prompt)]
	return text, ok
}

// Set stores text for prompt, overwriting any existing entry for the same key.
func (c *ResponseCache) Set(prompt, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[Key(prompt)] = text
}

// Len returns the number of cached entries.
func (c *ResponseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
