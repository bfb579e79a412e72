package parser

import "sync"

// MaxInternPoolSize caps the pool. Past the cap new strings are returned
// as-is instead of being stored.
const MaxInternPoolSize = 100000

// StringIntern deduplicates the strings repeated across a compiler document:
// namespaces, port type references and property keys recur on every
// instance and port copy.
type StringIntern struct {
	mu   sync.RWMutex
	pool map[string]string
}

// NewStringIntern creates an empty pool.
func NewStringIntern() *StringIntern {
	return &StringIntern{pool: make(map[string]string, 256)}
}

// Intern returns the canonical copy of s.
func (si *StringIntern) Intern(s string) string {
	if s == "" {
		return s
	}

	si.mu.RLock()
	if v, ok := si.pool[s]; ok {
		si.mu.RUnlock()
		return v
	}
	si.mu.RUnlock()

	si.mu.Lock()
	defer si.mu.Unlock()
	if v, ok := si.pool[s]; ok {
		return v
	}
	if len(si.pool) >= MaxInternPoolSize {
		return s
	}
	si.pool[s] = s
	return s
}

// Len returns the number of unique strings in the pool.
func (si *StringIntern) Len() int {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return len(si.pool)
}
