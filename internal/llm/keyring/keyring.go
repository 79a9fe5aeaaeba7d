// Package keyring rotates between provider API keys, skipping keys that the
// provider has blocked.
package keyring

import (
	"strings"
	"sync"
)

type keyState struct {
	key     string
	blocked bool
}

// Ring is safe for concurrent use.
type Ring struct {
	mu    sync.Mutex
	keys  []keyState
	index int
}

func New(keys []string) *Ring {
	r := &Ring{}
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		r.keys = append(r.keys, keyState{key: k})
	}
	return r
}

// ParseKeys splits a comma separated key list.
func ParseKeys(raw string) []string {
	var out []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// Current returns the active key, moving forward past blocked keys.
func (r *Ring) Current() (string, bool) {
	if r == nil {
		return "", false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.keys)
	for i := 0; i < n; i++ {
		idx := (r.index + i) % n
		if !r.keys[idx].blocked {
			r.index = idx
			return r.keys[idx].key, true
		}
	}
	return "", false
}

// Rotate advances to the next usable key after the current one.
func (r *Ring) Rotate() (string, bool) {
	if r == nil {
		return "", false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.keys)
	for i := 1; i <= n; i++ {
		idx := (r.index + i) % n
		if !r.keys[idx].blocked {
			r.index = idx
			return r.keys[idx].key, true
		}
	}
	return "", false
}

func (r *Ring) MarkBlocked(key string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.keys {
		if r.keys[i].key == key {
			r.keys[i].blocked = true
			return
		}
	}
}

// Available counts keys that are not blocked.
func (r *Ring) Available() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, k := range r.keys {
		if !k.blocked {
			n++
		}
	}
	return n
}
