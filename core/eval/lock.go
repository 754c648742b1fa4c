package eval

import "sync"

// keyLock serializes evaluations per (student, element, attempt) key: at
// most one evaluation may hold a key at a time, so two concurrent
// evaluations can never both read the same prior progress record and race
// their appends. Distinct keys proceed fully in parallel.
type keyLock struct {
	mu     sync.Mutex
	active map[Key]*keyLockEntry
}

type keyLockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyLock() *keyLock {
	return &keyLock{active: make(map[Key]*keyLockEntry)}
}

func (l *keyLock) Lock(key Key) {
	l.mu.Lock()
	entry, ok := l.active[key]
	if !ok {
		entry = &keyLockEntry{}
		l.active[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
}

func (l *keyLock) Unlock(key Key) {
	l.mu.Lock()
	entry, ok := l.active[key]
	if ok {
		entry.refs--
		if entry.refs == 0 {
			delete(l.active, key)
		}
	}
	l.mu.Unlock()

	if ok {
		entry.mu.Unlock()
	}
}
