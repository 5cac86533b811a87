package service

import "sync"

// recordLocks serializes custody changes per record. A transfer or revoke
// holds the record's lock for its whole read-validate-append-write sequence,
// so concurrent attempts on the same record queue up and revalidate against
// fresh state. Operations on different records never contend.
type recordLocks struct {
	mu    sync.Mutex
	locks map[string]*recordLock
}

type recordLock struct {
	mu   sync.Mutex
	refs int
}

func newRecordLocks() *recordLocks {
	return &recordLocks{locks: make(map[string]*recordLock)}
}

// lock acquires the lock for recordID, blocking until available.
// The returned function releases it and must be called exactly once.
func (l *recordLocks) lock(recordID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[recordID]
	if !ok {
		entry = &recordLock{}
		l.locks[recordID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, recordID)
		}
		l.mu.Unlock()
	}
}
