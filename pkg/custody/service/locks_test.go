package service

import (
	"sync"
	"testing"
)

func TestRecordLocks_SerializesSameRecord(t *testing.T) {
	locks := newRecordLocks()

	var counter, max int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("record-1")
			defer unlock()

			mu.Lock()
			counter++
			if counter > max {
				max = counter
			}
			mu.Unlock()

			mu.Lock()
			counter--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if max != 1 {
		t.Errorf("expected at most 1 concurrent holder, observed %d", max)
	}
}

func TestRecordLocks_CleansUpEntries(t *testing.T) {
	locks := newRecordLocks()

	unlock := locks.lock("record-1")
	unlock()

	locks.mu.Lock()
	remaining := len(locks.locks)
	locks.mu.Unlock()

	if remaining != 0 {
		t.Errorf("expected lock map to be empty after release, got %d entries", remaining)
	}
}

func TestRecordLocks_IndependentRecords(t *testing.T) {
	locks := newRecordLocks()

	unlock1 := locks.lock("record-1")
	done := make(chan struct{})
	go func() {
		unlock2 := locks.lock("record-2")
		unlock2()
		close(done)
	}()

	// A different record must not block behind record-1's holder.
	<-done
	unlock1()
}
