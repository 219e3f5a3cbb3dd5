package ledger

import (
	"sync"
	"testing"
	"time"
)

func TestAccountLocksExclusivePerID(t *testing.T) {
	l := newAccountLocks()

	unlockA := l.lock("a")
	acquired := make(chan struct{})
	go func() {
		unlock := l.lock("a")
		close(acquired)
		unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock on the same account acquired while held")
	case <-time.After(50 * time.Millisecond):
	}

	// Other accounts are not blocked.
	unlockB := l.lock("b")
	unlockB()

	unlockA()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the lock")
	}
}

func TestAccountLocksDrain(t *testing.T) {
	l := newAccountLocks()
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.lock("same")
			counter++
			unlock()
		}()
	}
	wg.Wait()
	if counter != 100 {
		t.Fatalf("counter = %d, want 100", counter)
	}
	if l.size() != 0 {
		t.Fatalf("size = %d, want 0", l.size())
	}
}
