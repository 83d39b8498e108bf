package lock

import (
	"sync"
	"testing"
	"time"
)

// ============================================================================
// Keyed Lock Unit Tests
// ============================================================================

func TestKeyed_LockUnlock(t *testing.T) {
	k := NewKeyed()

	k.Lock("a")
	k.Unlock("a")

	if k.Len() != 0 {
		t.Errorf("expected no tracked keys after unlock, got %d", k.Len())
	}
}

func TestKeyed_DistinctKeysDoNotBlock(t *testing.T) {
	k := NewKeyed()

	k.Lock("a")
	defer k.Unlock("a")

	done := make(chan struct{})
	go func() {
		k.Lock("b")
		k.Unlock("b")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock on distinct key blocked")
	}
}

func TestKeyed_SameKeySerializes(t *testing.T) {
	k := NewKeyed()

	const goroutines = 20
	var inCritical int
	var maxInCritical int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k.Lock("shared")
			mu.Lock()
			inCritical++
			if inCritical > maxInCritical {
				maxInCritical = inCritical
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inCritical--
			mu.Unlock()
			k.Unlock("shared")
		}()
	}
	wg.Wait()

	if maxInCritical != 1 {
		t.Errorf("expected at most 1 goroutine in critical section, got %d", maxInCritical)
	}
	if k.Len() != 0 {
		t.Errorf("expected no tracked keys after all unlocks, got %d", k.Len())
	}
}

func TestKeyed_UnlockUnheldPanics(t *testing.T) {
	k := NewKeyed()

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on unlock of unheld key")
		}
	}()
	k.Unlock("never-locked")
}

func TestKeyed_RefCountCleanup(t *testing.T) {
	k := NewKeyed()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k.Lock("key")
			k.Unlock("key")
		}()
	}
	wg.Wait()

	if k.Len() != 0 {
		t.Errorf("expected entries map to drain, got %d entries", k.Len())
	}
}
