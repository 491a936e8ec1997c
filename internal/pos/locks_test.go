package pos

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestOrderLocksSerialize(t *testing.T) {
	locks := newOrderLocks(time.Second)
	orderID := uuid.New()

	release, err := locks.acquire(context.Background(), orderID)
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		release2, err := locks.acquire(context.Background(), orderID)
		if err != nil {
			t.Errorf("second acquire failed: %v", err)
			close(acquired)
			return
		}
		close(acquired)
		release2()
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire should block until release")
	case <-time.After(50 * time.Millisecond):
	}

	release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire never completed after release")
	}
}

func TestOrderLocksTimeout(t *testing.T) {
	locks := newOrderLocks(50 * time.Millisecond)
	orderID := uuid.New()

	release, err := locks.acquire(context.Background(), orderID)
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	defer release()

	_, err = locks.acquire(context.Background(), orderID)
	if KindOf(err) != KindBusy {
		t.Errorf("expected kind %s, got %v", KindBusy, err)
	}
}

func TestOrderLocksContextCancel(t *testing.T) {
	locks := newOrderLocks(time.Minute)
	orderID := uuid.New()

	release, err := locks.acquire(context.Background(), orderID)
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = locks.acquire(ctx, orderID)
	if KindOf(err) != KindBusy {
		t.Errorf("expected kind %s, got %v", KindBusy, err)
	}
}

func TestOrderLocksIndependentOrders(t *testing.T) {
	locks := newOrderLocks(50 * time.Millisecond)

	releaseA, err := locks.acquire(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("acquire A failed: %v", err)
	}
	defer releaseA()

	releaseB, err := locks.acquire(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("expected distinct orders not to contend, got %v", err)
	}
	releaseB()
}

func TestOrderLocksCleanup(t *testing.T) {
	locks := newOrderLocks(time.Second)
	orderID := uuid.New()

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locks.acquire(context.Background(), orderID)
			if err != nil {
				t.Errorf("acquire failed: %v", err)
				return
			}
			release()
		}()
	}
	wg.Wait()

	locks.mu.Lock()
	remaining := len(locks.slots)
	locks.mu.Unlock()
	if remaining != 0 {
		t.Errorf("expected slot map to be empty, got %d entries", remaining)
	}
}
