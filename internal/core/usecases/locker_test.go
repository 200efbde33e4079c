package usecases_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/samirrijal/gpxcorpus/internal/core/usecases"
)

func TestLocalLocker_Serialises(t *testing.T) {
	l := usecases.NewLocalLocker()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		holders int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "k.gpx")
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			mu.Lock()
			holders++
			if holders > maxSeen {
				maxSeen = holders
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			holders--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Errorf("expected at most 1 holder, saw %d", maxSeen)
	}
}

func TestLocalLocker_IndependentKeys(t *testing.T) {
	l := usecases.NewLocalLocker()
	a, err := l.Lock(context.Background(), "a.gpx")
	if err != nil {
		t.Fatalf("lock a: %v", err)
	}
	defer a()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	b, err := l.Lock(ctx, "b.gpx")
	if err != nil {
		t.Fatalf("lock b should not block on a: %v", err)
	}
	b()
}

func TestLocalLocker_ContextCancel(t *testing.T) {
	l := usecases.NewLocalLocker()
	unlock, _ := l.Lock(context.Background(), "k.gpx")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "k.gpx"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}

	unlock()
	unlock() // second call is a no-op

	again, err := l.Lock(context.Background(), "k.gpx")
	if err != nil {
		t.Fatalf("relock: %v", err)
	}
	again()
}
