package governor

import (
	"context"
	"testing"
	"time"
)

func TestGovernor_AcquireRelease(t *testing.T) {
	g := New(2, 5)
	ctx := context.Background()

	rel1, err := g.AcquireGeneration(ctx)
	if err != nil {
		t.Fatalf("AcquireGeneration: %v", err)
	}
	rel2, err := g.AcquireGeneration(ctx)
	if err != nil {
		t.Fatalf("AcquireGeneration: %v", err)
	}
	if gen, _ := g.InUse(); gen != 2 {
		t.Fatalf("InUse generation = %d, want 2", gen)
	}

	ctx2, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if _, err := g.AcquireGeneration(ctx2); err == nil {
		t.Fatal("expected third AcquireGeneration to block until cancellation")
	}

	rel1()
	rel2()
	if gen, _ := g.InUse(); gen != 0 {
		t.Fatalf("InUse generation after release = %d, want 0", gen)
	}
}

func TestGovernor_ReleaseIdempotent(t *testing.T) {
	g := New(1, 1)
	rel, err := g.AcquireGeneration(context.Background())
	if err != nil {
		t.Fatalf("AcquireGeneration: %v", err)
	}
	rel()
	rel() // must not double-release the semaphore
	if gen, _ := g.InUse(); gen != 0 {
		t.Fatalf("InUse generation = %d, want 0", gen)
	}
}

func TestGovernor_IndependentSemaphores(t *testing.T) {
	g := New(1, 1)
	relGen, err := g.AcquireGeneration(context.Background())
	if err != nil {
		t.Fatalf("AcquireGeneration: %v", err)
	}
	defer relGen()

	relVer, err := g.AcquireVerification(context.Background())
	if err != nil {
		t.Fatalf("AcquireVerification should not block on generation permit: %v", err)
	}
	defer relVer()
}
