package objpool

import "testing"

type widget struct {
	resetCount int
	value      int
}

func TestPoolRoundTrip(t *testing.T) {
	var destroyed int
	p := New(2,
		func() *widget { return &widget{} },
		func(w *widget) { w.resetCount++; w.value = 0 },
		func(w *widget) { destroyed++ },
	)

	if got := p.Size(); got != 0 {
		t.Fatalf("Size() = %d, want 0", got)
	}

	w := p.Acquire()
	w.value = 42
	if got := p.Stats().Allocs; got != 1 {
		t.Fatalf("Allocs = %d, want 1", got)
	}

	p.Release(w)
	if got := p.Size(); got != 1 {
		t.Fatalf("Size() after release = %d, want 1", got)
	}

	w2 := p.Acquire()
	if w2 != w {
		t.Fatalf("Acquire() did not return the pooled instance")
	}
	if w2.resetCount != 1 {
		t.Fatalf("resetForReuse not called on acquire from pool")
	}
	if w2.value != 0 {
		t.Fatalf("pooled instance not reset before reuse")
	}

	// Release below capacity: observable size unchanged after acquire+release.
	before := p.Size()
	p.Release(w2)
	if got := p.Size(); got != before+1 {
		t.Fatalf("Size() after release = %d, want %d", got, before+1)
	}
}

func TestPoolDestroysAtCapacity(t *testing.T) {
	var destroyed int
	p := New(1,
		func() *widget { return &widget{} },
		nil,
		func(w *widget) { destroyed++ },
	)

	a := p.Acquire()
	b := p.Acquire()

	p.Release(a) // fills the one free slot
	p.Release(b) // pool is at capacity, b is destroyed

	if destroyed != 1 {
		t.Fatalf("destroyed = %d, want 1", destroyed)
	}
	if got := p.Size(); got != 1 {
		t.Fatalf("Size() = %d, want 1", got)
	}
}
