package bt2

import "testing"

func TestSharedObjectRefCountSafety(t *testing.T) {
	destroyed := 0
	obj := NewSharedObject(nil, func() { destroyed++ })

	obj.GetRef()
	obj.GetRef()
	obj.PutRef()
	obj.PutRef()
	obj.PutRef() // the original ref from NewSharedObject

	if destroyed != 1 {
		t.Fatalf("destroyed = %d, want exactly 1", destroyed)
	}
}

func TestSharedObjectParentDelegation(t *testing.T) {
	var parentDestroyed, childDestroyed bool

	parent := NewSharedObject(nil, func() { parentDestroyed = true })
	child := NewSharedObject(parent, func() { childDestroyed = true })

	// The child's own strong count drops to zero immediately: further
	// Get/Put on the child delegate to the parent.
	child.PutRef()
	if childDestroyed {
		t.Fatalf("child destroyed while parent still live")
	}

	child.GetRef() // delegates: parent strong count is now 2
	if parent.RefCount() != 2 {
		t.Fatalf("parent ref count = %d, want 2", parent.RefCount())
	}

	child.PutRef() // delegates: parent strong count back to 1
	parent.PutRef()

	if !parentDestroyed {
		t.Fatalf("parent not destroyed after last ref released")
	}
	_ = childDestroyed // the child has no independent destructor call in this model
}

func TestSharedObjectDestructionListenerRetentionPanics(t *testing.T) {
	obj := NewSharedObject(nil, nil)
	obj.AddDestructionListener(func(self *SharedObject, data any) {
		self.GetRef() // retains across return: a usage error
	}, nil)

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic on listener retention")
		}
	}()
	obj.PutRef()
}

func TestFreezeMonotonic(t *testing.T) {
	obj := NewSharedObject(nil, nil)

	if obj.IsFrozen() {
		t.Fatalf("new object reports frozen")
	}
	if err := obj.MutateGuard(); err != nil {
		t.Fatalf("MutateGuard() on unfrozen object = %v, want nil", err)
	}

	obj.Freeze()
	if !obj.IsFrozen() {
		t.Fatalf("IsFrozen() after Freeze() = false")
	}
	if err := obj.MutateGuard(); err != ErrFrozen {
		t.Fatalf("MutateGuard() after Freeze() = %v, want ErrFrozen", err)
	}

	obj.Freeze() // idempotent
	if !obj.IsFrozen() {
		t.Fatalf("Freeze() is not monotonic")
	}
}
