package ir

import "testing"

func TestStreamCreationFreezesTraceClass(t *testing.T) {
	tc := NewTraceClass()
	sc := NewStreamClass(StreamClassConfig{ID: 0, Name: "sc0"})
	if err := tc.AppendStreamClass(sc); err != nil {
		t.Fatalf("AppendStreamClass: %v", err)
	}

	ec := NewEventClass(0, "ec0")
	if err := sc.AppendEventClass(ec); err != nil {
		t.Fatalf("AppendEventClass: %v", err)
	}

	if tc.IsFrozen() {
		t.Fatalf("trace class frozen before any stream was created")
	}

	trace := NewTrace(tc)
	if _, err := trace.CreateStream(sc, 0); err != nil {
		t.Fatalf("CreateStream: %v", err)
	}

	if !tc.IsFrozen() {
		t.Fatalf("trace class not frozen after first stream creation")
	}
	if !sc.IsFrozen() {
		t.Fatalf("stream class not frozen after first stream creation")
	}
	if !ec.IsFrozen() {
		t.Fatalf("event class not frozen after first stream creation")
	}

	if err := tc.SetName("too-late"); err == nil {
		t.Fatalf("SetName succeeded on frozen trace class")
	}
	if err := sc.AppendEventClass(NewEventClass(1, "ec1")); err == nil {
		t.Fatalf("AppendEventClass succeeded on frozen stream class")
	}
}

func TestAppendStreamClassRejectsDuplicateID(t *testing.T) {
	tc := NewTraceClass()
	sc1 := NewStreamClass(StreamClassConfig{ID: 0})
	sc2 := NewStreamClass(StreamClassConfig{ID: 0})

	if err := tc.AppendStreamClass(sc1); err != nil {
		t.Fatalf("AppendStreamClass(sc1): %v", err)
	}
	if err := tc.AppendStreamClass(sc2); err == nil {
		t.Fatalf("AppendStreamClass(sc2) with duplicate id succeeded")
	}
}

func TestAppendEventClassRejectsDuplicateID(t *testing.T) {
	sc := NewStreamClass(StreamClassConfig{ID: 0})
	ec1 := NewEventClass(5, "a")
	ec2 := NewEventClass(5, "b")

	if err := sc.AppendEventClass(ec1); err != nil {
		t.Fatalf("AppendEventClass(ec1): %v", err)
	}
	if err := sc.AppendEventClass(ec2); err == nil {
		t.Fatalf("AppendEventClass(ec2) with duplicate id succeeded")
	}
}

func TestTraceClassEnvironmentInsertionOrder(t *testing.T) {
	tc := NewTraceClass()
	_ = tc.SetEnvironmentEntry("hostname", EnvironmentEntry{Kind: EnvironmentString, StringVal: "h1"})
	_ = tc.SetEnvironmentEntry("tracer_major", EnvironmentEntry{Kind: EnvironmentInteger, IntVal: 2})

	keys := tc.EnvironmentKeys()
	if len(keys) != 2 || keys[0] != "hostname" || keys[1] != "tracer_major" {
		t.Fatalf("EnvironmentKeys() = %v, want [hostname tracer_major]", keys)
	}
}
