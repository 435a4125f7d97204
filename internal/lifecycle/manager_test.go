package lifecycle

import (
	"context"
	"errors"
	"testing"
)

type fakeComponent struct {
	name     string
	startErr error
	log      *[]string
}

func (f *fakeComponent) Start(ctx context.Context) error {
	*f.log = append(*f.log, "start:"+f.name)
	return f.startErr
}

func (f *fakeComponent) Stop(ctx context.Context) error {
	*f.log = append(*f.log, "stop:"+f.name)
	return nil
}

func (f *fakeComponent) Name() string { return f.name }

func TestManagerStartsInOrderAndStopsInReverse(t *testing.T) {
	var log []string
	m := NewManager()
	a := &fakeComponent{name: "a", log: &log}
	b := &fakeComponent{name: "b", log: &log}

	if err := m.Register(a); err != nil {
		t.Fatalf("register a: %v", err)
	}
	if err := m.Register(b); err != nil {
		t.Fatalf("register b: %v", err)
	}

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	want := []string{"start:a", "start:b", "stop:b", "stop:a"}
	if len(log) != len(want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("log[%d] = %s, want %s", i, log[i], want[i])
		}
	}
}

func TestManagerRollsBackOnStartFailure(t *testing.T) {
	var log []string
	m := NewManager()
	a := &fakeComponent{name: "a", log: &log}
	b := &fakeComponent{name: "b", log: &log, startErr: errors.New("boom")}

	_ = m.Register(a)
	_ = m.Register(b)

	if err := m.Start(context.Background()); err == nil {
		t.Fatal("expected start error")
	}

	// a was started and must have been rolled back
	found := false
	for _, entry := range log {
		if entry == "stop:a" {
			found = true
		}
	}
	if !found {
		t.Errorf("log = %v, expected rollback stop of a", log)
	}
}

func TestManagerRejectsInvalidRegistration(t *testing.T) {
	var log []string
	m := NewManager()
	if err := m.Register(nil); err == nil {
		t.Error("expected error for nil component")
	}
	a := &fakeComponent{name: "a", log: &log}
	if err := m.Register(a); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := m.Register(a); err == nil {
		t.Error("expected error for duplicate registration")
	}
	if err := m.Register(&fakeComponent{name: "", log: &log}); err == nil {
		t.Error("expected error for empty name")
	}
}
