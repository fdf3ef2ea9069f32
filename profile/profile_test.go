package profile

import "testing"

func TestMake_AppliesOptions(t *testing.T) {
	p := Make(WithMode("cpu"), WithPath("/tmp/prof"), WithQuiet(true))

	want := Profiler{Mode: "cpu", Path: "/tmp/prof", Quiet: true}
	if p != want {
		t.Errorf("Make() = %+v, want %+v", p, want)
	}

	if q := Make(WithQuiet(true), WithQuiet(false)); q.Quiet {
		t.Error("later option did not override earlier one")
	}
}

func TestStart_NoMode(t *testing.T) {
	s := Make(WithPath(t.TempDir())).Start()

	if _, ok := s.(ignore); !ok {
		t.Errorf("Start() without mode = %T, want no-op", s)
	}

	s.Stop()
}

func TestStart_UnknownMode(t *testing.T) {
	s := Make(WithMode("no-such-mode"), WithPath(t.TempDir())).Start()

	if _, ok := s.(ignore); !ok {
		t.Errorf("Start() with unknown mode = %T, want no-op", s)
	}

	s.Stop()
}
