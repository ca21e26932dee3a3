package envutil

import (
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"":      5 * time.Second,
		"45s":   45 * time.Second,
		"90":    90 * time.Second,
		"bogus": 5 * time.Second,
	}
	for raw, want := range cases {
		t.Setenv("LP_TEST_DURATION", raw)
		if got := Duration("LP_TEST_DURATION", 5*time.Second); got != want {
			t.Fatalf("Duration(%q): want=%v got=%v", raw, want, got)
		}
	}
}

func TestBoolAndString(t *testing.T) {
	t.Setenv("LP_TEST_BOOL", " Yes ")
	if !Bool("LP_TEST_BOOL", false) {
		t.Fatalf("Bool: want=true")
	}
	t.Setenv("LP_TEST_BOOL", "maybe")
	if !Bool("LP_TEST_BOOL", true) {
		t.Fatalf("Bool: unknown value should keep default")
	}
	t.Setenv("LP_TEST_STRING", "   ")
	if got := String("LP_TEST_STRING", "def"); got != "def" {
		t.Fatalf("String: want=def got=%q", got)
	}
	t.Setenv("LP_TEST_INT", "x")
	if got := Int("LP_TEST_INT", 7); got != 7 {
		t.Fatalf("Int: want=7 got=%d", got)
	}
}
