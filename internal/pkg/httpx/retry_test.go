package httpx

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type statusErr int

func (e statusErr) Error() string       { return fmt.Sprintf("status %d", int(e)) }
func (e statusErr) HTTPStatusCode() int { return int(e) }

func TestIsRetryableError(t *testing.T) {
	cases := map[string]struct {
		err  error
		want bool
	}{
		"nil":         {nil, false},
		"plain":       {errors.New("boom"), false},
		"canceled":    {context.Canceled, false},
		"deadline":    {fmt.Errorf("put: %w", context.DeadlineExceeded), true},
		"503":         {fmt.Errorf("put: %w", statusErr(503)), true},
		"429":         {statusErr(429), true},
		"404":         {statusErr(404), false},
		"403 wrapped": {fmt.Errorf("a: %w", fmt.Errorf("b: %w", statusErr(403))), false},
	}
	for name, tc := range cases {
		if got := IsRetryableError(tc.err); got != tc.want {
			t.Fatalf("%s: want=%v got=%v", name, tc.want, got)
		}
	}
}

func TestJitterSleepStaysWithinBand(t *testing.T) {
	base := 100 * time.Millisecond
	for i := 0; i < 50; i++ {
		d := JitterSleep(base)
		if d < 80*time.Millisecond || d > 120*time.Millisecond {
			t.Fatalf("JitterSleep: out of band got=%v", d)
		}
	}
	if JitterSleep(0) != 0 {
		t.Fatalf("JitterSleep(0): want=0")
	}
}
