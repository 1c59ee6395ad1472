package envutil

import (
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Duration
	}{
		{"", 5 * time.Second},
		{"15m", 15 * time.Minute},
		{"30", 30 * time.Second},
		{"garbage", 5 * time.Second},
	}
	for _, tc := range cases {
		t.Setenv("ENVUTIL_TEST_DURATION", tc.raw)
		if got := Duration("ENVUTIL_TEST_DURATION", 5*time.Second); got != tc.want {
			t.Fatalf("Duration(%q): got=%s want=%s", tc.raw, got, tc.want)
		}
	}
}

func TestIntAndBool(t *testing.T) {
	t.Setenv("ENVUTIL_TEST_INT", "12")
	t.Setenv("ENVUTIL_TEST_BOOL", "yes")
	if got := Int("ENVUTIL_TEST_INT", 3); got != 12 {
		t.Fatalf("Int: got=%d", got)
	}
	if got := Int("ENVUTIL_TEST_MISSING", 3); got != 3 {
		t.Fatalf("Int default: got=%d", got)
	}
	if !Bool("ENVUTIL_TEST_BOOL", false) {
		t.Fatalf("Bool: expected true")
	}
	if got := String("ENVUTIL_TEST_MISSING", "x"); got != "x" {
		t.Fatalf("String default: got=%q", got)
	}
}
