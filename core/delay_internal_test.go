package core

import (
	"math"
	"testing"
	"time"
)

func TestAddSaturating(t *testing.T) {
	tests := []struct {
		name string
		t, d time.Duration
		want time.Duration
	}{
		{name: "plain", t: time.Second, d: 2 * time.Second, want: 3 * time.Second},
		{name: "zero delay", t: time.Second, d: 0, want: time.Second},
		{name: "max delay", t: time.Second, d: math.MaxInt64, want: math.MaxInt64},
		{name: "exact fit", t: 1, d: math.MaxInt64 - 1, want: math.MaxInt64},
		{name: "near max", t: math.MaxInt64 - time.Second, d: 2 * time.Second, want: math.MaxInt64},
		{name: "at max", t: math.MaxInt64, d: time.Second, want: math.MaxInt64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := addSaturating(tt.t, tt.d); got != tt.want {
				t.Errorf("addSaturating(%d, %d) = %d, want %d", tt.t, tt.d, got, tt.want)
			}
		})
	}
}
