package logstream

import (
	"fmt"
	"reflect"
	"testing"
)

func pushN(r *Ring, from, to int) {
	for i := from; i <= to; i++ {
		r.Push(fmt.Sprintf("line %d", i))
	}
}

func lineRange(from, to int) []string {
	out := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, fmt.Sprintf("line %d", i))
	}
	return out
}

func TestRing_KeepsMostRecent(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		pushes   int
		want     []string
	}{
		{"empty", 5, 0, []string{}},
		{"below capacity", 5, 3, lineRange(1, 3)},
		{"exactly full", 5, 5, lineRange(1, 5)},
		{"wrapped", 5, 12, lineRange(8, 12)},
		{"capacity one", 1, 4, lineRange(4, 4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRing(tt.capacity)
			pushN(r, 1, tt.pushes)
			if got := r.Lines(); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Lines() = %v, want %v", got, tt.want)
			}
			if r.Len() != len(tt.want) {
				t.Fatalf("Len() = %d, want %d", r.Len(), len(tt.want))
			}
			if r.Total() != uint64(tt.pushes) {
				t.Fatalf("Total() = %d, want %d", r.Total(), tt.pushes)
			}
		})
	}
}

func TestRing_DefaultCapacity(t *testing.T) {
	for _, capacity := range []int{0, -3} {
		if got := NewRing(capacity).Cap(); got != DefaultTail {
			t.Fatalf("NewRing(%d).Cap() = %d, want %d", capacity, got, DefaultTail)
		}
	}
}

func TestRing_SetCapacity(t *testing.T) {
	t.Run("shrink keeps newest", func(t *testing.T) {
		r := NewRing(5)
		pushN(r, 1, 5)
		r.SetCapacity(2)
		if got, want := r.Lines(), lineRange(4, 5); !reflect.DeepEqual(got, want) {
			t.Fatalf("Lines() = %v, want %v", got, want)
		}
		r.Push("line 6")
		if got, want := r.Lines(), lineRange(5, 6); !reflect.DeepEqual(got, want) {
			t.Fatalf("Lines() after push = %v, want %v", got, want)
		}
	})

	t.Run("shrink after wrap", func(t *testing.T) {
		r := NewRing(4)
		pushN(r, 1, 7)
		r.SetCapacity(3)
		if got, want := r.Lines(), lineRange(5, 7); !reflect.DeepEqual(got, want) {
			t.Fatalf("Lines() = %v, want %v", got, want)
		}
	})

	t.Run("grow keeps everything", func(t *testing.T) {
		r := NewRing(3)
		pushN(r, 1, 5)
		r.SetCapacity(6)
		if got, want := r.Lines(), lineRange(3, 5); !reflect.DeepEqual(got, want) {
			t.Fatalf("Lines() = %v, want %v", got, want)
		}
		pushN(r, 6, 8)
		if got, want := r.Lines(), lineRange(3, 8); !reflect.DeepEqual(got, want) {
			t.Fatalf("Lines() after pushes = %v, want %v", got, want)
		}
		r.Push("line 9")
		if got, want := r.Lines(), lineRange(4, 9); !reflect.DeepEqual(got, want) {
			t.Fatalf("Lines() after wrap = %v, want %v", got, want)
		}
	})

	t.Run("non-positive uses default", func(t *testing.T) {
		r := NewRing(5)
		r.SetCapacity(0)
		if r.Cap() != DefaultTail {
			t.Fatalf("Cap() = %d, want %d", r.Cap(), DefaultTail)
		}
	})
}

func TestRing_Reset(t *testing.T) {
	r := NewRing(3)
	pushN(r, 1, 10)
	r.Reset(7)
	if r.Len() != 0 || r.Total() != 0 || r.Cap() != 7 {
		t.Fatalf("after Reset len=%d total=%d cap=%d, want 0 0 7", r.Len(), r.Total(), r.Cap())
	}
}

func TestResolveTail(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"20", 20},
		{" 50 ", 50},
		{"1", 1},
		{"", DefaultTail},
		{"0", DefaultTail},
		{"-4", DefaultTail},
		{"abc", DefaultTail},
		{"2.5", DefaultTail},
	}
	for _, tt := range tests {
		if got := ResolveTail(tt.in); got != tt.want {
			t.Errorf("ResolveTail(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
