package assert

import "fmt"

func Assert(cond bool, msg string) {
	if !cond {
		panic(msg)
	}
}

func AssertNotNil(a any) {
	if a == nil {
		panic("expect non-nil value")
	}
}

func AssertNotEmpty(s string) {
	if s == "" {
		panic("expected non-empty string")
	}
}

// AssertInRange panics unless lo <= v < hi.
func AssertInRange(v, lo, hi int) {
	if v < lo || v >= hi {
		panic(fmt.Sprintf("value %d out of range [%d, %d)", v, lo, hi))
	}
}

func AssertPositive(v int, name string) {
	if v <= 0 {
		panic(fmt.Sprintf("expected %s to be positive, got %d", name, v))
	}
}
