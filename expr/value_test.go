package expr

import "testing"

func TestValueAsNumberTypeMismatch(t *testing.T) {
	v := StringValue(NewString("x"))
	if _, err := v.AsNumber(1, 1); err == nil {
		t.Fatal("expected TypeMismatch")
	} else if e := err.(*Error); e.Kind != ErrorTypeMismatch {
		t.Fatalf("got %v, want ErrorTypeMismatch", e.Kind)
	}
}

func TestValueAsStringTypeMismatch(t *testing.T) {
	v := NumberValue(1)
	if _, err := v.AsString(1, 1); err == nil {
		t.Fatal("expected TypeMismatch")
	}
}

func TestCompareNumbers(t *testing.T) {
	cases := []struct {
		a, b float64
		want int
	}{
		{1, 2, -1},
		{2, 1, 1},
		{2, 2, 0},
	}
	for _, c := range cases {
		got, err := Compare(1, 1, NumberValue(c.a), NumberValue(c.b))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != c.want {
			t.Errorf("Compare(%v,%v) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestCompareStrings(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"abc", "abd", -1},
		{"abc", "abc", 0},
		{"abd", "abc", 1},
		{"ab", "abc", -1},
	}
	for _, c := range cases {
		got, err := Compare(1, 1, StringValue(NewString(c.a)), StringValue(NewString(c.b)))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != c.want {
			t.Errorf("Compare(%q,%q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestCompareTypeMismatch(t *testing.T) {
	_, err := Compare(1, 1, NumberValue(1), StringValue(NewString("1")))
	if err == nil {
		t.Fatal("expected TypeMismatch comparing number to string")
	}
}
