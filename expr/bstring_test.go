package expr

import "testing"

func TestStringBasics(t *testing.T) {
	s := NewString("hello")
	if s.Length() != 5 {
		t.Fatalf("Length() = %d, want 5", s.Length())
	}
	if b, ok := s.ByteAt(0); !ok || b != 'h' {
		t.Fatalf("ByteAt(0) = %v,%v, want 'h',true", b, ok)
	}
	if _, ok := s.ByteAt(5); ok {
		t.Fatal("ByteAt(5) should be out of range")
	}
}

func TestStringSubstring(t *testing.T) {
	s := NewString("hello world")
	sub, ok := s.Substring(6, 5)
	if !ok || sub.String() != "world" {
		t.Fatalf("Substring(6,5) = %q,%v, want \"world\",true", sub.String(), ok)
	}
	if _, ok := s.Substring(6, 100); ok {
		t.Fatal("Substring past the end should fail")
	}
}

func TestStringConcat(t *testing.T) {
	a := NewString("foo")
	b := NewString("bar")
	if got := a.Concat(b).String(); got != "foobar" {
		t.Errorf("Concat = %q, want %q", got, "foobar")
	}
}

func TestStringRepeat(t *testing.T) {
	s := NewString("ab")
	rep, ok := s.Repeat(3)
	if !ok || rep.String() != "ababab" {
		t.Fatalf("Repeat(3) = %q,%v", rep.String(), ok)
	}
	rep0, ok := s.Repeat(0)
	if !ok || rep0.Length() != 0 {
		t.Fatalf("Repeat(0) = %q,%v", rep0.String(), ok)
	}
}

func TestStringCase(t *testing.T) {
	s := NewString("MiXeD")
	if got := s.Upper().String(); got != "MIXED" {
		t.Errorf("Upper() = %q, want %q", got, "MIXED")
	}
	if got := s.Lower().String(); got != "mixed" {
		t.Errorf("Lower() = %q, want %q", got, "mixed")
	}
}

func TestStringIsImmutableCopy(t *testing.T) {
	b := []byte("hello")
	s := NewStringFromBytes(b)
	b[0] = 'X'
	if s.String() != "hello" {
		t.Errorf("String() = %q, want %q (mutating the source slice leaked through)", s.String(), "hello")
	}
}
