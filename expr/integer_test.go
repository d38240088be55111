package expr

import "testing"

func TestToIntegerRange(t *testing.T) {
	cases := []struct {
		in      float64
		want    int32
		wantErr bool
	}{
		{0, 0, false},
		{2147483647, 2147483647, false},
		{-2147483648, -2147483648, false},
		{4294967295, -1, false},
		{4294967294, -2, false},
		{4294967296, 0, true},
		{-2147483649, 0, true},
	}
	for _, c := range cases {
		got, err := toInteger(1, 1, c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("toInteger(%v): expected an error", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("toInteger(%v): unexpected error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("toInteger(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestConvertDoubleToIntTruncates(t *testing.T) {
	cases := []struct {
		in   float64
		want int32
	}{
		{3.9, 3},
		{-3.9, -3},
		{3.1, 3},
	}
	for _, c := range cases {
		got, err := convertDoubleToInt(1, 1, c.in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != c.want {
			t.Errorf("convertDoubleToInt(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
