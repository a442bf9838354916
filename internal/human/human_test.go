package human

import (
	"strconv"
	"testing"
)

func TestFixed2(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{1, "1.00"},
		{11.17, "11.17"},
		{2.675, "2.68"},
		{1.005, "1.01"},
		{0.125, "0.13"},
		{0.124999, "0.12"},
		{9.995, "10.00"},
		{99.999, "100.00"},
		{-1.005, "-1.01"},
		{-0.001, "0.00"},
		{66.66666666666667, "66.67"},
		{1e21, "1000000000000000000000.00"},
	}

	for _, tt := range tests {
		t.Run(strconv.FormatFloat(tt.in, 'g', -1, 64), func(t *testing.T) {
			if got := Fixed2(tt.in); got != tt.want {
				t.Errorf("Fixed2(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		ms   float64
		want string
	}{
		{0, "0.00 ms"},
		{999, "999.00 ms"},
		{1000, "1.00 seconds"},
		{1500, "1.50 seconds"},
		{59999, "60.00 seconds"},
		{60000, "1.00 minutes"},
		{121234, "2.02 minutes"},
		{3600000, "1.00 hours"},
		{5400000, "1.50 hours"},
	}

	for _, tt := range tests {
		got := Duration(tt.ms)
		if got.Text != tt.want {
			t.Errorf("Duration(%v) = %q, want %q", tt.ms, got.Text, tt.want)
		}
		if got.Raw != tt.ms {
			t.Errorf("Duration(%v).Raw = %v, want %v", tt.ms, got.Raw, tt.ms)
		}
	}
}

func TestDurationSortKeyRoundTrips(t *testing.T) {
	for _, ms := range []float64{0, 1, 121234, 0.1, 123456789.125, 3599999.999} {
		key := Duration(ms).SortKey()
		back, err := strconv.ParseFloat(key, 64)
		if err != nil {
			t.Fatalf("SortKey %q is not a number: %v", key, err)
		}
		if back != ms {
			t.Errorf("SortKey round trip = %v, want %v", back, ms)
		}
	}
	if got := Duration(121234).SortKey(); got != "121234" {
		t.Errorf("SortKey = %q, want %q", got, "121234")
	}
}

func TestBytes(t *testing.T) {
	tests := []struct {
		n    float64
		want string
	}{
		{0, "0.00 B"},
		{999, "999.00 B"},
		{1000, "1.00 KB"},
		{1024, "1.02 KB"},
		{1500000, "1.50 MB"},
		{2000000000, "2.00 GB"},
		{5000000000000, "5000.00 GB"},
	}

	for _, tt := range tests {
		if got := Bytes(tt.n).Text; got != tt.want {
			t.Errorf("Bytes(%v) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestMonotonicWithinBand(t *testing.T) {
	prev := -1.0
	for ms := 60000.0; ms < 3600000; ms += 7919 {
		v := Duration(ms)
		n, err := strconv.ParseFloat(v.Text[:len(v.Text)-len(" minutes")], 64)
		if err != nil {
			t.Fatalf("unexpected text %q", v.Text)
		}
		if n < prev {
			t.Fatalf("Duration not monotonic at %v: %v < %v", ms, n, prev)
		}
		prev = n
	}
}

func TestPercentAndCount(t *testing.T) {
	if got := Percent(66.666).Text; got != "66.67%" {
		t.Errorf("Percent = %q, want %q", got, "66.67%")
	}
	if got := Count(1234567); got != "1,234,567" {
		t.Errorf("Count = %q, want %q", got, "1,234,567")
	}
	if got := EpochMillis(0).Text; got != "1970-01-01 00:00:00.000" {
		t.Errorf("EpochMillis = %q", got)
	}
}

func TestRound2(t *testing.T) {
	if got := Round2(33.335); got != 33.34 {
		t.Errorf("Round2(33.335) = %v, want 33.34", got)
	}
}
