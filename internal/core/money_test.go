package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
		ok    bool
	}{
		{"250", 25000, true},
		{"12.34", 1234, true},
		{"12.345", 1234, true}, // rounds down
		{"12.346", 1235, true}, // rounds up
		{"0.01", 1, true},
		{".50", 50, true},
		{"0", 0, false},
		{"0.00", 0, false},
		{"-5", 0, false},
		{"+5", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"92233720368547758.08", 0, false}, // overflow guard
	}
	for _, tc := range cases {
		m, err := ParseAmount(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("%q: expected ok, got %v", tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
		if tc.ok && m.Cents != tc.cents {
			t.Fatalf("%q: got %d cents, want %d", tc.in, m.Cents, tc.cents)
		}
	}
}

func TestMoneyAmount(t *testing.T) {
	if got := (Money{Cents: 1234}).Amount(); got != 12.34 {
		t.Fatalf("got %v", got)
	}
	if got := (Money{Cents: 25000}).Amount(); got != 250 {
		t.Fatalf("got %v", got)
	}
}
