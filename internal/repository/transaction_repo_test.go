package repository

import "testing"

func TestFormatTransactionCode(t *testing.T) {
	cases := []struct {
		day  string
		seq  int64
		want string
	}{
		{"20250131", 1, "TRX-20250131-0001"},
		{"20250131", 42, "TRX-20250131-0042"},
		{"20251224", 9999, "TRX-20251224-9999"},
		{"20251224", 10000, "TRX-20251224-10000"}, // padding grows past four digits
	}
	for _, tc := range cases {
		if got := FormatTransactionCode(tc.day, tc.seq); got != tc.want {
			t.Errorf("FormatTransactionCode(%q, %d) = %q, want %q", tc.day, tc.seq, got, tc.want)
		}
	}
}
