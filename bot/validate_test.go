package bot

import "testing"

func TestNormalizeEmail(t *testing.T) {
	cases := []struct {
		in    string
		out   string
		valid bool
	}{
		{" User@Example.COM ", "user@example.com", true},
		{"a@b.co", "a@b.co", true},
		{"no-at-sign", "", false},
		{"two words@x.co", "", false},
		{"missing@tld", "", false},
	}
	for _, tc := range cases {
		got, ok := normalizeEmail(tc.in)
		if ok != tc.valid {
			t.Errorf("normalizeEmail(%q) valid = %v, want %v", tc.in, ok, tc.valid)
			continue
		}
		if ok && got != tc.out {
			t.Errorf("normalizeEmail(%q) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in    string
		out   float64
		valid bool
	}{
		{"10.5", 10.5, true},
		{"$25.00", 25, true},
		{"1,250.50", 1250.5, true},
		{" $1,000 ", 1000, true},
		{"0", 0, false},
		{"-5", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseAmount(tc.in)
		if ok != tc.valid || got != tc.out {
			t.Errorf("parseAmount(%q) = %v, %v; want %v, %v", tc.in, got, ok, tc.out, tc.valid)
		}
	}
}

func TestNormalizeOTP(t *testing.T) {
	if got := normalizeOTP(" 123 456 "); got != "123456" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalizeAddress(t *testing.T) {
	addr := "0x0123456789abcdef0123456789abcdef01234567"
	if got, ok := normalizeAddress("  " + addr + "  "); !ok || got != addr {
		t.Fatalf("got %q, %v", got, ok)
	}
	if _, ok := normalizeAddress("too short"); ok {
		t.Fatal("accepted a short address")
	}
}
