package slproto

import "testing"

func TestV3HexRoundTrip(t *testing.T) {
	cases := []SequenceNumber{0, 1, 255, 0xABCDEF, V3Max}
	for _, c := range cases {
		hex := c.V3Hex()
		got, err := ParseV3Hex(hex)
		if err != nil {
			t.Fatalf("ParseV3Hex(%q): %v", hex, err)
		}
		if got != c {
			t.Fatalf("round trip mismatch: %d -> %q -> %d", c, hex, got)
		}
	}
}

func TestV3HexUppercase(t *testing.T) {
	if got := SequenceNumber(0xabcdef).V3Hex(); got != "ABCDEF" {
		t.Fatalf("expected uppercase hex, got %q", got)
	}
}

func TestV3HexLowercaseAccepted(t *testing.T) {
	got, err := ParseV3Hex("00002a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestV3HexRejectsWrongLength(t *testing.T) {
	if _, err := ParseV3Hex("2A"); err == nil {
		t.Fatal("expected error for short hex")
	}
	if _, err := ParseV3Hex("0000002A"); err == nil {
		t.Fatal("expected error for long hex")
	}
}

func TestV4DecimalRoundTrip(t *testing.T) {
	s := SequenceNumber(123456789)
	dec := s.V4Decimal()
	got, err := ParseV4Decimal(dec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != s {
		t.Fatalf("round trip mismatch: %d -> %q -> %d", s, dec, got)
	}
}

func TestV4LEBytesRoundTrip(t *testing.T) {
	s := SequenceNumber(0x0102030405060708)
	b := s.V4LEBytes()
	got := SequenceFromV4LEBytes(b[:])
	if got != s {
		t.Fatalf("round trip mismatch: %d -> %v -> %d", s, b, got)
	}
}

func TestNextWrapsAtV3Max(t *testing.T) {
	if got := V3Max.Next(); got != 1 {
		t.Fatalf("expected wrap to 1, got %d", got)
	}
	if got := SequenceNumber(V3Max - 1).Next(); got != V3Max {
		t.Fatalf("expected V3Max, got %d", got)
	}
}

func TestIsSpecial(t *testing.T) {
	if !Unset.IsSpecial() || !AllData.IsSpecial() {
		t.Fatal("sentinels should be special")
	}
	if SequenceNumber(1).IsSpecial() {
		t.Fatal("ordinary sequence should not be special")
	}
}

func TestStringSentinels(t *testing.T) {
	if Unset.String() != "UNSET" {
		t.Fatalf("got %q", Unset.String())
	}
	if AllData.String() != "ALL_DATA" {
		t.Fatalf("got %q", AllData.String())
	}
	if SequenceNumber(42).String() != "42" {
		t.Fatalf("got %q", SequenceNumber(42).String())
	}
}
