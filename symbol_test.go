package huffc

import "testing"

func TestSymbolRoundTrip(t *testing.T) {
	cases := []struct {
		n uint64
		w int
	}{
		{0, 1},
		{255, 1},
		{0, 2},
		{65535, 2},
		{1, 4},
		{0xdeadbeef, 4},
		{0xffffffffffffffff, 8},
	}

	for _, c := range cases {
		buf := encodeSymbol(c.n, c.w)
		if len(buf) != c.w {
			t.Fatalf("encodeSymbol(%d,%d): got %d bytes", c.n, c.w, len(buf))
		}
		got := decodeSymbol(buf)
		if got != c.n {
			t.Fatalf("round trip %d/%d: got %d", c.n, c.w, got)
		}
	}
}

func TestSymbolBigEndian(t *testing.T) {
	buf := encodeSymbol(0x0102, 2)
	if buf[0] != 0x01 || buf[1] != 0x02 {
		t.Fatalf("expected big-endian [01 02], got %v", buf)
	}
}

func TestSymbolLimit(t *testing.T) {
	if symbolLimit(1) != 256 {
		t.Fatalf("symbolLimit(1) = %d", symbolLimit(1))
	}
	if symbolLimit(8) != 0 {
		t.Fatalf("symbolLimit(8) should signal no limit, got %d", symbolLimit(8))
	}
}

func TestCheckSymbolWidth(t *testing.T) {
	if err := checkSymbolWidth(0); err == nil {
		t.Fatal("expected error for width 0")
	}
	if err := checkSymbolWidth(9); err == nil {
		t.Fatal("expected error for width 9")
	}
	if err := checkSymbolWidth(4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
