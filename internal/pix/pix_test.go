package pix

import (
	"strings"
	"testing"
)

// 0x29B1 is the CRC-16/CCITT-FALSE check value for "123456789".
func TestChecksumKnownValue(t *testing.T) {
	if got := Checksum("123456789"); got != 0x29B1 {
		t.Fatalf("Checksum(\"123456789\") = %#04X, want 0x29B1", got)
	}
}

func TestEncodeStructure(t *testing.T) {
	payload := Encode("festa@ibgp.org", "IBGP", "GOIANIA", 150.00)

	wantPrefix := "000201" + // payload format indicator
		"010211" + // static point of initiation
		"26360014br.gov.bcb.pix0114festa@ibgp.org" +
		"52040000" +
		"5303986" +
		"5406150.00" +
		"5802BR" +
		"5904IBGP" +
		"6007GOIANIA" +
		"62070503***" +
		"6304"
	if !strings.HasPrefix(payload, wantPrefix) {
		t.Fatalf("payload = %q, want prefix %q", payload, wantPrefix)
	}
	if len(payload) != len(wantPrefix)+4 {
		t.Fatalf("payload length = %d, want %d", len(payload), len(wantPrefix)+4)
	}

	crc := payload[len(payload)-4:]
	if crc != strings.ToUpper(crc) {
		t.Errorf("CRC suffix %q is not uppercase", crc)
	}
	if want := payload[:len(payload)-4]; Checksum(want) != mustParseHex(t, crc) {
		t.Errorf("CRC suffix %q does not match checksum of payload prefix", crc)
	}
}

func TestEncodeDeterministic(t *testing.T) {
	a := Encode("chave@pix.com", "Igreja Batista", "SAO PAULO", 100.00)
	b := Encode("chave@pix.com", "Igreja Batista", "SAO PAULO", 100.00)
	if a != b {
		t.Fatalf("encoding is not deterministic:\n%q\n%q", a, b)
	}
}

// Changing the amount must change only the 54 field and the trailing CRC.
func TestEncodeAmountChangesOnlyAmountField(t *testing.T) {
	a := Encode("chave@pix.com", "IBGP", "GOIANIA", 100.00)
	b := Encode("chave@pix.com", "IBGP", "GOIANIA", 150.00)

	if a == b {
		t.Fatal("different amounts produced identical payloads")
	}
	if !strings.Contains(a, "5406100.00") || !strings.Contains(b, "5406150.00") {
		t.Fatalf("amount fields not found:\n%q\n%q", a, b)
	}
	// Everything up to the amount field is unchanged.
	ia := strings.Index(a, "5406100.00")
	ib := strings.Index(b, "5406150.00")
	if ia != ib || a[:ia] != b[:ib] {
		t.Errorf("prefixes before amount differ:\n%q\n%q", a[:ia], b[:ib])
	}
	// Everything between the amount field and the CRC is unchanged.
	tailA := a[ia+len("5406100.00") : len(a)-4]
	tailB := b[ib+len("5406150.00") : len(b)-4]
	if tailA != tailB {
		t.Errorf("suffixes after amount differ:\n%q\n%q", tailA, tailB)
	}
}

// Mutating any single character of the pre-CRC payload must change the CRC.
func TestChecksumSensitivity(t *testing.T) {
	payload := Encode("chave@pix.com", "IBGP", "GOIANIA", 150.00)
	prefix := payload[:len(payload)-4]
	original := Checksum(prefix)

	for i := 0; i < len(prefix); i++ {
		mutated := []byte(prefix)
		mutated[i] ^= 0x01
		if Checksum(string(mutated)) == original {
			t.Fatalf("mutating byte %d did not change the checksum", i)
		}
	}

	if Checksum(prefix[:len(prefix)-1]) == original {
		t.Error("truncating the payload did not change the checksum")
	}
}

func TestEncodeAmountFormatting(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{amount: 0, want: "54040.00"},
		{amount: 50, want: "540550.00"},
		{amount: 100, want: "5406100.00"},
		{amount: 150.5, want: "5406150.50"},
		{amount: 1234.56, want: "54071234.56"},
	}
	for _, tt := range tests {
		payload := Encode("chave@pix.com", "IBGP", "GOIANIA", tt.amount)
		if !strings.Contains(payload, tt.want) {
			t.Errorf("Encode(amount=%v) missing %q in %q", tt.amount, tt.want, payload)
		}
	}
}

func mustParseHex(t *testing.T, s string) uint16 {
	t.Helper()
	var v uint16
	for i := 0; i < len(s); i++ {
		c := s[i]
		var d uint16
		switch {
		case c >= '0' && c <= '9':
			d = uint16(c - '0')
		case c >= 'A' && c <= 'F':
			d = uint16(c-'A') + 10
		default:
			t.Fatalf("invalid hex digit %q in %q", c, s)
		}
		v = v<<4 | d
	}
	return v
}
