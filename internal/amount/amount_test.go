package amount

import (
	"encoding/json"
	"testing"
)

func TestParseAndString(t *testing.T) {
	cases := []struct {
		in    string
		attos string
		text  string
	}{
		{"0", "0", "0"},
		{"1", "1000000000000000000", "1"},
		{"0.0001", "100000000000000", "0.0001"},
		{"800000000", "800000000000000000000000000", "800000000"},
		{"1.5", "1500000000000000000", "1.5"},
		{".25", "250000000000000000", "0.25"},
		{"2.", "2000000000000000000", "2"},
		{"0.000000000000000001", "1", "0.000000000000000001"},
	}

	for _, tc := range cases {
		got, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.in, err)
		}
		if got.Attos() != tc.attos {
			t.Fatalf("parse %q attos mismatch: %s != %s", tc.in, got.Attos(), tc.attos)
		}
		if got.String() != tc.text {
			t.Fatalf("format %q mismatch: %s != %s", tc.in, got.String(), tc.text)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{"", ".", "-1", "+1", "1e5", "abc", "1.0000000000000000001", "1,5"} {
		if _, err := Parse(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestSaturatingArithmetic(t *testing.T) {
	if got := FromAttos(5).SaturatingSub(FromAttos(7)); !got.IsZero() {
		t.Fatalf("sub should clamp at zero, got %s", got.Attos())
	}
	if got := Max.SaturatingAdd(FromAttos(1)); !got.Eq(Max) {
		t.Fatalf("add should clamp at max")
	}
	if got := Max.SaturatingMul(FromAttos(2)); !got.Eq(Max) {
		t.Fatalf("mul should clamp at max")
	}
	if got := FromAttos(10).SaturatingDiv(Zero); !got.Eq(Max) {
		t.Fatalf("div by zero should yield max")
	}
	if got := FromAttos(10).SaturatingDiv(FromAttos(3)); got.Attos() != "3" {
		t.Fatalf("div should floor, got %s", got.Attos())
	}
	if got := FromAttos(1000).MulBps(100); got.Attos() != "10" {
		t.Fatalf("fee mismatch: %s", got.Attos())
	}
	if got := FromAttos(99).MulBps(100); !got.IsZero() {
		t.Fatalf("fee should floor to zero, got %s", got.Attos())
	}
}

func TestBytesRoundTrip(t *testing.T) {
	a := MustParse("12345.678")
	b := FromBytes(a.Bytes())
	if !a.Eq(b) {
		t.Fatalf("bytes round-trip mismatch: %s != %s", a, b)
	}
	if len(a.Bytes()) != 32 {
		t.Fatalf("expected 32 bytes, got %d", len(a.Bytes()))
	}
}

func TestJSONUsesDecimalString(t *testing.T) {
	payload := struct {
		Value Amount `json:"value"`
	}{Value: MustParse("0.5")}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `{"value":"0.5"}` {
		t.Fatalf("unexpected json: %s", data)
	}

	var decoded struct {
		Value Amount `json:"value"`
	}
	if err := json.Unmarshal([]byte(`{"value":"7.25"}`), &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.Value.String() != "7.25" {
		t.Fatalf("decoded mismatch: %s", decoded.Value)
	}
	if err := json.Unmarshal([]byte(`{"value":7}`), &decoded); err == nil {
		t.Fatalf("expected error for numeric json")
	}
}
