package observability

import "testing"

func TestParseHeaders(t *testing.T) {
	got := parseHeaders(" authorization=Bearer x , bad, =nokey, k=v ")
	if len(got) != 2 || got["authorization"] != "Bearer x" || got["k"] != "v" {
		t.Fatalf("unexpected headers: %#v", got)
	}
	if parseHeaders("  ") != nil {
		t.Fatalf("blank header string should yield nil")
	}
}

func TestClampRatio(t *testing.T) {
	for in, want := range map[float64]float64{-1: 0, 0.25: 0.25, 3: 1} {
		if got := clampRatio(in); got != want {
			t.Fatalf("clampRatio(%v) = %v, want %v", in, got, want)
		}
	}
}
