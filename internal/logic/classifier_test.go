package logic

import (
	"testing"
	"time"
)

func us(n ...int) []time.Duration {
	out := make([]time.Duration, len(n))
	for i, v := range n {
		out[i] = time.Duration(v) * time.Microsecond
	}
	return out
}

// necLike builds a NEC-shaped frame: leader, 32 data bits, stop mark.
func necLike(code uint32, scale float64) []time.Duration {
	s := func(v int) time.Duration {
		return time.Duration(float64(v)*scale) * time.Microsecond
	}
	edges := []time.Duration{s(9000), s(4500)}
	for i := 0; i < 32; i++ {
		edges = append(edges, s(560))
		if code&(1<<uint(i)) != 0 {
			edges = append(edges, s(1690))
		} else {
			edges = append(edges, s(560))
		}
	}
	return append(edges, s(560))
}

func TestClassifyPair(t *testing.T) {
	tests := []struct {
		name        string
		mark, space int
		want        Symbol
	}{
		{"short", 100, 300, SymbolShort},
		{"just below half", 49, 100, SymbolShort},
		{"exactly half", 50, 100, SymbolEqual},
		{"equal", 560, 560, SymbolEqual},
		{"just below 1.5", 149, 100, SymbolEqual},
		{"exactly 1.5", 150, 100, SymbolLong},
		{"long", 9000, 4500, SymbolLong},
		{"zero space", 560, 0, SymbolEqual},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyPair(time.Duration(tt.mark)*time.Microsecond, time.Duration(tt.space)*time.Microsecond)
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyKnownValues(t *testing.T) {
	tests := []struct {
		name  string
		edges []time.Duration
		want  Fingerprint
	}{
		{"equal then short", us(100, 100, 100, 300), 3950255460},
		{"short equal long", us(100, 300, 500, 500, 900, 300), 581859880},
		{"trailing edge skipped", us(100, 300, 500, 500, 900, 300, 12345), 581859880},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(tt.edges)
			if !ok {
				t.Fatal("expected a fingerprint")
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClassifyInsufficientData(t *testing.T) {
	for n := 0; n < 4; n++ {
		edges := make([]time.Duration, n)
		for i := range edges {
			edges[i] = 500 * time.Microsecond
		}
		if fp, ok := Classify(edges); ok {
			t.Errorf("%d edges: expected insufficient data, got %d", n, fp)
		}
	}
	if _, ok := Classify(us(500, 500, 500, 500)); !ok {
		t.Error("4 edges: expected a fingerprint")
	}
}

func TestClassifyScaleInvariant(t *testing.T) {
	base, ok := Classify(necLike(0x20DF10EF, 1.0))
	if !ok {
		t.Fatal("expected a fingerprint")
	}
	for _, scale := range []float64{0.8, 0.93, 1.1, 1.25} {
		got, ok := Classify(necLike(0x20DF10EF, scale))
		if !ok {
			t.Fatalf("scale %.2f: expected a fingerprint", scale)
		}
		if got != base {
			t.Errorf("scale %.2f: got %d, want %d", scale, got, base)
		}
	}
}

func TestClassifyDistinguishesCodes(t *testing.T) {
	a, _ := Classify(necLike(0x20DF10EF, 1.0))
	b, _ := Classify(necLike(0x20DF906F, 1.0))
	if a == b {
		t.Errorf("different codes produced the same fingerprint %d", a)
	}
}

func TestSymbols(t *testing.T) {
	got := Symbols(us(9000, 4500, 560, 560, 560, 1690, 560))
	want := []Symbol{SymbolLong, SymbolEqual, SymbolShort}
	if len(got) != len(want) {
		t.Fatalf("got %d symbols, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("symbol %d: got %s, want %s", i, got[i], want[i])
		}
	}
}
