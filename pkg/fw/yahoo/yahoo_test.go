package yahoo

import (
	"math"
	"testing"
)

func TestSymbol(t *testing.T) {
	if s, ok := Symbol("usINX"); !ok || s != "^GSPC" {
		t.Errorf("Symbol(usINX) = %q, %v", s, ok)
	}
	if _, ok := Symbol("sh000001"); ok {
		t.Error("Symbol(sh000001) ok = true, want false")
	}
}

func TestParseFmt(t *testing.T) {
	for in, want := range map[string]float64{
		"1.23%":     1.23,
		"-0.21%":    -0.21,
		"16,190.02": 16190.02,
		"":          0,
		"N/A":       0,
	} {
		if got := parseFmt(in); got != want {
			t.Errorf("parseFmt(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestBack(t *testing.T) {
	prev, change := back(110, 10)
	if math.Abs(prev-100) > 1e-9 || math.Abs(change-10) > 1e-9 {
		t.Errorf("back(110, 10) = %v, %v, want 100, 10", prev, change)
	}
	if prev, change := back(0, 5); prev != 0 || change != 0 {
		t.Errorf("back(0, 5) = %v, %v", prev, change)
	}
}
