package cricket

import "testing"

func TestSources_StayInRange(t *testing.T) {
	for name, src := range map[string]Source{
		"crypto": NewCryptoSource(),
		"seeded": NewSeededSource(42),
	} {
		seen := map[int]bool{}
		for i := 0; i < 2000; i++ {
			v := src.UniformInt(MinChoice, MaxChoice)
			if v < MinChoice || v > MaxChoice {
				t.Fatalf("%s: %d out of range", name, v)
			}
			seen[v] = true
		}
		if len(seen) != MaxChoice {
			t.Fatalf("%s: only saw %v", name, seen)
		}
		if got := src.UniformInt(3, 3); got != 3 {
			t.Fatalf("%s: degenerate range returned %d", name, got)
		}
	}
}

func TestSeededSource_Reproducible(t *testing.T) {
	a, b := NewSeededSource(7), NewSeededSource(7)
	for i := 0; i < 50; i++ {
		if x, y := a.UniformInt(0, 100), b.UniformInt(0, 100); x != y {
			t.Fatalf("draw %d differs: %d vs %d", i, x, y)
		}
	}
}
