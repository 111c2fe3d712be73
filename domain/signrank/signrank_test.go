package signrank

import (
	"errors"
	"math"
	"testing"

	"goposthoc/domain/core"
)

const tol = 1e-9

func TestCrossMethodAgreement(t *testing.T) {
	for n := 1; n <= 12; n++ {
		for s := 0; s <= MaxSum(n); s++ {
			rec, err := PMF(s, n, MethodRecursive)
			if err != nil {
				t.Fatalf("recursive pmf(%d,%d): %v", s, n, err)
			}
			enum, err := PMF(s, n, MethodEnumerate)
			if err != nil {
				t.Fatalf("enumerate pmf(%d,%d): %v", s, n, err)
			}
			shift, err := PMF(s, n, MethodShift)
			if err != nil {
				t.Fatalf("shift pmf(%d,%d): %v", s, n, err)
			}
			if math.Abs(rec-enum) > tol || math.Abs(rec-shift) > tol {
				t.Fatalf("pmf(%d,%d) disagreement: recursive=%v enumerate=%v shift=%v", s, n, rec, enum, shift)
			}
		}
	}
}

func TestPMFNormalization(t *testing.T) {
	for n := 1; n <= 12; n++ {
		total := 0.0
		for s := 0; s <= MaxSum(n); s++ {
			p, err := PMF(s, n, MethodShift)
			if err != nil {
				t.Fatalf("pmf(%d,%d): %v", s, n, err)
			}
			total += p
		}
		if math.Abs(total-1.0) > tol {
			t.Errorf("n=%d: pmf sums to %v, want 1.0", n, total)
		}
	}
}

func TestPMFSymmetry(t *testing.T) {
	for n := 1; n <= 12; n++ {
		max := MaxSum(n)
		for s := 0; s <= max; s++ {
			lo, _ := PMF(s, n, MethodShift)
			hi, _ := PMF(max-s, n, MethodShift)
			if math.Abs(lo-hi) > tol {
				t.Fatalf("n=%d: pmf(%d)=%v != pmf(%d)=%v", n, s, lo, max-s, hi)
			}
		}
	}
}

func TestCDFMonotoneWithBoundaries(t *testing.T) {
	for n := 1; n <= 12; n++ {
		below, err := CDF(-1, n, MethodShift)
		if err != nil || below != 0 {
			t.Fatalf("n=%d: cdf(-1)=%v err=%v, want 0", n, below, err)
		}
		top, err := CDF(MaxSum(n), n, MethodShift)
		if err != nil || top != 1 {
			t.Fatalf("n=%d: cdf(max)=%v err=%v, want 1", n, top, err)
		}
		prev := 0.0
		for s := 0; s <= MaxSum(n); s++ {
			c, err := CDF(s, n, MethodShift)
			if err != nil {
				t.Fatalf("cdf(%d,%d): %v", s, n, err)
			}
			if c < prev-tol {
				t.Fatalf("n=%d: cdf decreased at %d: %v < %v", n, s, c, prev)
			}
			prev = c
		}
	}
}

func TestConcreteN4(t *testing.T) {
	// n=4, maxSum=10. Only the empty subset sums to 0; {1,4} and {2,3}
	// sum to 5.
	p0, err := PMF(0, 4, MethodShift)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(p0-1.0/16.0) > tol {
		t.Errorf("pmf(0,4)=%v, want 1/16", p0)
	}
	p5, _ := PMF(5, 4, MethodShift)
	if math.Abs(p5-2.0/16.0) > tol {
		t.Errorf("pmf(5,4)=%v, want 2/16", p5)
	}
	c10, _ := CDF(10, 4, MethodShift)
	if c10 != 1.0 {
		t.Errorf("cdf(10,4)=%v, want 1", c10)
	}
}

func TestOutOfRangeIsZeroNotError(t *testing.T) {
	for _, s := range []int{-5, -1, 11, 100} {
		p, err := PMF(s, 4, MethodShift)
		if err != nil {
			t.Fatalf("pmf(%d,4): unexpected error %v", s, err)
		}
		if p != 0 {
			t.Errorf("pmf(%d,4)=%v, want 0", s, p)
		}
	}
}

func TestInvalidSampleSize(t *testing.T) {
	for _, n := range []int{0, -1, -10} {
		if _, err := PMF(3, n, MethodShift); !errors.Is(err, core.ErrInvalidSampleSize) {
			t.Errorf("pmf with n=%d: got %v, want ErrInvalidSampleSize", n, err)
		}
		if _, err := New(n); !errors.Is(err, core.ErrInvalidSampleSize) {
			t.Errorf("New(%d): got %v, want ErrInvalidSampleSize", n, err)
		}
	}
}

func TestExpensiveMethodsAreCapped(t *testing.T) {
	if _, err := PMF(10, MaxRecursiveN+1, MethodRecursive); !errors.Is(err, core.ErrComputationTooExpensive) {
		t.Errorf("recursive beyond cap: got %v, want ErrComputationTooExpensive", err)
	}
	if _, err := CDF(10, MaxEnumerateN+1, MethodEnumerate); !errors.Is(err, core.ErrComputationTooExpensive) {
		t.Errorf("enumerate beyond cap: got %v, want ErrComputationTooExpensive", err)
	}
	// The shift method has no practical ceiling.
	if _, err := PMF(10, 200, MethodShift); err != nil {
		t.Errorf("shift with n=200: unexpected error %v", err)
	}
}

func TestParseMethod(t *testing.T) {
	if m, err := ParseMethod(""); err != nil || m != DefaultMethod {
		t.Errorf("ParseMethod(\"\") = %v, %v; want default", m, err)
	}
	if _, err := ParseMethod("simulate"); !errors.Is(err, core.ErrUnknownMethod) {
		t.Errorf("ParseMethod(simulate): got %v, want ErrUnknownMethod", err)
	}
}

func TestRotateAdd(t *testing.T) {
	// Rotation brings the last shift elements to the front.
	got := rotateAdd([]float64{1, 2, 3, 4}, 1)
	want := []float64{5, 3, 5, 7} // {1,2,3,4} + {4,1,2,3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rotateAdd shift=1: got %v, want %v", got, want)
		}
	}
	got = rotateAdd([]float64{1, 2, 3, 4}, 3)
	want = []float64{3, 5, 7, 5} // {1,2,3,4} + {2,3,4,1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rotateAdd shift=3: got %v, want %v", got, want)
		}
	}
}

func TestDistMatchesDispatch(t *testing.T) {
	for _, n := range []int{1, 4, 9, 12} {
		d, err := New(n)
		if err != nil {
			t.Fatal(err)
		}
		for s := -1; s <= MaxSum(n)+1; s++ {
			want, _ := PMF(s, n, MethodShift)
			if got := d.PMF(s); math.Abs(got-want) > tol {
				t.Fatalf("n=%d: Dist.PMF(%d)=%v, want %v", n, s, got, want)
			}
			wantC, _ := CDF(s, n, MethodShift)
			if got := d.CDF(s); math.Abs(got-wantC) > tol {
				t.Fatalf("n=%d: Dist.CDF(%d)=%v, want %v", n, s, got, wantC)
			}
		}
	}
}

func TestDistUpperTail(t *testing.T) {
	d, err := New(6)
	if err != nil {
		t.Fatal(err)
	}
	for s := 0; s <= d.MaxSum(); s++ {
		lower := d.CDF(s - 1)
		upper := d.UpperTail(s)
		if math.Abs(lower+upper-1.0) > tol {
			t.Fatalf("s=%d: CDF(s-1)+UpperTail(s)=%v, want 1", s, lower+upper)
		}
	}
}
