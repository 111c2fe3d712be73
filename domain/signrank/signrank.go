// Package signrank computes the exact null distribution of the Wilcoxon
// signed-rank statistic: the sum of a random subset of the ranks 1..n,
// each rank included independently with probability 1/2.
package signrank

import (
	"goposthoc/domain/core"
)

// Method selects the algorithm used to build the distribution.
type Method string

const (
	// MethodRecursive evaluates the subset-count recurrence directly.
	// Exponential without memoization; reference/oracle use only.
	MethodRecursive Method = "recursive"
	// MethodEnumerate walks all 2^n inclusion vectors. Brute-force cross-check.
	MethodEnumerate Method = "enumerate"
	// MethodShift builds the generating function by iterated rotate-and-add
	// convolution. Polynomial cost; the practical default.
	MethodShift Method = "shift"
)

// DefaultMethod is the algorithm used when callers have no preference.
const DefaultMethod = MethodShift

const (
	// MaxRecursiveN caps the un-memoized recurrence.
	MaxRecursiveN = 25
	// MaxEnumerateN caps full enumeration (2^n vectors).
	MaxEnumerateN = 20
)

// ParseMethod validates a method name at the API boundary.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodRecursive, MethodEnumerate, MethodShift:
		return Method(s), nil
	case "":
		return DefaultMethod, nil
	}
	return "", core.NewUnknownMethodError("signrank method", s)
}

// MaxSum returns the largest attainable rank sum for sample size n.
func MaxSum(n int) int {
	return n * (n + 1) / 2
}

// PMF returns the probability that the rank-subset sum equals exactly t.
// Out-of-range t yields 0 rather than an error; n < 1 is a contract
// violation.
func PMF(t, n int, method Method) (float64, error) {
	if err := checkArgs(n, method); err != nil {
		return 0, err
	}
	if t < 0 || t > MaxSum(n) {
		return 0, nil
	}
	switch method {
	case MethodRecursive:
		return float64(countRecursive(t, n)) / pow2(n), nil
	case MethodEnumerate:
		freq := enumerate(n)
		return freq[t] / sum(freq), nil
	default:
		freq := shiftTable(n)
		return freq[t] / sum(freq), nil
	}
}

// CDF returns the probability that the rank-subset sum is <= t.
func CDF(t, n int, method Method) (float64, error) {
	if err := checkArgs(n, method); err != nil {
		return 0, err
	}
	if t < 0 {
		return 0, nil
	}
	if t >= MaxSum(n) {
		return 1, nil
	}
	switch method {
	case MethodRecursive:
		total := int64(0)
		for i := 0; i <= t; i++ {
			total += countRecursive(i, n)
		}
		return float64(total) / pow2(n), nil
	case MethodEnumerate:
		return cumulative(enumerate(n), t), nil
	default:
		return cumulative(shiftTable(n), t), nil
	}
}

func checkArgs(n int, method Method) error {
	if n < 1 {
		return core.NewInvalidSampleSizeError(n)
	}
	switch method {
	case MethodRecursive:
		if n > MaxRecursiveN {
			return core.NewTooExpensiveError(string(method), n, MaxRecursiveN)
		}
	case MethodEnumerate:
		if n > MaxEnumerateN {
			return core.NewTooExpensiveError(string(method), n, MaxEnumerateN)
		}
	case MethodShift:
	default:
		return core.NewUnknownMethodError("signrank method", string(method))
	}
	return nil
}

// countRecursive counts subsets of ranks 1..y summing to exactly x.
// Rank y is either included (contributing y) or excluded.
func countRecursive(x, y int) int64 {
	if x < 0 || x > MaxSum(y) {
		return 0
	}
	if y == 1 {
		if x == 0 || x == 1 {
			return 1
		}
		return 0
	}
	return countRecursive(x-y, y-1) + countRecursive(x, y-1)
}

// enumerate builds the frequency table over all 2^n inclusion vectors.
func enumerate(n int) []float64 {
	freq := make([]float64, MaxSum(n)+1)
	for mask := 0; mask < 1<<uint(n); mask++ {
		s := 0
		for i := 1; i <= n; i++ {
			if mask&(1<<uint(i-1)) != 0 {
				s += i
			}
		}
		freq[s]++
	}
	return freq
}

// shiftTable builds the unnormalized count table by convolving with
// (1 + x^i) for i = 1..n, starting from the constant polynomial 1.
func shiftTable(n int) []float64 {
	freq := make([]float64, MaxSum(n)+1)
	freq[0] = 1
	for i := 1; i <= n; i++ {
		freq = rotateAdd(freq, i)
	}
	return freq
}

// rotateAdd returns freq plus a copy of freq rotated forward by shift
// positions: the last shift elements wrap to the front. The wraparound is
// load-bearing; the valid coefficient range never reaches it, but the
// table is defined in terms of this rotation.
func rotateAdd(freq []float64, shift int) []float64 {
	k := len(freq)
	shift %= k
	out := make([]float64, k)
	for j := 0; j < k; j++ {
		out[j] = freq[j] + freq[(j-shift+k)%k]
	}
	return out
}

func sum(freq []float64) float64 {
	t := 0.0
	for _, f := range freq {
		t += f
	}
	return t
}

func cumulative(freq []float64, t int) float64 {
	if t >= len(freq) {
		t = len(freq) - 1
	}
	c := 0.0
	for i := 0; i <= t; i++ {
		c += freq[i]
	}
	return c / sum(freq)
}

func pow2(n int) float64 {
	return float64(int64(1) << uint(n))
}
