// Package adjust implements multiple-comparison p-value adjustment
// controlling the family-wise error rate or the false discovery rate.
//
// All methods preserve the caller's ordering: internally the vector is
// stable-sorted, the stepwise scan runs over the sorted sequence, and the
// result is unsorted back to the original indices.
package adjust

import (
	"math"
	"sort"

	"goposthoc/domain/core"
)

// Method names a multiple-comparison procedure.
type Method string

const (
	MethodNone           Method = "none"
	MethodBonferroni     Method = "bonferroni"
	MethodSidak          Method = "sidak"
	MethodHolm           Method = "holm"
	MethodHolmSidak      Method = "holm-sidak"
	MethodHochberg       Method = "hochberg"
	MethodHommel         Method = "hommel"
	MethodHommelOriginal Method = "hommel-original"
	MethodBH             Method = "bh"
	MethodBY             Method = "by"
)

// DefaultMethod is the family correction applied when callers have no
// preference.
const DefaultMethod = MethodBH

// DefaultAlpha is the significance level consumed by the alpha-dependent
// hommel-original variant. All other methods ignore it.
const DefaultAlpha = 0.05

// Methods lists every supported method.
func Methods() []Method {
	return []Method{
		MethodNone, MethodBonferroni, MethodSidak, MethodHolm,
		MethodHolmSidak, MethodHochberg, MethodHommel,
		MethodHommelOriginal, MethodBH, MethodBY,
	}
}

// ParseMethod validates a method name at the API boundary.
func ParseMethod(s string) (Method, error) {
	if s == "" {
		return DefaultMethod, nil
	}
	for _, m := range Methods() {
		if Method(s) == m {
			return m, nil
		}
	}
	return "", core.NewUnknownMethodError("adjustment method", s)
}

// Adjust computes adjusted p-values with DefaultAlpha.
func Adjust(pValues []float64, method Method) ([]float64, error) {
	return AdjustWithAlpha(pValues, method, DefaultAlpha)
}

// AdjustWithAlpha computes adjusted p-values for the given method. The
// output has the same length and index correspondence as the input; every
// value lies in [0,1] and, for every method except none, is >= the raw
// value at the same index.
func AdjustWithAlpha(pValues []float64, method Method, alpha float64) ([]float64, error) {
	for i, p := range pValues {
		if p < 0 || p > 1 || math.IsNaN(p) {
			return nil, core.NewInvalidPValueError(i, p)
		}
	}
	k := len(pValues)
	if k == 0 {
		return []float64{}, nil
	}

	switch method {
	case MethodNone:
		return append([]float64(nil), pValues...), nil
	case MethodBonferroni:
		return mapEach(pValues, func(p float64) float64 { return clip(p * float64(k)) }), nil
	case MethodSidak:
		return mapEach(pValues, func(p float64) float64 { return clip(1 - math.Pow(1-p, float64(k))) }), nil
	case MethodHolm:
		return stepDown(pValues, func(p float64, rank int) float64 {
			return p * float64(k+1-rank)
		}), nil
	case MethodHolmSidak:
		return stepDown(pValues, func(p float64, rank int) float64 {
			return 1 - math.Pow(1-p, float64(k-rank+1))
		}), nil
	case MethodHochberg:
		return hochberg(pValues), nil
	case MethodHommel:
		return hommel(pValues), nil
	case MethodHommelOriginal:
		return hommelOriginal(pValues, alpha), nil
	case MethodBH:
		return stepUp(pValues, 1.0), nil
	case MethodBY:
		return stepUp(pValues, harmonic(k)), nil
	}
	return nil, core.NewUnknownMethodError("adjustment method", string(method))
}

// sortedOrder returns the input indices stable-sorted by ascending
// p-value. Stability keeps unsorting reproducible when raw values tie.
func sortedOrder(p []float64) []int {
	order := make([]int, len(p))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return p[order[a]] < p[order[b]] })
	return order
}

// stepDown runs a Holm-family scan: ascending order, each adjusted value
// bounded below by the previous one.
func stepDown(p []float64, transform func(p float64, rank int) float64) []float64 {
	order := sortedOrder(p)
	out := make([]float64, len(p))
	running := 0.0
	for i, idx := range order {
		adj := clip(transform(p[idx], i+1))
		if adj < running {
			adj = running
		}
		running = adj
		out[idx] = adj
	}
	return out
}

// hochberg runs the step-up scan in descending order: the largest p-value
// passes through unscaled, and each smaller one is bounded above by its
// predecessor.
func hochberg(p []float64) []float64 {
	order := sortedOrder(p)
	out := make([]float64, len(p))
	running := 1.0
	for i := len(order) - 1; i >= 0; i-- {
		idx := order[i]
		descRank := len(order) - i // 1 for the maximum
		adj := clip(p[idx] * float64(descRank))
		if adj > running {
			adj = running
		}
		running = adj
		out[idx] = adj
	}
	return out
}

// stepUp runs the BH/BY backward walk from the largest rank. scale is 1
// for BH and the harmonic correction C(k) for BY.
func stepUp(p []float64, scale float64) []float64 {
	order := sortedOrder(p)
	k := len(order)
	out := make([]float64, k)
	running := 1.0
	for i := k - 1; i >= 0; i-- {
		idx := order[i]
		rank := i + 1
		adj := clip(p[idx] * float64(k) * scale / float64(rank))
		if adj > running {
			adj = running
		}
		running = adj
		out[idx] = adj
	}
	return out
}

// hommel implements the Wright (1992) closed adjustment. a holds the
// running adjusted values over the ascending-sorted sequence; each pass
// over m raises them where the pass's bound exceeds them.
func hommel(p []float64) []float64 {
	order := sortedOrder(p)
	k := len(order)
	ps := make([]float64, k)
	for i, idx := range order {
		ps[i] = p[idx]
	}

	a := append([]float64(nil), ps...)
	for m := k; m >= 2; m-- {
		// Indices i > k-m (1-based): c_i = m*p_(i)/(m+i-k).
		cMin := math.Inf(1)
		for i := k - m + 1; i <= k; i++ {
			c := float64(m) * ps[i-1] / float64(m+i-k)
			if c < cMin {
				cMin = c
			}
		}
		for i := k - m + 1; i <= k; i++ {
			if a[i-1] < cMin {
				a[i-1] = cMin
			}
		}
		// Indices i <= k-m: c_i = min(cMin, m*p_(i)).
		for i := 1; i <= k-m; i++ {
			c := math.Min(cMin, float64(m)*ps[i-1])
			if a[i-1] < c {
				a[i-1] = c
			}
		}
	}

	out := make([]float64, k)
	for i, idx := range order {
		out[idx] = clip(a[i])
	}
	return out
}

// hommelOriginal implements Hommel (1988): a single global multiplier
// derived from the largest i whose top-i sorted p-values all clear the
// stepped alpha thresholds.
func hommelOriginal(p []float64, alpha float64) []float64 {
	order := sortedOrder(p)
	k := len(order)
	ps := make([]float64, k)
	for i, idx := range order {
		ps[i] = p[idx]
	}

	iHommel := 0
	for i := k; i >= 1; i-- {
		ok := true
		for j := 1; j <= i; j++ {
			if !(ps[k-i+j-1] > float64(j)*alpha/float64(i)) {
				ok = false
				break
			}
		}
		if ok {
			iHommel = i
			break
		}
	}

	out := make([]float64, k)
	for i := range p {
		if iHommel == 0 {
			out[i] = 1
		} else {
			out[i] = clip(p[i] * float64(iHommel))
		}
	}
	return out
}

// harmonic returns C(k) = sum_{j=1..k} 1/j.
func harmonic(k int) float64 {
	c := 0.0
	for j := 1; j <= k; j++ {
		c += 1 / float64(j)
	}
	return c
}

func mapEach(p []float64, f func(float64) float64) []float64 {
	out := make([]float64, len(p))
	for i, v := range p {
		out[i] = f(v)
	}
	return out
}

func clip(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
